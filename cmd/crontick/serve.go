package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/crontick/crontick/internal/command"
	"github.com/crontick/crontick/internal/config"
	"github.com/crontick/crontick/internal/logger"
	"github.com/crontick/crontick/internal/scheduler"
)

var (
	serveConfigPath string
	serveLogLevel   string
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduler daemon (main command)",
	Long: `Start the Crontick daemon with the given configuration. The daemon
runs every configured task on its crontab schedule, serves Prometheus
metrics when a listener is configured, and optionally reloads the task
list when the configuration file changes.

Changes to the logging section require a restart.`,
	Run: serveHandler,
}

func init() {
	serveCmd.Flags().StringVarP(&serveConfigPath, "config", "c", defaultConfigPath, "path to configuration file")
	serveCmd.Flags().StringVar(&serveLogLevel, "log-level", "", "override logging.level from the config")
}

func serveHandler(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(serveConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if serveLogLevel != "" {
		cfg.Logging.Level = serveLogLevel
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		fmt.Fprintf(os.Stderr, "Configuration validation failed:\n")
		for _, e := range errs {
			fmt.Fprintf(os.Stderr, "  - %v\n", e)
		}
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	log.Info("Starting crontick",
		logger.Field{Key: "version", Value: Version},
		logger.Field{Key: "git_commit", Value: GitCommit},
		logger.Field{Key: "config", Value: serveConfigPath},
		logger.Field{Key: "tasks", Value: len(cfg.Tasks)},
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// The metrics registry is process-wide, so the collectors are
	// created once and survive config reloads.
	metrics := scheduler.NewMetrics("crontick", nil)

	var metricsSrv *http.Server
	if cfg.Scheduler.MetricsListen != "" {
		metricsSrv = startMetricsServer(cfg.Scheduler.MetricsListen, log)
	}

	svc, err := startScheduler(ctx, cfg, log, metrics)
	if err != nil {
		log.Error("Failed to start scheduler", err)
		os.Exit(1)
	}

	var updates <-chan *config.Config
	if cfg.Scheduler.Reload {
		updates, err = config.Watch(ctx, serveConfigPath, log)
		if err != nil {
			log.Error("Failed to watch configuration", err)
			os.Exit(1)
		}
	}

	grace := cfg.Scheduler.ShutdownGrace.Std()

loop:
	for {
		select {
		case sig := <-sigChan:
			log.Info("Received shutdown signal", logger.Field{Key: "signal", Value: sig.String()})
			break loop
		case newCfg, ok := <-updates:
			if !ok {
				updates = nil
				continue
			}
			log.Info("Configuration changed, restarting scheduler",
				logger.Field{Key: "tasks", Value: len(newCfg.Tasks)})
			svc = restartScheduler(ctx, svc, newCfg, log, metrics, grace)
			grace = newCfg.Scheduler.ShutdownGrace.Std()
		}
	}

	cancel()
	stopScheduler(svc, log, grace)

	if metricsSrv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			log.Warn("Metrics server shutdown", logger.Field{Key: "error", Value: err.Error()})
		}
	}

	log.Info("Crontick stopped")
}

// startScheduler wires the configured tasks into a running scheduler
// service with a logging failure observer.
func startScheduler(ctx context.Context, cfg *config.Config, log *logger.Logger, metrics *scheduler.Metrics) (*scheduler.Service, error) {
	runner := command.NewRunner(log, cfg.Scheduler.WorkDir)

	jobs := make([]scheduler.Job, 0, len(cfg.Tasks))
	for _, task := range cfg.Tasks {
		jobs = append(jobs, scheduler.Job{
			Name:     task.Name,
			Schedule: task.Schedule,
			Run:      runner.Job(task.Name, task.Command, task.Timeout.Std()),
		})
	}

	svc, err := scheduler.New(jobs, log, metrics)
	if err != nil {
		return nil, err
	}

	svc.OnFailure(func(event *scheduler.FailureEvent) {
		log.Error("Task run failed", event.Err,
			logger.Field{Key: "task", Value: event.Job},
			logger.Field{Key: "occurrence", Value: event.Occurrence.Format(time.RFC3339)},
		)
		event.MarkHandled()
	})

	if err := svc.Start(ctx); err != nil {
		return nil, err
	}
	return svc, nil
}

// restartScheduler swaps the running service for one built from newCfg.
// Watch only delivers validated configs, so a start failure here means
// something is wrong beyond the config file and the daemon exits.
func restartScheduler(ctx context.Context, current *scheduler.Service, newCfg *config.Config, log *logger.Logger, metrics *scheduler.Metrics, grace time.Duration) *scheduler.Service {
	stopScheduler(current, log, grace)

	svc, err := startScheduler(ctx, newCfg, log, metrics)
	if err != nil {
		log.Error("Failed to start scheduler with new configuration", err)
		os.Exit(1)
	}
	return svc
}

func stopScheduler(svc *scheduler.Service, log *logger.Logger, grace time.Duration) {
	stopCtx, stopCancel := context.WithTimeout(context.Background(), grace)
	defer stopCancel()
	if err := svc.Stop(stopCtx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			log.Warn("Task runs still in flight after shutdown grace",
				logger.Field{Key: "grace", Value: grace.String()})
		} else {
			log.Warn("Scheduler stop", logger.Field{Key: "error", Value: err.Error()})
		}
	}
}

func startMetricsServer(addr string, log *logger.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("Metrics listener started", logger.Field{Key: "addr", Value: addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Metrics listener failed", err)
		}
	}()

	return srv
}
