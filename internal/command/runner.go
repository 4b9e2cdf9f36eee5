// Package command turns configured shell command lines into scheduler
// jobs. Commands run through "sh -c" with stdout and stderr captured
// for logging.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/crontick/crontick/internal/logger"
	"github.com/crontick/crontick/internal/scheduler"
)

// Runner executes scheduled commands in a fixed working directory.
type Runner struct {
	log *logger.Logger
	dir string
}

// NewRunner creates a runner. An empty workDir runs commands in the
// process working directory.
func NewRunner(log *logger.Logger, workDir string) *Runner {
	return &Runner{log: log, dir: workDir}
}

// Job wraps a command line as a scheduler run function. A positive
// timeout bounds each run; the scheduler's own context still cancels
// the command on shutdown.
func (r *Runner) Job(name, commandLine string, timeout time.Duration) scheduler.RunFunc {
	return func(ctx context.Context) error {
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		start := time.Now()
		output, err := r.run(ctx, commandLine)
		duration := time.Since(start)

		if err != nil {
			// Shutdown cancellation is reported as such, not as a
			// command failure. A timeout, by contrast, is a failure.
			if errors.Is(err, context.Canceled) {
				return err
			}
			r.log.Warn("command failed",
				logger.Field{Key: "task", Value: name},
				logger.Field{Key: "exit_code", Value: exitCode(err)},
				logger.Field{Key: "duration", Value: duration},
				logger.Field{Key: "output", Value: output})
			return fmt.Errorf("task %q: %w", name, err)
		}

		r.log.Info("command completed",
			logger.Field{Key: "task", Value: name},
			logger.Field{Key: "duration", Value: duration})
		return nil
	}
}

// run executes a command line via the shell and returns its combined
// stdout/stderr.
func (r *Runner) run(ctx context.Context, commandLine string) (string, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", commandLine)
	cmd.Dir = r.dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	output := stdout.String()
	if stderr.Len() > 0 {
		if output != "" {
			output += "\n"
		}
		output += stderr.String()
	}

	if err != nil && ctx.Err() != nil {
		// The process was killed by context cancellation or timeout;
		// surface the context error so callers can classify it.
		return output, fmt.Errorf("command interrupted: %w", ctx.Err())
	}
	return output, err
}

// exitCode extracts the command's exit code, or -1 when the command did
// not run to completion.
func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
