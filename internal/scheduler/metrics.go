package scheduler

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Run statuses used as metric labels.
const (
	RunOK       = "ok"
	RunError    = "error"
	RunCanceled = "canceled"
)

// Metrics tracks scheduler activity in Prometheus collectors.
type Metrics struct {
	registry       prometheus.Registerer
	ticksTotal     prometheus.Counter
	runsTotal      *prometheus.CounterVec
	runDuration    *prometheus.HistogramVec
	jobsRegistered prometheus.Gauge
}

// NewMetrics creates and registers the scheduler collectors. A nil
// registerer falls back to the Prometheus default.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		registry: reg,
		ticksTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "scheduler_ticks_total",
				Help:      "Total number of scheduler ticks",
			},
		),
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "scheduler_runs_total",
				Help:      "Total number of dispatched job runs",
			},
			[]string{"status"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "scheduler_run_duration_seconds",
				Help:      "Duration of job runs",
				Buckets:   []float64{.1, .5, 1, 5, 10, 30, 60, 120, 300},
			},
			[]string{"status"},
		),
		jobsRegistered: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "scheduler_jobs_registered",
				Help:      "Number of registered jobs",
			},
		),
	}

	reg.MustRegister(
		m.ticksTotal,
		m.runsTotal,
		m.runDuration,
		m.jobsRegistered,
	)

	return m
}

// IncTick counts one scheduling pass.
func (m *Metrics) IncTick() {
	m.ticksTotal.Inc()
}

// RecordRun counts one dispatched run and its duration.
func (m *Metrics) RecordRun(status string, duration time.Duration) {
	m.runsTotal.WithLabelValues(status).Inc()
	m.runDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// SetRegistered records the number of registered jobs.
func (m *Metrics) SetRegistered(n int) {
	m.jobsRegistered.Set(float64(n))
}
