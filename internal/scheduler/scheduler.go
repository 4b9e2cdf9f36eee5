// Package scheduler runs registered jobs on their crontab schedules.
// A single tick goroutine wakes once per minute, selects the jobs whose
// next run time has passed, advances their bookkeeping and dispatches
// each run in its own goroutine. Job failures are delivered to
// registered failure observers; see failure.go for the propagation
// policy.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/crontick/crontick/internal/crontab"
	"github.com/crontick/crontick/internal/logger"
)

// RunFunc is the execution entry point of a job. It must honor ctx
// cancellation; what it does otherwise is up to the host application.
type RunFunc func(ctx context.Context) error

// Job associates a crontab expression with a unit of work.
type Job struct {
	Name     string
	Schedule string
	Run      RunFunc
}

// record is the per-job bookkeeping. Only the tick goroutine touches
// lastRun and nextRun, and only once per due-selection, so no lock is
// needed beyond the loop's single-threadedness.
type record struct {
	id       string
	job      Job
	schedule *crontab.Schedule
	lastRun  time.Time
	nextRun  time.Time
}

// Service is the scheduler. Create with New, then Start/Stop.
type Service struct {
	log     *logger.Logger
	metrics *Metrics

	jobs      []Job
	schedules []*crontab.Schedule
	records   []*record

	observers  []FailureObserver
	unobserved func(job string, err error)

	// now is the clock; tests substitute it.
	now func() time.Time

	mu       sync.Mutex
	started  bool
	cancel   context.CancelFunc
	loopDone chan struct{}
	inflight sync.WaitGroup
}

// New creates a scheduler for the given jobs. Every schedule expression
// is parsed here; a malformed one is a fatal registration error, so the
// returned *crontab.ParseError (wrapped with the job name) prevents the
// scheduler from being created at all. Metrics may be nil.
func New(jobs []Job, log *logger.Logger, metrics *Metrics) (*Service, error) {
	s := &Service{
		log:     log,
		metrics: metrics,
		jobs:    jobs,
		now:     time.Now,
	}
	s.unobserved = func(job string, err error) {
		panic(fmt.Sprintf("scheduler: unobserved failure of job %q: %v", job, err))
	}

	for _, job := range jobs {
		sched, err := crontab.Parse(job.Schedule)
		if err != nil {
			return nil, fmt.Errorf("job %q: %w", job.Name, err)
		}
		s.schedules = append(s.schedules, sched)
	}

	if s.metrics != nil {
		s.metrics.SetRegistered(len(jobs))
	}
	return s, nil
}

// OnFailure registers a failure observer. Observers must be registered
// before Start.
func (s *Service) OnFailure(fn FailureObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// SetUnobservedHandler replaces the handler invoked when no observer
// marks a failure as handled. The default handler panics in the
// dispatch goroutine, crashing the process: failures must be observed
// deliberately, not dropped. Must be called before Start.
func (s *Service) SetUnobservedHandler(fn func(job string, err error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unobserved = fn
}

// Start builds the job records and launches the tick loop. The loop
// runs until ctx is canceled or Stop is called.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return errors.New("scheduler already started")
	}

	now := s.now()
	s.records = s.records[:0]
	for i, job := range s.jobs {
		s.records = append(s.records, &record{
			id:       uuid.NewString(),
			job:      job,
			schedule: s.schedules[i],
			lastRun:  now,
			nextRun:  s.schedules[i].Next(now),
		})
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.loopDone = make(chan struct{})
	s.started = true

	go s.loop(loopCtx)

	s.log.Info("scheduler started", logger.Field{Key: "jobs", Value: len(s.records)})
	for _, rec := range s.records {
		s.log.Debug("job scheduled",
			logger.Field{Key: "job", Value: rec.job.Name},
			logger.Field{Key: "schedule", Value: rec.schedule.String()},
			logger.Field{Key: "next_run", Value: rec.nextRun})
	}
	return nil
}

// Stop cancels the tick loop and waits for in-flight job runs to
// settle, bounded by ctx. Runs still in flight when ctx expires are
// left to finish on their own; Stop then returns the context error.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return errors.New("scheduler not started")
	}
	s.cancel()
	loopDone := s.loopDone
	s.started = false
	s.mu.Unlock()

	<-loopDone

	settled := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(settled)
	}()

	select {
	case <-settled:
		s.log.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		s.log.Warn("scheduler stopped with jobs still in flight")
		return fmt.Errorf("scheduler: in-flight jobs did not settle: %w", ctx.Err())
	}
}

// loop is the tick driver: one tick per minute, aligned to minute
// boundaries, until ctx is canceled.
func (s *Service) loop(ctx context.Context) {
	defer close(s.loopDone)

	for {
		ref := s.now()
		s.tick(ctx, ref)
		if s.metrics != nil {
			s.metrics.IncTick()
		}

		boundary := ref.Truncate(time.Minute).Add(time.Minute)
		timer := time.NewTimer(boundary.Sub(s.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// tick runs one scheduling pass against a single reference time. A
// record is due when its next run time has passed and its advancement
// from the previous selection has been applied (lastRun != nextRun).
// Advancement happens before dispatch so a slow job cannot be
// re-selected on the following tick.
// Record mutation stays single-writer (only the tick goroutine calls
// this); the lock is for Status readers.
func (s *Service) tick(ctx context.Context, ref time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.records {
		if !rec.nextRun.Before(ref) || rec.lastRun.Equal(rec.nextRun) {
			continue
		}
		rec.lastRun = rec.nextRun
		rec.nextRun = rec.schedule.Next(rec.nextRun)
		s.dispatch(ctx, rec.job, rec.lastRun)
	}
}

// dispatch runs one job occurrence in its own goroutine. The tick loop
// does not wait for it.
func (s *Service) dispatch(ctx context.Context, job Job, occurrence time.Time) {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()

		start := time.Now()
		err := s.runJob(ctx, job)
		duration := time.Since(start)

		switch {
		case err == nil:
			if s.metrics != nil {
				s.metrics.RecordRun(RunOK, duration)
			}
			s.log.Debug("job completed",
				logger.Field{Key: "job", Value: job.Name},
				logger.Field{Key: "duration", Value: duration})
		case errors.Is(err, context.Canceled):
			// Cooperative cancellation during shutdown, not a failure.
			if s.metrics != nil {
				s.metrics.RecordRun(RunCanceled, duration)
			}
			s.log.Debug("job canceled", logger.Field{Key: "job", Value: job.Name})
		default:
			if s.metrics != nil {
				s.metrics.RecordRun(RunError, duration)
			}
			s.reportFailure(job.Name, occurrence, err)
		}
	}()
}

// runJob invokes the job body, converting a panic into an error so one
// misbehaving job cannot take down the tick loop.
func (s *Service) runJob(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return job.Run(ctx)
}

// Status reports the current bookkeeping of every job record.
func (s *Service) Status() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobStatus, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, JobStatus{
			ID:      rec.id,
			Name:    rec.job.Name,
			LastRun: rec.lastRun,
			NextRun: rec.nextRun,
		})
	}
	return out
}

// JobStatus is a snapshot of one job record.
type JobStatus struct {
	ID      string
	Name    string
	LastRun time.Time
	NextRun time.Time
}
