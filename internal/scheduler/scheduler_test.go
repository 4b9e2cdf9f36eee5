package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crontick/crontick/internal/crontab"
	"github.com/crontick/crontick/internal/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Format: "text", Output: "stderr"})
	require.NoError(t, err)
	return log
}

func noopJob(name, schedule string) Job {
	return Job{Name: name, Schedule: schedule, Run: func(ctx context.Context) error { return nil }}
}

func TestNewRejectsMalformedSchedule(t *testing.T) {
	_, err := New([]Job{noopJob("bad", "this is not cron")}, testLogger(t), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"bad"`)

	var perr *crontab.ParseError
	assert.True(t, errors.As(err, &perr), "want wrapped *crontab.ParseError, got %T", err)
}

func TestTickSelectsDueJobs(t *testing.T) {
	var runs atomic.Int32
	job := Job{Name: "counter", Schedule: "* * * * *", Run: func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}}

	s, err := New([]Job{job}, testLogger(t), nil)
	require.NoError(t, err)

	start := time.Date(2023, time.June, 15, 10, 0, 0, 0, time.UTC)
	rec := &record{id: "r1", job: job, schedule: s.schedules[0], lastRun: start, nextRun: s.schedules[0].Next(start)}
	s.records = []*record{rec}

	// Not yet due: nextRun (10:01) has not passed.
	s.tick(context.Background(), start.Add(30*time.Second))
	s.inflight.Wait()
	assert.Equal(t, int32(0), runs.Load())

	// Due now.
	s.tick(context.Background(), start.Add(90*time.Second))
	s.inflight.Wait()
	assert.Equal(t, int32(1), runs.Load())
}

// A delayed tick selects an overdue job exactly once, advancing its
// bookkeeping by one occurrence per tick rather than replaying every
// missed occurrence at once.
func TestTickOverdueJobSelectedOncePerTick(t *testing.T) {
	var runs atomic.Int32
	job := Job{Name: "overdue", Schedule: "* * * * *", Run: func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}}

	s, err := New([]Job{job}, testLogger(t), nil)
	require.NoError(t, err)

	start := time.Date(2023, time.June, 15, 10, 0, 0, 0, time.UTC)
	rec := &record{id: "r1", job: job, schedule: s.schedules[0], lastRun: start, nextRun: s.schedules[0].Next(start)}
	s.records = []*record{rec}

	ref := start.Add(10 * time.Minute)
	prevNext := rec.nextRun

	s.tick(context.Background(), ref)
	s.inflight.Wait()

	assert.Equal(t, int32(1), runs.Load(), "one selection per tick, even 10 minutes behind")
	assert.True(t, rec.lastRun.Equal(prevNext), "lastRun takes the value nextRun held before advancement")
	assert.True(t, rec.nextRun.After(rec.lastRun), "nextRun strictly advances")

	// The next tick catches up the following occurrence.
	s.tick(context.Background(), ref)
	s.inflight.Wait()
	assert.Equal(t, int32(2), runs.Load())
}

func TestFailureObservedAndHandled(t *testing.T) {
	jobErr := errors.New("boom")
	job := Job{Name: "failing", Schedule: "* * * * *", Run: func(ctx context.Context) error {
		return jobErr
	}}

	s, err := New([]Job{job}, testLogger(t), nil)
	require.NoError(t, err)

	var mu sync.Mutex
	var observed []*FailureEvent
	s.OnFailure(func(ev *FailureEvent) {
		mu.Lock()
		defer mu.Unlock()
		observed = append(observed, ev)
		ev.MarkHandled()
	})

	unobservedCalled := false
	s.SetUnobservedHandler(func(job string, err error) { unobservedCalled = true })

	start := time.Date(2023, time.June, 15, 10, 0, 0, 0, time.UTC)
	rec := &record{id: "r1", job: job, schedule: s.schedules[0], lastRun: start, nextRun: s.schedules[0].Next(start)}
	s.records = []*record{rec}

	s.tick(context.Background(), start.Add(2*time.Minute))
	s.inflight.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, observed, 1)
	assert.Equal(t, "failing", observed[0].Job)
	assert.ErrorIs(t, observed[0].Err, jobErr)
	assert.False(t, unobservedCalled, "handled failure must not reach the unobserved handler")
}

func TestFailureUnobservedReachesHandler(t *testing.T) {
	job := Job{Name: "failing", Schedule: "* * * * *", Run: func(ctx context.Context) error {
		return errors.New("boom")
	}}

	s, err := New([]Job{job}, testLogger(t), nil)
	require.NoError(t, err)

	unobserved := make(chan string, 1)
	s.SetUnobservedHandler(func(job string, err error) { unobserved <- job })

	// An observer that looks but does not handle.
	s.OnFailure(func(ev *FailureEvent) {})

	start := time.Date(2023, time.June, 15, 10, 0, 0, 0, time.UTC)
	rec := &record{id: "r1", job: job, schedule: s.schedules[0], lastRun: start, nextRun: s.schedules[0].Next(start)}
	s.records = []*record{rec}

	s.tick(context.Background(), start.Add(2*time.Minute))
	s.inflight.Wait()

	select {
	case name := <-unobserved:
		assert.Equal(t, "failing", name)
	default:
		t.Fatal("unobserved handler was not invoked")
	}
}

func TestPanicInJobBecomesFailure(t *testing.T) {
	job := Job{Name: "panicky", Schedule: "* * * * *", Run: func(ctx context.Context) error {
		panic("kaboom")
	}}

	s, err := New([]Job{job}, testLogger(t), nil)
	require.NoError(t, err)

	failures := make(chan *FailureEvent, 1)
	s.OnFailure(func(ev *FailureEvent) {
		ev.MarkHandled()
		failures <- ev
	})

	start := time.Date(2023, time.June, 15, 10, 0, 0, 0, time.UTC)
	rec := &record{id: "r1", job: job, schedule: s.schedules[0], lastRun: start, nextRun: s.schedules[0].Next(start)}
	s.records = []*record{rec}

	s.tick(context.Background(), start.Add(2*time.Minute))
	s.inflight.Wait()

	select {
	case ev := <-failures:
		assert.Contains(t, ev.Err.Error(), "kaboom")
	default:
		t.Fatal("panic did not surface as a failure")
	}
}

func TestCancellationIsNotAFailure(t *testing.T) {
	job := Job{Name: "cancellable", Schedule: "* * * * *", Run: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}}

	s, err := New([]Job{job}, testLogger(t), nil)
	require.NoError(t, err)

	observerCalled := false
	s.OnFailure(func(ev *FailureEvent) { observerCalled = true })
	s.SetUnobservedHandler(func(job string, err error) { t.Errorf("unobserved handler called for cancellation: %v", err) })

	start := time.Date(2023, time.June, 15, 10, 0, 0, 0, time.UTC)
	rec := &record{id: "r1", job: job, schedule: s.schedules[0], lastRun: start, nextRun: s.schedules[0].Next(start)}
	s.records = []*record{rec}

	ctx, cancel := context.WithCancel(context.Background())
	s.tick(ctx, start.Add(2*time.Minute))
	cancel()
	s.inflight.Wait()

	assert.False(t, observerCalled, "cancellation must not reach failure observers")
}

func TestStartStopLifecycle(t *testing.T) {
	s, err := New([]Job{noopJob("idle", "0 0 1 1 *")}, testLogger(t), nil)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Start(ctx))
	assert.Error(t, s.Start(ctx), "second Start must fail")

	status := s.Status()
	require.Len(t, status, 1)
	assert.Equal(t, "idle", status[0].Name)
	assert.True(t, status[0].NextRun.After(status[0].LastRun),
		"a fresh record must have nextRun strictly after lastRun")

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(stopCtx))
	assert.Error(t, s.Stop(stopCtx), "second Stop must fail")
}

func TestStopReportsUnsettledJobs(t *testing.T) {
	block := make(chan struct{})
	t.Cleanup(func() { close(block) })

	job := Job{Name: "stuck", Schedule: "* * * * *", Run: func(ctx context.Context) error {
		<-block
		return nil
	}}

	s, err := New([]Job{job}, testLogger(t), nil)
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))

	// Force a dispatch of the stuck job.
	start := time.Date(2023, time.June, 15, 10, 0, 0, 0, time.UTC)
	s.mu.Lock()
	s.records[0].lastRun = start
	s.records[0].nextRun = s.schedules[0].Next(start)
	s.mu.Unlock()
	s.tick(context.Background(), start.Add(2*time.Minute))

	stopCtx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err = s.Stop(stopCtx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
