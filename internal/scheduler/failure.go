package scheduler

import (
	"time"

	"github.com/crontick/crontick/internal/logger"
)

// FailureEvent carries one job failure to the registered observers. An
// observer that takes responsibility for the failure calls MarkHandled;
// if no observer does, the failure is passed to the unobserved handler,
// which by default crashes the process.
type FailureEvent struct {
	Job        string
	Occurrence time.Time // the scheduled instant whose run failed
	Err        error

	handled bool
}

// MarkHandled suppresses further propagation of the failure.
func (e *FailureEvent) MarkHandled() { e.handled = true }

// Handled reports whether any observer marked the failure as handled.
func (e *FailureEvent) Handled() bool { return e.handled }

// FailureObserver is a callback invoked for every job failure.
type FailureObserver func(*FailureEvent)

// reportFailure runs every observer over the event, then checks the
// handled flag once, after all of them.
func (s *Service) reportFailure(job string, occurrence time.Time, err error) {
	s.mu.Lock()
	observers := s.observers
	unobserved := s.unobserved
	s.mu.Unlock()

	ev := &FailureEvent{Job: job, Occurrence: occurrence, Err: err}
	for _, fn := range observers {
		fn(ev)
	}

	if ev.Handled() {
		s.log.Warn("job failed",
			logger.Field{Key: "job", Value: job},
			logger.Field{Key: "error", Value: err.Error()})
		return
	}

	s.log.Error("job failed with no observer handling it", err,
		logger.Field{Key: "job", Value: job})
	unobserved(job, err)
}
