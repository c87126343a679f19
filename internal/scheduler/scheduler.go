// Package scheduler runs the reminder polling loop. A single goroutine
// ticks at a fixed interval, snapshots the due reminders, and fans their
// deliveries out over a bounded worker set. Persistence commits happen
// only after a send has succeeded, so a crash between send and commit can
// duplicate a notification but never lose one.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/hearthapp/secretary/internal/domain"
)

// ReminderSource is the slice of the reminder store the scheduler needs:
// a due snapshot plus the two commit operations.
type ReminderSource interface {
	FindDue(ctx context.Context, now time.Time) ([]*domain.Reminder, error)
	MarkDelivered(ctx context.Context, id uuid.UUID) error
	Reschedule(ctx context.Context, id uuid.UUID, nextAt time.Time) error
}

// Deliverer sends a reminder's message to its owner. The boolean reports
// whether any channel accepted the message; an error means link resolution
// itself failed.
type Deliverer interface {
	Deliver(ctx context.Context, userID uuid.UUID, text string) (bool, error)
}

// Stats is a point-in-time snapshot of scheduler counters, exposed on the
// ops dashboard.
type Stats struct {
	Ticks        uint64 `json:"ticks"`
	SkippedTicks uint64 `json:"skipped_ticks"`
	Delivered    uint64 `json:"delivered"`
	Failed       uint64 `json:"failed"`
}

// Scheduler polls for due reminders and dispatches them.
type Scheduler struct {
	reminders    ReminderSource
	deliverer    Deliverer
	interval     time.Duration
	graceTimeout time.Duration
	maxInFlight  int
	logger       *slog.Logger

	// tickMu makes ticks non-reentrant: when a tick outlasts the interval
	// the next one is skipped, never queued.
	tickMu sync.Mutex

	// mu guards the lifecycle fields below against concurrent Start/Stop.
	mu      sync.Mutex
	cancel  context.CancelFunc
	stop    chan struct{}
	done    chan struct{}
	started bool

	now func() time.Time

	ticks        atomic.Uint64
	skippedTicks atomic.Uint64
	delivered    atomic.Uint64
	failed       atomic.Uint64
}

// New creates a Scheduler. interval, graceTimeout and maxInFlight must be
// positive.
func New(
	reminders ReminderSource,
	deliverer Deliverer,
	interval time.Duration,
	graceTimeout time.Duration,
	maxInFlight int,
	logger *slog.Logger,
) (*Scheduler, error) {
	if reminders == nil {
		return nil, fmt.Errorf("reminder store cannot be nil")
	}
	if deliverer == nil {
		return nil, fmt.Errorf("deliverer cannot be nil")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("tick interval must be positive")
	}
	if graceTimeout <= 0 {
		return nil, fmt.Errorf("grace timeout must be positive")
	}
	if maxInFlight <= 0 {
		return nil, fmt.Errorf("max in-flight dispatches must be positive")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		reminders:    reminders,
		deliverer:    deliverer,
		interval:     interval,
		graceTimeout: graceTimeout,
		maxInFlight:  maxInFlight,
		logger:       logger.With(slog.String("component", "scheduler")),
		now:          func() time.Time { return time.Now().UTC() },
	}, nil
}

// Start launches the polling loop in its own goroutine. It returns an
// error if the scheduler is already running.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("scheduler already started")
	}
	s.started = true

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	go s.run(ctx)

	s.logger.Info("scheduler started",
		slog.Duration("tick_interval", s.interval),
		slog.Int("max_concurrent_dispatches", s.maxInFlight))
	return nil
}

// Stop halts the loop and waits up to the grace timeout for in-flight
// dispatches to finish. The dispatch context stays live through the grace
// window so sends already underway can complete and commit; only when the
// deadline expires are they cancelled. Reminders abandoned that way stay
// undelivered and come due again on the next process's first tick.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	close(s.stop)
	s.mu.Unlock()

	select {
	case <-s.done:
		s.logger.Info("scheduler stopped")
	case <-time.After(s.graceTimeout):
		s.logger.Warn("scheduler stop grace timeout exceeded, abandoning in-flight dispatches",
			slog.Duration("grace_timeout", s.graceTimeout))
		s.cancel()
		<-s.done
	}
	s.cancel()
}

// Stats returns a snapshot of the scheduler counters.
func (s *Scheduler) Stats() Stats {
	return Stats{
		Ticks:        s.ticks.Load(),
		SkippedTicks: s.skippedTicks.Load(),
		Delivered:    s.delivered.Load(),
		Failed:       s.failed.Load(),
	}
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick processes one polling cycle. It is exported to tests through
// Tick; production code only reaches it from the loop.
func (s *Scheduler) tick(ctx context.Context) {
	if !s.tickMu.TryLock() {
		s.skippedTicks.Add(1)
		s.logger.Warn("previous tick still running, skipping")
		return
	}
	defer s.tickMu.Unlock()

	s.ticks.Add(1)

	now := s.now()
	due, err := s.reminders.FindDue(ctx, now)
	if err != nil {
		s.logger.Error("failed to query due reminders", slog.String("error", err.Error()))
		return
	}

	if len(due) == 0 {
		return
	}

	s.logger.Info("dispatching due reminders", slog.Int("count", len(due)))

	sem := make(chan struct{}, s.maxInFlight)
	var wg sync.WaitGroup
	for _, reminder := range due {
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(r *domain.Reminder) {
			defer wg.Done()
			defer func() { <-sem }()
			s.dispatch(ctx, r)
		}(reminder)
	}
	wg.Wait()
}

// Tick runs a single polling cycle synchronously.
func (s *Scheduler) Tick(ctx context.Context) {
	s.tick(ctx)
}

// dispatch delivers one reminder and commits the outcome. The commit is
// deliberately last: on send failure the row is left untouched so the
// reminder comes due again next tick.
func (s *Scheduler) dispatch(ctx context.Context, r *domain.Reminder) {
	log := s.logger.With(
		slog.String("reminder_id", r.ID.String()),
		slog.String("user_id", r.UserID.String()))

	delivered, err := s.deliverer.Deliver(ctx, r.UserID, r.Message)
	if err != nil {
		s.failed.Add(1)
		log.Error("dispatch failed", slog.String("error", err.Error()))
		return
	}
	if !delivered {
		s.failed.Add(1)
		log.Warn("no channel accepted reminder, will retry next tick")
		return
	}

	if err := s.commit(ctx, r, log); err != nil {
		log.Error("failed to commit delivery", slog.String("error", err.Error()))
		return
	}

	s.delivered.Add(1)
	log.Info("reminder delivered")
}

// commit records a successful delivery: one-shot reminders are marked
// delivered, recurring ones advance to their next occurrence unless an
// end condition terminates them.
func (s *Scheduler) commit(ctx context.Context, r *domain.Reminder, log *slog.Logger) error {
	if !r.IsRecurring {
		return s.reminders.MarkDelivered(ctx, r.ID)
	}

	next, err := domain.NextOccurrence(r.RemindAt, r.Rule)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidRecurrenceRule) {
			// Inconsistent record: recurring with no usable rule. Terminate
			// it rather than redeliver forever.
			log.Error("recurring reminder has invalid rule, marking delivered",
				slog.String("rule", string(r.Rule)))
			return s.reminders.MarkDelivered(ctx, r.ID)
		}
		return err
	}

	if r.RecurrenceEnded(next) {
		log.Info("recurrence complete, marking delivered",
			slog.Int("delivered_count", r.DeliveredCount+1))
		return s.reminders.MarkDelivered(ctx, r.ID)
	}

	return s.reminders.Reschedule(ctx, r.ID, next)
}
