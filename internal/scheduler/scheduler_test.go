package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthapp/secretary/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeSource is an in-memory ReminderSource.
type fakeSource struct {
	mu          sync.Mutex
	due         []*domain.Reminder
	findErr     error
	marked      []uuid.UUID
	rescheduled map[uuid.UUID]time.Time
}

func newFakeSource(due ...*domain.Reminder) *fakeSource {
	return &fakeSource{
		due:         due,
		rescheduled: make(map[uuid.UUID]time.Time),
	}
}

func (f *fakeSource) FindDue(ctx context.Context, now time.Time) ([]*domain.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.due, nil
}

func (f *fakeSource) MarkDelivered(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marked = append(f.marked, id)
	return nil
}

func (f *fakeSource) Reschedule(ctx context.Context, id uuid.UUID, nextAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rescheduled[id] = nextAt
	return nil
}

// fakeDeliverer returns a scripted outcome, optionally blocking until
// released so tests can hold a tick open.
type fakeDeliverer struct {
	mu        sync.Mutex
	delivered bool
	err       error
	block     chan struct{} // nil means never block
	calls     int
}

func (d *fakeDeliverer) Deliver(ctx context.Context, userID uuid.UUID, text string) (bool, error) {
	d.mu.Lock()
	d.calls++
	block := d.block
	d.mu.Unlock()

	if block != nil {
		<-block
	}
	return d.delivered, d.err
}

func (d *fakeDeliverer) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

// slowDeliverer takes a fixed amount of time per send and aborts if the
// dispatch context is cancelled first.
type slowDeliverer struct {
	delay time.Duration
	mu    sync.Mutex
	calls int
}

func (d *slowDeliverer) Deliver(ctx context.Context, userID uuid.UUID, text string) (bool, error) {
	d.mu.Lock()
	d.calls++
	d.mu.Unlock()

	select {
	case <-time.After(d.delay):
		return true, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (d *slowDeliverer) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func oneShot(t *testing.T, remindAt time.Time) *domain.Reminder {
	t.Helper()
	r, err := domain.NewReminder(uuid.New(), "take out the bins", remindAt, domain.RecurrenceNone)
	require.NoError(t, err)
	return r
}

func recurring(t *testing.T, remindAt time.Time, rule domain.RecurrenceRule) *domain.Reminder {
	t.Helper()
	r, err := domain.NewReminder(uuid.New(), "water the plants", remindAt, rule)
	require.NoError(t, err)
	return r
}

func newTestScheduler(t *testing.T, src ReminderSource, d Deliverer) *Scheduler {
	t.Helper()
	s, err := New(src, d, 30*time.Second, time.Second, 4, testLogger())
	require.NoError(t, err)
	return s
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	d := &fakeDeliverer{}
	log := testLogger()

	_, err := New(nil, d, time.Second, time.Second, 1, log)
	assert.Error(t, err)
	_, err = New(src, nil, time.Second, time.Second, 1, log)
	assert.Error(t, err)
	_, err = New(src, d, 0, time.Second, 1, log)
	assert.Error(t, err)
	_, err = New(src, d, time.Second, 0, 1, log)
	assert.Error(t, err)
	_, err = New(src, d, time.Second, time.Second, 0, log)
	assert.Error(t, err)
}

func TestTick_OneShotDelivered(t *testing.T) {
	t.Parallel()

	r := oneShot(t, time.Now().UTC().Add(-time.Minute))
	src := newFakeSource(r)
	d := &fakeDeliverer{delivered: true}

	s := newTestScheduler(t, src, d)
	s.Tick(context.Background())

	assert.Equal(t, []uuid.UUID{r.ID}, src.marked)
	assert.Empty(t, src.rescheduled)
	assert.Equal(t, uint64(1), s.Stats().Delivered)
	assert.Equal(t, uint64(0), s.Stats().Failed)
}

func TestTick_RecurringRescheduled(t *testing.T) {
	t.Parallel()

	remindAt := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)
	r := recurring(t, remindAt, domain.RecurrenceDaily)
	src := newFakeSource(r)
	d := &fakeDeliverer{delivered: true}

	s := newTestScheduler(t, src, d)
	s.Tick(context.Background())

	assert.Empty(t, src.marked)
	assert.Equal(t, remindAt.AddDate(0, 0, 1), src.rescheduled[r.ID])
	assert.Equal(t, uint64(1), s.Stats().Delivered)
}

func TestTick_RecurrenceCountReached(t *testing.T) {
	t.Parallel()

	r := recurring(t, time.Now().UTC().Add(-time.Minute), domain.RecurrenceWeekly)
	count := 3
	r.RecurrenceCount = &count
	r.DeliveredCount = 2 // this delivery is the third and last

	src := newFakeSource(r)
	d := &fakeDeliverer{delivered: true}

	s := newTestScheduler(t, src, d)
	s.Tick(context.Background())

	assert.Equal(t, []uuid.UUID{r.ID}, src.marked)
	assert.Empty(t, src.rescheduled)
}

func TestTick_RecurrenceEndDatePassed(t *testing.T) {
	t.Parallel()

	remindAt := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)
	r := recurring(t, remindAt, domain.RecurrenceDaily)
	endDate := remindAt.Add(12 * time.Hour) // next occurrence lands past this
	r.RecurrenceEndDate = &endDate

	src := newFakeSource(r)
	d := &fakeDeliverer{delivered: true}

	s := newTestScheduler(t, src, d)
	s.Tick(context.Background())

	assert.Equal(t, []uuid.UUID{r.ID}, src.marked)
	assert.Empty(t, src.rescheduled)
}

func TestTick_InvalidRuleTerminates(t *testing.T) {
	t.Parallel()

	// A recurring reminder whose rule cannot compute a next occurrence is
	// an inconsistent record; it must be terminated, not redelivered.
	r := recurring(t, time.Now().UTC().Add(-time.Minute), domain.RecurrenceDaily)
	r.Rule = domain.RecurrenceNone

	src := newFakeSource(r)
	d := &fakeDeliverer{delivered: true}

	s := newTestScheduler(t, src, d)
	s.Tick(context.Background())

	assert.Equal(t, []uuid.UUID{r.ID}, src.marked)
	assert.Empty(t, src.rescheduled)
}

func TestTick_DeliveryFailureLeavesReminderUntouched(t *testing.T) {
	t.Parallel()

	r := oneShot(t, time.Now().UTC().Add(-time.Minute))
	src := newFakeSource(r)
	d := &fakeDeliverer{delivered: false} // every channel refused

	s := newTestScheduler(t, src, d)
	s.Tick(context.Background())

	assert.Empty(t, src.marked)
	assert.Empty(t, src.rescheduled)
	assert.Equal(t, uint64(1), s.Stats().Failed)
}

func TestTick_DeliverErrorCountsAsFailure(t *testing.T) {
	t.Parallel()

	r := oneShot(t, time.Now().UTC().Add(-time.Minute))
	src := newFakeSource(r)
	d := &fakeDeliverer{err: errors.New("link lookup failed")}

	s := newTestScheduler(t, src, d)
	s.Tick(context.Background())

	assert.Empty(t, src.marked)
	assert.Equal(t, uint64(1), s.Stats().Failed)
}

func TestTick_FindDueError(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	src.findErr = errors.New("db down")
	d := &fakeDeliverer{delivered: true}

	s := newTestScheduler(t, src, d)
	s.Tick(context.Background())

	assert.Equal(t, 0, d.callCount())
	assert.Equal(t, uint64(1), s.Stats().Ticks)
}

func TestTick_OverlappingTickSkipped(t *testing.T) {
	t.Parallel()

	r := oneShot(t, time.Now().UTC().Add(-time.Minute))
	src := newFakeSource(r)

	block := make(chan struct{})
	d := &fakeDeliverer{delivered: true, block: block}

	s := newTestScheduler(t, src, d)

	firstDone := make(chan struct{})
	go func() {
		s.Tick(context.Background())
		close(firstDone)
	}()

	// Wait until the first tick is inside Deliver and holding the lock
	require.Eventually(t, func() bool { return d.callCount() == 1 },
		time.Second, 5*time.Millisecond)

	// This tick must be skipped, not queued behind the first
	s.Tick(context.Background())
	assert.Equal(t, uint64(1), s.Stats().SkippedTicks)

	close(block)
	<-firstDone

	assert.Equal(t, uint64(1), s.Stats().Ticks)
	assert.Equal(t, 1, d.callCount())
}

func TestTick_FansOutAllDueReminders(t *testing.T) {
	t.Parallel()

	due := []*domain.Reminder{
		oneShot(t, time.Now().UTC().Add(-3*time.Minute)),
		oneShot(t, time.Now().UTC().Add(-2*time.Minute)),
		oneShot(t, time.Now().UTC().Add(-time.Minute)),
	}
	src := newFakeSource(due...)
	d := &fakeDeliverer{delivered: true}

	// maxInFlight of 1 forces sequential dispatch; all must still complete
	s, err := New(src, d, 30*time.Second, time.Second, 1, testLogger())
	require.NoError(t, err)

	s.Tick(context.Background())

	assert.Equal(t, 3, d.callCount())
	assert.Len(t, src.marked, 3)
	assert.Equal(t, uint64(3), s.Stats().Delivered)
}

func TestStartStop(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	d := &fakeDeliverer{delivered: true}

	s, err := New(src, d, 10*time.Millisecond, time.Second, 2, testLogger())
	require.NoError(t, err)

	require.NoError(t, s.Start())
	assert.Error(t, s.Start(), "double start must be rejected")

	// Let at least one tick happen
	require.Eventually(t, func() bool { return s.Stats().Ticks >= 1 },
		time.Second, 5*time.Millisecond)

	s.Stop()

	ticksAfterStop := s.Stats().Ticks
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, ticksAfterStop, s.Stats().Ticks, "loop must not tick after Stop")
}

func TestStop_InFlightDispatchFinishesWithinGrace(t *testing.T) {
	t.Parallel()

	r := oneShot(t, time.Now().UTC().Add(-time.Minute))
	src := newFakeSource(r)
	d := &slowDeliverer{delay: 300 * time.Millisecond}

	s, err := New(src, d, 10*time.Millisecond, 2*time.Second, 2, testLogger())
	require.NoError(t, err)
	require.NoError(t, s.Start())

	// Wait until a dispatch is underway, then stop mid-send
	require.Eventually(t, func() bool { return d.callCount() >= 1 },
		time.Second, 5*time.Millisecond)

	stopStarted := time.Now()
	s.Stop()

	// The send outlasted Stop's arrival but fit inside the grace window,
	// so it must have completed and committed rather than been cancelled.
	assert.Less(t, time.Since(stopStarted), 2*time.Second,
		"Stop must return once in-flight work drains, not burn the full grace timeout")
	assert.Equal(t, uint64(0), s.Stats().Failed)
	assert.GreaterOrEqual(t, s.Stats().Delivered, uint64(1))

	src.mu.Lock()
	defer src.mu.Unlock()
	assert.Contains(t, src.marked, r.ID)
}
