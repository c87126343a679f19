package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/hearthapp/secretary/internal/domain"
)

// ReminderStore defines the interface for reminder data persistence.
// Each method is a single atomic unit of work.
type ReminderStore interface {
	// Create saves a new reminder to the store.
	// It handles domain validation internally.
	Create(ctx context.Context, reminder *domain.Reminder) error

	// GetByID retrieves a reminder by its unique ID.
	// Returns ErrReminderNotFound if the reminder does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Reminder, error)

	// ListByUser retrieves a user's reminders ordered by remind time.
	// Delivered reminders are excluded unless includeDelivered is set.
	ListByUser(ctx context.Context, userID uuid.UUID, includeDelivered bool) ([]*domain.Reminder, error)

	// FindDue retrieves all undelivered reminders whose remind time is at or
	// before now, ordered ascending by remind time with a stable tie-break
	// by ID. The result is a read-only snapshot; rows are not locked.
	FindDue(ctx context.Context, now time.Time) ([]*domain.Reminder, error)

	// MarkDelivered sets is_delivered on the reminder and bumps its
	// delivered count. Calling it on an already delivered reminder is a
	// no-op, not an error, so duplicate commit attempts are safe.
	// Returns ErrReminderNotFound if the reminder does not exist.
	MarkDelivered(ctx context.Context, id uuid.UUID) error

	// Reschedule advances the reminder to nextAt, leaving it undelivered
	// and bumping its delivered count. The update is atomic with respect
	// to concurrent FindDue snapshots: a reminder is never visible as due
	// under both its old and new remind time.
	// Returns ErrReminderNotFound if the reminder does not exist.
	Reschedule(ctx context.Context, id uuid.UUID, nextAt time.Time) error

	// Delete removes a reminder (owner cancellation, terminal regardless
	// of recurrence). Returns ErrReminderNotFound if it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// Count returns the total number of reminders and how many are pending.
	Count(ctx context.Context) (total, pending int, err error)

	// WithTx returns a new ReminderStore instance that uses the provided transaction.
	// This allows for multiple operations to be executed within a single transaction.
	// The transaction should be created and managed by the caller (typically a service).
	WithTx(tx *sql.Tx) ReminderStore
}
