package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/hearthapp/secretary/internal/domain"
)

// EventStore defines the interface for calendar event data persistence.
type EventStore interface {
	// Create saves a new event to the store.
	Create(ctx context.Context, event *domain.Event) error

	// GetByID retrieves an event by its unique ID.
	// Returns ErrEventNotFound if the event does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Event, error)

	// ListVisibleTo retrieves the user's own events plus family-visible
	// events owned by other members of the given family group, ordered by
	// start time. When start or end are non-zero they bound the range
	// (inclusive) on the event's start time.
	ListVisibleTo(ctx context.Context, userID, familyGroupID uuid.UUID, start, end time.Time) ([]*domain.Event, error)

	// Update saves changes to an existing event.
	// Returns ErrEventNotFound if the event does not exist.
	Update(ctx context.Context, event *domain.Event) error

	// Delete removes an event.
	// Returns ErrEventNotFound if the event does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// Count returns the total number of events.
	Count(ctx context.Context) (int, error)

	// WithTx returns a new EventStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) EventStore
}
