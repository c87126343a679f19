package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/hearthapp/secretary/internal/domain"
)

// TodoStore defines the interface for todo data persistence.
type TodoStore interface {
	// Create saves a new todo to the store.
	Create(ctx context.Context, todo *domain.Todo) error

	// GetByID retrieves a todo by its unique ID.
	// Returns ErrTodoNotFound if the todo does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Todo, error)

	// ListVisibleTo retrieves the user's own todos plus family-visible
	// todos owned by other members of the given family group, ordered by
	// priority (highest first) then creation time (newest first).
	// Completed todos are excluded unless includeDone is set.
	ListVisibleTo(ctx context.Context, userID, familyGroupID uuid.UUID, includeDone bool) ([]*domain.Todo, error)

	// Update saves changes to an existing todo.
	// Returns ErrTodoNotFound if the todo does not exist.
	Update(ctx context.Context, todo *domain.Todo) error

	// Delete removes a todo.
	// Returns ErrTodoNotFound if the todo does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// Count returns the total number of todos and how many are done.
	Count(ctx context.Context) (total, done int, err error)

	// WithTx returns a new TodoStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) TodoStore
}
