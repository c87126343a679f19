package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/hearthapp/secretary/internal/domain"
)

// MemoStore defines the interface for memo data persistence.
type MemoStore interface {
	// Create saves a new memo to the store.
	// It handles domain validation internally.
	Create(ctx context.Context, memo *domain.Memo) error

	// GetByID retrieves a memo by its unique ID.
	// Returns ErrMemoNotFound if the memo does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Memo, error)

	// ListVisibleTo retrieves the user's own memos plus family-visible
	// memos owned by other members of the given family group, newest first.
	ListVisibleTo(ctx context.Context, userID, familyGroupID uuid.UUID) ([]*domain.Memo, error)

	// Search retrieves memos visible to the user whose title, content or
	// tags match the query (case-insensitive substring), newest first.
	Search(ctx context.Context, userID, familyGroupID uuid.UUID, query string) ([]*domain.Memo, error)

	// Update saves changes to an existing memo.
	// Returns ErrMemoNotFound if the memo does not exist.
	Update(ctx context.Context, memo *domain.Memo) error

	// Delete removes a memo.
	// Returns ErrMemoNotFound if the memo does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// Count returns the total number of memos.
	Count(ctx context.Context) (int, error)

	// WithTx returns a new MemoStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) MemoStore
}
