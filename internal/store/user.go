package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/hearthapp/secretary/internal/domain"
)

// UserStore defines the interface for user, family group and platform link
// persistence. It also serves as the user directory consumed by the
// notification dispatcher: GetPlatformLinks resolves a user's delivery
// channels in fallback order.
type UserStore interface {
	// Create saves a new user to the store.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by its unique ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByPlatform retrieves the user owning the given platform account.
	// Returns ErrUserNotFound if no user has linked that account.
	GetByPlatform(ctx context.Context, platform, platformUserID string) (*domain.User, error)

	// CreateFamilyGroup saves a new family group.
	CreateFamilyGroup(ctx context.Context, group *domain.FamilyGroup) error

	// GetFamilyGroup retrieves a family group by ID.
	// Returns ErrFamilyGroupNotFound if the group does not exist.
	GetFamilyGroup(ctx context.Context, id uuid.UUID) (*domain.FamilyGroup, error)

	// FirstFamilyGroup returns any existing family group, or
	// ErrFamilyGroupNotFound when none exists yet. Used during
	// registration: the first user ever creates the household.
	FirstFamilyGroup(ctx context.Context) (*domain.FamilyGroup, error)

	// ListFamilyMembers retrieves all users in a family group ordered by
	// creation time.
	ListFamilyMembers(ctx context.Context, groupID uuid.UUID) ([]*domain.User, error)

	// LinkPlatform saves a new platform link for a user.
	// Returns ErrPlatformLinkExists if the platform account is already linked.
	LinkPlatform(ctx context.Context, link *domain.PlatformLink) error

	// ClearPrimaryLink demotes the user's current primary platform link,
	// if any. Used before inserting a new primary so at most one link per
	// user carries the flag. Clearing when no primary exists is a no-op.
	ClearPrimaryLink(ctx context.Context, userID uuid.UUID) error

	// GetPlatformLinks retrieves a user's platform links ordered primary
	// first, then by creation time (stable tie-break by ID). An empty
	// slice means the user is unreachable.
	GetPlatformLinks(ctx context.Context, userID uuid.UUID) ([]*domain.PlatformLink, error)

	// CountUsers returns the total number of registered users.
	CountUsers(ctx context.Context) (int, error)

	// WithTx returns a new UserStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) UserStore
}
