package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/hearthapp/secretary/internal/domain"
	"github.com/hearthapp/secretary/internal/store"
)

// LinkInvalidator drops a user's cached platform links after they change.
// Satisfied by the Redis link cache; may be nil when caching is disabled.
type LinkInvalidator interface {
	Invalidate(ctx context.Context, userID uuid.UUID) error
}

// UserService provides user registration and platform link management.
// Users are identified by the chat platform that delivered their message;
// there are no passwords.
type UserService interface {
	// GetOrCreate resolves the user owning the given platform account,
	// registering them on first contact. The first user ever creates the
	// household's family group and becomes its admin; later users join
	// the existing group as members.
	GetOrCreate(ctx context.Context, platform, platformUserID, displayName string) (*domain.User, error)

	// LinkPlatform attaches an additional platform account to an existing
	// user. Returns ErrPlatformAlreadyLinked if the account is taken.
	LinkPlatform(ctx context.Context, userID uuid.UUID, platform, platformUserID string, isPrimary bool) (*domain.PlatformLink, error)

	// FamilyMembers retrieves the members of the user's family group.
	FamilyMembers(ctx context.Context, userID uuid.UUID) ([]*domain.User, error)

	// PlatformLinks retrieves the user's platform links in notification
	// fallback order.
	PlatformLinks(ctx context.Context, userID uuid.UUID) ([]*domain.PlatformLink, error)
}

// defaultFamilyGroupName names the group the first user creates.
const defaultFamilyGroupName = "Family"

type userServiceImpl struct {
	users  store.UserStore
	db     *sql.DB
	cache  LinkInvalidator
	logger *slog.Logger
}

// NewUserService creates a new UserService. The cache may be nil.
// It returns an error if any of the required dependencies are nil.
func NewUserService(users store.UserStore, db *sql.DB, cache LinkInvalidator, logger *slog.Logger) (UserService, error) {
	if users == nil {
		return nil, errors.New("user store cannot be nil")
	}
	if db == nil {
		return nil, errors.New("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &userServiceImpl{
		users:  users,
		db:     db,
		cache:  cache,
		logger: logger.With(slog.String("component", "user_service")),
	}, nil
}

func (s *userServiceImpl) GetOrCreate(ctx context.Context, platform, platformUserID, displayName string) (*domain.User, error) {
	user, err := s.users.GetByPlatform(ctx, platform, platformUserID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, store.ErrUserNotFound) {
		return nil, wrapServiceError("user", "get_or_create", err)
	}

	// First contact: register the user inside a transaction so the group,
	// user and link appear atomically. A concurrent registration for the
	// same account loses on the link's unique constraint and retries as a
	// plain lookup.
	var created *domain.User
	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txUsers := s.users.WithTx(tx)

		group, err := txUsers.FirstFamilyGroup(ctx)
		role := domain.RoleMember
		if errors.Is(err, store.ErrFamilyGroupNotFound) {
			group, err = domain.NewFamilyGroup(defaultFamilyGroupName)
			if err != nil {
				return err
			}
			if err := txUsers.CreateFamilyGroup(ctx, group); err != nil {
				return err
			}
			// The household founder administers the group
			role = domain.RoleAdmin
		} else if err != nil {
			return err
		}

		user, err := domain.NewUser(displayName, group.ID, role, "")
		if err != nil {
			return err
		}
		if err := txUsers.Create(ctx, user); err != nil {
			return err
		}

		link, err := domain.NewPlatformLink(user.ID, platform, platformUserID, true)
		if err != nil {
			return err
		}
		if err := txUsers.LinkPlatform(ctx, link); err != nil {
			return err
		}

		created = user
		return nil
	})

	if err != nil {
		if errors.Is(err, store.ErrPlatformLinkExists) {
			// Lost a registration race; the account now resolves
			user, lookupErr := s.users.GetByPlatform(ctx, platform, platformUserID)
			if lookupErr == nil {
				return user, nil
			}
		}
		return nil, wrapServiceError("user", "get_or_create", err)
	}

	s.logger.Info("user registered",
		slog.String("user_id", created.ID.String()),
		slog.String("platform", platform),
		slog.String("role", created.Role))
	return created, nil
}

func (s *userServiceImpl) LinkPlatform(ctx context.Context, userID uuid.UUID, platform, platformUserID string, isPrimary bool) (*domain.PlatformLink, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, wrapServiceError("user", "link_platform", err)
	}

	link, err := domain.NewPlatformLink(userID, platform, platformUserID, isPrimary)
	if err != nil {
		return nil, wrapServiceError("user", "link_platform", err)
	}

	if isPrimary {
		// Demote the existing primary in the same transaction so at most
		// one link per user carries the flag at any point.
		err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
			txUsers := s.users.WithTx(tx)
			if err := txUsers.ClearPrimaryLink(ctx, userID); err != nil {
				return err
			}
			return txUsers.LinkPlatform(ctx, link)
		})
	} else {
		err = s.users.LinkPlatform(ctx, link)
	}
	if err != nil {
		if errors.Is(err, store.ErrPlatformLinkExists) {
			return nil, ErrPlatformAlreadyLinked
		}
		return nil, wrapServiceError("user", "link_platform", err)
	}

	// Drop the cached fallback order so the next dispatch sees the new link
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, userID); err != nil {
			s.logger.Warn("failed to invalidate link cache",
				slog.String("user_id", userID.String()),
				slog.String("error", err.Error()))
		}
	}

	s.logger.Info("platform linked to user",
		slog.String("user_id", userID.String()),
		slog.String("platform", platform),
		slog.Bool("is_primary", isPrimary))
	return link, nil
}

func (s *userServiceImpl) FamilyMembers(ctx context.Context, userID uuid.UUID) ([]*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, wrapServiceError("user", "family_members", err)
	}

	members, err := s.users.ListFamilyMembers(ctx, user.FamilyGroupID)
	if err != nil {
		return nil, wrapServiceError("user", "family_members", err)
	}
	return members, nil
}

func (s *userServiceImpl) PlatformLinks(ctx context.Context, userID uuid.UUID) ([]*domain.PlatformLink, error) {
	links, err := s.users.GetPlatformLinks(ctx, userID)
	if err != nil {
		return nil, wrapServiceError("user", "platform_links", err)
	}
	return links, nil
}
