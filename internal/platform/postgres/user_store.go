package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/hearthapp/secretary/internal/domain"
	"github.com/hearthapp/secretary/internal/platform/logger"
	"github.com/hearthapp/secretary/internal/store"
)

// PostgresUserStore implements the store.UserStore interface
// using a PostgreSQL database as the storage backend.
type PostgresUserStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresUserStore creates a new PostgreSQL implementation of the
// UserStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresUserStore(db store.DBTX, logger *slog.Logger) *PostgresUserStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresUserStore{
		db:     db,
		logger: logger.With(slog.String("component", "user_store")),
	}
}

// Ensure PostgresUserStore implements store.UserStore interface
var _ store.UserStore = (*PostgresUserStore)(nil)

// WithTx returns a new store instance bound to the given transaction.
func (s *PostgresUserStore) WithTx(tx *sql.Tx) store.UserStore {
	return &PostgresUserStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.UserStore.Create
func (s *PostgresUserStore) Create(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := user.Validate(); err != nil {
		log.Warn("user validation failed during create",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return err
	}

	query := `
		INSERT INTO users (id, display_name, family_group_id, role, timezone, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		user.ID,
		user.DisplayName,
		user.FamilyGroupID,
		user.Role,
		user.Timezone,
		user.CreatedAt,
	)

	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during user creation",
				slog.String("error", err.Error()),
				slog.String("family_group_id", user.FamilyGroupID.String()))
			return fmt.Errorf("%w: family group with ID %s not found",
				store.ErrInvalidEntity, user.FamilyGroupID)
		}

		log.Error("failed to create user",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return MapError(err)
	}

	log.Info("user created successfully",
		slog.String("user_id", user.ID.String()),
		slog.String("family_group_id", user.FamilyGroupID.String()))
	return nil
}

// GetByID implements store.UserStore.GetByID
func (s *PostgresUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, display_name, family_group_id, role, timezone, created_at
		FROM users
		WHERE id = $1
	`

	user, err := scanUser(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("user not found", slog.String("user_id", id.String()))
			return nil, store.ErrUserNotFound
		}
		log.Error("failed to get user by ID",
			slog.String("error", err.Error()),
			slog.String("user_id", id.String()))
		return nil, MapError(err)
	}

	return user, nil
}

// GetByPlatform implements store.UserStore.GetByPlatform
func (s *PostgresUserStore) GetByPlatform(ctx context.Context, platform, platformUserID string) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT u.id, u.display_name, u.family_group_id, u.role, u.timezone, u.created_at
		FROM users u
		JOIN user_platform_links l ON l.user_id = u.id
		WHERE l.platform = $1 AND l.platform_user_id = $2
	`

	user, err := scanUser(s.db.QueryRowContext(ctx, query, platform, platformUserID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("no user for platform account",
				slog.String("platform", platform))
			return nil, store.ErrUserNotFound
		}
		log.Error("failed to get user by platform account",
			slog.String("error", err.Error()),
			slog.String("platform", platform))
		return nil, MapError(err)
	}

	return user, nil
}

// CreateFamilyGroup implements store.UserStore.CreateFamilyGroup
func (s *PostgresUserStore) CreateFamilyGroup(ctx context.Context, group *domain.FamilyGroup) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := group.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO family_groups (id, name, created_at)
		VALUES ($1, $2, $3)
	`
	_, err := s.db.ExecContext(ctx, query, group.ID, group.Name, group.CreatedAt)
	if err != nil {
		log.Error("failed to create family group",
			slog.String("error", err.Error()),
			slog.String("family_group_id", group.ID.String()))
		return MapError(err)
	}

	log.Info("family group created",
		slog.String("family_group_id", group.ID.String()),
		slog.String("name", group.Name))
	return nil
}

// GetFamilyGroup implements store.UserStore.GetFamilyGroup
func (s *PostgresUserStore) GetFamilyGroup(ctx context.Context, id uuid.UUID) (*domain.FamilyGroup, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var group domain.FamilyGroup
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, created_at FROM family_groups WHERE id = $1
	`, id).Scan(&group.ID, &group.Name, &group.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrFamilyGroupNotFound
		}
		log.Error("failed to get family group",
			slog.String("error", err.Error()),
			slog.String("family_group_id", id.String()))
		return nil, MapError(err)
	}

	return &group, nil
}

// FirstFamilyGroup implements store.UserStore.FirstFamilyGroup
func (s *PostgresUserStore) FirstFamilyGroup(ctx context.Context) (*domain.FamilyGroup, error) {
	var group domain.FamilyGroup
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, created_at FROM family_groups ORDER BY created_at LIMIT 1
	`).Scan(&group.ID, &group.Name, &group.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrFamilyGroupNotFound
		}
		return nil, MapError(err)
	}

	return &group, nil
}

// ListFamilyMembers implements store.UserStore.ListFamilyMembers
func (s *PostgresUserStore) ListFamilyMembers(ctx context.Context, groupID uuid.UUID) ([]*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, display_name, family_group_id, role, timezone, created_at
		FROM users
		WHERE family_group_id = $1
		ORDER BY created_at, id
	`

	rows, err := s.db.QueryContext(ctx, query, groupID)
	if err != nil {
		log.Error("failed to list family members",
			slog.String("error", err.Error()),
			slog.String("family_group_id", groupID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	users := []*domain.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			log.Error("failed to scan user row", slog.String("error", err.Error()))
			return nil, err
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	return users, nil
}

// LinkPlatform implements store.UserStore.LinkPlatform
// Returns store.ErrPlatformLinkExists when the platform account is already
// linked to some user (platform accounts are globally unique per platform).
func (s *PostgresUserStore) LinkPlatform(ctx context.Context, link *domain.PlatformLink) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := link.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO user_platform_links (id, user_id, platform, platform_user_id, is_primary, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		link.ID,
		link.UserID,
		link.Platform,
		link.PlatformUserID,
		link.IsPrimary,
		link.CreatedAt,
	)

	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("platform account already linked",
				slog.String("platform", link.Platform))
			return store.ErrPlatformLinkExists
		}

		log.Error("failed to link platform",
			slog.String("error", err.Error()),
			slog.String("user_id", link.UserID.String()),
			slog.String("platform", link.Platform))
		return MapError(err)
	}

	log.Info("platform linked",
		slog.String("user_id", link.UserID.String()),
		slog.String("platform", link.Platform),
		slog.Bool("is_primary", link.IsPrimary))
	return nil
}

// ClearPrimaryLink implements store.UserStore.ClearPrimaryLink
// Zero affected rows is fine: the user simply had no primary link.
func (s *PostgresUserStore) ClearPrimaryLink(ctx context.Context, userID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE user_platform_links
		SET is_primary = FALSE
		WHERE user_id = $1 AND is_primary
	`
	if _, err := s.db.ExecContext(ctx, query, userID); err != nil {
		log.Error("failed to clear primary platform link",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return MapError(err)
	}

	return nil
}

// GetPlatformLinks implements store.UserStore.GetPlatformLinks
// Links come back in notification fallback order: primary first, then
// creation order with a stable ID tie-break.
func (s *PostgresUserStore) GetPlatformLinks(ctx context.Context, userID uuid.UUID) ([]*domain.PlatformLink, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, platform, platform_user_id, is_primary, created_at
		FROM user_platform_links
		WHERE user_id = $1
		ORDER BY is_primary DESC, created_at, id
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to get platform links",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	links := []*domain.PlatformLink{}
	for rows.Next() {
		var link domain.PlatformLink
		err := rows.Scan(
			&link.ID,
			&link.UserID,
			&link.Platform,
			&link.PlatformUserID,
			&link.IsPrimary,
			&link.CreatedAt,
		)
		if err != nil {
			log.Error("failed to scan platform link row", slog.String("error", err.Error()))
			return nil, err
		}
		links = append(links, &link)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	return links, nil
}

// CountUsers implements store.UserStore.CountUsers
func (s *PostgresUserStore) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, MapError(err)
	}
	return count, nil
}

// scanUser scans a single user row.
func scanUser(row rowScanner) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.DisplayName,
		&user.FamilyGroupID,
		&user.Role,
		&user.Timezone,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
