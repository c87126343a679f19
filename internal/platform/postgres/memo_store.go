package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hearthapp/secretary/internal/domain"
	"github.com/hearthapp/secretary/internal/platform/logger"
	"github.com/hearthapp/secretary/internal/store"
)

// PostgresMemoStore implements the store.MemoStore interface
// using a PostgreSQL database as the storage backend.
type PostgresMemoStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresMemoStore creates a new PostgreSQL implementation of the
// MemoStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresMemoStore(db store.DBTX, logger *slog.Logger) *PostgresMemoStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresMemoStore{
		db:     db,
		logger: logger.With(slog.String("component", "memo_store")),
	}
}

// Ensure PostgresMemoStore implements store.MemoStore interface
var _ store.MemoStore = (*PostgresMemoStore)(nil)

// WithTx returns a new store instance bound to the given transaction.
func (s *PostgresMemoStore) WithTx(tx *sql.Tx) store.MemoStore {
	return &PostgresMemoStore{
		db:     tx,
		logger: s.logger,
	}
}

const memoColumns = `id, user_id, title, content, tags, visibility, created_at, updated_at`

// visibleToClause selects rows owned by $1 plus family-visible rows owned
// by members of family group $2. Shared by the memo, todo and event stores.
const visibleToClause = `(user_id = $1 OR (visibility = 'family' AND user_id IN (
			SELECT id FROM users WHERE family_group_id = $2)))`

// Create implements store.MemoStore.Create
func (s *PostgresMemoStore) Create(ctx context.Context, memo *domain.Memo) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := memo.Validate(); err != nil {
		log.Warn("memo validation failed during create",
			slog.String("error", err.Error()),
			slog.String("memo_id", memo.ID.String()))
		return err
	}

	query := `
		INSERT INTO memos (` + memoColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		memo.ID,
		memo.UserID,
		memo.Title,
		memo.Content,
		memo.Tags,
		memo.Visibility,
		memo.CreatedAt,
		memo.UpdatedAt,
	)

	if err != nil {
		log.Error("failed to create memo",
			slog.String("error", err.Error()),
			slog.String("memo_id", memo.ID.String()))
		return MapError(err)
	}

	log.Info("memo created successfully",
		slog.String("memo_id", memo.ID.String()),
		slog.String("user_id", memo.UserID.String()))
	return nil
}

// GetByID implements store.MemoStore.GetByID
func (s *PostgresMemoStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Memo, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + memoColumns + `
		FROM memos
		WHERE id = $1
	`

	memo, err := scanMemo(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("memo not found", slog.String("memo_id", id.String()))
			return nil, store.ErrMemoNotFound
		}
		log.Error("failed to get memo by ID",
			slog.String("error", err.Error()),
			slog.String("memo_id", id.String()))
		return nil, MapError(err)
	}

	return memo, nil
}

// ListVisibleTo implements store.MemoStore.ListVisibleTo
func (s *PostgresMemoStore) ListVisibleTo(ctx context.Context, userID, familyGroupID uuid.UUID) ([]*domain.Memo, error) {
	query := `
		SELECT ` + memoColumns + `
		FROM memos
		WHERE ` + visibleToClause + `
		ORDER BY created_at DESC, id
	`

	return s.queryMemos(ctx, query, userID, familyGroupID)
}

// Search implements store.MemoStore.Search
func (s *PostgresMemoStore) Search(ctx context.Context, userID, familyGroupID uuid.UUID, q string) ([]*domain.Memo, error) {
	query := `
		SELECT ` + memoColumns + `
		FROM memos
		WHERE ` + visibleToClause + `
		  AND (title ILIKE $3 OR content ILIKE $3 OR tags ILIKE $3)
		ORDER BY created_at DESC, id
	`

	return s.queryMemos(ctx, query, userID, familyGroupID, "%"+q+"%")
}

// Update implements store.MemoStore.Update
func (s *PostgresMemoStore) Update(ctx context.Context, memo *domain.Memo) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := memo.Validate(); err != nil {
		log.Warn("memo validation failed during update",
			slog.String("error", err.Error()),
			slog.String("memo_id", memo.ID.String()))
		return err
	}

	query := `
		UPDATE memos
		SET title = $1, content = $2, tags = $3, visibility = $4, updated_at = $5
		WHERE id = $6
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		memo.Title,
		memo.Content,
		memo.Tags,
		memo.Visibility,
		time.Now().UTC(),
		memo.ID,
	)

	if err != nil {
		log.Error("failed to update memo",
			slog.String("error", err.Error()),
			slog.String("memo_id", memo.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrMemoNotFound); err != nil {
		log.Debug("memo not found for update",
			slog.String("memo_id", memo.ID.String()))
		return err
	}

	log.Info("memo updated successfully",
		slog.String("memo_id", memo.ID.String()))
	return nil
}

// Delete implements store.MemoStore.Delete
func (s *PostgresMemoStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM memos WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete memo",
			slog.String("error", err.Error()),
			slog.String("memo_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrMemoNotFound); err != nil {
		return err
	}

	log.Info("memo deleted", slog.String("memo_id", id.String()))
	return nil
}

// Count implements store.MemoStore.Count
func (s *PostgresMemoStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memos`).Scan(&count); err != nil {
		return 0, MapError(err)
	}
	return count, nil
}

// queryMemos runs a memo query and drains the rows.
func (s *PostgresMemoStore) queryMemos(ctx context.Context, query string, args ...any) ([]*domain.Memo, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query memos", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	memos := []*domain.Memo{}
	for rows.Next() {
		memo, err := scanMemo(rows)
		if err != nil {
			log.Error("failed to scan memo row", slog.String("error", err.Error()))
			return nil, err
		}
		memos = append(memos, memo)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	return memos, nil
}

// scanMemo scans a single memo row in memoColumns order.
func scanMemo(row rowScanner) (*domain.Memo, error) {
	var memo domain.Memo
	var visibility string

	err := row.Scan(
		&memo.ID,
		&memo.UserID,
		&memo.Title,
		&memo.Content,
		&memo.Tags,
		&visibility,
		&memo.CreatedAt,
		&memo.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	memo.Visibility = domain.Visibility(visibility)
	return &memo, nil
}
