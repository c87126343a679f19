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

// PostgresTodoStore implements the store.TodoStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTodoStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTodoStore creates a new PostgreSQL implementation of the
// TodoStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresTodoStore(db store.DBTX, logger *slog.Logger) *PostgresTodoStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTodoStore{
		db:     db,
		logger: logger.With(slog.String("component", "todo_store")),
	}
}

// Ensure PostgresTodoStore implements store.TodoStore interface
var _ store.TodoStore = (*PostgresTodoStore)(nil)

// WithTx returns a new store instance bound to the given transaction.
func (s *PostgresTodoStore) WithTx(tx *sql.Tx) store.TodoStore {
	return &PostgresTodoStore{
		db:     tx,
		logger: s.logger,
	}
}

const todoColumns = `id, user_id, title, due_date, priority, is_done, visibility, created_at, updated_at`

// Create implements store.TodoStore.Create
func (s *PostgresTodoStore) Create(ctx context.Context, todo *domain.Todo) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := todo.Validate(); err != nil {
		log.Warn("todo validation failed during create",
			slog.String("error", err.Error()),
			slog.String("todo_id", todo.ID.String()))
		return err
	}

	query := `
		INSERT INTO todos (` + todoColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		todo.ID,
		todo.UserID,
		todo.Title,
		todo.DueDate,
		todo.Priority,
		todo.IsDone,
		todo.Visibility,
		todo.CreatedAt,
		todo.UpdatedAt,
	)

	if err != nil {
		log.Error("failed to create todo",
			slog.String("error", err.Error()),
			slog.String("todo_id", todo.ID.String()))
		return MapError(err)
	}

	log.Info("todo created successfully",
		slog.String("todo_id", todo.ID.String()),
		slog.String("user_id", todo.UserID.String()))
	return nil
}

// GetByID implements store.TodoStore.GetByID
func (s *PostgresTodoStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Todo, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + todoColumns + `
		FROM todos
		WHERE id = $1
	`

	todo, err := scanTodo(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("todo not found", slog.String("todo_id", id.String()))
			return nil, store.ErrTodoNotFound
		}
		log.Error("failed to get todo by ID",
			slog.String("error", err.Error()),
			slog.String("todo_id", id.String()))
		return nil, MapError(err)
	}

	return todo, nil
}

// ListVisibleTo implements store.TodoStore.ListVisibleTo
func (s *PostgresTodoStore) ListVisibleTo(
	ctx context.Context,
	userID, familyGroupID uuid.UUID,
	includeDone bool,
) ([]*domain.Todo, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + todoColumns + `
		FROM todos
		WHERE ` + visibleToClause
	if !includeDone {
		query += ` AND is_done = FALSE`
	}
	query += ` ORDER BY priority DESC, created_at DESC, id`

	rows, err := s.db.QueryContext(ctx, query, userID, familyGroupID)
	if err != nil {
		log.Error("failed to query todos",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	todos := []*domain.Todo{}
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			log.Error("failed to scan todo row", slog.String("error", err.Error()))
			return nil, err
		}
		todos = append(todos, todo)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	return todos, nil
}

// Update implements store.TodoStore.Update
func (s *PostgresTodoStore) Update(ctx context.Context, todo *domain.Todo) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := todo.Validate(); err != nil {
		log.Warn("todo validation failed during update",
			slog.String("error", err.Error()),
			slog.String("todo_id", todo.ID.String()))
		return err
	}

	query := `
		UPDATE todos
		SET title = $1, due_date = $2, priority = $3, is_done = $4, visibility = $5, updated_at = $6
		WHERE id = $7
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		todo.Title,
		todo.DueDate,
		todo.Priority,
		todo.IsDone,
		todo.Visibility,
		time.Now().UTC(),
		todo.ID,
	)

	if err != nil {
		log.Error("failed to update todo",
			slog.String("error", err.Error()),
			slog.String("todo_id", todo.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrTodoNotFound); err != nil {
		log.Debug("todo not found for update",
			slog.String("todo_id", todo.ID.String()))
		return err
	}

	log.Info("todo updated successfully",
		slog.String("todo_id", todo.ID.String()),
		slog.Bool("is_done", todo.IsDone))
	return nil
}

// Delete implements store.TodoStore.Delete
func (s *PostgresTodoStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM todos WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete todo",
			slog.String("error", err.Error()),
			slog.String("todo_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrTodoNotFound); err != nil {
		return err
	}

	log.Info("todo deleted", slog.String("todo_id", id.String()))
	return nil
}

// Count implements store.TodoStore.Count
func (s *PostgresTodoStore) Count(ctx context.Context) (int, int, error) {
	var total, done int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE is_done)
		FROM todos
	`).Scan(&total, &done)
	if err != nil {
		return 0, 0, MapError(err)
	}
	return total, done, nil
}

// scanTodo scans a single todo row in todoColumns order.
func scanTodo(row rowScanner) (*domain.Todo, error) {
	var todo domain.Todo
	var visibility string

	err := row.Scan(
		&todo.ID,
		&todo.UserID,
		&todo.Title,
		&todo.DueDate,
		&todo.Priority,
		&todo.IsDone,
		&visibility,
		&todo.CreatedAt,
		&todo.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	todo.Visibility = domain.Visibility(visibility)
	return &todo, nil
}
