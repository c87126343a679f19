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

// PostgresEventStore implements the store.EventStore interface
// using a PostgreSQL database as the storage backend.
type PostgresEventStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresEventStore creates a new PostgreSQL implementation of the
// EventStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresEventStore(db store.DBTX, logger *slog.Logger) *PostgresEventStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresEventStore{
		db:     db,
		logger: logger.With(slog.String("component", "event_store")),
	}
}

// Ensure PostgresEventStore implements store.EventStore interface
var _ store.EventStore = (*PostgresEventStore)(nil)

// WithTx returns a new store instance bound to the given transaction.
func (s *PostgresEventStore) WithTx(tx *sql.Tx) store.EventStore {
	return &PostgresEventStore{
		db:     tx,
		logger: s.logger,
	}
}

const eventColumns = `id, user_id, title, description, start_time, end_time, visibility, created_at, updated_at`

// Create implements store.EventStore.Create
func (s *PostgresEventStore) Create(ctx context.Context, event *domain.Event) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := event.Validate(); err != nil {
		log.Warn("event validation failed during create",
			slog.String("error", err.Error()),
			slog.String("event_id", event.ID.String()))
		return err
	}

	query := `
		INSERT INTO events (` + eventColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		event.ID,
		event.UserID,
		event.Title,
		event.Description,
		event.StartTime,
		event.EndTime,
		event.Visibility,
		event.CreatedAt,
		event.UpdatedAt,
	)

	if err != nil {
		log.Error("failed to create event",
			slog.String("error", err.Error()),
			slog.String("event_id", event.ID.String()))
		return MapError(err)
	}

	log.Info("event created successfully",
		slog.String("event_id", event.ID.String()),
		slog.String("user_id", event.UserID.String()),
		slog.Time("start_time", event.StartTime))
	return nil
}

// GetByID implements store.EventStore.GetByID
func (s *PostgresEventStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE id = $1
	`

	event, err := scanEvent(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("event not found", slog.String("event_id", id.String()))
			return nil, store.ErrEventNotFound
		}
		log.Error("failed to get event by ID",
			slog.String("error", err.Error()),
			slog.String("event_id", id.String()))
		return nil, MapError(err)
	}

	return event, nil
}

// ListVisibleTo implements store.EventStore.ListVisibleTo
func (s *PostgresEventStore) ListVisibleTo(
	ctx context.Context,
	userID, familyGroupID uuid.UUID,
	start, end time.Time,
) ([]*domain.Event, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE ` + visibleToClause
	args := []any{userID, familyGroupID}

	if !start.IsZero() {
		args = append(args, start)
		query += ` AND start_time >= $3`
	}
	if !end.IsZero() {
		args = append(args, end)
		if start.IsZero() {
			query += ` AND start_time <= $3`
		} else {
			query += ` AND start_time <= $4`
		}
	}
	query += ` ORDER BY start_time, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query events",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	events := []*domain.Event{}
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			log.Error("failed to scan event row", slog.String("error", err.Error()))
			return nil, err
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	return events, nil
}

// Update implements store.EventStore.Update
func (s *PostgresEventStore) Update(ctx context.Context, event *domain.Event) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := event.Validate(); err != nil {
		log.Warn("event validation failed during update",
			slog.String("error", err.Error()),
			slog.String("event_id", event.ID.String()))
		return err
	}

	query := `
		UPDATE events
		SET title = $1, description = $2, start_time = $3, end_time = $4, visibility = $5, updated_at = $6
		WHERE id = $7
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		event.Title,
		event.Description,
		event.StartTime,
		event.EndTime,
		event.Visibility,
		time.Now().UTC(),
		event.ID,
	)

	if err != nil {
		log.Error("failed to update event",
			slog.String("error", err.Error()),
			slog.String("event_id", event.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrEventNotFound); err != nil {
		log.Debug("event not found for update",
			slog.String("event_id", event.ID.String()))
		return err
	}

	log.Info("event updated successfully",
		slog.String("event_id", event.ID.String()))
	return nil
}

// Delete implements store.EventStore.Delete
func (s *PostgresEventStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete event",
			slog.String("error", err.Error()),
			slog.String("event_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrEventNotFound); err != nil {
		return err
	}

	log.Info("event deleted", slog.String("event_id", id.String()))
	return nil
}

// Count implements store.EventStore.Count
func (s *PostgresEventStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&count); err != nil {
		return 0, MapError(err)
	}
	return count, nil
}

// scanEvent scans a single event row in eventColumns order.
func scanEvent(row rowScanner) (*domain.Event, error) {
	var event domain.Event
	var visibility string

	err := row.Scan(
		&event.ID,
		&event.UserID,
		&event.Title,
		&event.Description,
		&event.StartTime,
		&event.EndTime,
		&visibility,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	event.Visibility = domain.Visibility(visibility)
	return &event, nil
}
