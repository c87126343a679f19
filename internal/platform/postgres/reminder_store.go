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

// PostgresReminderStore implements the store.ReminderStore interface
// using a PostgreSQL database as the storage backend.
type PostgresReminderStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresReminderStore creates a new PostgreSQL implementation of the
// ReminderStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresReminderStore(db store.DBTX, logger *slog.Logger) *PostgresReminderStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresReminderStore{
		db:     db,
		logger: logger.With(slog.String("component", "reminder_store")),
	}
}

// Ensure PostgresReminderStore implements store.ReminderStore interface
var _ store.ReminderStore = (*PostgresReminderStore)(nil)

// WithTx returns a new store instance bound to the given transaction.
func (s *PostgresReminderStore) WithTx(tx *sql.Tx) store.ReminderStore {
	return &PostgresReminderStore{
		db:     tx,
		logger: s.logger,
	}
}

const reminderColumns = `id, user_id, message, remind_at, is_recurring, recurrence_rule,
		recurrence_count, recurrence_end_date, delivered_count, is_delivered, created_at`

// Create implements store.ReminderStore.Create
// It saves a new reminder to the database, handling domain validation.
func (s *PostgresReminderStore) Create(ctx context.Context, reminder *domain.Reminder) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := reminder.Validate(); err != nil {
		log.Warn("reminder validation failed during create",
			slog.String("error", err.Error()),
			slog.String("reminder_id", reminder.ID.String()))
		return err
	}

	query := `
		INSERT INTO reminders (` + reminderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		reminder.ID,
		reminder.UserID,
		reminder.Message,
		reminder.RemindAt,
		reminder.IsRecurring,
		reminder.Rule,
		reminder.RecurrenceCount,
		reminder.RecurrenceEndDate,
		reminder.DeliveredCount,
		reminder.IsDelivered,
		reminder.CreatedAt,
	)

	if err != nil {
		log.Error("failed to create reminder",
			slog.String("error", err.Error()),
			slog.String("reminder_id", reminder.ID.String()),
			slog.String("user_id", reminder.UserID.String()))
		return MapError(err)
	}

	log.Info("reminder created successfully",
		slog.String("reminder_id", reminder.ID.String()),
		slog.String("user_id", reminder.UserID.String()),
		slog.Time("remind_at", reminder.RemindAt))
	return nil
}

// GetByID implements store.ReminderStore.GetByID
// Returns store.ErrReminderNotFound if the reminder does not exist.
func (s *PostgresReminderStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Reminder, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + reminderColumns + `
		FROM reminders
		WHERE id = $1
	`

	reminder, err := scanReminder(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("reminder not found", slog.String("reminder_id", id.String()))
			return nil, store.ErrReminderNotFound
		}
		log.Error("failed to get reminder by ID",
			slog.String("error", err.Error()),
			slog.String("reminder_id", id.String()))
		return nil, MapError(err)
	}

	return reminder, nil
}

// ListByUser implements store.ReminderStore.ListByUser
func (s *PostgresReminderStore) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	includeDelivered bool,
) ([]*domain.Reminder, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + reminderColumns + `
		FROM reminders
		WHERE user_id = $1
	`
	if !includeDelivered {
		query += ` AND is_delivered = FALSE`
	}
	query += ` ORDER BY remind_at, id`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to list reminders",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}

	return collectReminders(rows, log)
}

// FindDue implements store.ReminderStore.FindDue
// It takes a snapshot of all undelivered reminders due at or before now,
// oldest obligation first with a stable ID tie-break. No rows are locked.
func (s *PostgresReminderStore) FindDue(ctx context.Context, now time.Time) ([]*domain.Reminder, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + reminderColumns + `
		FROM reminders
		WHERE is_delivered = FALSE AND remind_at <= $1
		ORDER BY remind_at, id
	`

	rows, err := s.db.QueryContext(ctx, query, now)
	if err != nil {
		log.Error("failed to query due reminders",
			slog.String("error", err.Error()),
			slog.Time("now", now))
		return nil, MapError(err)
	}

	reminders, err := collectReminders(rows, log)
	if err != nil {
		return nil, err
	}

	log.Debug("found due reminders",
		slog.Int("count", len(reminders)),
		slog.Time("now", now))
	return reminders, nil
}

// MarkDelivered implements store.ReminderStore.MarkDelivered
// The is_delivered guard in the WHERE clause makes the operation idempotent:
// a second commit attempt matches no rows and is treated as a no-op once the
// reminder is confirmed to exist.
func (s *PostgresReminderStore) MarkDelivered(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE reminders
		SET is_delivered = TRUE, delivered_count = delivered_count + 1
		WHERE id = $1 AND is_delivered = FALSE
	`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		log.Error("failed to mark reminder delivered",
			slog.String("error", err.Error()),
			slog.String("reminder_id", id.String()))
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return MapError(err)
	}

	if rowsAffected == 0 {
		// Either already delivered (safe duplicate commit) or missing.
		var exists bool
		err := s.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM reminders WHERE id = $1)`, id).Scan(&exists)
		if err != nil {
			return MapError(err)
		}
		if !exists {
			return store.ErrReminderNotFound
		}
		log.Debug("reminder already delivered, treating commit as no-op",
			slog.String("reminder_id", id.String()))
		return nil
	}

	log.Info("reminder marked delivered",
		slog.String("reminder_id", id.String()))
	return nil
}

// Reschedule implements store.ReminderStore.Reschedule
// The single UPDATE makes the transition atomic with respect to concurrent
// FindDue snapshots: readers see the old remind time or the new one, never
// an intermediate state.
func (s *PostgresReminderStore) Reschedule(ctx context.Context, id uuid.UUID, nextAt time.Time) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE reminders
		SET remind_at = $1, is_delivered = FALSE, delivered_count = delivered_count + 1
		WHERE id = $2
	`

	result, err := s.db.ExecContext(ctx, query, nextAt, id)
	if err != nil {
		log.Error("failed to reschedule reminder",
			slog.String("error", err.Error()),
			slog.String("reminder_id", id.String()),
			slog.Time("next_at", nextAt))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrReminderNotFound); err != nil {
		log.Debug("reminder not found for reschedule",
			slog.String("reminder_id", id.String()))
		return err
	}

	log.Info("reminder rescheduled",
		slog.String("reminder_id", id.String()),
		slog.Time("next_at", nextAt))
	return nil
}

// Delete implements store.ReminderStore.Delete
func (s *PostgresReminderStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM reminders WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete reminder",
			slog.String("error", err.Error()),
			slog.String("reminder_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrReminderNotFound); err != nil {
		return err
	}

	log.Info("reminder deleted", slog.String("reminder_id", id.String()))
	return nil
}

// Count implements store.ReminderStore.Count
func (s *PostgresReminderStore) Count(ctx context.Context) (int, int, error) {
	var total, pending int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE is_delivered = FALSE)
		FROM reminders
	`).Scan(&total, &pending)
	if err != nil {
		return 0, 0, MapError(err)
	}
	return total, pending, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning code.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanReminder scans a single reminder row in reminderColumns order.
func scanReminder(row rowScanner) (*domain.Reminder, error) {
	var reminder domain.Reminder
	var rule string

	err := row.Scan(
		&reminder.ID,
		&reminder.UserID,
		&reminder.Message,
		&reminder.RemindAt,
		&reminder.IsRecurring,
		&rule,
		&reminder.RecurrenceCount,
		&reminder.RecurrenceEndDate,
		&reminder.DeliveredCount,
		&reminder.IsDelivered,
		&reminder.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	reminder.Rule = domain.RecurrenceRule(rule)
	return &reminder, nil
}

// collectReminders drains rows into a slice, always returning a non-nil slice.
func collectReminders(rows *sql.Rows, log *slog.Logger) ([]*domain.Reminder, error) {
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	reminders := []*domain.Reminder{}
	for rows.Next() {
		reminder, err := scanReminder(rows)
		if err != nil {
			log.Error("failed to scan reminder row", slog.String("error", err.Error()))
			return nil, err
		}
		reminders = append(reminders, reminder)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	return reminders, nil
}
