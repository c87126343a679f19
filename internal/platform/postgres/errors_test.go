package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthapp/secretary/internal/store"
)

func TestMapError(t *testing.T) {
	t.Parallel()

	t.Run("nil passes through", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, MapError(nil))
	})

	t.Run("no rows maps to not found", func(t *testing.T) {
		t.Parallel()
		err := MapError(sql.ErrNoRows)
		assert.True(t, errors.Is(err, store.ErrNotFound))
	})

	t.Run("wrapped no rows maps to not found", func(t *testing.T) {
		t.Parallel()
		err := MapError(fmt.Errorf("query failed: %w", sql.ErrNoRows))
		assert.True(t, errors.Is(err, store.ErrNotFound))
	})

	t.Run("unique violation maps to duplicate", func(t *testing.T) {
		t.Parallel()
		err := MapError(&pgconn.PgError{Code: uniqueViolationCode})
		assert.True(t, errors.Is(err, store.ErrDuplicate))
	})

	t.Run("foreign key violation maps to invalid entity", func(t *testing.T) {
		t.Parallel()
		err := MapError(&pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: "reminders_user_id_fkey"})
		assert.True(t, errors.Is(err, store.ErrInvalidEntity))
		assert.Contains(t, err.Error(), "reminders_user_id_fkey")
	})

	t.Run("check violation maps to invalid entity", func(t *testing.T) {
		t.Parallel()
		err := MapError(&pgconn.PgError{Code: checkViolationCode})
		assert.True(t, errors.Is(err, store.ErrInvalidEntity))
	})

	t.Run("not null violation maps to invalid entity", func(t *testing.T) {
		t.Parallel()
		err := MapError(&pgconn.PgError{Code: notNullViolationCode, ColumnName: "message"})
		assert.True(t, errors.Is(err, store.ErrInvalidEntity))
	})

	t.Run("unknown error passes through", func(t *testing.T) {
		t.Parallel()
		original := errors.New("connection reset")
		assert.Equal(t, original, MapError(original))
	})
}

func TestIsViolationHelpers(t *testing.T) {
	t.Parallel()

	unique := &pgconn.PgError{Code: uniqueViolationCode}
	fk := &pgconn.PgError{Code: foreignKeyViolationCode}

	assert.True(t, IsUniqueViolation(unique))
	assert.False(t, IsUniqueViolation(fk))
	assert.False(t, IsUniqueViolation(errors.New("plain")))

	assert.True(t, IsForeignKeyViolation(fk))
	assert.False(t, IsForeignKeyViolation(unique))

	// Wrapped pg errors are still detected
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert failed: %w", unique)))
}

func TestCheckRowsAffected(t *testing.T) {
	t.Parallel()

	t.Run("nil result is an error", func(t *testing.T) {
		t.Parallel()
		require.Error(t, CheckRowsAffected(nil, store.ErrReminderNotFound))
	})

	t.Run("zero rows returns sentinel", func(t *testing.T) {
		t.Parallel()
		err := CheckRowsAffected(fakeResult{rows: 0}, store.ErrReminderNotFound)
		assert.ErrorIs(t, err, store.ErrReminderNotFound)
	})

	t.Run("zero rows without sentinel returns generic not found", func(t *testing.T) {
		t.Parallel()
		err := CheckRowsAffected(fakeResult{rows: 0}, nil)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("affected rows pass", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, CheckRowsAffected(fakeResult{rows: 1}, store.ErrReminderNotFound))
	})
}

// fakeResult implements sql.Result for unit tests.
type fakeResult struct {
	rows int64
}

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.rows, nil }
