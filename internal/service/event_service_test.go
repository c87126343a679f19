package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthapp/secretary/internal/domain"
)

func newEventService(t *testing.T) (EventService, *fakeUserStore) {
	t.Helper()
	users := newFakeUserStore()
	svc, err := NewEventService(newFakeEventStore(), users, testLogger())
	require.NoError(t, err)
	return svc, users
}

func TestEventService_CreateDefaultsToFamily(t *testing.T) {
	t.Parallel()

	svc, users := newEventService(t)
	owner := users.addUser("Alex", uuid.New())

	event, err := svc.Create(context.Background(), owner.ID, "dentist", "",
		time.Now().UTC().Add(24*time.Hour), nil, "")
	require.NoError(t, err)
	assert.Equal(t, domain.VisibilityFamily, event.Visibility)
}

func TestEventService_EndBeforeStartRejected(t *testing.T) {
	t.Parallel()

	svc, users := newEventService(t)
	owner := users.addUser("Alex", uuid.New())

	start := time.Now().UTC().Add(24 * time.Hour)
	end := start.Add(-time.Hour)
	_, err := svc.Create(context.Background(), owner.ID, "dentist", "", start, &end, "")
	assert.Error(t, err)
}

func TestEventService_TodaySchedule(t *testing.T) {
	t.Parallel()

	svc, users := newEventService(t)
	owner := users.addUser("Alex", uuid.New())

	now := time.Date(2026, 8, 31, 14, 0, 0, 0, time.UTC)

	today, err := svc.Create(context.Background(), owner.ID, "school pickup", "",
		time.Date(2026, 8, 31, 15, 30, 0, 0, time.UTC), nil, "")
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), owner.ID, "tomorrow", "",
		time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC), nil, "")
	require.NoError(t, err)

	schedule, err := svc.TodaySchedule(context.Background(), owner.ID, now, time.UTC)
	require.NoError(t, err)
	require.Len(t, schedule, 1)
	assert.Equal(t, today.ID, schedule[0].ID)
}

func TestEventService_UpdateDeniedForNonOwner(t *testing.T) {
	t.Parallel()

	svc, users := newEventService(t)
	groupID := uuid.New()
	owner := users.addUser("Alex", groupID)
	sibling := users.addUser("Sam", groupID)

	event, err := svc.Create(context.Background(), owner.ID, "dinner", "",
		time.Now().UTC().Add(6*time.Hour), nil, domain.VisibilityFamily)
	require.NoError(t, err)

	// Readable by the family, writable only by the owner
	_, err = svc.Get(context.Background(), sibling.ID, event.ID)
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), sibling.ID, event.ID, "moved", "",
		event.StartTime, nil, domain.VisibilityFamily)
	assert.ErrorIs(t, err, ErrNotOwned)
}
