package api

import (
	"context"
	"fmt"

	"github.com/hearthapp/secretary/internal/store"
)

// StoreStats gathers entity counts straight from the stores.
type StoreStats struct {
	Users     store.UserStore
	Memos     store.MemoStore
	Todos     store.TodoStore
	Events    store.EventStore
	Reminders store.ReminderStore
}

// Snapshot implements StatsSource.
func (s StoreStats) Snapshot(ctx context.Context) (StatsSnapshot, error) {
	var snap StatsSnapshot
	var err error

	if snap.Users, err = s.Users.CountUsers(ctx); err != nil {
		return snap, fmt.Errorf("failed to count users: %w", err)
	}
	if snap.Memos, err = s.Memos.Count(ctx); err != nil {
		return snap, fmt.Errorf("failed to count memos: %w", err)
	}
	if snap.Todos, snap.TodosDone, err = s.Todos.Count(ctx); err != nil {
		return snap, fmt.Errorf("failed to count todos: %w", err)
	}
	if snap.Events, err = s.Events.Count(ctx); err != nil {
		return snap, fmt.Errorf("failed to count events: %w", err)
	}
	if snap.Reminders, snap.RemindersPending, err = s.Reminders.Count(ctx); err != nil {
		return snap, fmt.Errorf("failed to count reminders: %w", err)
	}

	return snap, nil
}
