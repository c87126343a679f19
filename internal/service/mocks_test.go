package service

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/hearthapp/secretary/internal/domain"
	"github.com/hearthapp/secretary/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeUserStore is an in-memory store.UserStore.
type fakeUserStore struct {
	users  map[uuid.UUID]*domain.User
	groups map[uuid.UUID]*domain.FamilyGroup
	links  map[uuid.UUID][]*domain.PlatformLink
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		users:  make(map[uuid.UUID]*domain.User),
		groups: make(map[uuid.UUID]*domain.FamilyGroup),
		links:  make(map[uuid.UUID][]*domain.PlatformLink),
	}
}

func (f *fakeUserStore) addUser(displayName string, groupID uuid.UUID) *domain.User {
	user := &domain.User{
		ID:            uuid.New(),
		DisplayName:   displayName,
		FamilyGroupID: groupID,
		Role:          domain.RoleMember,
		CreatedAt:     time.Now().UTC(),
	}
	f.users[user.ID] = user
	return user
}

func (f *fakeUserStore) Create(ctx context.Context, user *domain.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUserStore) GetByPlatform(ctx context.Context, platform, platformUserID string) (*domain.User, error) {
	for userID, links := range f.links {
		for _, l := range links {
			if l.Platform == platform && l.PlatformUserID == platformUserID {
				return f.GetByID(ctx, userID)
			}
		}
	}
	return nil, store.ErrUserNotFound
}

func (f *fakeUserStore) CreateFamilyGroup(ctx context.Context, group *domain.FamilyGroup) error {
	f.groups[group.ID] = group
	return nil
}

func (f *fakeUserStore) GetFamilyGroup(ctx context.Context, id uuid.UUID) (*domain.FamilyGroup, error) {
	group, ok := f.groups[id]
	if !ok {
		return nil, store.ErrFamilyGroupNotFound
	}
	return group, nil
}

func (f *fakeUserStore) FirstFamilyGroup(ctx context.Context) (*domain.FamilyGroup, error) {
	for _, group := range f.groups {
		return group, nil
	}
	return nil, store.ErrFamilyGroupNotFound
}

func (f *fakeUserStore) ListFamilyMembers(ctx context.Context, groupID uuid.UUID) ([]*domain.User, error) {
	members := []*domain.User{}
	for _, user := range f.users {
		if user.FamilyGroupID == groupID {
			members = append(members, user)
		}
	}
	return members, nil
}

func (f *fakeUserStore) LinkPlatform(ctx context.Context, link *domain.PlatformLink) error {
	for _, links := range f.links {
		for _, l := range links {
			if l.Platform == link.Platform && l.PlatformUserID == link.PlatformUserID {
				return store.ErrPlatformLinkExists
			}
		}
	}
	f.links[link.UserID] = append(f.links[link.UserID], link)
	return nil
}

func (f *fakeUserStore) ClearPrimaryLink(ctx context.Context, userID uuid.UUID) error {
	for _, l := range f.links[userID] {
		l.IsPrimary = false
	}
	return nil
}

func (f *fakeUserStore) GetPlatformLinks(ctx context.Context, userID uuid.UUID) ([]*domain.PlatformLink, error) {
	// Fallback order: primary first, then insertion order
	links := append([]*domain.PlatformLink{}, f.links[userID]...)
	sort.SliceStable(links, func(i, j int) bool {
		return links[i].IsPrimary && !links[j].IsPrimary
	})
	return links, nil
}

func (f *fakeUserStore) CountUsers(ctx context.Context) (int, error) {
	return len(f.users), nil
}

func (f *fakeUserStore) WithTx(tx *sql.Tx) store.UserStore { return f }

// fakeMemoStore is an in-memory store.MemoStore.
type fakeMemoStore struct {
	memos map[uuid.UUID]*domain.Memo
}

func newFakeMemoStore() *fakeMemoStore {
	return &fakeMemoStore{memos: make(map[uuid.UUID]*domain.Memo)}
}

func (f *fakeMemoStore) Create(ctx context.Context, memo *domain.Memo) error {
	f.memos[memo.ID] = memo
	return nil
}

func (f *fakeMemoStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Memo, error) {
	memo, ok := f.memos[id]
	if !ok {
		return nil, store.ErrMemoNotFound
	}
	return memo, nil
}

func (f *fakeMemoStore) ListVisibleTo(ctx context.Context, userID, familyGroupID uuid.UUID) ([]*domain.Memo, error) {
	visible := []*domain.Memo{}
	for _, memo := range f.memos {
		if memo.UserID == userID {
			visible = append(visible, memo)
		}
	}
	return visible, nil
}

func (f *fakeMemoStore) Search(ctx context.Context, userID, familyGroupID uuid.UUID, query string) ([]*domain.Memo, error) {
	return f.ListVisibleTo(ctx, userID, familyGroupID)
}

func (f *fakeMemoStore) Update(ctx context.Context, memo *domain.Memo) error {
	if _, ok := f.memos[memo.ID]; !ok {
		return store.ErrMemoNotFound
	}
	f.memos[memo.ID] = memo
	return nil
}

func (f *fakeMemoStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.memos[id]; !ok {
		return store.ErrMemoNotFound
	}
	delete(f.memos, id)
	return nil
}

func (f *fakeMemoStore) Count(ctx context.Context) (int, error) {
	return len(f.memos), nil
}

func (f *fakeMemoStore) WithTx(tx *sql.Tx) store.MemoStore { return f }

// fakeTodoStore is an in-memory store.TodoStore.
type fakeTodoStore struct {
	todos map[uuid.UUID]*domain.Todo
}

func newFakeTodoStore() *fakeTodoStore {
	return &fakeTodoStore{todos: make(map[uuid.UUID]*domain.Todo)}
}

func (f *fakeTodoStore) Create(ctx context.Context, todo *domain.Todo) error {
	f.todos[todo.ID] = todo
	return nil
}

func (f *fakeTodoStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Todo, error) {
	todo, ok := f.todos[id]
	if !ok {
		return nil, store.ErrTodoNotFound
	}
	return todo, nil
}

func (f *fakeTodoStore) ListVisibleTo(ctx context.Context, userID, familyGroupID uuid.UUID, includeDone bool) ([]*domain.Todo, error) {
	visible := []*domain.Todo{}
	for _, todo := range f.todos {
		if todo.UserID != userID {
			continue
		}
		if todo.IsDone && !includeDone {
			continue
		}
		visible = append(visible, todo)
	}
	return visible, nil
}

func (f *fakeTodoStore) Update(ctx context.Context, todo *domain.Todo) error {
	if _, ok := f.todos[todo.ID]; !ok {
		return store.ErrTodoNotFound
	}
	f.todos[todo.ID] = todo
	return nil
}

func (f *fakeTodoStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.todos[id]; !ok {
		return store.ErrTodoNotFound
	}
	delete(f.todos, id)
	return nil
}

func (f *fakeTodoStore) Count(ctx context.Context) (total, done int, err error) {
	for _, todo := range f.todos {
		total++
		if todo.IsDone {
			done++
		}
	}
	return total, done, nil
}

func (f *fakeTodoStore) WithTx(tx *sql.Tx) store.TodoStore { return f }

// fakeEventStore is an in-memory store.EventStore.
type fakeEventStore struct {
	events map[uuid.UUID]*domain.Event
}

func newFakeEventStore() *fakeEventStore {
	return &fakeEventStore{events: make(map[uuid.UUID]*domain.Event)}
}

func (f *fakeEventStore) Create(ctx context.Context, event *domain.Event) error {
	f.events[event.ID] = event
	return nil
}

func (f *fakeEventStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	event, ok := f.events[id]
	if !ok {
		return nil, store.ErrEventNotFound
	}
	return event, nil
}

func (f *fakeEventStore) ListVisibleTo(ctx context.Context, userID, familyGroupID uuid.UUID, start, end time.Time) ([]*domain.Event, error) {
	visible := []*domain.Event{}
	for _, event := range f.events {
		if event.UserID != userID {
			continue
		}
		if !start.IsZero() && event.StartTime.Before(start) {
			continue
		}
		if !end.IsZero() && event.StartTime.After(end) {
			continue
		}
		visible = append(visible, event)
	}
	return visible, nil
}

func (f *fakeEventStore) Update(ctx context.Context, event *domain.Event) error {
	if _, ok := f.events[event.ID]; !ok {
		return store.ErrEventNotFound
	}
	f.events[event.ID] = event
	return nil
}

func (f *fakeEventStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.events[id]; !ok {
		return store.ErrEventNotFound
	}
	delete(f.events, id)
	return nil
}

func (f *fakeEventStore) Count(ctx context.Context) (int, error) {
	return len(f.events), nil
}

func (f *fakeEventStore) WithTx(tx *sql.Tx) store.EventStore { return f }

// fakeReminderStore is an in-memory store.ReminderStore.
type fakeReminderStore struct {
	reminders map[uuid.UUID]*domain.Reminder
}

func newFakeReminderStore() *fakeReminderStore {
	return &fakeReminderStore{reminders: make(map[uuid.UUID]*domain.Reminder)}
}

func (f *fakeReminderStore) Create(ctx context.Context, reminder *domain.Reminder) error {
	f.reminders[reminder.ID] = reminder
	return nil
}

func (f *fakeReminderStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Reminder, error) {
	reminder, ok := f.reminders[id]
	if !ok {
		return nil, store.ErrReminderNotFound
	}
	return reminder, nil
}

func (f *fakeReminderStore) ListByUser(ctx context.Context, userID uuid.UUID, includeDelivered bool) ([]*domain.Reminder, error) {
	result := []*domain.Reminder{}
	for _, r := range f.reminders {
		if r.UserID != userID {
			continue
		}
		if r.IsDelivered && !includeDelivered {
			continue
		}
		result = append(result, r)
	}
	return result, nil
}

func (f *fakeReminderStore) FindDue(ctx context.Context, now time.Time) ([]*domain.Reminder, error) {
	due := []*domain.Reminder{}
	for _, r := range f.reminders {
		if !r.IsDelivered && !r.RemindAt.After(now) {
			due = append(due, r)
		}
	}
	return due, nil
}

func (f *fakeReminderStore) MarkDelivered(ctx context.Context, id uuid.UUID) error {
	r, ok := f.reminders[id]
	if !ok {
		return store.ErrReminderNotFound
	}
	if !r.IsDelivered {
		r.IsDelivered = true
		r.DeliveredCount++
	}
	return nil
}

func (f *fakeReminderStore) Reschedule(ctx context.Context, id uuid.UUID, nextAt time.Time) error {
	r, ok := f.reminders[id]
	if !ok {
		return store.ErrReminderNotFound
	}
	r.RemindAt = nextAt
	r.IsDelivered = false
	r.DeliveredCount++
	return nil
}

func (f *fakeReminderStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.reminders[id]; !ok {
		return store.ErrReminderNotFound
	}
	delete(f.reminders, id)
	return nil
}

func (f *fakeReminderStore) Count(ctx context.Context) (total, pending int, err error) {
	for _, r := range f.reminders {
		total++
		if !r.IsDelivered {
			pending++
		}
	}
	return total, pending, nil
}

func (f *fakeReminderStore) WithTx(tx *sql.Tx) store.ReminderStore { return f }
