package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthapp/secretary/internal/domain"
)

// memoFixture wires a memo service over in-memory stores with two family
// groups: owner and sibling share one, outsider has their own.
type memoFixture struct {
	svc      MemoService
	users    *fakeUserStore
	memos    *fakeMemoStore
	owner    *domain.User
	sibling  *domain.User
	outsider *domain.User
}

func newMemoFixture(t *testing.T) *memoFixture {
	t.Helper()

	users := newFakeUserStore()
	homeGroup := uuid.New()
	otherGroup := uuid.New()

	memos := newFakeMemoStore()
	svc, err := NewMemoService(memos, users, testLogger())
	require.NoError(t, err)

	return &memoFixture{
		svc:      svc,
		users:    users,
		memos:    memos,
		owner:    users.addUser("Alex", homeGroup),
		sibling:  users.addUser("Sam", homeGroup),
		outsider: users.addUser("Robin", otherGroup),
	}
}

func (fx *memoFixture) createMemo(t *testing.T, visibility domain.Visibility) *domain.Memo {
	t.Helper()
	memo, err := fx.svc.Create(context.Background(), fx.owner.ID, "groceries", "milk, eggs", "shopping", visibility)
	require.NoError(t, err)
	return memo
}

func TestMemoService_CreateDefaultsToPrivate(t *testing.T) {
	t.Parallel()

	fx := newMemoFixture(t)
	memo := fx.createMemo(t, "")

	assert.Equal(t, domain.VisibilityPrivate, memo.Visibility)
	assert.Equal(t, fx.owner.ID, memo.UserID)
}

func TestMemoService_Get(t *testing.T) {
	t.Parallel()

	t.Run("owner reads own private memo", func(t *testing.T) {
		t.Parallel()
		fx := newMemoFixture(t)
		memo := fx.createMemo(t, domain.VisibilityPrivate)

		got, err := fx.svc.Get(context.Background(), fx.owner.ID, memo.ID)
		require.NoError(t, err)
		assert.Equal(t, memo.ID, got.ID)
	})

	t.Run("family member reads family memo", func(t *testing.T) {
		t.Parallel()
		fx := newMemoFixture(t)
		memo := fx.createMemo(t, domain.VisibilityFamily)

		got, err := fx.svc.Get(context.Background(), fx.sibling.ID, memo.ID)
		require.NoError(t, err)
		assert.Equal(t, memo.ID, got.ID)
	})

	t.Run("family member cannot read private memo", func(t *testing.T) {
		t.Parallel()
		fx := newMemoFixture(t)
		memo := fx.createMemo(t, domain.VisibilityPrivate)

		_, err := fx.svc.Get(context.Background(), fx.sibling.ID, memo.ID)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("outsider cannot read family memo", func(t *testing.T) {
		t.Parallel()
		fx := newMemoFixture(t)
		memo := fx.createMemo(t, domain.VisibilityFamily)

		_, err := fx.svc.Get(context.Background(), fx.outsider.ID, memo.ID)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("missing memo is not found, not forbidden", func(t *testing.T) {
		t.Parallel()
		fx := newMemoFixture(t)

		_, err := fx.svc.Get(context.Background(), fx.owner.ID, uuid.New())
		assert.ErrorIs(t, err, ErrMemoNotFound)
	})
}

func TestMemoService_GuardFollowsCurrentGroup(t *testing.T) {
	t.Parallel()

	// A sibling who moves to another household loses access to the old
	// group's family memos immediately: the guard resolves the current
	// group, it never trusts one recorded alongside the memo.
	fx := newMemoFixture(t)
	memo := fx.createMemo(t, domain.VisibilityFamily)

	_, err := fx.svc.Get(context.Background(), fx.sibling.ID, memo.ID)
	require.NoError(t, err)

	fx.sibling.FamilyGroupID = fx.outsider.FamilyGroupID

	_, err = fx.svc.Get(context.Background(), fx.sibling.ID, memo.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestMemoService_Update(t *testing.T) {
	t.Parallel()

	t.Run("owner updates", func(t *testing.T) {
		t.Parallel()
		fx := newMemoFixture(t)
		memo := fx.createMemo(t, domain.VisibilityFamily)

		updated, err := fx.svc.Update(context.Background(), fx.owner.ID, memo.ID,
			"groceries", "milk, eggs, bread", "shopping", domain.VisibilityFamily)
		require.NoError(t, err)
		assert.Equal(t, "milk, eggs, bread", updated.Content)
	})

	t.Run("family member cannot update family memo", func(t *testing.T) {
		t.Parallel()
		fx := newMemoFixture(t)
		memo := fx.createMemo(t, domain.VisibilityFamily)

		// Family visibility grants reads only, never writes
		_, err := fx.svc.Update(context.Background(), fx.sibling.ID, memo.ID,
			"groceries", "tampered", "", domain.VisibilityFamily)
		assert.ErrorIs(t, err, ErrNotOwned)
	})

	t.Run("invalid update is rejected", func(t *testing.T) {
		t.Parallel()
		fx := newMemoFixture(t)
		memo := fx.createMemo(t, domain.VisibilityPrivate)

		_, err := fx.svc.Update(context.Background(), fx.owner.ID, memo.ID,
			"", "content", "", domain.VisibilityPrivate)
		assert.Error(t, err)
	})
}

func TestMemoService_Delete(t *testing.T) {
	t.Parallel()

	t.Run("owner deletes", func(t *testing.T) {
		t.Parallel()
		fx := newMemoFixture(t)
		memo := fx.createMemo(t, domain.VisibilityPrivate)

		require.NoError(t, fx.svc.Delete(context.Background(), fx.owner.ID, memo.ID))

		_, err := fx.svc.Get(context.Background(), fx.owner.ID, memo.ID)
		assert.ErrorIs(t, err, ErrMemoNotFound)
	})

	t.Run("non-owner cannot delete", func(t *testing.T) {
		t.Parallel()
		fx := newMemoFixture(t)
		memo := fx.createMemo(t, domain.VisibilityFamily)

		err := fx.svc.Delete(context.Background(), fx.sibling.ID, memo.ID)
		assert.ErrorIs(t, err, ErrNotOwned)
	})
}

func TestMemoService_ListUnknownUser(t *testing.T) {
	t.Parallel()

	fx := newMemoFixture(t)
	_, err := fx.svc.List(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
}
