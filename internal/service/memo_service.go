package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hearthapp/secretary/internal/domain"
	"github.com/hearthapp/secretary/internal/store"
)

// MemoService provides memo operations with visibility enforcement.
type MemoService interface {
	// Create saves a new memo owned by userID.
	Create(ctx context.Context, userID uuid.UUID, title, content, tags string, visibility domain.Visibility) (*domain.Memo, error)

	// Get retrieves a memo the requester is allowed to read.
	// Returns ErrMemoNotFound if it does not exist, ErrForbidden if it
	// exists but is not visible to the requester.
	Get(ctx context.Context, requesterID, memoID uuid.UUID) (*domain.Memo, error)

	// List retrieves the memos visible to the requester: their own plus
	// family-visible memos from their current family group.
	List(ctx context.Context, requesterID uuid.UUID) ([]*domain.Memo, error)

	// Search retrieves visible memos matching the query.
	Search(ctx context.Context, requesterID uuid.UUID, query string) ([]*domain.Memo, error)

	// Update saves changes to a memo. Only the owner may update,
	// regardless of visibility; returns ErrNotOwned otherwise.
	Update(ctx context.Context, requesterID, memoID uuid.UUID, title, content, tags string, visibility domain.Visibility) (*domain.Memo, error)

	// Delete removes a memo. Only the owner may delete.
	Delete(ctx context.Context, requesterID, memoID uuid.UUID) error
}

type memoServiceImpl struct {
	memos  store.MemoStore
	access accessChecker
	logger *slog.Logger
}

// NewMemoService creates a new MemoService.
// It returns an error if any of the required dependencies are nil.
func NewMemoService(memos store.MemoStore, users store.UserStore, logger *slog.Logger) (MemoService, error) {
	if memos == nil {
		return nil, errors.New("memo store cannot be nil")
	}
	if users == nil {
		return nil, errors.New("user store cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &memoServiceImpl{
		memos:  memos,
		access: accessChecker{users: users},
		logger: logger.With(slog.String("component", "memo_service")),
	}, nil
}

func (s *memoServiceImpl) Create(
	ctx context.Context,
	userID uuid.UUID,
	title, content, tags string,
	visibility domain.Visibility,
) (*domain.Memo, error) {
	memo, err := domain.NewMemo(userID, title, content, tags, visibility)
	if err != nil {
		return nil, wrapServiceError("memo", "create", err)
	}

	if err := s.memos.Create(ctx, memo); err != nil {
		s.logger.Error("failed to create memo",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, wrapServiceError("memo", "create", err)
	}

	s.logger.Info("memo created",
		slog.String("memo_id", memo.ID.String()),
		slog.String("user_id", userID.String()),
		slog.String("visibility", string(memo.Visibility)))
	return memo, nil
}

func (s *memoServiceImpl) Get(ctx context.Context, requesterID, memoID uuid.UUID) (*domain.Memo, error) {
	memo, err := s.getOwned(ctx, memoID)
	if err != nil {
		return nil, err
	}

	if err := s.access.checkRead(ctx, requesterID, memo.UserID, memo.Visibility); err != nil {
		return nil, wrapServiceError("memo", "get", err)
	}

	return memo, nil
}

func (s *memoServiceImpl) List(ctx context.Context, requesterID uuid.UUID) ([]*domain.Memo, error) {
	groupID, err := s.access.familyGroupOf(ctx, requesterID)
	if err != nil {
		return nil, wrapServiceError("memo", "list", err)
	}

	memos, err := s.memos.ListVisibleTo(ctx, requesterID, groupID)
	if err != nil {
		return nil, wrapServiceError("memo", "list", err)
	}
	return memos, nil
}

func (s *memoServiceImpl) Search(ctx context.Context, requesterID uuid.UUID, query string) ([]*domain.Memo, error) {
	groupID, err := s.access.familyGroupOf(ctx, requesterID)
	if err != nil {
		return nil, wrapServiceError("memo", "search", err)
	}

	memos, err := s.memos.Search(ctx, requesterID, groupID, query)
	if err != nil {
		return nil, wrapServiceError("memo", "search", err)
	}
	return memos, nil
}

func (s *memoServiceImpl) Update(
	ctx context.Context,
	requesterID, memoID uuid.UUID,
	title, content, tags string,
	visibility domain.Visibility,
) (*domain.Memo, error) {
	memo, err := s.getOwned(ctx, memoID)
	if err != nil {
		return nil, err
	}

	if err := s.access.checkWrite(requesterID, memo.UserID); err != nil {
		return nil, err
	}

	memo.Title = title
	memo.Content = content
	memo.Tags = tags
	memo.Visibility = visibility
	memo.UpdatedAt = time.Now().UTC()

	if err := memo.Validate(); err != nil {
		return nil, wrapServiceError("memo", "update", err)
	}

	if err := s.memos.Update(ctx, memo); err != nil {
		if errors.Is(err, store.ErrMemoNotFound) {
			return nil, ErrMemoNotFound
		}
		return nil, wrapServiceError("memo", "update", err)
	}

	s.logger.Info("memo updated", slog.String("memo_id", memoID.String()))
	return memo, nil
}

func (s *memoServiceImpl) Delete(ctx context.Context, requesterID, memoID uuid.UUID) error {
	memo, err := s.getOwned(ctx, memoID)
	if err != nil {
		return err
	}

	if err := s.access.checkWrite(requesterID, memo.UserID); err != nil {
		return err
	}

	if err := s.memos.Delete(ctx, memoID); err != nil {
		if errors.Is(err, store.ErrMemoNotFound) {
			return ErrMemoNotFound
		}
		return wrapServiceError("memo", "delete", err)
	}

	s.logger.Info("memo deleted", slog.String("memo_id", memoID.String()))
	return nil
}

// getOwned fetches the memo, mapping the store's not-found sentinel.
func (s *memoServiceImpl) getOwned(ctx context.Context, memoID uuid.UUID) (*domain.Memo, error) {
	memo, err := s.memos.GetByID(ctx, memoID)
	if err != nil {
		if errors.Is(err, store.ErrMemoNotFound) {
			return nil, ErrMemoNotFound
		}
		return nil, wrapServiceError("memo", "get", err)
	}
	return memo, nil
}
