package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/hearthapp/secretary/internal/authz"
	"github.com/hearthapp/secretary/internal/domain"
	"github.com/hearthapp/secretary/internal/store"
)

// userResolver is the slice of the user store access checks need.
type userResolver interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// accessChecker resolves family group membership at check time and applies
// the authz rules. Each resource service embeds one so the guard is invoked
// the same way everywhere.
type accessChecker struct {
	users userResolver
}

// checkRead returns nil when the requester may read a resource owned by
// ownerID with the given visibility, ErrForbidden otherwise. Group IDs are
// resolved from the current user records, never from the resource, so a
// user who changed households immediately loses access to the old group's
// family resources.
func (c accessChecker) checkRead(ctx context.Context, requesterID, ownerID uuid.UUID, visibility domain.Visibility) error {
	if requesterID == ownerID {
		return nil
	}

	if visibility != domain.VisibilityFamily {
		return ErrForbidden
	}

	requester, err := c.users.GetByID(ctx, requesterID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return ErrForbidden
		}
		return fmt.Errorf("failed to resolve requester: %w", err)
	}

	owner, err := c.users.GetByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return ErrForbidden
		}
		return fmt.Errorf("failed to resolve owner: %w", err)
	}

	if !authz.CanRead(requesterID, ownerID, requester.FamilyGroupID, owner.FamilyGroupID, visibility) {
		return ErrForbidden
	}

	return nil
}

// checkWrite returns nil when the requester owns the resource,
// ErrNotOwned otherwise.
func (c accessChecker) checkWrite(requesterID, ownerID uuid.UUID) error {
	if !authz.CanWrite(requesterID, ownerID) {
		return ErrNotOwned
	}
	return nil
}

// familyGroupOf returns the requester's current family group, used to
// scope list queries. Returns ErrUserNotFound for unknown users.
func (c accessChecker) familyGroupOf(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	user, err := c.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return uuid.Nil, ErrUserNotFound
		}
		return uuid.Nil, fmt.Errorf("failed to resolve user: %w", err)
	}
	return user.FamilyGroupID, nil
}
