// Package authz centralizes the ownership and visibility decisions for
// every shared resource (memos, todos, events, reminders). Each resource
// service calls into this package instead of carrying its own copy of the
// check, so the rules cannot drift between resource types.
package authz

import (
	"github.com/google/uuid"

	"github.com/hearthapp/secretary/internal/domain"
)

// CanRead reports whether the requester may read a resource owned by
// ownerID with the given visibility. Owners always read their own
// resources; family-visible resources are readable by anyone in the
// owner's current family group.
//
// Both family group IDs must be resolved by the caller at check time, not
// cached alongside the resource: a user's effective family scope follows
// the owner's current group membership.
func CanRead(requesterID, ownerID, requesterGroupID, ownerGroupID uuid.UUID, visibility domain.Visibility) bool {
	if requesterID == ownerID {
		return true
	}

	if visibility != domain.VisibilityFamily {
		return false
	}

	return requesterGroupID != uuid.Nil && requesterGroupID == ownerGroupID
}

// CanWrite reports whether the requester may mutate or delete a resource
// owned by ownerID. Only the owner may write, regardless of visibility.
func CanWrite(requesterID, ownerID uuid.UUID) bool {
	return requesterID != uuid.Nil && requesterID == ownerID
}
