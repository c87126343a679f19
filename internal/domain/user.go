package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// User roles within a family group.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Common validation errors for User, FamilyGroup and PlatformLink
var (
	ErrEmptyUserID          = errors.New("user ID cannot be empty")
	ErrEmptyDisplayName     = errors.New("display name cannot be empty")
	ErrEmptyFamilyGroupID   = errors.New("family group ID cannot be empty")
	ErrInvalidRole          = errors.New("role must be admin or member")
	ErrEmptyFamilyGroupName = errors.New("family group name cannot be empty")
	ErrEmptyPlatform        = errors.New("platform cannot be empty")
	ErrEmptyPlatformUserID  = errors.New("platform user ID cannot be empty")
)

// User represents a household member. Users carry no credentials of their
// own: identity is established by the chat platform that delivered the
// message, via PlatformLink.
type User struct {
	ID            uuid.UUID `json:"id"`
	DisplayName   string    `json:"display_name"`
	FamilyGroupID uuid.UUID `json:"family_group_id"`
	Role          string    `json:"role"`
	Timezone      string    `json:"timezone"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewUser creates a new User in the given family group.
// Returns an error if validation fails.
func NewUser(displayName string, familyGroupID uuid.UUID, role, timezone string) (*User, error) {
	user := &User{
		ID:            uuid.New(),
		DisplayName:   displayName,
		FamilyGroupID: familyGroupID,
		Role:          role,
		Timezone:      timezone,
		CreatedAt:     time.Now().UTC(),
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Validate checks if the User has valid data.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrEmptyUserID
	}

	if u.DisplayName == "" {
		return ErrEmptyDisplayName
	}

	if u.FamilyGroupID == uuid.Nil {
		return ErrEmptyFamilyGroupID
	}

	if u.Role != RoleAdmin && u.Role != RoleMember {
		return ErrInvalidRole
	}

	return nil
}

// FamilyGroup is the set of users who can see each other's family-visibility
// resources. A resource's effective family scope is always the owner's
// current group, resolved at check time, never cached on the resource.
type FamilyGroup struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// NewFamilyGroup creates a new FamilyGroup with the given name.
func NewFamilyGroup(name string) (*FamilyGroup, error) {
	group := &FamilyGroup{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}

	if err := group.Validate(); err != nil {
		return nil, err
	}

	return group, nil
}

// Validate checks if the FamilyGroup has valid data.
func (g *FamilyGroup) Validate() error {
	if g.ID == uuid.Nil {
		return ErrEmptyFamilyGroupID
	}

	if g.Name == "" {
		return ErrEmptyFamilyGroupName
	}

	return nil
}

// PlatformLink connects a user to an account on a messaging platform
// (e.g. "telegram", "slack"). Links are immutable after creation except
// for the IsPrimary flag. At most one link per user may be primary; when
// none is, notification resolution falls back to link creation order.
type PlatformLink struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	Platform       string    `json:"platform"`
	PlatformUserID string    `json:"platform_user_id"`
	IsPrimary      bool      `json:"is_primary"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewPlatformLink creates a new PlatformLink for the given user.
func NewPlatformLink(userID uuid.UUID, platform, platformUserID string, isPrimary bool) (*PlatformLink, error) {
	link := &PlatformLink{
		ID:             uuid.New(),
		UserID:         userID,
		Platform:       platform,
		PlatformUserID: platformUserID,
		IsPrimary:      isPrimary,
		CreatedAt:      time.Now().UTC(),
	}

	if err := link.Validate(); err != nil {
		return nil, err
	}

	return link, nil
}

// Validate checks if the PlatformLink has valid data.
func (l *PlatformLink) Validate() error {
	if l.ID == uuid.Nil {
		return ErrInvalidID
	}

	if l.UserID == uuid.Nil {
		return ErrEmptyUserID
	}

	if l.Platform == "" {
		return ErrEmptyPlatform
	}

	if l.PlatformUserID == "" {
		return ErrEmptyPlatformUserID
	}

	return nil
}
