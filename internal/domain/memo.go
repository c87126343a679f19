package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for Memo
var (
	ErrEmptyMemoID     = errors.New("memo ID cannot be empty")
	ErrEmptyMemoUserID = errors.New("memo user ID cannot be empty")
	ErrEmptyMemoTitle  = errors.New("memo title cannot be empty")
)

// Memo represents a free-form note owned by a user. Family-visible memos
// can be read (but never modified) by other members of the owner's
// family group.
type Memo struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"user_id"`
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	Tags       string     `json:"tags"` // comma-separated
	Visibility Visibility `json:"visibility"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// NewMemo creates a new Memo owned by the given user.
// Returns an error if validation fails.
func NewMemo(userID uuid.UUID, title, content, tags string, visibility Visibility) (*Memo, error) {
	if visibility == "" {
		visibility = VisibilityPrivate
	}

	memo := &Memo{
		ID:         uuid.New(),
		UserID:     userID,
		Title:      title,
		Content:    content,
		Tags:       tags,
		Visibility: visibility,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}

	if err := memo.Validate(); err != nil {
		return nil, err
	}

	return memo, nil
}

// Validate checks if the Memo has valid data.
func (m *Memo) Validate() error {
	if m.ID == uuid.Nil {
		return ErrEmptyMemoID
	}

	if m.UserID == uuid.Nil {
		return ErrEmptyMemoUserID
	}

	if m.Title == "" {
		return ErrEmptyMemoTitle
	}

	if !m.Visibility.IsValid() {
		return ErrInvalidVisibility
	}

	return nil
}
