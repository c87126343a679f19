package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for Event
var (
	ErrEmptyEventID     = errors.New("event ID cannot be empty")
	ErrEmptyEventUserID = errors.New("event user ID cannot be empty")
	ErrEmptyEventTitle  = errors.New("event title cannot be empty")
	ErrZeroStartTime    = errors.New("event start time cannot be zero")
	ErrEndBeforeStart   = errors.New("event end time cannot precede start time")
)

// Event represents a calendar entry owned by a user. Events default to
// family visibility, matching how a shared household calendar is used.
type Event struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	Visibility  Visibility `json:"visibility"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewEvent creates a new Event owned by the given user.
// Returns an error if validation fails.
func NewEvent(userID uuid.UUID, title, description string, startTime time.Time, endTime *time.Time, visibility Visibility) (*Event, error) {
	if visibility == "" {
		visibility = VisibilityFamily
	}

	event := &Event{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       title,
		Description: description,
		StartTime:   startTime,
		EndTime:     endTime,
		Visibility:  visibility,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	if err := event.Validate(); err != nil {
		return nil, err
	}

	return event, nil
}

// Validate checks if the Event has valid data.
func (e *Event) Validate() error {
	if e.ID == uuid.Nil {
		return ErrEmptyEventID
	}

	if e.UserID == uuid.Nil {
		return ErrEmptyEventUserID
	}

	if e.Title == "" {
		return ErrEmptyEventTitle
	}

	if e.StartTime.IsZero() {
		return ErrZeroStartTime
	}

	if e.EndTime != nil && e.EndTime.Before(e.StartTime) {
		return ErrEndBeforeStart
	}

	if !e.Visibility.IsValid() {
		return ErrInvalidVisibility
	}

	return nil
}
