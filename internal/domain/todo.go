package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for Todo
var (
	ErrEmptyTodoID     = errors.New("todo ID cannot be empty")
	ErrEmptyTodoUserID = errors.New("todo user ID cannot be empty")
	ErrEmptyTodoTitle  = errors.New("todo title cannot be empty")
)

// Todo represents a task owned by a user, optionally visible to the
// owner's family group.
type Todo struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"user_id"`
	Title      string     `json:"title"`
	DueDate    *time.Time `json:"due_date,omitempty"`
	Priority   int        `json:"priority"`
	IsDone     bool       `json:"is_done"`
	Visibility Visibility `json:"visibility"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// NewTodo creates a new Todo owned by the given user.
// Returns an error if validation fails.
func NewTodo(userID uuid.UUID, title string, dueDate *time.Time, priority int, visibility Visibility) (*Todo, error) {
	if visibility == "" {
		visibility = VisibilityPrivate
	}

	todo := &Todo{
		ID:         uuid.New(),
		UserID:     userID,
		Title:      title,
		DueDate:    dueDate,
		Priority:   priority,
		Visibility: visibility,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}

	if err := todo.Validate(); err != nil {
		return nil, err
	}

	return todo, nil
}

// Validate checks if the Todo has valid data.
func (t *Todo) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTodoID
	}

	if t.UserID == uuid.Nil {
		return ErrEmptyTodoUserID
	}

	if t.Title == "" {
		return ErrEmptyTodoTitle
	}

	if !t.Visibility.IsValid() {
		return ErrInvalidVisibility
	}

	return nil
}
