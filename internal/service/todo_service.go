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

// TodoService provides todo operations with visibility enforcement.
type TodoService interface {
	// Create saves a new todo owned by userID.
	Create(ctx context.Context, userID uuid.UUID, title string, dueDate *time.Time, priority int, visibility domain.Visibility) (*domain.Todo, error)

	// Get retrieves a todo the requester is allowed to read.
	Get(ctx context.Context, requesterID, todoID uuid.UUID) (*domain.Todo, error)

	// List retrieves the todos visible to the requester, excluding
	// completed ones unless includeDone is set.
	List(ctx context.Context, requesterID uuid.UUID, includeDone bool) ([]*domain.Todo, error)

	// Toggle flips a todo's done flag. Only the owner may toggle.
	Toggle(ctx context.Context, requesterID, todoID uuid.UUID) (*domain.Todo, error)

	// Update saves changes to a todo. Only the owner may update.
	Update(ctx context.Context, requesterID, todoID uuid.UUID, title string, dueDate *time.Time, priority int, visibility domain.Visibility) (*domain.Todo, error)

	// Delete removes a todo. Only the owner may delete.
	Delete(ctx context.Context, requesterID, todoID uuid.UUID) error
}

type todoServiceImpl struct {
	todos  store.TodoStore
	access accessChecker
	logger *slog.Logger
}

// NewTodoService creates a new TodoService.
// It returns an error if any of the required dependencies are nil.
func NewTodoService(todos store.TodoStore, users store.UserStore, logger *slog.Logger) (TodoService, error) {
	if todos == nil {
		return nil, errors.New("todo store cannot be nil")
	}
	if users == nil {
		return nil, errors.New("user store cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &todoServiceImpl{
		todos:  todos,
		access: accessChecker{users: users},
		logger: logger.With(slog.String("component", "todo_service")),
	}, nil
}

func (s *todoServiceImpl) Create(
	ctx context.Context,
	userID uuid.UUID,
	title string,
	dueDate *time.Time,
	priority int,
	visibility domain.Visibility,
) (*domain.Todo, error) {
	todo, err := domain.NewTodo(userID, title, dueDate, priority, visibility)
	if err != nil {
		return nil, wrapServiceError("todo", "create", err)
	}

	if err := s.todos.Create(ctx, todo); err != nil {
		s.logger.Error("failed to create todo",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, wrapServiceError("todo", "create", err)
	}

	s.logger.Info("todo created",
		slog.String("todo_id", todo.ID.String()),
		slog.String("user_id", userID.String()))
	return todo, nil
}

func (s *todoServiceImpl) Get(ctx context.Context, requesterID, todoID uuid.UUID) (*domain.Todo, error) {
	todo, err := s.getTodo(ctx, todoID)
	if err != nil {
		return nil, err
	}

	if err := s.access.checkRead(ctx, requesterID, todo.UserID, todo.Visibility); err != nil {
		return nil, wrapServiceError("todo", "get", err)
	}

	return todo, nil
}

func (s *todoServiceImpl) List(ctx context.Context, requesterID uuid.UUID, includeDone bool) ([]*domain.Todo, error) {
	groupID, err := s.access.familyGroupOf(ctx, requesterID)
	if err != nil {
		return nil, wrapServiceError("todo", "list", err)
	}

	todos, err := s.todos.ListVisibleTo(ctx, requesterID, groupID, includeDone)
	if err != nil {
		return nil, wrapServiceError("todo", "list", err)
	}
	return todos, nil
}

func (s *todoServiceImpl) Toggle(ctx context.Context, requesterID, todoID uuid.UUID) (*domain.Todo, error) {
	todo, err := s.getTodo(ctx, todoID)
	if err != nil {
		return nil, err
	}

	if err := s.access.checkWrite(requesterID, todo.UserID); err != nil {
		return nil, err
	}

	todo.IsDone = !todo.IsDone
	todo.UpdatedAt = time.Now().UTC()

	if err := s.todos.Update(ctx, todo); err != nil {
		if errors.Is(err, store.ErrTodoNotFound) {
			return nil, ErrTodoNotFound
		}
		return nil, wrapServiceError("todo", "toggle", err)
	}

	s.logger.Info("todo toggled",
		slog.String("todo_id", todoID.String()),
		slog.Bool("is_done", todo.IsDone))
	return todo, nil
}

func (s *todoServiceImpl) Update(
	ctx context.Context,
	requesterID, todoID uuid.UUID,
	title string,
	dueDate *time.Time,
	priority int,
	visibility domain.Visibility,
) (*domain.Todo, error) {
	todo, err := s.getTodo(ctx, todoID)
	if err != nil {
		return nil, err
	}

	if err := s.access.checkWrite(requesterID, todo.UserID); err != nil {
		return nil, err
	}

	todo.Title = title
	todo.DueDate = dueDate
	todo.Priority = priority
	todo.Visibility = visibility
	todo.UpdatedAt = time.Now().UTC()

	if err := todo.Validate(); err != nil {
		return nil, wrapServiceError("todo", "update", err)
	}

	if err := s.todos.Update(ctx, todo); err != nil {
		if errors.Is(err, store.ErrTodoNotFound) {
			return nil, ErrTodoNotFound
		}
		return nil, wrapServiceError("todo", "update", err)
	}

	return todo, nil
}

func (s *todoServiceImpl) Delete(ctx context.Context, requesterID, todoID uuid.UUID) error {
	todo, err := s.getTodo(ctx, todoID)
	if err != nil {
		return err
	}

	if err := s.access.checkWrite(requesterID, todo.UserID); err != nil {
		return err
	}

	if err := s.todos.Delete(ctx, todoID); err != nil {
		if errors.Is(err, store.ErrTodoNotFound) {
			return ErrTodoNotFound
		}
		return wrapServiceError("todo", "delete", err)
	}

	s.logger.Info("todo deleted", slog.String("todo_id", todoID.String()))
	return nil
}

func (s *todoServiceImpl) getTodo(ctx context.Context, todoID uuid.UUID) (*domain.Todo, error) {
	todo, err := s.todos.GetByID(ctx, todoID)
	if err != nil {
		if errors.Is(err, store.ErrTodoNotFound) {
			return nil, ErrTodoNotFound
		}
		return nil, wrapServiceError("todo", "get", err)
	}
	return todo, nil
}
