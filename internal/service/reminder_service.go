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

// ReminderService provides reminder operations. Reminders are strictly
// private: every read and write is scoped to the owner, and there is no
// family-visible variant.
type ReminderService interface {
	// Create saves a new reminder for userID. An empty rule creates a
	// one-shot reminder.
	Create(ctx context.Context, userID uuid.UUID, message string, remindAt time.Time, rule domain.RecurrenceRule) (*domain.Reminder, error)

	// Get retrieves a reminder. Returns ErrReminderNotFound for both a
	// missing reminder and another user's reminder: reminders are never
	// discoverable across users, so the two cases are indistinguishable.
	Get(ctx context.Context, requesterID, reminderID uuid.UUID) (*domain.Reminder, error)

	// List retrieves the requester's reminders, pending first.
	List(ctx context.Context, requesterID uuid.UUID, includeDelivered bool) ([]*domain.Reminder, error)

	// Cancel deletes a reminder. Cancellation is terminal even for
	// recurring reminders. Only the owner may cancel; returns ErrNotOwned
	// otherwise.
	Cancel(ctx context.Context, requesterID, reminderID uuid.UUID) error
}

type reminderServiceImpl struct {
	reminders store.ReminderStore
	logger    *slog.Logger
}

// NewReminderService creates a new ReminderService.
// It returns an error if any of the required dependencies are nil.
func NewReminderService(reminders store.ReminderStore, logger *slog.Logger) (ReminderService, error) {
	if reminders == nil {
		return nil, errors.New("reminder store cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &reminderServiceImpl{
		reminders: reminders,
		logger:    logger.With(slog.String("component", "reminder_service")),
	}, nil
}

func (s *reminderServiceImpl) Create(
	ctx context.Context,
	userID uuid.UUID,
	message string,
	remindAt time.Time,
	rule domain.RecurrenceRule,
) (*domain.Reminder, error) {
	reminder, err := domain.NewReminder(userID, message, remindAt, rule)
	if err != nil {
		return nil, wrapServiceError("reminder", "create", err)
	}

	if err := s.reminders.Create(ctx, reminder); err != nil {
		s.logger.Error("failed to create reminder",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, wrapServiceError("reminder", "create", err)
	}

	s.logger.Info("reminder created",
		slog.String("reminder_id", reminder.ID.String()),
		slog.String("user_id", userID.String()),
		slog.Time("remind_at", reminder.RemindAt),
		slog.Bool("is_recurring", reminder.IsRecurring))
	return reminder, nil
}

func (s *reminderServiceImpl) Get(ctx context.Context, requesterID, reminderID uuid.UUID) (*domain.Reminder, error) {
	reminder, err := s.reminders.GetByID(ctx, reminderID)
	if err != nil {
		if errors.Is(err, store.ErrReminderNotFound) {
			return nil, ErrReminderNotFound
		}
		return nil, wrapServiceError("reminder", "get", err)
	}

	// Another user's reminder reads as not found, not forbidden: its
	// existence is private too.
	if reminder.UserID != requesterID {
		return nil, ErrReminderNotFound
	}

	return reminder, nil
}

func (s *reminderServiceImpl) List(ctx context.Context, requesterID uuid.UUID, includeDelivered bool) ([]*domain.Reminder, error) {
	reminders, err := s.reminders.ListByUser(ctx, requesterID, includeDelivered)
	if err != nil {
		return nil, wrapServiceError("reminder", "list", err)
	}
	return reminders, nil
}

func (s *reminderServiceImpl) Cancel(ctx context.Context, requesterID, reminderID uuid.UUID) error {
	reminder, err := s.reminders.GetByID(ctx, reminderID)
	if err != nil {
		if errors.Is(err, store.ErrReminderNotFound) {
			return ErrReminderNotFound
		}
		return wrapServiceError("reminder", "cancel", err)
	}

	if reminder.UserID != requesterID {
		return ErrNotOwned
	}

	if err := s.reminders.Delete(ctx, reminderID); err != nil {
		if errors.Is(err, store.ErrReminderNotFound) {
			return ErrReminderNotFound
		}
		return wrapServiceError("reminder", "cancel", err)
	}

	s.logger.Info("reminder cancelled",
		slog.String("reminder_id", reminderID.String()),
		slog.String("user_id", requesterID.String()))
	return nil
}
