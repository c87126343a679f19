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

// EventService provides calendar event operations with visibility
// enforcement. Events default to family visibility, so most reads cross
// ownership lines and go through the guard.
type EventService interface {
	// Create saves a new event owned by userID.
	Create(ctx context.Context, userID uuid.UUID, title, description string, startTime time.Time, endTime *time.Time, visibility domain.Visibility) (*domain.Event, error)

	// Get retrieves an event the requester is allowed to read.
	Get(ctx context.Context, requesterID, eventID uuid.UUID) (*domain.Event, error)

	// ListRange retrieves visible events whose start time falls within
	// [start, end]. Zero bounds are open.
	ListRange(ctx context.Context, requesterID uuid.UUID, start, end time.Time) ([]*domain.Event, error)

	// TodaySchedule retrieves the requester's visible events for the
	// calendar day containing now, in the given location.
	TodaySchedule(ctx context.Context, requesterID uuid.UUID, now time.Time, loc *time.Location) ([]*domain.Event, error)

	// Update saves changes to an event. Only the owner may update.
	Update(ctx context.Context, requesterID, eventID uuid.UUID, title, description string, startTime time.Time, endTime *time.Time, visibility domain.Visibility) (*domain.Event, error)

	// Delete removes an event. Only the owner may delete.
	Delete(ctx context.Context, requesterID, eventID uuid.UUID) error
}

type eventServiceImpl struct {
	events store.EventStore
	access accessChecker
	logger *slog.Logger
}

// NewEventService creates a new EventService.
// It returns an error if any of the required dependencies are nil.
func NewEventService(events store.EventStore, users store.UserStore, logger *slog.Logger) (EventService, error) {
	if events == nil {
		return nil, errors.New("event store cannot be nil")
	}
	if users == nil {
		return nil, errors.New("user store cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &eventServiceImpl{
		events: events,
		access: accessChecker{users: users},
		logger: logger.With(slog.String("component", "event_service")),
	}, nil
}

func (s *eventServiceImpl) Create(
	ctx context.Context,
	userID uuid.UUID,
	title, description string,
	startTime time.Time,
	endTime *time.Time,
	visibility domain.Visibility,
) (*domain.Event, error) {
	event, err := domain.NewEvent(userID, title, description, startTime, endTime, visibility)
	if err != nil {
		return nil, wrapServiceError("event", "create", err)
	}

	if err := s.events.Create(ctx, event); err != nil {
		s.logger.Error("failed to create event",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, wrapServiceError("event", "create", err)
	}

	s.logger.Info("event created",
		slog.String("event_id", event.ID.String()),
		slog.String("user_id", userID.String()),
		slog.Time("start_time", event.StartTime))
	return event, nil
}

func (s *eventServiceImpl) Get(ctx context.Context, requesterID, eventID uuid.UUID) (*domain.Event, error) {
	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if err := s.access.checkRead(ctx, requesterID, event.UserID, event.Visibility); err != nil {
		return nil, wrapServiceError("event", "get", err)
	}

	return event, nil
}

func (s *eventServiceImpl) ListRange(ctx context.Context, requesterID uuid.UUID, start, end time.Time) ([]*domain.Event, error) {
	groupID, err := s.access.familyGroupOf(ctx, requesterID)
	if err != nil {
		return nil, wrapServiceError("event", "list", err)
	}

	events, err := s.events.ListVisibleTo(ctx, requesterID, groupID, start, end)
	if err != nil {
		return nil, wrapServiceError("event", "list", err)
	}
	return events, nil
}

func (s *eventServiceImpl) TodaySchedule(ctx context.Context, requesterID uuid.UUID, now time.Time, loc *time.Location) ([]*domain.Event, error) {
	if loc == nil {
		loc = time.UTC
	}

	local := now.In(loc)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	dayEnd := dayStart.AddDate(0, 0, 1).Add(-time.Nanosecond)

	return s.ListRange(ctx, requesterID, dayStart, dayEnd)
}

func (s *eventServiceImpl) Update(
	ctx context.Context,
	requesterID, eventID uuid.UUID,
	title, description string,
	startTime time.Time,
	endTime *time.Time,
	visibility domain.Visibility,
) (*domain.Event, error) {
	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if err := s.access.checkWrite(requesterID, event.UserID); err != nil {
		return nil, err
	}

	event.Title = title
	event.Description = description
	event.StartTime = startTime
	event.EndTime = endTime
	event.Visibility = visibility
	event.UpdatedAt = time.Now().UTC()

	if err := event.Validate(); err != nil {
		return nil, wrapServiceError("event", "update", err)
	}

	if err := s.events.Update(ctx, event); err != nil {
		if errors.Is(err, store.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, wrapServiceError("event", "update", err)
	}

	return event, nil
}

func (s *eventServiceImpl) Delete(ctx context.Context, requesterID, eventID uuid.UUID) error {
	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return err
	}

	if err := s.access.checkWrite(requesterID, event.UserID); err != nil {
		return err
	}

	if err := s.events.Delete(ctx, eventID); err != nil {
		if errors.Is(err, store.ErrEventNotFound) {
			return ErrEventNotFound
		}
		return wrapServiceError("event", "delete", err)
	}

	s.logger.Info("event deleted", slog.String("event_id", eventID.String()))
	return nil
}

func (s *eventServiceImpl) getEvent(ctx context.Context, eventID uuid.UUID) (*domain.Event, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, store.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, wrapServiceError("event", "get", err)
	}
	return event, nil
}
