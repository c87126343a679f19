package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// RecurrenceRule determines the next occurrence of a recurring reminder.
type RecurrenceRule string

// Possible recurrence rule values
const (
	RecurrenceNone    RecurrenceRule = "none"
	RecurrenceDaily   RecurrenceRule = "daily"
	RecurrenceWeekly  RecurrenceRule = "weekly"
	RecurrenceMonthly RecurrenceRule = "monthly"
)

// Common validation errors for Reminder
var (
	ErrEmptyReminderID      = errors.New("reminder ID cannot be empty")
	ErrEmptyReminderUserID  = errors.New("reminder user ID cannot be empty")
	ErrEmptyReminderMessage = errors.New("reminder message cannot be empty")
	ErrZeroRemindAt         = errors.New("reminder time cannot be zero")
)

// Reminder is a time-based notification obligation owned by a single user.
// Reminders are strictly private: they are only ever read in the context of
// their owner and carry no visibility.
//
// IsDelivered = true is terminal unless the reminder is recurring, in which
// case delivery advances RemindAt to the next occurrence and leaves
// IsDelivered false, in the same transaction.
type Reminder struct {
	ID          uuid.UUID      `json:"id"`
	UserID      uuid.UUID      `json:"user_id"`
	Message     string         `json:"message"`
	RemindAt    time.Time      `json:"remind_at"`
	IsRecurring bool           `json:"is_recurring"`
	Rule        RecurrenceRule `json:"recurrence_rule"`

	// Optional recurrence end conditions. When RecurrenceCount is set the
	// reminder terminates after that many deliveries; when RecurrenceEndDate
	// is set it terminates once the next occurrence would pass the date.
	RecurrenceCount   *int       `json:"recurrence_count,omitempty"`
	RecurrenceEndDate *time.Time `json:"recurrence_end_date,omitempty"`

	DeliveredCount int       `json:"delivered_count"`
	IsDelivered    bool      `json:"is_delivered"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewReminder creates a new one-shot or recurring Reminder.
// Returns an error if validation fails.
func NewReminder(userID uuid.UUID, message string, remindAt time.Time, rule RecurrenceRule) (*Reminder, error) {
	if rule == "" {
		rule = RecurrenceNone
	}

	reminder := &Reminder{
		ID:          uuid.New(),
		UserID:      userID,
		Message:     message,
		RemindAt:    remindAt,
		IsRecurring: rule != RecurrenceNone,
		Rule:        rule,
		CreatedAt:   time.Now().UTC(),
	}

	if err := reminder.Validate(); err != nil {
		return nil, err
	}

	return reminder, nil
}

// Validate checks if the Reminder has valid data.
func (r *Reminder) Validate() error {
	if r.ID == uuid.Nil {
		return ErrEmptyReminderID
	}

	if r.UserID == uuid.Nil {
		return ErrEmptyReminderUserID
	}

	if r.Message == "" {
		return ErrEmptyReminderMessage
	}

	if r.RemindAt.IsZero() {
		return ErrZeroRemindAt
	}

	if !isValidRecurrenceRule(r.Rule) {
		return ErrInvalidRecurrenceRule
	}

	if r.IsRecurring && r.Rule == RecurrenceNone {
		return ErrInvalidRecurrenceRule
	}

	return nil
}

// RecurrenceEnded reports whether the recurrence end conditions would be
// reached after one more delivery, with next being the occurrence that
// would follow it.
func (r *Reminder) RecurrenceEnded(next time.Time) bool {
	if r.RecurrenceCount != nil && r.DeliveredCount+1 >= *r.RecurrenceCount {
		return true
	}

	if r.RecurrenceEndDate != nil && next.After(*r.RecurrenceEndDate) {
		return true
	}

	return false
}

// isValidRecurrenceRule checks if the given rule is a valid RecurrenceRule.
func isValidRecurrenceRule(rule RecurrenceRule) bool {
	switch rule {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly:
		return true
	default:
		return false
	}
}

// NextOccurrence computes the occurrence following t under the given rule.
// It is a pure function and performs no I/O.
//
// daily adds one calendar day and weekly adds seven, keeping the wall-clock
// time. monthly keeps the day-of-month, clamping to the last day of the
// target month when it is shorter (Jan 31 -> Feb 28/29).
//
// RecurrenceNone and unrecognized rules return ErrInvalidRecurrenceRule:
// a recurring reminder carrying them is an inconsistent record, and callers
// are expected to terminate it rather than retry.
func NextOccurrence(t time.Time, rule RecurrenceRule) (time.Time, error) {
	switch rule {
	case RecurrenceDaily:
		return t.AddDate(0, 0, 1), nil
	case RecurrenceWeekly:
		return t.AddDate(0, 0, 7), nil
	case RecurrenceMonthly:
		year, month, day := t.Date()
		month++
		if month > time.December {
			month = time.January
			year++
		}
		if last := daysIn(year, month); day > last {
			day = last
		}
		hour, min, sec := t.Clock()
		return time.Date(year, month, day, hour, min, sec, t.Nanosecond(), t.Location()), nil
	default:
		return time.Time{}, ErrInvalidRecurrenceRule
	}
}

// daysIn returns the number of days in the given month.
func daysIn(year int, month time.Month) int {
	// Day 0 of the following month normalizes to the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
