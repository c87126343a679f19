package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidVisibility is returned when a visibility value is not recognized.
	ErrInvalidVisibility = errors.New("invalid visibility")

	// ErrInvalidRecurrenceRule is returned when a recurrence rule is not valid
	// for the reminder carrying it. A recurring reminder with no rule (or an
	// unknown rule) is an inconsistent record, not a retryable condition.
	ErrInvalidRecurrenceRule = errors.New("invalid recurrence rule")

	// ErrUnauthorized is returned when an operation is not permitted.
	ErrUnauthorized = errors.New("unauthorized operation")
)
