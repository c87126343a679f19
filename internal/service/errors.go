// Package service provides application-level services for reminders,
// memos, todos, events and users. Every operation on a shared resource
// passes through the authz guard before touching the store.
package service

import (
	"errors"
	"fmt"
)

// Common service errors - sentinel errors used across service implementations.
// These errors represent common conditions that callers may want to check for with errors.Is().
//
// Error handling principles:
// 1. Service methods return sentinel errors for expected error conditions
// 2. Unexpected errors are wrapped in a ServiceError carrying the operation
// 3. Callers use errors.Is/errors.As to check for specific error conditions
// 4. The API layer maps service errors to appropriate HTTP status codes
var (
	// ErrNotOwned indicates a resource is owned by a different user than the one making the request.
	// Returned when a user attempts to modify or delete a resource they don't own.
	// API layer should map this to HTTP 403 Forbidden.
	ErrNotOwned = errors.New("resource is owned by another user")

	// ErrForbidden indicates a resource exists but its visibility does not
	// extend to the requester. Deliberately distinct from the not-found
	// sentinels: the caller learns the resource exists but not its content.
	ErrForbidden = errors.New("resource is not visible to this user")

	// Per-resource not-found sentinels. API layer maps these to HTTP 404.
	ErrReminderNotFound = errors.New("reminder not found")
	ErrMemoNotFound     = errors.New("memo not found")
	ErrTodoNotFound     = errors.New("todo not found")
	ErrEventNotFound    = errors.New("event not found")
	ErrUserNotFound     = errors.New("user not found")

	// ErrPlatformAlreadyLinked indicates the platform account is already
	// linked to a user. API layer should map this to HTTP 409 Conflict.
	ErrPlatformAlreadyLinked = errors.New("platform account already linked")
)

// ServiceError wraps unexpected errors from a service with operation context.
type ServiceError struct {
	// Service is the service that failed (e.g., "memo", "reminder")
	Service string
	// Operation is the operation that failed (e.g., "create", "list")
	Operation string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s service %s failed: %v", e.Service, e.Operation, e.Err)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// sentinels that must pass through wrapServiceError unwrapped.
var passthroughErrors = []error{
	ErrNotOwned,
	ErrForbidden,
	ErrReminderNotFound,
	ErrMemoNotFound,
	ErrTodoNotFound,
	ErrEventNotFound,
	ErrUserNotFound,
	ErrPlatformAlreadyLinked,
}

// wrapServiceError wraps err unless it already is (or wraps) a service
// sentinel, in which case the sentinel is returned directly.
func wrapServiceError(service, operation string, err error) error {
	if err == nil {
		return nil
	}

	for _, sentinel := range passthroughErrors {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}

	return &ServiceError{
		Service:   service,
		Operation: operation,
		Err:       err,
	}
}
