package apperror

import (
	"errors"
	"fmt"
)

// Code classifies an application error.
type Code int

const (
	CodeUnauthenticated Code = iota + 1000
	CodeForbidden
	CodeNotFound
	CodeValidation
	CodeConflict
	CodeInternal
)

// AppError is the error type every operation in the core returns. Scoping
// and authentication failures never reach the lifecycle manager; the codes
// let handlers map to HTTP status without string matching.
type AppError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`

	// Populated only for CodeConflict on blocked deletions, so the caller
	// can render a confirmation prompt without re-querying.
	ActiveAppointments int `json:"active_appointments,omitempty"`
	PendingTasks       int `json:"pending_tasks,omitempty"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func Unauthenticated(message string) *AppError {
	return &AppError{Code: CodeUnauthenticated, Message: message}
}

func Forbidden(message string) *AppError {
	return &AppError{Code: CodeForbidden, Message: message}
}

// NotFound is returned both for genuinely missing resources and for existing
// resources outside the caller's scope, so record existence is never leaked.
func NotFound(resource string) *AppError {
	return &AppError{Code: CodeNotFound, Message: fmt.Sprintf("%s not found", resource)}
}

func Validation(message string) *AppError {
	return &AppError{Code: CodeValidation, Message: message}
}

// ConflictRequiresConfirmation blocks a non-forced deletion, carrying the
// exact counts that stand in its way.
func ConflictRequiresConfirmation(activeAppointments, pendingTasks int) *AppError {
	return &AppError{
		Code:               CodeConflict,
		Message:            "case has active appointments or pending tasks; deletion requires confirmation",
		ActiveAppointments: activeAppointments,
		PendingTasks:       pendingTasks,
	}
}

func Internal(err error) *AppError {
	return &AppError{Code: CodeInternal, Message: "internal error", Err: err}
}

// As unwraps err into an *AppError if possible.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsCode reports whether err is an AppError with the given code.
func IsCode(err error, code Code) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}
