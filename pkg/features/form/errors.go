package form

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownField is returned for events that name a field the form
	// does not have.
	ErrUnknownField = errors.New("form: unknown field")

	// ErrClosed is returned for events posted after Close.
	ErrClosed = errors.New("form: closed")

	// ErrNoFields is returned by New when T has no bindable string fields.
	ErrNoFields = errors.New("form: no string fields to bind")
)

// ValidationError represents a validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

// SubmissionError wraps a failed submit action.
type SubmissionError struct {
	FormID       string
	SubmissionID string
	Err          error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("form %s: submission %s failed: %v", e.FormID, e.SubmissionID, e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// panicError is the error a recovered submit panic turns into.
type panicError struct {
	value any
}

func (e panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}
