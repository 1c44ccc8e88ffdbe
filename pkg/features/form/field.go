package form

import (
	"time"

	"github.com/vango-dev/regform/pkg/loop"
)

// DefaultAsyncDebounce is the quiet period before async validation starts.
const DefaultAsyncDebounce = 500 * time.Millisecond

// ValidatingMessage is shown while an async validation is in flight.
const ValidatingMessage = "Validating..."

// FieldState is the read-only view of one field.
type FieldState struct {
	Name         string
	Label        string
	Value        string
	IsTouched    bool
	IsDirty      bool
	IsValidating bool
	Errors       []string
}

// IsValid reports whether the field has no errors. A validating field with
// no errors yet is valid by this measure; see State.CanSubmit.
func (s FieldState) IsValid() bool {
	return len(s.Errors) == 0
}

// MessageKind says what a view should show under a field.
type MessageKind int

const (
	MessageNone MessageKind = iota
	MessageValidating
	MessageError
)

// Message returns what to show under the field. While validating, the
// indicator wins regardless of touched state. Otherwise the first error is
// shown once the field has been blurred.
func (s FieldState) Message() (MessageKind, string) {
	if s.IsValidating {
		return MessageValidating, ValidatingMessage
	}
	if s.IsTouched && len(s.Errors) > 0 {
		return MessageError, s.Errors[0]
	}
	return MessageNone, ""
}

// FieldOption configures a field's validation.
type FieldOption func(*fieldConfig)

type fieldConfig struct {
	validators  []Validator
	async       []AsyncValidator
	debounce    time.Duration
	asyncAlways bool
}

// OnChange adds synchronous validators. They run on every change and blur,
// after any rules from the `validate` struct tag.
func OnChange(validators ...Validator) FieldOption {
	return func(c *fieldConfig) {
		c.validators = append(c.validators, validators...)
	}
}

// OnChangeAsync adds asynchronous validators. They run once the field has
// been quiet for the debounce delay.
func OnChangeAsync(validators ...AsyncValidator) FieldOption {
	return func(c *fieldConfig) {
		c.async = append(c.async, validators...)
	}
}

// AsyncDebounce sets the quiet period before async validation starts.
func AsyncDebounce(d time.Duration) FieldOption {
	return func(c *fieldConfig) {
		if d >= 0 {
			c.debounce = d
		}
	}
}

// AsyncAlways runs async validators even when sync validation failed.
func AsyncAlways() FieldOption {
	return func(c *fieldConfig) {
		c.asyncAlways = true
	}
}

// field is the loop-owned mutable state of one field.
type field struct {
	binding
	cfg fieldConfig

	touched     bool
	dirty       bool
	validating  bool
	syncErrors  []string
	asyncErrors []string

	// generation increments on every value change. Async runs capture it at
	// dispatch and are applied only if it still matches on completion.
	generation uint64

	// checked is set once an async result for the current generation has
	// been applied.
	checked bool

	// pending is the debounce timer, nil when none is armed.
	pending loop.Cancel
}

// errors returns sync errors followed by async errors.
func (f *field) errors() []string {
	if len(f.syncErrors) == 0 && len(f.asyncErrors) == 0 {
		return nil
	}
	out := make([]string, 0, len(f.syncErrors)+len(f.asyncErrors))
	out = append(out, f.syncErrors...)
	return append(out, f.asyncErrors...)
}

// cancelPending stops the debounce timer. It reports whether one was armed.
func (f *field) cancelPending() bool {
	if f.pending == nil {
		return false
	}
	f.pending()
	f.pending = nil
	return true
}

func (f *field) hasAsync() bool {
	return len(f.cfg.async) > 0
}
