// Package registration wires the user registration form: three text fields,
// their rules, a simulated async first-name check and a simulated submit.
package registration

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/vango-dev/regform/internal/config"
	"github.com/vango-dev/regform/pkg/features/form"
	"github.com/vango-dev/regform/pkg/toast"
)

// Field names.
const (
	FieldFirstName = "firstName"
	FieldLastName  = "lastName"
	FieldEmail     = "email"
)

const (
	// Title is the card heading.
	Title = "User Registration"

	// Description is shown under the heading.
	Description = "Please fill out the form below to register."

	// ForbiddenWord is rejected in first names by the async check.
	ForbiddenWord = "error"

	// ForbiddenMessage is the async check's error.
	ForbiddenMessage = "No 'error' allowed in first name"

	// EmailMessage is the email format error.
	EmailMessage = "Invalid email address"
)

// Fields lists the field names in display order.
var Fields = []string{FieldFirstName, FieldLastName, FieldEmail}

// Values is the registration form data.
type Values struct {
	FirstName string `form:"firstName" label:"First Name"`
	LastName  string `form:"lastName" label:"Last Name"`
	Email     string `form:"email" label:"Email"`
}

// Options holds the tunable parts of the form.
type Options struct {
	Debounce      time.Duration
	AsyncLatency  time.Duration
	SubmitLatency time.Duration
	MinFirstName  int
	MinLastName   int
}

// DefaultOptions returns the stock registration settings.
func DefaultOptions() Options {
	return Options{
		Debounce:      config.DefaultDebounce,
		AsyncLatency:  config.DefaultAsyncLatency,
		SubmitLatency: config.DefaultSubmitLatency,
		MinFirstName:  config.DefaultMinFirstName,
		MinLastName:   config.DefaultMinLastName,
	}
}

// OptionsFromConfig maps loaded configuration onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Debounce:      cfg.Debounce.Std(),
		AsyncLatency:  cfg.AsyncLatency.Std(),
		SubmitLatency: cfg.SubmitLatency.Std(),
		MinFirstName:  cfg.MinFirstName,
		MinLastName:   cfg.MinLastName,
	}
}

// Deps are the collaborators of the form. Zero values fall back to the real
// clock, slog.Default() and no notifications.
type Deps struct {
	Clock     clockwork.Clock
	Logger    *slog.Logger
	Notifier  toast.Notifier
	Metrics   *form.Metrics
	QueueSize int
}

// FirstNameMessage is the sync error for a first name shorter than n.
func FirstNameMessage(n int) string {
	return fmt.Sprintf("First name must be at least %d characters", n)
}

// LastNameMessage is the sync error for a last name shorter than n.
func LastNameMessage(n int) string {
	return fmt.Sprintf("Last name must be at least %d characters", n)
}

// New creates the registration form. The caller closes it.
func New(opts Options, deps Deps) (*form.Form[Values], error) {
	clock := deps.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	check := FirstNameCheck{Clock: clock, Latency: opts.AsyncLatency}
	submitter := Submitter{Clock: clock, Latency: opts.SubmitLatency, Logger: logger}

	return form.New(Values{}, submitter.Submit,
		form.WithClock(clock),
		form.WithLogger(logger),
		form.WithQueueSize(deps.QueueSize),
		form.WithMetrics(deps.Metrics),
		form.WithNotifier(deps.Notifier),
		form.WithField(FieldFirstName,
			form.OnChange(form.MinLength(opts.MinFirstName, FirstNameMessage(opts.MinFirstName))),
			form.OnChangeAsync(check),
			form.AsyncDebounce(opts.Debounce),
		),
		form.WithField(FieldLastName,
			form.OnChange(form.MinLength(opts.MinLastName, LastNameMessage(opts.MinLastName))),
		),
		form.WithField(FieldEmail,
			form.OnChange(form.Email(EmailMessage)),
		),
	)
}

// FirstNameCheck simulates a server-side first name check: after Latency
// it rejects names containing ForbiddenWord.
type FirstNameCheck struct {
	Clock   clockwork.Clock
	Latency time.Duration
}

// ValidateAsync implements form.AsyncValidator.
func (c FirstNameCheck) ValidateAsync(ctx context.Context, value string) error {
	if err := sleep(ctx, c.Clock, c.Latency); err != nil {
		return err
	}
	if strings.Contains(value, ForbiddenWord) {
		return form.ValidationError{Field: FieldFirstName, Message: ForbiddenMessage}
	}
	return nil
}

// Submitter simulates sending the registration: it waits Latency and logs
// the submitted values.
type Submitter struct {
	Clock   clockwork.Clock
	Latency time.Duration
	Logger  *slog.Logger
}

// Submit implements form.SubmitFunc.
func (s Submitter) Submit(ctx context.Context, v Values) error {
	if err := sleep(ctx, s.Clock, s.Latency); err != nil {
		return err
	}
	s.Logger.Info("form submitted",
		"firstName", v.FirstName,
		"lastName", v.LastName,
		"email", v.Email)
	return nil
}

func sleep(ctx context.Context, clock clockwork.Clock, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-clock.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
