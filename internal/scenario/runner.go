package scenario

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/vango-dev/regform/internal/errors"
	"github.com/vango-dev/regform/pkg/features/form"
	"github.com/vango-dev/regform/pkg/toast"
)

// Result describes one executed step.
type Result[T any] struct {
	Index int
	Step  Step
	State form.State[T]
}

// Report summarises a run.
type Report struct {
	Name     string
	Steps    int
	Checks   int
	Duration time.Duration
}

// Runner drives a form through a scenario.
type Runner[T any] struct {
	// Form is the form under test.
	Form *form.Form[T]

	// Toasts counts notifications for the notifications expectation. It
	// must be the form's notifier or part of it.
	Toasts *toast.Recorder

	// Clock times wait steps. Defaults to the real clock.
	Clock clockwork.Clock

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// OnStep, if set, is called after every step with the settled state.
	OnStep func(Result[T])
}

// Run executes the steps in order and stops at the first failure.
func (r *Runner[T]) Run(ctx context.Context, sc *Scenario) (Report, error) {
	clock := r.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	report := Report{Name: sc.Name}
	started := clock.Now()
	logger.Info("scenario started", "name", sc.Name, "steps", len(sc.Steps))

	for i := range sc.Steps {
		step := &sc.Steps[i]
		if err := ctx.Err(); err != nil {
			return report, err
		}

		checks, err := r.exec(ctx, clock, step)
		if err != nil {
			var coded *errors.Error
			if !stderrors.As(err, &coded) {
				return report, err
			}
			logger.Debug("scenario step failed", "step", i+1, "kind", step.Kind, "error", err)
			return report, sc.errorAt(coded, step)
		}

		report.Steps++
		report.Checks += checks
		if r.OnStep != nil {
			r.OnStep(Result[T]{Index: i, Step: *step, State: r.Form.State()})
		}
	}

	report.Duration = clock.Since(started)
	logger.Info("scenario passed", "name", sc.Name, "steps", report.Steps, "checks", report.Checks)
	return report, nil
}

// exec runs one step and returns how many assertions it checked.
func (r *Runner[T]) exec(ctx context.Context, clock clockwork.Clock, step *Step) (int, error) {
	var err error
	switch step.Kind {
	case KindChange:
		err = r.Form.Change(step.Change.Field, step.Change.Value)
	case KindBlur:
		err = r.Form.Blur(step.Blur)
	case KindSubmit:
		err = r.Form.Submit()
	case KindReset:
		err = r.Form.Reset()
	case KindWait:
		select {
		case <-clock.After(step.Wait):
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	case KindExpect:
		if err := r.Form.Sync(ctx); err != nil {
			return 0, FormError(err)
		}
		return r.check(step.Expect)
	}
	if err != nil {
		code := formCode(err)
		if code == "" {
			code = "E304"
		}
		return 0, errors.New(code).WithDetail(step.String() + ": " + err.Error()).Wrap(err)
	}
	return 0, FormError(r.Form.Sync(ctx))
}

// check compares the form state with e and reports every mismatch.
func (r *Runner[T]) check(e *Expect) (int, error) {
	s := r.Form.State()
	var failures []string
	checks := 0

	fail := func(format string, args ...any) {
		failures = append(failures, fmt.Sprintf(format, args...))
	}
	checkBool := func(name string, want *bool, got bool) {
		if want == nil {
			return
		}
		checks++
		if *want != got {
			fail("%s: got %t, want %t", name, got, *want)
		}
	}

	checkBool("canSubmit", e.CanSubmit, s.CanSubmit)
	checkBool("isSubmitting", e.IsSubmitting, s.IsSubmitting)
	checkBool("isSubmitted", e.IsSubmitted, s.IsSubmitted)

	if e.Notifications != nil {
		checks++
		got := 0
		if r.Toasts != nil {
			got = r.Toasts.Len()
		}
		if got != *e.Notifications {
			fail("notifications: got %d, want %d", got, *e.Notifications)
		}
	}

	for _, name := range sortedKeys(e.Errors) {
		checks++
		fs, ok := s.Field(name)
		if !ok {
			fail("errors.%s: no such field", name)
			continue
		}
		want := e.Errors[name]
		if !slices.Equal(fs.Errors, want) {
			fail("errors.%s: got %q, want %q", name, fs.Errors, want)
		}
	}

	if e.Validating != nil {
		checks++
		var got []string
		for _, fs := range s.Fields {
			if fs.IsValidating {
				got = append(got, fs.Name)
			}
		}
		want := slices.Clone(*e.Validating)
		sort.Strings(got)
		sort.Strings(want)
		if !slices.Equal(got, want) {
			fail("validating: got %q, want %q", got, want)
		}
	}

	for _, name := range sortedKeys(e.Values) {
		checks++
		fs, ok := s.Field(name)
		switch {
		case !ok:
			fail("values.%s: no such field", name)
		case fs.Value != e.Values[name]:
			fail("values.%s: got %q, want %q", name, fs.Value, e.Values[name])
		}
	}

	for _, name := range sortedKeys(e.Messages) {
		checks++
		fs, ok := s.Field(name)
		if !ok {
			fail("messages.%s: no such field", name)
			continue
		}
		if _, msg := fs.Message(); msg != e.Messages[name] {
			fail("messages.%s: got %q, want %q", name, msg, e.Messages[name])
		}
	}

	if len(failures) > 0 {
		return checks, errors.New("E303").WithDetail(strings.Join(failures, "; "))
	}
	return checks, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
