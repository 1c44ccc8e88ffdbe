package scenario

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/regform/internal/errors"
	"github.com/vango-dev/regform/internal/registration"
	"github.com/vango-dev/regform/pkg/features/form"
	"github.com/vango-dev/regform/pkg/toast"
)

// fastOptions keeps real-time scenarios short; waits in testdata leave
// generous headroom over these latencies.
func fastOptions() registration.Options {
	opts := registration.DefaultOptions()
	opts.Debounce = 10 * time.Millisecond
	opts.AsyncLatency = 20 * time.Millisecond
	opts.SubmitLatency = 20 * time.Millisecond
	return opts
}

func newRunner(t *testing.T) *Runner[registration.Values] {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rec := toast.NewRecorder()

	f, err := registration.New(fastOptions(), registration.Deps{Notifier: rec, Logger: logger})
	require.NoError(t, err)
	t.Cleanup(f.Close)

	return &Runner[registration.Values]{Form: f, Toasts: rec, Logger: logger}
}

func TestRunHappyPath(t *testing.T) {
	sc, err := Load(filepath.Join("testdata", "happy.yaml"))
	require.NoError(t, err)

	r := newRunner(t)
	var results []Result[registration.Values]
	r.OnStep = func(res Result[registration.Values]) {
		results = append(results, res)
	}

	report, err := r.Run(context.Background(), sc)
	require.NoError(t, err)

	assert.Equal(t, "happy path", report.Name)
	assert.Equal(t, 11, report.Steps)
	assert.Equal(t, 10, report.Checks)
	assert.GreaterOrEqual(t, report.Duration, 600*time.Millisecond)

	require.Len(t, results, 11)
	assert.Equal(t, 7, results[7].Index)
	assert.True(t, results[7].State.IsSubmitting, "state after submit is settled")
	assert.Equal(t, 1, r.Toasts.Count(form.DefaultSuccessTitle))
}

func TestRunRejectedNames(t *testing.T) {
	sc, err := Load(filepath.Join("testdata", "invalid.yaml"))
	require.NoError(t, err)

	_, err = newRunner(t).Run(context.Background(), sc)
	require.NoError(t, err)
}

func TestRunFailedExpectation(t *testing.T) {
	doc := `name: wrong
steps:
  - change: {field: lastName, value: S}
  - expect:
      canSubmit: true
      notifications: 2
      errors: {lastName: []}
`
	path := filepath.Join(t.TempDir(), "wrong.yaml")
	sc, err := Parse([]byte(doc), path)
	require.NoError(t, err)

	report, err := newRunner(t).Run(context.Background(), sc)
	var e *errors.Error
	require.ErrorAs(t, err, &e)

	assert.Equal(t, "E303", e.Code)
	assert.Equal(t, 4, e.Location.Line)
	assert.Contains(t, e.Detail, "canSubmit: got false, want true")
	assert.Contains(t, e.Detail, "notifications: got 0, want 2")
	assert.Contains(t, e.Detail, `errors.lastName: got ["Last name must be at least 2 characters"], want []`)
	assert.Equal(t, 1, report.Steps, "steps before the failure count")
}

func TestRunUnknownField(t *testing.T) {
	sc, err := Parse([]byte("steps:\n  - change: {field: middleName, value: Q}\n"), "")
	require.NoError(t, err)

	_, err = newRunner(t).Run(context.Background(), sc)
	assert.Equal(t, "E100", errors.Code(err))
	assert.ErrorIs(t, err, form.ErrUnknownField)
	assert.Contains(t, err.Error(), `change middleName = "Q"`)
}

func TestRunClosedForm(t *testing.T) {
	sc, err := Parse([]byte("steps:\n  - blur: firstName\n"), "")
	require.NoError(t, err)

	r := newRunner(t)
	r.Form.Close()
	_, err = r.Run(context.Background(), sc)
	assert.Equal(t, "E101", errors.Code(err))
	assert.ErrorIs(t, err, form.ErrClosed)
}

func TestFormError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"unknown field", fmt.Errorf("%w: %q", form.ErrUnknownField, "x"), "E100"},
		{"closed", form.ErrClosed, "E101"},
		{"no fields", fmt.Errorf("%w: int", form.ErrNoFields), "E102"},
		{"submission", &form.SubmissionError{FormID: "f", SubmissionID: "s", Err: stderrors.New("down")}, "E103"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := FormError(tt.err)
			assert.Equal(t, tt.code, errors.Code(err))
			assert.ErrorIs(t, err, tt.err)
		})
	}

	plain := stderrors.New("other")
	assert.Same(t, plain, FormError(plain))
	assert.NoError(t, FormError(nil))
}

func TestRunExpectUnknownField(t *testing.T) {
	sc, err := Parse([]byte("steps:\n  - expect: {values: {middleName: Q}}\n"), "")
	require.NoError(t, err)

	_, err = newRunner(t).Run(context.Background(), sc)
	assert.Equal(t, "E303", errors.Code(err))
	assert.Contains(t, err.Error(), "values.middleName: no such field")
}

func TestRunCancelledDuringWait(t *testing.T) {
	sc, err := Parse([]byte("steps:\n  - wait: 1h\n"), "")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = newRunner(t).Run(ctx, sc)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
