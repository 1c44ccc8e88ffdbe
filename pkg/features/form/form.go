package form

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/regform/pkg/loop"
	"github.com/vango-dev/regform/pkg/toast"
)

const (
	// DefaultSuccessTitle is the toast title sent after a successful submit.
	DefaultSuccessTitle = "Success"

	// DefaultSuccessMessage is the toast body sent after a successful submit.
	DefaultSuccessMessage = "Form submitted successfully!"

	// asyncFailedMessage is shown when an async validator panics.
	asyncFailedMessage = "Validation could not be completed"
)

// SubmitFunc performs the submission with a snapshot of the form values.
// It runs off the form's loop; ctx is cancelled when the form is closed.
type SubmitFunc[T any] func(ctx context.Context, values T) error

// State is the published, read-only view of a form. Slices in a State are
// shared between readers and must not be modified.
type State[T any] struct {
	FormID string
	Values T
	Fields []FieldState

	// CanSubmit is true iff no field has errors and none is validating.
	CanSubmit    bool
	IsValid      bool
	IsValidating bool

	IsSubmitting       bool
	IsSubmitted        bool
	SubmissionAttempts int
	SubmitError        error
}

// Field returns the state of the named field.
func (s State[T]) Field(name string) (FieldState, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldState{}, false
}

// Option configures a Form.
type Option func(*options)

type options struct {
	loop           *loop.Loop
	clock          clockwork.Clock
	queueSize      int
	logger         *slog.Logger
	metrics        *Metrics
	tracerName     string
	notifier       toast.Notifier
	successTitle   string
	successMessage string
	fields         map[string][]FieldOption
}

// WithLoop runs the form on an existing loop instead of a private one.
// The caller starts and closes a shared loop.
func WithLoop(l *loop.Loop) Option {
	return func(o *options) {
		o.loop = l
	}
}

// WithClock sets the clock of the form's private loop. Ignored with WithLoop,
// where the loop's clock is used.
func WithClock(c clockwork.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithQueueSize sets the event buffer of the form's private loop.
func WithQueueSize(n int) Option {
	return func(o *options) {
		o.queueSize = n
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics records validation and submission metrics.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithTracerName sets the OpenTelemetry tracer name.
func WithTracerName(name string) Option {
	return func(o *options) {
		o.tracerName = name
	}
}

// WithNotifier sets where the success toast goes.
func WithNotifier(n toast.Notifier) Option {
	return func(o *options) {
		o.notifier = n
	}
}

// WithSuccessToast overrides the title and message of the success toast.
func WithSuccessToast(title, message string) Option {
	return func(o *options) {
		o.successTitle = title
		o.successMessage = message
	}
}

// WithField configures validation for the named field.
func WithField(name string, opts ...FieldOption) Option {
	return func(o *options) {
		o.fields[name] = append(o.fields[name], opts...)
	}
}

type listener[T any] struct {
	id uint64
	fn func(State[T])
}

// Form is the validation and submission state machine for a struct of
// string fields. All mutable state is owned by the loop goroutine; the
// exported methods post events and return immediately.
type Form[T any] struct {
	id      string
	initial T
	values  T
	fields  []*field
	byName  map[string]*field
	submit  SubmitFunc[T]

	// Submission state, loop-owned. awaiting is set while a submit waits
	// for async validation to settle before the gate is applied.
	submitting bool
	awaiting   bool
	submitted  bool
	attempts   int
	submitErr  error

	loop     *loop.Loop
	ownsLoop bool
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *Metrics
	tracer   trace.Tracer

	notifier       toast.Notifier
	successTitle   string
	successMessage string

	// ctx is cancelled by Close; async work derives from it
	ctx       context.Context
	cancel    context.CancelFunc
	closed    atomic.Bool
	closeOnce sync.Once

	// Published snapshot, written on the loop and read anywhere
	mu    sync.RWMutex
	state State[T]

	listeners   []listener[T]
	listenerSeq atomic.Uint64
}

// New creates a form bound to the exported string fields of T.
//
// Field names come from `form` struct tags (lower-cased Go names otherwise)
// and sync rules may be declared with `validate` tags. WithField adds rules
// in code, including async ones:
//
//	f, err := form.New(Signup{}, save,
//	    form.WithField("firstName",
//	        form.OnChange(form.MinLength(3, "First name must be at least 3 characters")),
//	        form.OnChangeAsync(checkName),
//	        form.AsyncDebounce(500*time.Millisecond),
//	    ),
//	    form.WithNotifier(notifier),
//	)
func New[T any](initial T, submit SubmitFunc[T], opts ...Option) (*Form[T], error) {
	t := reflect.TypeOf(initial)
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %T is not a struct", ErrNoFields, initial)
	}
	bindings := bindStruct(t)
	if len(bindings) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoFields, t)
	}

	o := options{
		logger:         slog.Default(),
		successTitle:   DefaultSuccessTitle,
		successMessage: DefaultSuccessMessage,
		fields:         make(map[string][]FieldOption),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	f := &Form[T]{
		id:             uuid.NewString(),
		initial:        initial,
		values:         initial,
		byName:         make(map[string]*field, len(bindings)),
		submit:         submit,
		metrics:        o.metrics,
		tracer:         newTracer(o.tracerName),
		notifier:       o.notifier,
		successTitle:   o.successTitle,
		successMessage: o.successMessage,
	}
	f.logger = o.logger.With("form", f.id)

	for _, b := range bindings {
		cfg := fieldConfig{
			validators: parseValidateTag(b.validateTag),
			debounce:   DefaultAsyncDebounce,
		}
		for _, fo := range o.fields[b.name] {
			fo(&cfg)
		}
		fld := &field{binding: b, cfg: cfg}
		f.fields = append(f.fields, fld)
		f.byName[b.name] = fld
	}
	for name := range o.fields {
		if _, ok := f.byName[name]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, name)
		}
	}

	if o.loop != nil {
		f.loop = o.loop
	} else {
		f.loop = loop.New(
			loop.WithClock(o.clock),
			loop.WithLogger(o.logger),
			loop.WithQueueSize(o.queueSize),
		)
		f.ownsLoop = true
	}
	f.clock = f.loop.Clock()

	f.ctx, f.cancel = context.WithCancel(context.Background())
	f.state = f.snapshot()

	if f.ownsLoop {
		f.loop.Start()
	}
	f.logger.Debug("form created", "fields", len(f.fields))
	return f, nil
}

// ID returns the form instance ID.
func (f *Form[T]) ID() string {
	return f.id
}

// State returns the latest published state.
func (f *Form[T]) State() State[T] {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.state
}

// Values returns a copy of the current values.
func (f *Form[T]) Values() T {
	return f.State().Values
}

// Change sets a field's value and validates it.
func (f *Form[T]) Change(name, value string) error {
	fld, err := f.lookup(name)
	if err != nil {
		return err
	}
	return f.dispatch(func() { f.handleChange(fld, value) })
}

// Blur marks a field as touched and validates it.
func (f *Form[T]) Blur(name string) error {
	fld, err := f.lookup(name)
	if err != nil {
		return err
	}
	return f.dispatch(func() { f.handleBlur(fld) })
}

// Submit requests a submission. Every field is touched and validated again.
// Async validators that are debouncing, or have not checked the current
// value, start at once and the submission waits for their results. Requests
// made while a submission is in flight, or while the form cannot be
// submitted, are ignored.
func (f *Form[T]) Submit() error {
	return f.dispatch(f.handleSubmit)
}

// Reset restores the initial values and clears all field state.
// An in-flight submission is not cancelled.
func (f *Form[T]) Reset() error {
	return f.dispatch(f.handleReset)
}

// Subscribe registers fn to be called on the loop with every new state,
// starting with the current one. fn must not block and must not call
// Sync. The returned function unsubscribes.
func (f *Form[T]) Subscribe(fn func(State[T])) (func(), error) {
	id := f.listenerSeq.Add(1)
	err := f.dispatch(func() {
		f.listeners = append(f.listeners, listener[T]{id: id, fn: fn})
		f.notifyListener(fn, f.State())
	})
	if err != nil {
		return func() {}, err
	}
	return func() {
		_ = f.dispatch(func() {
			for i, l := range f.listeners {
				if l.id == id {
					f.listeners = append(f.listeners[:i], f.listeners[i+1:]...)
					return
				}
			}
		})
	}, nil
}

// Sync waits until every event posted before the call has been applied.
func (f *Form[T]) Sync(ctx context.Context) error {
	if f.closed.Load() {
		return ErrClosed
	}
	if err := f.loop.Sync(ctx); err != nil {
		if errors.Is(err, loop.ErrClosed) {
			return ErrClosed
		}
		return err
	}
	return nil
}

// Close discards the form. Pending debounce timers are stopped and the
// context of in-flight async work is cancelled; their results are dropped.
// A private loop is closed as well.
func (f *Form[T]) Close() {
	f.closeOnce.Do(func() {
		f.closed.Store(true)
		f.cancel()
		if f.ownsLoop {
			f.loop.Close()
			// The loop goroutine has exited; nothing else touches fields.
			f.stopTimers()
		} else {
			_ = f.loop.Dispatch(f.stopTimers)
		}
		f.logger.Debug("form closed")
	})
}

func (f *Form[T]) lookup(name string) (*field, error) {
	fld, ok := f.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return fld, nil
}

// dispatch posts fn to the loop, dropping it if the form closes first.
func (f *Form[T]) dispatch(fn func()) error {
	if f.closed.Load() {
		return ErrClosed
	}
	err := f.loop.Dispatch(func() {
		if f.closed.Load() {
			return
		}
		fn()
	})
	if errors.Is(err, loop.ErrClosed) {
		return ErrClosed
	}
	return err
}

func (f *Form[T]) stopTimers() {
	for _, fld := range f.fields {
		fld.cancelPending()
	}
}

// =============================================================================
// Loop handlers
// =============================================================================

func (f *Form[T]) handleChange(fld *field, value string) {
	setString(&f.values, fld.binding, value)
	fld.dirty = true
	fld.generation++

	// Whatever was in flight or pending described the old value.
	fld.validating = false
	fld.checked = false
	fld.asyncErrors = nil
	if f.awaiting {
		f.abandonSubmit("superseded")
	}
	if fld.cancelPending() {
		f.metrics.recordDebounceReset(fld.name)
	}

	f.validateSync(fld)
	if fld.hasAsync() && (len(fld.syncErrors) == 0 || fld.cfg.asyncAlways) {
		f.scheduleAsync(fld)
	}

	f.logger.Debug("field changed", "field", fld.name, "generation", fld.generation)
	f.publish()
}

func (f *Form[T]) handleBlur(fld *field) {
	fld.touched = true
	f.validateSync(fld)
	f.publish()
}

func (f *Form[T]) validateSync(fld *field) {
	fld.syncErrors = runValidators(fld.cfg.validators, getString(&f.values, fld.binding))
	f.metrics.recordSync(fld.name, len(fld.syncErrors) == 0)
}

// scheduleAsync arms the debounce timer for the field's current generation.
func (f *Form[T]) scheduleAsync(fld *field) {
	gen := fld.generation
	fld.pending = f.loop.Timeout(fld.cfg.debounce, func() {
		if f.startAsync(fld, gen) {
			f.publish()
		}
	})
}

// needsAsync reports whether the field's current value still has to go
// through its async validators before the form may be submitted.
func (f *Form[T]) needsAsync(fld *field) bool {
	if !fld.hasAsync() || fld.validating || fld.checked {
		return false
	}
	return len(fld.syncErrors) == 0 || fld.cfg.asyncAlways
}

// startAsync launches the async validators for generation gen. It runs on
// the loop and reports whether a run was started; the caller publishes.
func (f *Form[T]) startAsync(fld *field, gen uint64) bool {
	if f.closed.Load() || gen != fld.generation || fld.validating || fld.checked {
		return false
	}
	fld.pending = nil
	fld.validating = true

	value := getString(&f.values, fld.binding)
	validators := fld.cfg.async
	name := fld.name
	started := f.clock.Now()

	f.metrics.recordAsyncStart(name)
	f.logger.Debug("async validation started", "field", name, "generation", gen)

	go func() {
		ctx, span := f.startAsyncSpan(f.ctx, name, gen)
		messages, err := safeAsync(ctx, validators, value)
		endSpan(span, err, attribute.Int("form.errors", len(messages)))

		elapsed := f.clock.Since(started)
		_ = f.dispatch(func() {
			f.finishAsync(fld, gen, messages, err, elapsed)
		})
	}()
	return true
}

// finishAsync applies an async result unless a newer change superseded it.
func (f *Form[T]) finishAsync(fld *field, gen uint64, messages []string, err error, elapsed time.Duration) {
	if gen != fld.generation {
		f.metrics.recordAsyncResult(fld.name, "stale", elapsed)
		f.logger.Debug("stale async result discarded",
			"field", fld.name,
			"generation", gen,
			"current", fld.generation)
		return
	}

	fld.validating = false
	fld.checked = true
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		f.metrics.recordAsyncResult(fld.name, "canceled", elapsed)
	case err != nil:
		f.metrics.recordAsyncResult(fld.name, "error", elapsed)
		f.logger.Error("async validation failed", "field", fld.name, "error", err)
		fld.asyncErrors = []string{asyncFailedMessage}
	default:
		f.metrics.recordAsyncResult(fld.name, validLabel(len(messages) == 0), elapsed)
		fld.asyncErrors = messages
	}

	if f.awaiting && !f.anyValidating() {
		f.gateSubmit()
		return
	}
	f.publish()
}

func (f *Form[T]) handleSubmit() {
	if f.submitting {
		f.metrics.recordSubmitIgnored("in_flight")
		f.logger.Debug("submit ignored", "reason", "in_flight")
		return
	}

	f.attempts++
	f.submitErr = nil
	for _, fld := range f.fields {
		fld.touched = true
		f.validateSync(fld)
		if f.needsAsync(fld) {
			fld.cancelPending()
			f.startAsync(fld, fld.generation)
		}
	}

	if f.anyValidating() {
		f.submitting = true
		f.awaiting = true
		f.logger.Debug("submit waiting for validation")
		f.publish()
		return
	}
	f.gateSubmit()
}

// gateSubmit starts the submission if the form is valid once every async
// result for the current values has been applied.
func (f *Form[T]) gateSubmit() {
	f.awaiting = false
	if !f.snapshot().CanSubmit {
		f.submitting = false
		f.metrics.recordSubmitIgnored("invalid")
		f.logger.Debug("submit ignored", "reason", "invalid")
		f.publish()
		return
	}

	f.submitting = true
	values := f.values
	submissionID := uuid.NewString()
	started := f.clock.Now()

	f.logger.Info("submitting", "submission", submissionID)
	f.publish()

	go func() {
		ctx, span := f.startSubmitSpan(f.ctx, submissionID)
		err := f.safeSubmit(ctx, values)
		endSpan(span, err)

		elapsed := f.clock.Since(started)
		_ = f.dispatch(func() {
			f.finishSubmit(submissionID, err, elapsed)
		})
	}()
}

// abandonSubmit drops a submit that was waiting for validation.
func (f *Form[T]) abandonSubmit(reason string) {
	f.awaiting = false
	f.submitting = false
	f.metrics.recordSubmitIgnored(reason)
	f.logger.Debug("submit ignored", "reason", reason)
}

func (f *Form[T]) anyValidating() bool {
	for _, fld := range f.fields {
		if fld.validating {
			return true
		}
	}
	return false
}

func (f *Form[T]) finishSubmit(submissionID string, err error, elapsed time.Duration) {
	f.submitting = false
	f.submitted = true
	f.metrics.recordSubmit(err, elapsed)

	if err != nil {
		f.submitErr = &SubmissionError{FormID: f.id, SubmissionID: submissionID, Err: err}
		f.logger.Error("submission failed", "submission", submissionID, "error", err)
		f.publish()
		return
	}

	f.logger.Info("form submitted", "submission", submissionID, "duration", elapsed)
	if f.notifier != nil {
		toast.WithTitle(f.notifier, toast.TypeSuccess, f.successTitle, f.successMessage)
	}
	f.publish()
}

func (f *Form[T]) handleReset() {
	if f.awaiting {
		f.abandonSubmit("reset")
	}
	f.values = f.initial
	for _, fld := range f.fields {
		fld.cancelPending()
		fld.generation++
		fld.touched = false
		fld.dirty = false
		fld.validating = false
		fld.checked = false
		fld.syncErrors = nil
		fld.asyncErrors = nil
	}
	f.attempts = 0
	f.submitted = false
	f.submitErr = nil
	f.publish()
}

// =============================================================================
// Derived state
// =============================================================================

// snapshot recomputes the derived state from the loop-owned fields.
func (f *Form[T]) snapshot() State[T] {
	s := State[T]{
		FormID:             f.id,
		Values:             f.values,
		Fields:             make([]FieldState, len(f.fields)),
		IsSubmitting:       f.submitting,
		IsSubmitted:        f.submitted,
		SubmissionAttempts: f.attempts,
		SubmitError:        f.submitErr,
	}

	valid, validating := true, false
	for i, fld := range f.fields {
		errs := fld.errors()
		s.Fields[i] = FieldState{
			Name:         fld.name,
			Label:        fld.label,
			Value:        getString(&f.values, fld.binding),
			IsTouched:    fld.touched,
			IsDirty:      fld.dirty,
			IsValidating: fld.validating,
			Errors:       errs,
		}
		if len(errs) > 0 {
			valid = false
		}
		if fld.validating {
			validating = true
		}
	}

	s.IsValid = valid
	s.IsValidating = validating
	s.CanSubmit = valid && !validating
	return s
}

// publish stores a fresh snapshot and notifies listeners.
func (f *Form[T]) publish() {
	s := f.snapshot()

	f.mu.Lock()
	f.state = s
	f.mu.Unlock()

	for _, l := range f.listeners {
		f.notifyListener(l.fn, s)
	}
}

func (f *Form[T]) notifyListener(fn func(State[T]), s State[T]) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error("listener panic", "panic", r)
		}
	}()
	fn(s)
}

// =============================================================================
// Off-loop work
// =============================================================================

// safeAsync runs the async validators, turning a panic into an error.
func safeAsync(ctx context.Context, validators []AsyncValidator, value string) (messages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			messages, err = nil, panicError{value: r}
		}
	}()
	return runAsyncValidators(ctx, validators, value)
}

// safeSubmit runs the submit action, turning a panic into an error.
func (f *Form[T]) safeSubmit(ctx context.Context, values T) (err error) {
	if f.submit == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = panicError{value: r}
		}
	}()
	return f.submit(ctx, values)
}
