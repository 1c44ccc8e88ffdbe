package toast

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

//go:generate mockgen -source=toast.go -destination=mocks/mocks.go -package=mocks Notifier

// Type represents the toast notification type.
type Type string

const (
	TypeSuccess Type = "success"
	TypeError   Type = "error"
	TypeWarning Type = "warning"
	TypeInfo    Type = "info"
)

// Toast is a single notification.
type Toast struct {
	Level   Type
	Title   string
	Message string
}

// Notifier receives notifications. Implementations must not block for long:
// forms call Notify from their event loop.
type Notifier interface {
	Notify(t Toast)
}

// Func adapts a function to a Notifier.
type Func func(t Toast)

// Notify calls f(t).
func (f Func) Notify(t Toast) {
	f(t)
}

// WithTitle shows a toast with a title and message.
//
//	toast.WithTitle(n, toast.TypeSuccess, "Success", "Form submitted successfully!")
func WithTitle(n Notifier, level Type, title, message string) {
	n.Notify(Toast{Level: level, Title: title, Message: message})
}

// ----------------------------------------------------------------------------
// Notifiers
// ----------------------------------------------------------------------------

// LogNotifier writes toasts to a structured logger.
type LogNotifier struct {
	Logger *slog.Logger
}

// Notify logs the toast at a level matching its type.
func (l LogNotifier) Notify(t Toast) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	level := slog.LevelInfo
	switch t.Level {
	case TypeError:
		level = slog.LevelError
	case TypeWarning:
		level = slog.LevelWarn
	}
	logger.Log(context.Background(), level, "toast",
		"type", string(t.Level),
		"title", t.Title,
		"message", t.Message)
}

// Entry is a toast captured by a Recorder.
type Entry struct {
	Toast
	At time.Time
}

// Recorder keeps every toast in memory. It is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Notify records t.
func (r *Recorder) Notify(t Toast) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Toast: t, At: time.Now()})
}

// Entries returns a copy of the recorded toasts in arrival order.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len returns the number of recorded toasts.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Count returns how many recorded toasts have the given title.
func (r *Recorder) Count(title string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.entries {
		if e.Title == title {
			n++
		}
	}
	return n
}

// Multi fans a toast out to several notifiers in order.
type Multi []Notifier

// Notify forwards t to every non-nil notifier.
func (m Multi) Notify(t Toast) {
	for _, n := range m {
		if n != nil {
			n.Notify(t)
		}
	}
}
