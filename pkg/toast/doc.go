// Package toast provides feedback notifications for forms.
//
// The form core does not render anything. When a submission succeeds it
// hands a Toast to a Notifier and the presentation layer decides how to
// show it: a terminal line, a log entry, or a widget in a UI.
//
// # Notifiers
//
//   - LogNotifier writes toasts to a slog.Logger
//   - Recorder keeps toasts in memory (scenarios and tests)
//   - Func adapts a plain function
//   - Multi fans out to several notifiers
//
// # Usage
//
//	rec := toast.NewRecorder()
//	n := toast.Multi{rec, toast.LogNotifier{Logger: logger}}
//
//	toast.WithTitle(n, toast.TypeSuccess, "Success", "Form submitted successfully!")
package toast
