// Package form implements field validation and submission for forms made of
// string fields.
//
// # Overview
//
// A Form[T] binds to the exported string fields of a struct. Each field has
// synchronous validators, which run on every change and blur, and optional
// asynchronous validators, which run after the field has been quiet for a
// debounce delay. The form derives CanSubmit from the field states and runs
// the submit action at most once at a time.
//
// Submit does not trust a debounce that has not fired yet. Fields whose
// current value has not been through their async validators are checked
// right away, and the submit action runs only if the results are clean.
//
// # Basic Usage
//
//	type Signup struct {
//	    FirstName string `form:"firstName" label:"First Name"`
//	    LastName  string `form:"lastName" validate:"min=2"`
//	    Email     string `form:"email" validate:"email"`
//	}
//
//	f, err := form.New(Signup{}, save,
//	    form.WithField("firstName",
//	        form.OnChange(form.MinLength(3, "")),
//	        form.OnChangeAsync(nameIsFree),
//	    ),
//	    form.WithNotifier(toast.LogNotifier{}),
//	)
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
//
//	f.Change("firstName", "Alice")
//	f.Blur("firstName")
//	f.Submit()
//
// # Concurrency
//
// Every form runs on a loop.Loop. Change, Blur, Submit and Reset post events
// to the loop and return at once; State returns the latest snapshot and can
// be called from any goroutine. Async validators and the submit action run
// in their own goroutines and post their results back to the loop.
//
// Each field carries a generation counter that increments on every change.
// An async run captures the generation when it starts; if the field has
// changed by the time the run finishes, the result is dropped.
//
// # Surfacing Errors
//
// FieldState.Message implements the display policy: "Validating..." while an
// async run is in flight, otherwise the first error once the field has been
// touched.
package form
