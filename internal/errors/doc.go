// Package errors provides coded, actionable errors for the regform CLI.
//
// Each error has a code that maps to a registered template:
//   - E1xx: form usage (unknown field, closed form, failed submission)
//   - E2xx: configuration file and environment
//   - E3xx: scenario files and expectations
//
// # Usage
//
//	err := errors.New("E303").
//	    WithLocation("happy.yaml", 12, 5).
//	    WithDetail("canSubmit: got false, want true")
//
//	fmt.Fprint(os.Stderr, err.Format())
//	// Output:
//	// ERROR E303: Expectation failed
//	//
//	//   happy.yaml:12:5
//	//
//	//     10 │   - wait: 1600ms
//	//     11 │   - blur: firstName
//	//   → 12 │   - expect: {canSubmit: true}
//	//        │     ^
//	//     13 │   - submit: {}
//	//
//	//   canSubmit: got false, want true
package errors
