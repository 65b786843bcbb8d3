// Package errors provides structured error types for the bundler.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the module, export, runtime and property path it concerns,
// plus a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseUsage, errors.KindMissingName).
//		Module("./lib.js").
//		Export("b").
//		Detail("terminal binding without a name").
//		Build()
//
// Internal invariant violations are not returned. They are raised with panic
// carrying an *Error of KindInvariant, since continuing would emit silently
// wrong code:
//
//	errors.MustHold(info != nil, errors.PhaseCodegen, "no exports info for %s", id)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
