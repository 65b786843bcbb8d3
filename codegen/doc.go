// Package codegen holds the state dependency templates write into while a
// module is generated.
//
// A TemplateContext is created per (module, runtime) invocation. Templates
// push InitFragments, record RuntimeRequirements and, when the module is
// inlined into a concatenation group, register bindings on the
// ConcatenationScope. Finish merges fragments by key: every
// ExportInitFragment targeting the same exports object collapses into one
// getter definition with names sorted and duplicates dropped.
package codegen
