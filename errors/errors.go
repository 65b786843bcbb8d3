package errors

import (
	"fmt"
	"sort"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseExtract Phase = "extract" // dependency extraction
	PhaseProvide Phase = "provide" // provided-exports fold
	PhaseUsage   Phase = "usage"   // used-exports fixpoint
	PhaseMangle  Phase = "mangle"  // used-name assignment
	PhaseCodegen Phase = "codegen" // template application
	PhaseHash    Phase = "hash"    // content hashing
	PhaseLoad    Phase = "load"    // manifest loading
	PhaseConfig  Phase = "config"  // configuration
)

// Kind categorizes the error
type Kind string

const (
	KindInvariant     Kind = "invariant"
	KindNotFound      Kind = "not_found"
	KindInvalidInput  Kind = "invalid_input"
	KindInvalidData   Kind = "invalid_data"
	KindUnsupported   Kind = "unsupported"
	KindMissingName   Kind = "missing_name"
	KindMissingExport Kind = "missing_export"
	KindCanceled      Kind = "canceled"
	KindConflict      Kind = "conflict"
)

// Error is the structured error type used throughout the bundler
type Error struct {
	Value   any
	Cause   error
	Phase   Phase
	Kind    Kind
	Module  string
	Export  string
	Runtime string
	Detail  string
	Path    []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Module != "" {
		b.WriteString(" in ")
		b.WriteString(e.Module)
	}

	if e.Export != "" || len(e.Path) > 0 {
		b.WriteString(" at ")
		if e.Export != "" {
			b.WriteString(e.Export)
		}
		if len(e.Path) > 0 {
			if e.Export != "" {
				b.WriteByte('.')
			}
			b.WriteString(strings.Join(e.Path, "."))
		}
	}

	if e.Runtime != "" {
		b.WriteString(" (runtime ")
		b.WriteString(e.Runtime)
		b.WriteByte(')')
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Module sets the module identifier
func (b *Builder) Module(id string) *Builder {
	b.err.Module = id
	return b
}

// Export sets the export name
func (b *Builder) Export(name string) *Builder {
	b.err.Export = name
	return b
}

// Runtime sets the runtime key
func (b *Builder) Runtime(key string) *Builder {
	b.err.Runtime = key
	return b
}

// Path sets the property path below the export
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Panic raises the constructed error as a panic.
// Used for internal invariant violations only.
func (b *Builder) Panic() {
	panic(b.Build())
}

// Convenience constructors for common error patterns

// Invariant creates an internal invariant violation.
// These are never returned to callers; they are raised with panic.
func Invariant(phase Phase, detail string, args ...any) *Error {
	return New(phase, KindInvariant).Detail(detail, args...).Build()
}

// MustHold panics with an invariant error when cond is false.
func MustHold(cond bool, phase Phase, detail string, args ...any) {
	if !cond {
		panic(Invariant(phase, detail, args...))
	}
}

// IsInvariant reports whether v (typically a recovered panic value) is an
// invariant violation raised by this package.
func IsInvariant(v any) bool {
	e, ok := v.(*Error)
	return ok && e.Kind == KindInvariant
}

// ModuleNotFound creates the invariant error raised when the module graph
// has no entry for an identifier it handed out.
func ModuleNotFound(phase Phase, id string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvariant,
		Module: id,
		Detail: "module missing from module graph",
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// Canceled creates the error returned when a phase is aborted.
func Canceled(phase Phase, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindCanceled,
		Detail: "aborted, partial state discarded",
		Cause:  cause,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Load creates a manifest loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}

// ParseFailed creates a parsing error
func ParseFailed(what string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidData,
		Detail: fmt.Sprintf("parse %s", what),
		Cause:  cause,
	}
}

// MissingExport represents one import of a name the target does not provide
type MissingExport struct {
	Origin  string // importing module
	Target  string // imported module
	Export  string // requested name
	Loc     string // location of the import in Origin
	Runtime string
}

// MissingExportsError collects imports of names their target never provides.
// It is reported as a warning; code generation still proceeds.
type MissingExportsError struct {
	Exports []MissingExport
}

// NewMissingExportsError creates an error from a list of missing exports
func NewMissingExportsError(missing []MissingExport) *MissingExportsError {
	result := &MissingExportsError{
		Exports: make([]MissingExport, len(missing)),
	}
	copy(result.Exports, missing)
	sort.SliceStable(result.Exports, func(i, j int) bool {
		if result.Exports[i].Target != result.Exports[j].Target {
			return result.Exports[i].Target < result.Exports[j].Target
		}
		return result.Exports[i].Export < result.Exports[j].Export
	})
	return result
}

func (e *MissingExportsError) Error() string {
	if len(e.Exports) == 0 {
		return "[usage] missing_export: no exports specified"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d missing export(s):\n", len(e.Exports))

	// Group by target for cleaner output
	byTarget := make(map[string][]MissingExport)
	var order []string
	for _, m := range e.Exports {
		if _, exists := byTarget[m.Target]; !exists {
			order = append(order, m.Target)
		}
		byTarget[m.Target] = append(byTarget[m.Target], m)
	}

	for _, target := range order {
		b.WriteString("\n  ")
		b.WriteString(target)
		b.WriteString(":\n")
		for _, m := range byTarget[target] {
			b.WriteString("    - ")
			b.WriteString(m.Export)
			if m.Origin != "" {
				b.WriteString(" (imported by ")
				b.WriteString(m.Origin)
				if m.Loc != "" {
					b.WriteByte(' ')
					b.WriteString(m.Loc)
				}
				b.WriteByte(')')
			}
			b.WriteByte('\n')
		}
	}

	return strings.TrimSuffix(b.String(), "\n")
}

// Is reports whether target matches this error type
func (e *MissingExportsError) Is(target error) bool {
	_, ok := target.(*MissingExportsError)
	return ok
}
