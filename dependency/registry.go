package dependency

import (
	"github.com/wippyai/jsbundle/codegen"
	"github.com/wippyai/jsbundle/errors"
)

// Handler renders a dependency in place of its own Template.
//
// Handlers are stateless and may be shared across concurrent code
// generation invocations. All mutable state lives in the TemplateContext.
type Handler interface {
	Handle(d Dependency, src *codegen.ReplaceSource, ctx *codegen.TemplateContext)
}

// HandlerFunc is an adapter to use ordinary functions as Handlers.
//
// Example:
//
//	r.Register(dependency.TypeESMExportSpecifier, dependency.HandlerFunc(
//	    func(d dependency.Dependency, src *codegen.ReplaceSource, ctx *codegen.TemplateContext) {
//	        d.(dependency.Template).Apply(src, ctx)
//	    }), "traced")
type HandlerFunc func(d Dependency, src *codegen.ReplaceSource, ctx *codegen.TemplateContext)

// Handle implements Handler.
func (f HandlerFunc) Handle(d Dependency, src *codegen.ReplaceSource, ctx *codegen.TemplateContext) {
	f(d, src, ctx)
}

// Registry maps dependency types to the handler that renders them.
//
// Lookup order is an explicitly registered handler for the type, then the
// dependency itself when it implements Template. Registration happens
// before code generation; lookups are read-only afterwards.
type Registry struct {
	handlers [typeCount]Handler
	names    [typeCount]string
}

// NewRegistry creates an empty Registry. Every dependency then renders
// through its own Template.
func NewRegistry() *Registry {
	return &Registry{}
}

// DefaultRegistry returns a registry with no overrides.
func DefaultRegistry() *Registry {
	return NewRegistry()
}

// Register sets the handler for a type, replacing any previous one.
// The name is used in error messages.
func (r *Registry) Register(t Type, h Handler, name string) {
	errors.MustHold(t < typeCount, errors.PhaseCodegen, "register handler for unknown %s", t)
	r.handlers[t] = h
	r.names[t] = name
}

// Get returns the override for a type, or nil.
func (r *Registry) Get(t Type) Handler {
	if t >= typeCount {
		return nil
	}
	return r.handlers[t]
}

// Name returns the name the override for t was registered under.
func (r *Registry) Name(t Type) string {
	if t >= typeCount {
		return ""
	}
	return r.names[t]
}

// Resolve returns the handler that renders d. A dependency with neither an
// override nor its own Template is an invariant violation.
func (r *Registry) Resolve(d Dependency) Handler {
	if h := r.Get(d.Type()); h != nil {
		return h
	}
	if _, ok := d.(Template); ok {
		return selfTemplate{}
	}
	panic(errors.New(errors.PhaseCodegen, errors.KindInvariant).
		Detail("no template for %s dependency at %s", d.Type(), d.Loc()).
		Build())
}

// Apply renders d through its resolved handler.
func (r *Registry) Apply(d Dependency, src *codegen.ReplaceSource, ctx *codegen.TemplateContext) {
	r.Resolve(d).Handle(d, src, ctx)
}

// Missing returns the dependencies that have no way to be rendered.
func (r *Registry) Missing(deps []Dependency) []Dependency {
	var out []Dependency
	for _, d := range deps {
		if r.Get(d.Type()) != nil {
			continue
		}
		if _, ok := d.(Template); !ok {
			out = append(out, d)
		}
	}
	return out
}

type selfTemplate struct{}

func (selfTemplate) Handle(d Dependency, src *codegen.ReplaceSource, ctx *codegen.TemplateContext) {
	d.(Template).Apply(src, ctx)
}
