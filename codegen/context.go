package codegen

import (
	"strings"

	"github.com/wippyai/jsbundle/exports"
	"github.com/wippyai/jsbundle/runtime"
)

// ModuleView is the part of a module code generation reads.
type ModuleView interface {
	Identifier() string
	ExportsArgument() string
}

// GraphView is the read-only module graph seen during code generation.
type GraphView interface {
	ModuleByIdentifier(id string) (ModuleView, bool)
	ExportsInfo(module string) *exports.Info
	ResolvedModule(dependency uint32) (string, bool)
}

// TemplateContext is the mutable state of one module's code generation.
// It belongs to a single invocation and is not shared.
type TemplateContext struct {
	Graph               GraphView
	Module              ModuleView
	Runtime             runtime.Spec
	Environment         Environment
	InitFragments       *Fragments
	RuntimeRequirements RuntimeRequirements
	ConcatenationScope  *ConcatenationScope
}

// NewTemplateContext creates a context for module under rt.
func NewTemplateContext(g GraphView, m ModuleView, rt runtime.Spec, env Environment) *TemplateContext {
	return &TemplateContext{
		Graph:               g,
		Module:              m,
		Runtime:             rt,
		Environment:         env,
		InitFragments:       &Fragments{},
		RuntimeRequirements: make(RuntimeRequirements),
	}
}

// ExportsInfo returns the exports of the module being generated.
func (c *TemplateContext) ExportsInfo() *exports.Info {
	return c.Graph.ExportsInfo(c.Module.Identifier())
}

// UsedName resolves name against the module's own exports in c.Runtime.
func (c *TemplateContext) UsedName(name exports.UsedName) exports.UsedName {
	info := c.ExportsInfo()
	if info == nil {
		return name
	}
	return info.UsedName(c.Runtime, name)
}

// Result is the output of generating one module.
type Result struct {
	Module              string
	Runtime             string
	Source              string
	Fragments           []InitFragment
	RuntimeRequirements []string
	ExportDefinitions   map[string][]ExportPair
	ConcatenatedExports []ExportPair
	References          []ModuleReference
}

// Reference returns the module reference behind a placeholder name.
func (r *Result) Reference(name string) (ModuleReference, bool) {
	for _, ref := range r.References {
		if ref.Name() == name {
			return ref, true
		}
	}
	return ModuleReference{}, false
}

// Finish merges the collected fragments and renders src behind them.
func (c *TemplateContext) Finish(src *ReplaceSource) *Result {
	merged := c.InitFragments.Merge()
	r := &Result{
		Module:              c.Module.Identifier(),
		Runtime:             c.Runtime.Key(),
		Source:              Render(merged, src.Source(), c.Environment),
		Fragments:           merged,
		RuntimeRequirements: c.RuntimeRequirements.List(),
		ExportDefinitions:   c.InitFragments.ExportDefinitions(),
	}
	if c.ConcatenationScope != nil {
		r.ConcatenatedExports = c.ConcatenationScope.Exports()
		r.References = c.ConcatenationScope.References()
	}
	return r
}

// Render prepends the content of merged fragments to body.
func Render(merged []InitFragment, body string, env Environment) string {
	var b strings.Builder
	for _, f := range merged {
		b.WriteString(f.Content(env))
	}
	b.WriteString(body)
	return b.String()
}
