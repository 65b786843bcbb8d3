package dependency

import (
	"strconv"

	"github.com/wippyai/jsbundle/codegen"
	"github.com/wippyai/jsbundle/errors"
	"github.com/wippyai/jsbundle/exports"
	"github.com/wippyai/jsbundle/runtime"
)

// CommonJSExports is an assignment to `exports.name` or, with an empty
// name, to `module.exports`. The range covers the assignment target.
type CommonJSExports struct {
	base
	name string
}

// NewCommonJSExports creates an exports assignment.
func NewCommonJSExports(name string, target Range, loc Location) *CommonJSExports {
	return &CommonJSExports{
		base: newBase(loc, target),
		name: name,
	}
}

// Name returns the assigned export name; empty for `module.exports`.
func (d *CommonJSExports) Name() string { return d.name }

// Category implements Dependency.
func (d *CommonJSExports) Category() Category { return CategoryCommonJS }

// Type implements Dependency.
func (d *CommonJSExports) Type() Type { return TypeCommonJSExports }

// Exports implements Dependency. Properties of the exports object can be
// read reflectively, so they are never renamed.
func (d *CommonJSExports) Exports(Graph) *exports.Spec {
	if d.name == "" {
		return &exports.Spec{
			Kind:      exports.ListUnknown,
			CanMangle: exports.Bool(false),
		}
	}
	return &exports.Spec{
		Exports:         []exports.Export{exports.Name(d.name)},
		CanMangle:       exports.Bool(false),
		TerminalBinding: true,
	}
}

// SideEffectsState implements Dependency.
func (d *CommonJSExports) SideEffectsState(Graph, ModuleChain) ConnectionState {
	return ConnectionFalse
}

// CouldAffectReferencingModule implements Dependency.
func (d *CommonJSExports) CouldAffectReferencingModule() AffectType {
	return AffectFalse
}

// Apply implements Template.
func (d *CommonJSExports) Apply(src *codegen.ReplaceSource, ctx *codegen.TemplateContext) {
	if d.rng.IsZero() {
		return
	}
	if d.name == "" {
		ctx.RuntimeRequirements.Add(codegen.ModuleName)
		src.Replace(d.rng.Start, d.rng.End, codegen.ModuleName+".exports")
		return
	}

	m := owningModule(ctx)
	info := mustExportsInfo(ctx.Graph, m.Identifier(), errors.PhaseCodegen)
	used := info.UsedName(ctx.Runtime, exports.Str(d.name))
	if used == nil {
		src.Replace(d.rng.Start, d.rng.End, codegen.UnusedExportName)
		return
	}
	ctx.RuntimeRequirements.Add(codegen.ExportsName)
	src.Replace(d.rng.Start, d.rng.End, m.ExportsArgument()+codegen.PropertyAccess(used))
}

// CommonJSRequire is `require("m")`. The range covers the call.
type CommonJSRequire struct {
	base
	request string
}

// NewCommonJSRequire creates a require call of request.
func NewCommonJSRequire(request string, call Range, loc Location) *CommonJSRequire {
	return &CommonJSRequire{
		base:    newBase(loc, call),
		request: request,
	}
}

// Request implements ModuleDependency.
func (d *CommonJSRequire) Request() string { return d.request }

// Category implements Dependency.
func (d *CommonJSRequire) Category() Category { return CategoryCommonJS }

// Type implements Dependency.
func (d *CommonJSRequire) Type() Type { return TypeCommonJSRequire }

// Exports implements Dependency.
func (d *CommonJSRequire) Exports(Graph) *exports.Spec { return nil }

// SideEffectsState implements Dependency.
func (d *CommonJSRequire) SideEffectsState(Graph, ModuleChain) ConnectionState {
	return ConnectionTrue
}

// CouldAffectReferencingModule implements Dependency.
func (d *CommonJSRequire) CouldAffectReferencingModule() AffectType {
	return AffectTrue
}

// ReferencedExports implements ReferencingDependency.
func (d *CommonJSRequire) ReferencedExports(Graph, runtime.Spec) []exports.Reference {
	return []exports.Reference{exports.EntireNamespace}
}

// Apply implements Template.
func (d *CommonJSRequire) Apply(src *codegen.ReplaceSource, ctx *codegen.TemplateContext) {
	target := mustResolve(ctx.Graph, d.id, errors.PhaseCodegen)
	ctx.RuntimeRequirements.Add(codegen.RequireName)
	if d.rng.IsZero() {
		return
	}
	src.Replace(d.rng.Start, d.rng.End, codegen.RequireName+"("+quote(target)+")")
}

func quote(s string) string {
	return strconv.Quote(s)
}
