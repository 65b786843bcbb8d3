package dependency

import (
	"github.com/wippyai/jsbundle/codegen"
	"github.com/wippyai/jsbundle/errors"
	"github.com/wippyai/jsbundle/exports"
	"github.com/wippyai/jsbundle/runtime"
)

// ImportSideEffect is the import statement itself, one per `import ... from "m"`.
// The range covers the statement, which is removed from the output.
type ImportSideEffect struct {
	base
	request string
	order   int
}

// NewImportSideEffect creates the statement dependency for request. order
// is the position of the statement among the module's imports.
func NewImportSideEffect(request string, order int, stmt Range, loc Location) *ImportSideEffect {
	return &ImportSideEffect{
		base:    newBase(loc, stmt),
		request: request,
		order:   order,
	}
}

// Request implements ModuleDependency.
func (d *ImportSideEffect) Request() string { return d.request }

// Order returns the position of the statement among the module's imports.
func (d *ImportSideEffect) Order() int { return d.order }

// Category implements Dependency.
func (d *ImportSideEffect) Category() Category { return CategoryESM }

// Type implements Dependency.
func (d *ImportSideEffect) Type() Type { return TypeESMImportSideEffect }

// Exports implements Dependency.
func (d *ImportSideEffect) Exports(Graph) *exports.Spec { return nil }

// SideEffectsState implements Dependency.
func (d *ImportSideEffect) SideEffectsState(g Graph, chain ModuleChain) ConnectionState {
	return g.ModuleEvaluationSideEffects(mustResolve(g, d.id, errors.PhaseUsage), chain)
}

// CouldAffectReferencingModule implements Dependency.
func (d *ImportSideEffect) CouldAffectReferencingModule() AffectType {
	return AffectTransitive
}

// Apply implements Template.
func (d *ImportSideEffect) Apply(src *codegen.ReplaceSource, ctx *codegen.TemplateContext) {
	if !d.rng.IsZero() {
		src.Replace(d.rng.Start, d.rng.End, "")
	}
	target := mustResolve(ctx.Graph, d.id, errors.PhaseCodegen)
	if inScope(ctx, target) {
		return
	}
	if !mustExportsInfo(ctx.Graph, target, errors.PhaseCodegen).IsIncluded(ctx.Runtime) {
		return
	}
	importModule(ctx, d.request, target, d.order)
}

// ImportSpecifier is one use site of an imported binding: `y` after
// `import { x as y }`, or `ns.a` after `import * as ns`. ids is the path
// read in the target; empty means the namespace object itself.
type ImportSpecifier struct {
	base
	request string
	ids     []string
	order   int
	call    bool
}

// NewImportSpecifier creates a use site reading ids from request. The range
// covers the expression to rewrite.
func NewImportSpecifier(request string, ids []string, call bool, order int, use Range, loc Location) *ImportSpecifier {
	return &ImportSpecifier{
		base:    newBase(loc, use),
		request: request,
		ids:     cloneStrings(ids),
		order:   order,
		call:    call,
	}
}

// Request implements ModuleDependency.
func (d *ImportSpecifier) Request() string { return d.request }

// IDs returns the path read in the target module.
func (d *ImportSpecifier) IDs() []string { return cloneStrings(d.ids) }

// Order returns the position of the import statement the binding comes from.
func (d *ImportSpecifier) Order() int { return d.order }

// Call reports whether the use site is the callee of a call expression.
func (d *ImportSpecifier) Call() bool { return d.call }

// Category implements Dependency.
func (d *ImportSpecifier) Category() Category { return CategoryESM }

// Type implements Dependency.
func (d *ImportSpecifier) Type() Type { return TypeESMImportSpecifier }

// Exports implements Dependency.
func (d *ImportSpecifier) Exports(Graph) *exports.Spec { return nil }

// SideEffectsState implements Dependency. Evaluation is driven by the
// statement's ImportSideEffect.
func (d *ImportSpecifier) SideEffectsState(Graph, ModuleChain) ConnectionState {
	return ConnectionFalse
}

// CouldAffectReferencingModule implements Dependency.
func (d *ImportSpecifier) CouldAffectReferencingModule() AffectType {
	return AffectTrue
}

// ReferencedExports implements ReferencingDependency.
func (d *ImportSpecifier) ReferencedExports(Graph, runtime.Spec) []exports.Reference {
	if len(d.ids) == 0 {
		return []exports.Reference{exports.EntireNamespace}
	}
	return []exports.Reference{exports.Ref(cloneStrings(d.ids)...)}
}

// UpdateHash implements HashContributor. The rewritten expression embeds
// the target's used name.
func (d *ImportSpecifier) UpdateHash(h Hasher, g Graph, rt runtime.Spec) {
	if len(d.ids) == 0 {
		return
	}
	target := mustResolve(g, d.id, errors.PhaseHash)
	used := mustExportsInfo(g, target, errors.PhaseHash).UsedName(rt, exports.UsedName(d.ids))
	h.WriteString(used.String())
}

// Apply implements Template.
func (d *ImportSpecifier) Apply(src *codegen.ReplaceSource, ctx *codegen.TemplateContext) {
	target := mustResolve(ctx.Graph, d.id, errors.PhaseCodegen)

	var expr string
	if inScope(ctx, target) {
		expr = ctx.ConcatenationScope.CreateModuleReference(target, d.ids, d.call)
	} else {
		importVar := importModule(ctx, d.request, target, d.order)
		expr = d.access(importVar, mustExportsInfo(ctx.Graph, target, errors.PhaseCodegen), ctx.Runtime)
	}
	if !d.rng.IsZero() {
		src.Replace(d.rng.Start, d.rng.End, expr)
	}
}

func (d *ImportSpecifier) access(importVar string, target *exports.Info, rt runtime.Spec) string {
	if len(d.ids) == 0 {
		return importVar
	}
	used := target.UsedName(rt, exports.UsedName(d.ids))
	if used == nil {
		return "/* unused export */ undefined"
	}
	expr := importVar + codegen.PropertyAccess(used)
	if d.call {
		return "(0," + expr + ")"
	}
	return expr
}

// DynamicImport is `import("m")`. The range covers the call.
type DynamicImport struct {
	base
	request string
}

// NewDynamicImport creates a dynamic import of request.
func NewDynamicImport(request string, call Range, loc Location) *DynamicImport {
	return &DynamicImport{
		base:    newBase(loc, call),
		request: request,
	}
}

// Request implements ModuleDependency.
func (d *DynamicImport) Request() string { return d.request }

// Category implements Dependency.
func (d *DynamicImport) Category() Category { return CategoryDynamic }

// Type implements Dependency.
func (d *DynamicImport) Type() Type { return TypeDynamicImport }

// Exports implements Dependency.
func (d *DynamicImport) Exports(Graph) *exports.Spec { return nil }

// SideEffectsState implements Dependency.
func (d *DynamicImport) SideEffectsState(Graph, ModuleChain) ConnectionState {
	return ConnectionTrue
}

// CouldAffectReferencingModule implements Dependency.
func (d *DynamicImport) CouldAffectReferencingModule() AffectType {
	return AffectTrue
}

// ReferencedExports implements ReferencingDependency. The resolved
// namespace object escapes to arbitrary code.
func (d *DynamicImport) ReferencedExports(Graph, runtime.Spec) []exports.Reference {
	return []exports.Reference{exports.EntireNamespace}
}

// Apply implements Template.
func (d *DynamicImport) Apply(src *codegen.ReplaceSource, ctx *codegen.TemplateContext) {
	target := mustResolve(ctx.Graph, d.id, errors.PhaseCodegen)
	ctx.RuntimeRequirements.Add(codegen.RequireName)
	if d.rng.IsZero() {
		return
	}
	src.Replace(d.rng.Start, d.rng.End,
		"Promise.resolve().then("+codegen.RequireName+".bind("+codegen.RequireName+", "+quote(target)+"))")
}
