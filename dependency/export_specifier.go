package dependency

import (
	"github.com/wippyai/jsbundle/codegen"
	"github.com/wippyai/jsbundle/errors"
	"github.com/wippyai/jsbundle/exports"
	"github.com/wippyai/jsbundle/runtime"
)

// ExportSpecifier is `export { value as name }` for a local binding.
type ExportSpecifier struct {
	base
	name  string
	value string
}

// NewExportSpecifier creates the dependency for exported name bound to the
// local binding value.
func NewExportSpecifier(name, value string, loc Location) *ExportSpecifier {
	errors.MustHold(name != "", errors.PhaseExtract, "export specifier without a name at %s", loc)
	return &ExportSpecifier{
		base:  newBase(loc, Range{}),
		name:  name,
		value: value,
	}
}

// Name returns the exported name.
func (d *ExportSpecifier) Name() string { return d.name }

// Value returns the local binding expression.
func (d *ExportSpecifier) Value() string { return d.value }

// Category implements Dependency.
func (d *ExportSpecifier) Category() Category { return CategoryESM }

// Type implements Dependency.
func (d *ExportSpecifier) Type() Type { return TypeESMExportSpecifier }

// Exports implements Dependency. The result does not depend on the graph.
func (d *ExportSpecifier) Exports(Graph) *exports.Spec {
	return &exports.Spec{
		Exports:         []exports.Export{exports.Name(d.name)},
		Priority:        1,
		TerminalBinding: true,
	}
}

// SideEffectsState implements Dependency.
func (d *ExportSpecifier) SideEffectsState(Graph, ModuleChain) ConnectionState {
	return ConnectionFalse
}

// CouldAffectReferencingModule implements Dependency.
func (d *ExportSpecifier) CouldAffectReferencingModule() AffectType {
	return AffectFalse
}

// UpdateHash implements HashContributor. Name, binding and location are
// part of the module's structural hash already.
func (d *ExportSpecifier) UpdateHash(Hasher, Graph, runtime.Spec) {}

// Apply implements Template.
func (d *ExportSpecifier) Apply(_ *codegen.ReplaceSource, ctx *codegen.TemplateContext) {
	if scope := ctx.ConcatenationScope; scope != nil {
		scope.RegisterExport(d.name, d.value)
		return
	}

	m := owningModule(ctx)
	info := mustExportsInfo(ctx.Graph, m.Identifier(), errors.PhaseCodegen)
	used := info.UsedName(ctx.Runtime, exports.Str(d.name))
	if used == nil {
		return
	}
	// Ambiguous path results keep their first candidate.
	defineExport(ctx, m, used.First(), d.value)
}
