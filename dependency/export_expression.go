package dependency

import (
	"github.com/wippyai/jsbundle/codegen"
	"github.com/wippyai/jsbundle/errors"
	"github.com/wippyai/jsbundle/exports"
	"github.com/wippyai/jsbundle/runtime"
)

// ExportExpression is `export default <expr>` or a default-exported
// declaration. The range covers the `export default ` prefix.
type ExportExpression struct {
	base
	// declaration is the declared name of `export default function f`,
	// empty for a plain expression.
	declaration string
}

// NewExportExpression creates a default export. declaration is the name of
// an exported function or class declaration, or empty for an expression.
func NewExportExpression(declaration string, prefix Range, loc Location) *ExportExpression {
	return &ExportExpression{
		base:        newBase(loc, prefix),
		declaration: declaration,
	}
}

// Binding returns the local name holding the default export.
func (d *ExportExpression) Binding() string {
	if d.declaration != "" {
		return d.declaration
	}
	return codegen.DefaultExportName
}

// Category implements Dependency.
func (d *ExportExpression) Category() Category { return CategoryESM }

// Type implements Dependency.
func (d *ExportExpression) Type() Type { return TypeESMExportExpression }

// Exports implements Dependency.
func (d *ExportExpression) Exports(Graph) *exports.Spec {
	return &exports.Spec{
		Exports:         []exports.Export{exports.Name("default")},
		Priority:        1,
		TerminalBinding: true,
	}
}

// SideEffectsState implements Dependency.
func (d *ExportExpression) SideEffectsState(Graph, ModuleChain) ConnectionState {
	return ConnectionFalse
}

// CouldAffectReferencingModule implements Dependency.
func (d *ExportExpression) CouldAffectReferencingModule() AffectType {
	return AffectFalse
}

// UpdateHash implements HashContributor.
func (d *ExportExpression) UpdateHash(Hasher, Graph, runtime.Spec) {}

// Apply implements Template.
func (d *ExportExpression) Apply(src *codegen.ReplaceSource, ctx *codegen.TemplateContext) {
	binding := d.Binding()

	if scope := ctx.ConcatenationScope; scope != nil {
		d.rewritePrefix(src, "const "+binding+" = ")
		scope.RegisterExport("default", binding)
		return
	}

	m := owningModule(ctx)
	info := mustExportsInfo(ctx.Graph, m.Identifier(), errors.PhaseCodegen)
	used := info.UsedName(ctx.Runtime, exports.Str("default"))
	if used == nil {
		d.rewritePrefix(src, "/* unused default export */ var "+codegen.UnusedExportName+" = ")
		return
	}
	d.rewritePrefix(src, "/* default export */ const "+binding+" = ")
	defineExport(ctx, m, used.First(), binding)
}

func (d *ExportExpression) rewritePrefix(src *codegen.ReplaceSource, expr string) {
	if d.rng.IsZero() {
		return
	}
	if d.declaration != "" {
		// The declaration binds its own name.
		src.Replace(d.rng.Start, d.rng.End, "")
		return
	}
	src.Replace(d.rng.Start, d.rng.End, expr)
}
