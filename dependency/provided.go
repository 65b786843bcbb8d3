package dependency

import (
	"strings"

	"github.com/wippyai/jsbundle/codegen"
	"github.com/wippyai/jsbundle/errors"
	"github.com/wippyai/jsbundle/exports"
	"github.com/wippyai/jsbundle/runtime"
)

// Provided is one use of a free variable the bundler binds to an export of
// another module, e.g. `Mod` configured as ["./esm", "default"]. ids is the
// path read in the target; empty binds the namespace object. The range
// covers the identifier at the use site.
type Provided struct {
	base
	request    string
	identifier string
	ids        []string
}

// NewProvided creates a use of identifier bound to ids of request.
func NewProvided(request, identifier string, ids []string, use Range, loc Location) *Provided {
	errors.MustHold(identifier != "", errors.PhaseExtract, "provided dependency without an identifier at %s", loc)
	return &Provided{
		base:       newBase(loc, use),
		request:    request,
		identifier: identifier,
		ids:        cloneStrings(ids),
	}
}

// Request implements ModuleDependency.
func (d *Provided) Request() string { return d.request }

// Identifier returns the free variable name.
func (d *Provided) Identifier() string { return d.identifier }

// IDs returns the path read in the target module.
func (d *Provided) IDs() []string { return cloneStrings(d.ids) }

// VarName returns the module-local variable the prologue declares.
func (d *Provided) VarName() string {
	return "__webpack_provided_" + strings.ReplaceAll(d.identifier, ".", "_dot_")
}

// Category implements Dependency.
func (d *Provided) Category() Category { return CategoryESM }

// Type implements Dependency.
func (d *Provided) Type() Type { return TypeProvided }

// Exports implements Dependency.
func (d *Provided) Exports(Graph) *exports.Spec { return nil }

// SideEffectsState implements Dependency. The target is evaluated before
// the variable is read.
func (d *Provided) SideEffectsState(g Graph, chain ModuleChain) ConnectionState {
	return g.ModuleEvaluationSideEffects(mustResolve(g, d.id, errors.PhaseUsage), chain)
}

// CouldAffectReferencingModule implements Dependency.
func (d *Provided) CouldAffectReferencingModule() AffectType {
	return AffectTrue
}

// ReferencedExports implements ReferencingDependency.
func (d *Provided) ReferencedExports(Graph, runtime.Spec) []exports.Reference {
	if len(d.ids) == 0 {
		return []exports.Reference{exports.EntireNamespace}
	}
	return []exports.Reference{exports.Ref(cloneStrings(d.ids)...)}
}

// UpdateHash implements HashContributor.
func (d *Provided) UpdateHash(h Hasher, g Graph, rt runtime.Spec) {
	if len(d.ids) == 0 {
		return
	}
	target := mustResolve(g, d.id, errors.PhaseHash)
	used := mustExportsInfo(g, target, errors.PhaseHash).UsedName(rt, exports.UsedName(d.ids))
	h.WriteString(used.String())
}

// Apply implements Template. Every use of one identifier shares a single
// declaration.
func (d *Provided) Apply(src *codegen.ReplaceSource, ctx *codegen.TemplateContext) {
	target := mustResolve(ctx.Graph, d.id, errors.PhaseCodegen)
	name := d.VarName()

	var value string
	if inScope(ctx, target) {
		value = ctx.ConcatenationScope.CreateModuleReference(target, d.ids, false)
	} else {
		ctx.RuntimeRequirements.Add(codegen.RequireName)
		value = codegen.RequireName + "(" + quote(target) + ")"
		if len(d.ids) > 0 {
			used := mustExportsInfo(ctx.Graph, target, errors.PhaseCodegen).UsedName(ctx.Runtime, exports.UsedName(d.ids))
			if used == nil {
				value = "/* unused export */ undefined"
			} else {
				value += codegen.PropertyAccess(used)
			}
		}
	}
	ctx.InitFragments.Push(&codegen.RawFragment{
		ID:   "provided " + name,
		At:   codegen.StageProvides,
		Pos:  1,
		Text: "/* provided dependency */ var " + name + " = " + value + ";\n",
	})
	if !d.rng.IsZero() {
		src.Replace(d.rng.Start, d.rng.End, name)
	}
}
