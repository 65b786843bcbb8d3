package dependency

import (
	"strings"

	"github.com/wippyai/jsbundle/codegen"
	"github.com/wippyai/jsbundle/errors"
	"github.com/wippyai/jsbundle/exports"
	"github.com/wippyai/jsbundle/runtime"
)

// ReexportMode selects the form of a re-export.
type ReexportMode uint8

const (
	// ReexportNamed is `export { x as y } from "m"`.
	ReexportNamed ReexportMode = iota
	// ReexportNamespace is `export * as ns from "m"`.
	ReexportNamespace
	// ReexportStar is `export * from "m"`.
	ReexportStar
)

func (m ReexportMode) String() string {
	switch m {
	case ReexportNamed:
		return "named"
	case ReexportNamespace:
		return "namespace"
	case ReexportStar:
		return "star"
	default:
		return "invalid"
	}
}

// ExportImportedSpecifier re-exports bindings of another module.
type ExportImportedSpecifier struct {
	base
	request string
	name    string
	ids     []string
	order   int
	mode    ReexportMode
}

// NewReexportNamed creates `export { ids[0] as name } from request`.
// A nil ids re-exports the same name.
func NewReexportNamed(request, name string, ids []string, order int, loc Location) *ExportImportedSpecifier {
	errors.MustHold(name != "", errors.PhaseExtract, "named re-export without a name at %s", loc)
	if len(ids) == 0 {
		ids = []string{name}
	}
	return &ExportImportedSpecifier{
		base:    newBase(loc, Range{}),
		request: request,
		name:    name,
		ids:     cloneStrings(ids),
		order:   order,
		mode:    ReexportNamed,
	}
}

// NewReexportNamespace creates `export * as name from request`.
func NewReexportNamespace(request, name string, order int, loc Location) *ExportImportedSpecifier {
	errors.MustHold(name != "", errors.PhaseExtract, "namespace re-export without a name at %s", loc)
	return &ExportImportedSpecifier{
		base:    newBase(loc, Range{}),
		request: request,
		name:    name,
		order:   order,
		mode:    ReexportNamespace,
	}
}

// NewReexportStar creates `export * from request`.
func NewReexportStar(request string, order int, loc Location) *ExportImportedSpecifier {
	return &ExportImportedSpecifier{
		base:    newBase(loc, Range{}),
		request: request,
		order:   order,
		mode:    ReexportStar,
	}
}

// Request implements ModuleDependency.
func (d *ExportImportedSpecifier) Request() string { return d.request }

// Mode returns the re-export form.
func (d *ExportImportedSpecifier) Mode() ReexportMode { return d.mode }

// Name returns the exported name; empty for star re-exports.
func (d *ExportImportedSpecifier) Name() string { return d.name }

// IDs returns the path read in the target module.
func (d *ExportImportedSpecifier) IDs() []string { return cloneStrings(d.ids) }

// Order returns the position of the statement among the module's imports.
func (d *ExportImportedSpecifier) Order() int { return d.order }

// Category implements Dependency.
func (d *ExportImportedSpecifier) Category() Category { return CategoryESM }

// Type implements Dependency.
func (d *ExportImportedSpecifier) Type() Type { return TypeESMExportImportedSpecifier }

// Exports implements Dependency. Star re-exports reflect the names the
// target currently provides, or Unknown when the target's exports are
// dynamic.
func (d *ExportImportedSpecifier) Exports(g Graph) *exports.Spec {
	target := mustResolve(g, d.id, errors.PhaseProvide)
	from := &exports.From{Module: target, Dependency: uint32(d.id)}

	switch d.mode {
	case ReexportNamed:
		return &exports.Spec{
			Exports:      []exports.Export{{Name: d.name, From: from, Export: cloneStrings(d.ids)}},
			Dependencies: []string{target},
		}
	case ReexportNamespace:
		return &exports.Spec{
			Exports:      []exports.Export{{Name: d.name, From: from, Namespace: true}},
			Dependencies: []string{target},
		}
	}

	info := mustExportsInfo(g, target, errors.PhaseProvide)
	if info.OtherProvided() {
		return &exports.Spec{
			Kind:           exports.ListUnknown,
			From:           from,
			ExcludeExports: []string{"default"},
			Dependencies:   []string{target},
		}
	}
	var list []exports.Export
	for _, name := range info.ProvidedNames() {
		if name == "default" {
			continue
		}
		list = append(list, exports.Export{Name: name, From: from, Export: []string{name}})
	}
	return &exports.Spec{
		Exports:      list,
		From:         from,
		Dependencies: []string{target},
	}
}

// SideEffectsState implements Dependency.
func (d *ExportImportedSpecifier) SideEffectsState(g Graph, chain ModuleChain) ConnectionState {
	return g.ModuleEvaluationSideEffects(mustResolve(g, d.id, errors.PhaseUsage), chain)
}

// CouldAffectReferencingModule implements Dependency.
func (d *ExportImportedSpecifier) CouldAffectReferencingModule() AffectType {
	return AffectTransitive
}

// UpdateHash implements HashContributor. The generated getters read the
// target's used names, which the module's own content does not capture.
func (d *ExportImportedSpecifier) UpdateHash(h Hasher, g Graph, rt runtime.Spec) {
	target := mustResolve(g, d.id, errors.PhaseHash)
	info := mustExportsInfo(g, target, errors.PhaseHash)
	switch d.mode {
	case ReexportNamed:
		h.WriteString(info.UsedName(rt, exports.UsedName(d.ids)).String())
	case ReexportStar:
		for _, name := range info.ProvidedNames() {
			h.WriteString(info.UsedName(rt, exports.Str(name)).String())
			h.WriteString("\x00")
		}
	}
}

// Apply implements Template. Only names this dependency won in the exports
// info are defined; a higher-priority local binding of the same name is
// rendered by its own dependency.
func (d *ExportImportedSpecifier) Apply(_ *codegen.ReplaceSource, ctx *codegen.TemplateContext) {
	m := owningModule(ctx)
	target := mustResolve(ctx.Graph, d.id, errors.PhaseCodegen)
	info := mustExportsInfo(ctx.Graph, m.Identifier(), errors.PhaseCodegen)
	targetInfo := mustExportsInfo(ctx.Graph, target, errors.PhaseCodegen)
	bindings := d.bindings(info)

	if scope := ctx.ConcatenationScope; scope != nil && scope.IsModuleInScope(target) {
		for _, b := range bindings {
			scope.RegisterExport(b.name, scope.CreateModuleReference(target, b.path, false))
		}
		return
	}

	if scope := ctx.ConcatenationScope; scope != nil {
		if len(bindings) == 0 && !evaluates(ctx.Graph, target) {
			return
		}
		importVar := importModule(ctx, d.request, target, d.order)
		for _, b := range bindings {
			scope.RegisterExport(b.name, readThrough(importVar, targetInfo, ctx.Runtime, b.path))
		}
		return
	}

	var defs []binding
	for _, b := range bindings {
		used := info.UsedName(ctx.Runtime, exports.Str(b.name))
		if used == nil {
			continue
		}
		defs = append(defs, binding{name: used.First(), path: b.path})
	}
	all := d.mode == ReexportStar && info.UsedInUnknownWay(ctx.Runtime) && targetInfo.OtherProvided()
	if len(defs) == 0 && !all && !evaluates(ctx.Graph, target) {
		return
	}

	importVar := importModule(ctx, d.request, target, d.order)
	for _, b := range defs {
		defineExport(ctx, m, b.name, readThrough(importVar, targetInfo, ctx.Runtime, b.path))
	}
	if all {
		ctx.RuntimeRequirements.Add(codegen.DefineGettersName)
		ctx.InitFragments.Push(&codegen.RawFragment{
			ID:   "reexport star " + d.request,
			At:   codegen.StageESMExports,
			Pos:  2,
			Text: reexportAll(importVar, m.ExportsArgument(), ctx.Environment),
		})
	}
}

type binding struct {
	name string
	path []string
}

// bindings lists the exported names this dependency defines with the path
// each one reads in the target. A nil path is the namespace object.
func (d *ExportImportedSpecifier) bindings(info *exports.Info) []binding {
	switch d.mode {
	case ReexportNamed:
		if !d.provides(info, d.name) {
			return nil
		}
		return []binding{{name: d.name, path: d.ids}}
	case ReexportNamespace:
		if !d.provides(info, d.name) {
			return nil
		}
		return []binding{{name: d.name}}
	}
	var out []binding
	for _, e := range info.Exports() {
		dep, ok := e.ProvidedBy()
		if !ok || dep != uint32(d.id) {
			continue
		}
		t := e.Target()
		if t == nil {
			continue
		}
		out = append(out, binding{name: e.Name(), path: t.Export})
	}
	return out
}

func (d *ExportImportedSpecifier) provides(info *exports.Info, name string) bool {
	e, ok := info.Lookup(name)
	if !ok {
		return false
	}
	dep, ok := e.ProvidedBy()
	return ok && dep == uint32(d.id)
}

func readThrough(importVar string, target *exports.Info, rt runtime.Spec, path []string) string {
	if len(path) == 0 {
		return importVar
	}
	used := target.UsedName(rt, exports.UsedName(path))
	if used == nil {
		return "/* unused reexport */ undefined"
	}
	return importVar + codegen.PropertyAccess(used)
}

func reexportAll(importVar, exportsArgument string, env codegen.Environment) string {
	const obj, key = "__WEBPACK_REEXPORT_OBJECT__", "__WEBPACK_IMPORT_KEY__"
	var b strings.Builder
	b.WriteString("/* reexport */ var " + obj + " = {};\n")
	b.WriteString("for (const " + key + " in " + importVar + ") if (" + key + " !== \"default\") ")
	b.WriteString(obj + "[" + key + "] = " + env.ReturningFunction(importVar+"["+key+"]") + ";\n")
	b.WriteString(codegen.DefineGettersName + "(" + exportsArgument + ", " + obj + ");\n")
	return b.String()
}
