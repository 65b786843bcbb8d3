package dependency

import (
	"github.com/wippyai/jsbundle/codegen"
	"github.com/wippyai/jsbundle/errors"
	"github.com/wippyai/jsbundle/exports"
)

// owningModule looks the generated module up in the graph. A module missing
// from its own graph is an invariant violation.
func owningModule(ctx *codegen.TemplateContext) codegen.ModuleView {
	id := ctx.Module.Identifier()
	m, ok := ctx.Graph.ModuleByIdentifier(id)
	if !ok {
		panic(errors.ModuleNotFound(errors.PhaseCodegen, id))
	}
	return m
}

func mustExportsInfo(g codegen.GraphView, module string, phase errors.Phase) *exports.Info {
	info := g.ExportsInfo(module)
	if info == nil {
		panic(errors.ModuleNotFound(phase, module))
	}
	return info
}

func mustResolve(g codegen.GraphView, id ID, phase errors.Phase) string {
	target, ok := g.ResolvedModule(uint32(id))
	if !ok {
		errors.New(phase, errors.KindInvariant).
			Detail("dependency %d has no resolved module", id).
			Panic()
	}
	return target
}

// defineExport appends one getter pair for the module's exports object.
func defineExport(ctx *codegen.TemplateContext, m codegen.ModuleView, name, value string) {
	ctx.RuntimeRequirements.Add(codegen.ExportsName)
	ctx.RuntimeRequirements.Add(codegen.DefineGettersName)
	ctx.InitFragments.Push(codegen.NewExportInitFragment(m.ExportsArgument(), codegen.ExportPair{Name: name, Value: value}))
}

// importModule appends the import statement for request and returns the
// variable holding the imported exports object.
func importModule(ctx *codegen.TemplateContext, request, target string, order int) string {
	v := codegen.ImportVarName(request, order)
	ctx.RuntimeRequirements.Add(codegen.RequireName)
	ctx.InitFragments.Push(&codegen.ImportInitFragment{
		Request:   request,
		ImportVar: v,
		ModuleID:  target,
		Order:     order,
	})
	return v
}

func inScope(ctx *codegen.TemplateContext, module string) bool {
	return ctx.ConcatenationScope != nil && ctx.ConcatenationScope.IsModuleInScope(module)
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

// evaluates reports whether loading module has side effects. Graphs that
// cannot tell are assumed to have them.
func evaluates(g codegen.GraphView, module string) bool {
	dg, ok := g.(Graph)
	if !ok {
		return true
	}
	return dg.ModuleEvaluationSideEffects(module, nil).IsActive()
}
