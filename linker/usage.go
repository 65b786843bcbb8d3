package linker

import (
	"context"

	"go.uber.org/zap"

	"github.com/wippyai/jsbundle/dependency"
	"github.com/wippyai/jsbundle/errors"
	"github.com/wippyai/jsbundle/exports"
	"github.com/wippyai/jsbundle/graph"
	"github.com/wippyai/jsbundle/linker/internal/bitset"
	"github.com/wippyai/jsbundle/runtime"
)

// usagePass is the state of one runtime's used-exports fixpoint.
type usagePass struct {
	r        *Resolver
	rt       runtime.Spec
	included *bitset.Set
	mods     []*graph.Module
	rid      int
}

type useItem struct {
	module string
	path   []string
}

// FlagUsedExports computes export usage for one runtime. It starts from
// the runtime's entries and sweeps the included modules until no export
// changes, then turns every remaining Unknown into Unused.
func (r *Resolver) FlagUsedExports(ctx context.Context, rt string) error {
	table := r.graph.Table()
	rid, ok := table.RuntimeID(rt)
	if !ok {
		return errors.NotFound(errors.PhaseUsage, "runtime", rt)
	}
	table.ResetUsage(rid)

	p := &usagePass{
		r:        r,
		rt:       runtime.Single(rt),
		included: bitset.New(table.Len()),
		mods:     r.graph.Modules(),
		rid:      rid,
	}

	for _, entry := range r.graph.Entries(rt) {
		p.include(entry)
		if r.options.LibraryExports {
			p.use(entry, nil)
		}
	}

	sweeps := 0
	for {
		if err := ctx.Err(); err != nil {
			return errors.Canceled(errors.PhaseUsage, err)
		}
		sweeps++
		changed := false
		for _, idx := range p.included.Slice() {
			if p.processModule(idx) {
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	used, unused := 0, 0
	for _, m := range p.mods {
		info := r.info(m.Identifier())
		info.Finalize(rid)
		for _, e := range info.Exports() {
			if e.UsageFor(rid) == exports.UsageUnused {
				unused++
			} else {
				used++
			}
		}
	}

	r.stats.UsageSweeps[rt] = sweeps
	r.stats.UsedExports[rt] = used
	r.stats.UnusedExports[rt] = unused
	r.stats.IncludedModules[rt] = p.included.Len()
	Logger().Debug("used exports resolved",
		zap.String("runtime", rt),
		zap.Int("sweeps", sweeps),
		zap.Int("included", p.included.Len()),
		zap.Int("used", used),
		zap.Int("unused", unused))
	return nil
}

// include marks a module as part of the runtime's output.
func (p *usagePass) include(module string) bool {
	idx, ok := p.r.graph.Table().Index(module)
	if !ok {
		panic(errors.ModuleNotFound(errors.PhaseUsage, module))
	}
	p.included.Add(idx)
	return p.r.info(module).SetIncluded(p.rid)
}

// processModule applies the references of every outgoing connection of an
// included module.
func (p *usagePass) processModule(idx int) bool {
	g := p.r.graph
	module := p.mods[idx].Identifier()
	changed := false
	for _, c := range g.Outgoing(module) {
		active := false
		if rd, ok := c.Dependency.(dependency.ReferencingDependency); ok {
			for _, ref := range rd.ReferencedExports(g, p.rt) {
				active = true
				if p.use(c.Module, ref.Path) {
					changed = true
				}
			}
		}
		if !active && c.Dependency.SideEffectsState(g, nil).IsActive() {
			active = true
		}
		if active && p.include(c.Module) {
			changed = true
		}
	}
	return changed
}

// use records a use of path in module and forwards it along re-export
// targets. A (module, export) pair already visited during this walk is
// left as it is; the enclosing sweep loop settles it.
func (p *usagePass) use(module string, path []string) bool {
	changed := false
	visiting := make(map[visitKey]struct{})
	stack := []useItem{{module: module, path: path}}

	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		key := visitKey{module: it.module, namespace: len(it.path) == 0}
		if !key.namespace {
			key.export = it.path[0]
		}
		if _, ok := visiting[key]; ok {
			continue
		}
		visiting[key] = struct{}{}

		if p.include(it.module) {
			changed = true
		}
		info := p.r.info(it.module)

		if len(it.path) == 0 {
			if info.SetUsedInUnknownWay(p.rid) {
				changed = true
			}
			for _, e := range info.Exports() {
				if t := e.Target(); t != nil {
					stack = append(stack, useItem{module: t.Module, path: targetPath(t, nil)})
				}
			}
			for _, src := range p.r.unknownSources[it.module] {
				stack = append(stack, useItem{module: src})
			}
			continue
		}

		e := info.Export(it.path[0])
		if e.SetUsed(p.rid, it.path[1:]) {
			changed = true
		}
		if t := e.Target(); t != nil {
			stack = append(stack, useItem{module: t.Module, path: targetPath(t, it.path[1:])})
			continue
		}
		if !e.TerminalBinding() {
			for _, src := range p.r.unknownSources[it.module] {
				stack = append(stack, useItem{module: src, path: it.path})
			}
		}
	}
	return changed
}

// visitKey identifies a node of the use walk. The namespace object is kept
// apart from every export name, including "*".
type visitKey struct {
	module    string
	export    string
	namespace bool
}

func targetPath(t *exports.Target, rest []string) []string {
	out := make([]string, 0, len(t.Export)+len(rest))
	out = append(out, t.Export...)
	return append(out, rest...)
}
