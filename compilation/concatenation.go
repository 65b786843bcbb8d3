package compilation

import (
	"sort"

	"github.com/wippyai/jsbundle/dependency"
	"github.com/wippyai/jsbundle/graph"
)

// ConcatenationPlan assigns inlined modules to the root module they are
// generated with.
type ConcatenationPlan struct {
	root   map[string]string
	groups map[string][]string
}

// Root returns the root of the group module belongs to, if any.
func (p *ConcatenationPlan) Root(module string) (string, bool) {
	if p == nil {
		return "", false
	}
	r, ok := p.root[module]
	return r, ok
}

// Group returns the members of the group rooted at root, root first and
// the rest ordered by identifier.
func (p *ConcatenationPlan) Group(root string) []string {
	if p == nil {
		return nil
	}
	return append([]string(nil), p.groups[root]...)
}

// Roots returns every group root, ordered.
func (p *ConcatenationPlan) Roots() []string {
	if p == nil {
		return nil
	}
	out := make([]string, 0, len(p.groups))
	for r := range p.groups {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// PlanConcatenation groups modules that can be inlined into their only
// importer. A module is inlined into host when it is an ESM module that no
// runtime uses as an entry, its export names are statically known, every
// incoming connection originates in host and is an ESM dependency, and no
// incoming dependency reads its namespace object as a value. Hosts that are
// inlined themselves pass their members on to their own root. The graph
// must be resolved.
func PlanConcatenation(g *graph.Graph) *ConcatenationPlan {
	host := make(map[string]string)
	for _, m := range g.Modules() {
		if h, ok := inlineHost(g, m); ok {
			host[m.Identifier()] = h
		}
	}

	p := &ConcatenationPlan{
		root:   make(map[string]string),
		groups: make(map[string][]string),
	}
	ids := make([]string, 0, len(host))
	for id := range host {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		root, ok := rootOf(host, id)
		if !ok {
			continue
		}
		p.root[id] = root
		if _, ok := p.groups[root]; !ok {
			p.root[root] = root
			p.groups[root] = []string{root}
		}
		p.groups[root] = append(p.groups[root], id)
	}
	return p
}

func inlineHost(g *graph.Graph, m *graph.Module) (string, bool) {
	if m.Type() != graph.ModuleESM || g.IsEntry(m.Identifier()) {
		return "", false
	}
	if info := g.ExportsInfo(m.Identifier()); info == nil || info.OtherProvided() {
		return "", false
	}
	incoming := g.Incoming(m.Identifier())
	if len(incoming) == 0 {
		return "", false
	}
	host := incoming[0].Origin
	if host == m.Identifier() {
		return "", false
	}
	for _, c := range incoming {
		if c.Origin != host || c.Dependency.Category() != dependency.CategoryESM {
			return "", false
		}
		if readsNamespace(c.Dependency) {
			return "", false
		}
	}
	hm, ok := g.Module(host)
	if !ok || hm.Type() != graph.ModuleESM {
		return "", false
	}
	return host, true
}

// readsNamespace reports whether d needs the exports object of its target
// as a value. Inlined modules have none.
func readsNamespace(d dependency.Dependency) bool {
	switch d := d.(type) {
	case *dependency.ImportSpecifier:
		return len(d.IDs()) == 0
	case *dependency.ExportImportedSpecifier:
		return d.Mode() == dependency.ReexportNamespace
	case *dependency.Provided:
		return len(d.IDs()) == 0
	}
	return false
}

// rootOf follows host links to the outermost host. A cycle of hosts has no
// root and is not concatenated.
func rootOf(host map[string]string, id string) (string, bool) {
	seen := map[string]struct{}{id: {}}
	cur := host[id]
	for {
		next, ok := host[cur]
		if !ok {
			return cur, true
		}
		if _, loop := seen[cur]; loop {
			return "", false
		}
		seen[cur] = struct{}{}
		cur = next
	}
}
