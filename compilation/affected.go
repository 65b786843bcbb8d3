package compilation

import (
	"sort"

	"github.com/wippyai/jsbundle/dependency"
	"github.com/wippyai/jsbundle/graph"
)

// AffectedModules returns the modules whose output may change when the
// given modules change, the changed modules included. Incoming connections
// are followed by their dependency's AffectType: True marks the
// referencing module, Transitive marks it and keeps walking from it, False
// stops.
func AffectedModules(g *graph.Graph, changed []string) []string {
	marked := make(map[string]struct{})
	walked := make(map[string]struct{})
	var queue []string

	for _, id := range changed {
		if _, ok := g.Module(id); !ok {
			continue
		}
		marked[id] = struct{}{}
		if _, ok := walked[id]; !ok {
			walked[id] = struct{}{}
			queue = append(queue, id)
		}
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, c := range g.Incoming(id) {
			switch c.Dependency.CouldAffectReferencingModule() {
			case dependency.AffectTrue:
				marked[c.Origin] = struct{}{}
			case dependency.AffectTransitive:
				marked[c.Origin] = struct{}{}
				if _, ok := walked[c.Origin]; !ok {
					walked[c.Origin] = struct{}{}
					queue = append(queue, c.Origin)
				}
			}
		}
	}

	out := make([]string, 0, len(marked))
	for id := range marked {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// AffectedModules is the incremental-rebuild set for changed modules of
// this compilation's graph.
func (c *Compilation) AffectedModules(changed []string) []string {
	return AffectedModules(c.graph, changed)
}
