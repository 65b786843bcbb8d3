package graph

import (
	"sort"
	"sync"

	"github.com/wippyai/jsbundle/codegen"
	"github.com/wippyai/jsbundle/dependency"
	"github.com/wippyai/jsbundle/errors"
	"github.com/wippyai/jsbundle/exports"
)

var _ dependency.Graph = (*Graph)(nil)

// Runtime is a build target and the modules it starts from.
type Runtime struct {
	Name    string
	Entries []string
}

// Connection is a resolved dependency edge.
type Connection struct {
	Origin     string
	Module     string
	Dependency dependency.Dependency
}

// Graph is the module graph of one compilation.
//
// Modules may be added concurrently while extraction runs. Link resolves
// every module dependency to a connection; after that the graph's shape is
// fixed and only the exports table changes, under the resolver.
type Graph struct {
	modules     map[string]*Module
	connections map[dependency.ID]*Connection
	parents     map[dependency.ID]string
	incoming    map[string][]*Connection
	outgoing    map[string][]*Connection
	entries     map[string][]string
	table       *exports.Table
	order       []string
	runtimes    []string
	mu          sync.RWMutex
	linked      bool
}

// New creates an empty graph for the given runtimes.
func New(runtimes ...Runtime) *Graph {
	g := &Graph{
		modules:     make(map[string]*Module),
		connections: make(map[dependency.ID]*Connection),
		parents:     make(map[dependency.ID]string),
		incoming:    make(map[string][]*Connection),
		outgoing:    make(map[string][]*Connection),
		entries:     make(map[string][]string),
	}
	for _, r := range runtimes {
		if _, ok := g.entries[r.Name]; !ok {
			g.runtimes = append(g.runtimes, r.Name)
		}
		g.entries[r.Name] = append(g.entries[r.Name], r.Entries...)
	}
	g.table = exports.NewTable(g.runtimes...)
	return g
}

// AddModule adds a module and registers its exports info.
func (g *Graph) AddModule(m *Module) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.modules[m.id]; ok {
		return errors.New(errors.PhaseLoad, errors.KindConflict).
			Module(m.id).
			Detail("duplicate module").
			Build()
	}
	if g.linked {
		return errors.InvalidInput(errors.PhaseLoad, "module added after link")
	}
	g.modules[m.id] = m
	g.order = append(g.order, m.id)
	for _, d := range m.deps {
		g.parents[d.ID()] = m.id
	}
	return nil
}

// Link resolves every module dependency's request to a module and checks
// that entries exist. Modules are linked in id order so connection lists
// do not depend on the order modules were added.
func (g *Graph) Link() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	sort.Strings(g.order)
	for _, id := range g.order {
		g.table.Register(id)
	}
	for _, id := range g.order {
		m := g.modules[id]
		for _, d := range m.deps {
			md, ok := d.(dependency.ModuleDependency)
			if !ok {
				continue
			}
			target, ok := g.modules[md.Request()]
			if !ok {
				return errors.New(errors.PhaseLoad, errors.KindNotFound).
					Module(id).
					Detail("cannot resolve %q (%s at %s)", md.Request(), d.Type(), d.Loc()).
					Build()
			}
			c := &Connection{Origin: id, Module: target.id, Dependency: d}
			g.connections[d.ID()] = c
			g.outgoing[id] = append(g.outgoing[id], c)
			g.incoming[target.id] = append(g.incoming[target.id], c)
		}
	}
	for _, rt := range g.runtimes {
		for _, e := range g.entries[rt] {
			if _, ok := g.modules[e]; !ok {
				return errors.New(errors.PhaseLoad, errors.KindNotFound).
					Module(e).
					Runtime(rt).
					Detail("entry module not found").
					Build()
			}
		}
	}
	g.linked = true
	return nil
}

// Module returns the module with the given id.
func (g *Graph) Module(id string) (*Module, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	m, ok := g.modules[id]
	return m, ok
}

// MustModule returns the module with the given id. An absent module is an
// invariant violation.
func (g *Graph) MustModule(id string) *Module {
	m, ok := g.Module(id)
	if !ok {
		panic(errors.ModuleNotFound(errors.PhaseUsage, id))
	}
	return m
}

// ModuleByIdentifier implements codegen.GraphView.
func (g *Graph) ModuleByIdentifier(id string) (codegen.ModuleView, bool) {
	m, ok := g.Module(id)
	if !ok {
		return nil, false
	}
	return m, true
}

// Modules returns all modules ordered by id.
func (g *Graph) Modules() []*Module {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ids := make([]string, len(g.order))
	copy(ids, g.order)
	sort.Strings(ids)
	out := make([]*Module, len(ids))
	for i, id := range ids {
		out[i] = g.modules[id]
	}
	return out
}

// Len returns the number of modules.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.modules)
}

// Runtimes returns the runtime names in declaration order.
func (g *Graph) Runtimes() []string {
	out := make([]string, len(g.runtimes))
	copy(out, g.runtimes)
	return out
}

// Entries returns the entry modules of a runtime.
func (g *Graph) Entries(rt string) []string {
	out := make([]string, len(g.entries[rt]))
	copy(out, g.entries[rt])
	return out
}

// IsEntry reports whether module is an entry of any runtime.
func (g *Graph) IsEntry(module string) bool {
	for _, rt := range g.runtimes {
		for _, e := range g.entries[rt] {
			if e == module {
				return true
			}
		}
	}
	return false
}

// Table returns the exports table.
func (g *Graph) Table() *exports.Table {
	return g.table
}

// ExportsInfo implements codegen.GraphView.
func (g *Graph) ExportsInfo(module string) *exports.Info {
	return g.table.Info(module)
}

// ResolvedModule implements codegen.GraphView.
func (g *Graph) ResolvedModule(dep uint32) (string, bool) {
	c, ok := g.Connection(dependency.ID(dep))
	if !ok {
		return "", false
	}
	return c.Module, true
}

// Connection returns the connection established by a dependency.
func (g *Graph) Connection(dep dependency.ID) (*Connection, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	c, ok := g.connections[dep]
	return c, ok
}

// ParentModule returns the module a dependency was extracted from.
func (g *Graph) ParentModule(dep dependency.ID) (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	m, ok := g.parents[dep]
	return m, ok
}

// Outgoing returns the connections originating in module, in declaration
// order.
func (g *Graph) Outgoing(module string) []*Connection {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]*Connection(nil), g.outgoing[module]...)
}

// Incoming returns the connections pointing at module.
func (g *Graph) Incoming(module string) []*Connection {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]*Connection(nil), g.incoming[module]...)
}

// ModuleEvaluationSideEffects implements dependency.Graph. A module whose
// own code has side effects is True. Otherwise the states of its outgoing
// connections are combined; a module already on the chain is Maybe.
func (g *Graph) ModuleEvaluationSideEffects(module string, chain dependency.ModuleChain) dependency.ConnectionState {
	m := g.MustModule(module)
	if !m.sideEffectFree {
		return dependency.ConnectionTrue
	}
	if chain.Has(module) {
		return dependency.ConnectionMaybe
	}
	if chain == nil {
		chain = make(dependency.ModuleChain)
	}
	chain[module] = struct{}{}
	defer delete(chain, module)

	state := dependency.ConnectionFalse
	for _, c := range g.Outgoing(module) {
		state = state.Add(c.Dependency.SideEffectsState(g, chain))
		if state == dependency.ConnectionTrue {
			return state
		}
	}
	return state
}
