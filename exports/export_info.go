package exports

import (
	"github.com/wippyai/jsbundle/runtime"
)

// Target is where a re-exported name reads from.
type Target struct {
	Module string
	// Export is the path in Module. Nil means the namespace object itself.
	Export     []string
	Dependency uint32
}

type provider struct {
	target     *Target
	order      int
	priority   int
	dependency uint32
	terminal   bool
}

// ExportInfo is the state of one export name of one module.
type ExportInfo struct {
	owner            *Info
	nested           *Info
	name             string
	usedName         string
	providers        []provider
	usage            []UsageState
	provided         Provided
	hasUsedName      bool
	canMangleProvide bool
	canMangleUse     bool
}

func newExportInfo(owner *Info, name string, from *ExportInfo) *ExportInfo {
	e := &ExportInfo{
		owner:            owner,
		name:             name,
		usage:            make([]UsageState, len(owner.table.runtimes)),
		canMangleProvide: true,
		canMangleUse:     true,
	}
	if from != nil {
		e.provided = from.provided
		e.canMangleProvide = from.canMangleProvide
		e.canMangleUse = from.canMangleUse
		copy(e.usage, from.usage)
	}
	return e
}

// Name returns the declared export name. The other-exports slot has an
// empty name.
func (e *ExportInfo) Name() string {
	return e.name
}

// Module returns the identifier of the module owning the export.
func (e *ExportInfo) Module() string {
	return e.owner.module
}

// Provided returns whether the module provides the export.
func (e *ExportInfo) Provided() Provided {
	return e.provided
}

// SetProvided updates the provided flag and reports a change.
func (e *ExportInfo) SetProvided(p Provided) bool {
	e.owner.table.checkWritable()
	if e.provided == p {
		return false
	}
	e.provided = p
	return true
}

// CanMangle reports whether both the providing and the consuming side
// allow renaming the export.
func (e *ExportInfo) CanMangle() bool {
	return e.canMangleProvide && e.canMangleUse
}

// DisableMangleProvide forbids renaming from the providing side.
func (e *ExportInfo) DisableMangleProvide() bool {
	e.owner.table.checkWritable()
	if !e.canMangleProvide {
		return false
	}
	e.canMangleProvide = false
	return true
}

// DisableMangleUse forbids renaming from the consuming side.
func (e *ExportInfo) DisableMangleUse() bool {
	e.owner.table.checkWritable()
	if !e.canMangleUse {
		return false
	}
	e.canMangleUse = false
	return true
}

// AddProvider records that dependency dep, declared at position order in
// the module, provides this export with the given priority. A terminal
// provider fixes the binding locally; otherwise target says where the value
// is read from. Reports whether anything changed.
func (e *ExportInfo) AddProvider(dep uint32, order, priority int, terminal bool, target *Target) bool {
	e.owner.table.checkWritable()
	for i := range e.providers {
		p := &e.providers[i]
		if p.dependency != dep {
			continue
		}
		if p.order == order && p.priority == priority && p.terminal == terminal && sameTarget(p.target, target) {
			return false
		}
		p.order, p.priority, p.terminal, p.target = order, priority, terminal, target
		return true
	}
	e.providers = append(e.providers, provider{
		dependency: dep,
		order:      order,
		priority:   priority,
		terminal:   terminal,
		target:     target,
	})
	return true
}

// RemoveProvider drops the provider registered for dep.
func (e *ExportInfo) RemoveProvider(dep uint32) bool {
	e.owner.table.checkWritable()
	for i := range e.providers {
		if e.providers[i].dependency == dep {
			e.providers = append(e.providers[:i], e.providers[i+1:]...)
			return true
		}
	}
	return false
}

// winner picks the provider with the highest priority; equal priority goes
// to the earlier declaration.
func (e *ExportInfo) winner() *provider {
	var best *provider
	for i := range e.providers {
		p := &e.providers[i]
		if best == nil || p.priority > best.priority ||
			(p.priority == best.priority && p.order < best.order) {
			best = p
		}
	}
	return best
}

// ProvidedBy returns the dependency id of the winning provider.
func (e *ExportInfo) ProvidedBy() (uint32, bool) {
	w := e.winner()
	if w == nil {
		return 0, false
	}
	return w.dependency, true
}

// TerminalBinding reports whether the winning provider binds the export
// locally, which halts re-export chain walking.
func (e *ExportInfo) TerminalBinding() bool {
	w := e.winner()
	return w != nil && w.terminal
}

// Target returns the re-export target of the winning provider, or nil when
// the export is bound locally or has no provider.
func (e *ExportInfo) Target() *Target {
	w := e.winner()
	if w == nil || w.terminal {
		return nil
	}
	return w.target
}

// ResolveTarget follows re-export targets across modules until a terminal
// binding, a namespace target, or a module that does not know the name.
// It returns false on cycles.
func (e *ExportInfo) ResolveTarget() (Target, bool) {
	seen := make(map[string]struct{})
	cur := e
	var last Target
	resolved := false
	for {
		key := cur.owner.module + "\x00" + cur.name
		if _, ok := seen[key]; ok {
			return Target{}, false
		}
		seen[key] = struct{}{}

		t := cur.Target()
		if t == nil {
			if !resolved {
				return Target{Module: cur.owner.module, Export: []string{cur.name}}, true
			}
			return last, true
		}
		last = *t
		resolved = true
		if len(t.Export) == 0 {
			return last, true
		}
		next := cur.owner.table.Info(t.Module)
		if next == nil {
			return last, true
		}
		ne, ok := next.exports[t.Export[0]]
		if !ok {
			return last, true
		}
		cur = ne
	}
}

func sameTarget(a, b *Target) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Module != b.Module || a.Dependency != b.Dependency || len(a.Export) != len(b.Export) {
		return false
	}
	if (a.Export == nil) != (b.Export == nil) {
		return false
	}
	for i := range a.Export {
		if a.Export[i] != b.Export[i] {
			return false
		}
	}
	return true
}

// UsageFor returns the usage state for one runtime index.
func (e *ExportInfo) UsageFor(runtimeID int) UsageState {
	return e.usage[runtimeID]
}

// Usage aggregates the usage state over the runtimes selected by rt.
// Any use in a selected runtime wins; the export is Unused only when every
// selected runtime classified it Unused.
func (e *ExportInfo) Usage(rt runtime.Spec) UsageState {
	ids := e.owner.table.runtimeIDs(rt)
	best := UsageUnknown
	unused := 0
	for _, id := range ids {
		s := e.usage[id]
		if s.rank() > best.rank() {
			best = s
		}
		if s == UsageUnused {
			unused++
		}
	}
	if best.rank() == 0 && unused > 0 && unused == len(ids) {
		return UsageUnused
	}
	return best
}

// raiseUsage moves usage for a runtime up the lattice.
func (e *ExportInfo) raiseUsage(runtimeID int, s UsageState) bool {
	e.owner.table.checkWritable()
	if s.rank() <= e.usage[runtimeID].rank() {
		return false
	}
	e.usage[runtimeID] = s
	return true
}

// SetUsed marks the export used for a runtime. With a non-empty property
// path only those properties are recorded as used on the nested info.
func (e *ExportInfo) SetUsed(runtimeID int, properties []string) bool {
	if len(properties) == 0 {
		return e.raiseUsage(runtimeID, UsageUsed)
	}
	if e.usage[runtimeID] == UsageUsed {
		return false
	}
	changed := e.raiseUsage(runtimeID, UsageOnlyPropertiesUsed)
	if e.nested == nil {
		e.nested = newInfo(e.owner.table, e.owner.module, e)
		changed = true
	}
	if e.nested.SetUsed(runtimeID, properties) {
		changed = true
	}
	return changed
}

// Nested returns the info describing properties of a namespace-like
// export, or nil.
func (e *ExportInfo) Nested() *Info {
	return e.nested
}

// NestedInfo returns the nested info, creating it if needed.
func (e *ExportInfo) NestedInfo() *Info {
	if e.nested == nil {
		e.owner.table.checkWritable()
		e.nested = newInfo(e.owner.table, e.owner.module, e)
	}
	return e.nested
}

// UsedName returns the final identifier of the export. It is the declared
// name unless a used name was assigned.
func (e *ExportInfo) UsedName() string {
	if e.hasUsedName {
		return e.usedName
	}
	return e.name
}

// HasUsedName reports whether SetUsedName was called.
func (e *ExportInfo) HasUsedName() bool {
	return e.hasUsedName
}

// SetUsedName assigns the final identifier.
func (e *ExportInfo) SetUsedName(name string) {
	e.owner.table.checkWritable()
	e.usedName = name
	e.hasUsedName = true
}

func (e *ExportInfo) finalize(runtimeID int) {
	if e.usage[runtimeID] == UsageUnknown {
		e.usage[runtimeID] = UsageUnused
	}
	if e.nested != nil {
		e.nested.finalize(runtimeID)
	}
}

func (e *ExportInfo) resetUsage(runtimeID int) {
	e.usage[runtimeID] = UsageUnknown
	if e.nested != nil {
		e.nested.resetUsage(runtimeID)
	}
}
