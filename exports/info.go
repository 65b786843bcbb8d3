package exports

import (
	"sort"

	"github.com/wippyai/jsbundle/runtime"
)

// Info is the exports info of one module, or of a namespace-like export
// when parent is set.
type Info struct {
	table   *Table
	parent  *ExportInfo
	exports map[string]*ExportInfo
	other   *ExportInfo
	module  string
	// included is per runtime id; only module-level infos use it.
	included []bool
	// hasProvideInfo is set once the provide pass completed.
	hasProvideInfo bool
}

func newInfo(t *Table, module string, parent *ExportInfo) *Info {
	i := &Info{
		table:   t,
		parent:  parent,
		module:  module,
		exports: make(map[string]*ExportInfo),
	}
	if parent == nil {
		i.included = make([]bool, len(t.runtimes))
	}
	i.other = newExportInfo(i, "", nil)
	return i
}

// Module returns the module identifier.
func (i *Info) Module() string {
	return i.module
}

// Parent returns the export this info describes the properties of, or nil
// for a module-level info.
func (i *Info) Parent() *ExportInfo {
	return i.parent
}

// Export returns the info for name, creating it from the other-exports
// slot when absent.
func (i *Info) Export(name string) *ExportInfo {
	if e, ok := i.exports[name]; ok {
		return e
	}
	i.table.checkWritable()
	e := newExportInfo(i, name, i.other)
	i.exports[name] = e
	return e
}

// ReadExport returns the info for name without creating it. Unknown names
// resolve to the other-exports slot.
func (i *Info) ReadExport(name string) *ExportInfo {
	if e, ok := i.exports[name]; ok {
		return e
	}
	return i.other
}

// Lookup returns the info for name if it exists.
func (i *Info) Lookup(name string) (*ExportInfo, bool) {
	e, ok := i.exports[name]
	return e, ok
}

// Other returns the slot standing for every name not listed explicitly.
func (i *Info) Other() *ExportInfo {
	return i.other
}

// Exports returns all named exports ordered by name.
func (i *Info) Exports() []*ExportInfo {
	out := make([]*ExportInfo, 0, len(i.exports))
	for _, e := range i.exports {
		out = append(out, e)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].name < out[b].name })
	return out
}

// ProvidedNames returns the names known to be provided, ordered by name.
func (i *Info) ProvidedNames() []string {
	var out []string
	for name, e := range i.exports {
		if e.provided == ProvidedYes {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// OtherProvided reports whether names beyond the explicit list may exist.
func (i *Info) OtherProvided() bool {
	return i.other.provided != ProvidedNo
}

// IsExportProvided answers whether the module provides name. Names absent
// from the explicit list are Unknown when other names may exist.
func (i *Info) IsExportProvided(name string) Provided {
	if e, ok := i.exports[name]; ok {
		return e.provided
	}
	if i.other.provided == ProvidedNo {
		return ProvidedNo
	}
	return ProvidedUnknown
}

// SetUnknownExportsProvided marks every name, listed or not, as possibly
// provided. Names in exclude keep their state. canMangle false disables
// renaming from the providing side.
func (i *Info) SetUnknownExportsProvided(canMangle bool, exclude []string) bool {
	i.table.checkWritable()
	skip := make(map[string]struct{}, len(exclude))
	for _, n := range exclude {
		skip[n] = struct{}{}
	}
	changed := false
	for name, e := range i.exports {
		if _, ok := skip[name]; ok {
			continue
		}
		if e.SetProvided(ProvidedYes) {
			changed = true
		}
		if !canMangle && e.DisableMangleProvide() {
			changed = true
		}
	}
	if i.other.SetProvided(ProvidedYes) {
		changed = true
	}
	if !canMangle && i.other.DisableMangleProvide() {
		changed = true
	}
	return changed
}

// SetHasProvideInfo closes the provide pass: names still Unknown become
// NotProvided.
func (i *Info) SetHasProvideInfo() {
	i.table.checkWritable()
	for _, e := range i.exports {
		if e.provided == ProvidedUnknown {
			e.provided = ProvidedNo
		}
		if e.nested != nil {
			e.nested.SetHasProvideInfo()
		}
	}
	if i.other.provided == ProvidedUnknown {
		i.other.provided = ProvidedNo
	}
	i.hasProvideInfo = true
}

// HasProvideInfo reports whether the provide pass completed.
func (i *Info) HasProvideInfo() bool {
	return i.hasProvideInfo
}

// SetUsed records a use of an export path for a runtime. An empty path
// uses the whole exports object in an unknown way.
func (i *Info) SetUsed(runtimeID int, path []string) bool {
	if len(path) == 0 {
		return i.SetUsedInUnknownWay(runtimeID)
	}
	return i.Export(path[0]).SetUsed(runtimeID, path[1:])
}

// SetUsedInUnknownWay marks every export and the other-exports slot used
// and forbids renaming from the consuming side.
func (i *Info) SetUsedInUnknownWay(runtimeID int) bool {
	i.table.checkWritable()
	changed := false
	for _, e := range i.exports {
		if e.raiseUsage(runtimeID, UsageUsed) {
			changed = true
		}
		if e.DisableMangleUse() {
			changed = true
		}
	}
	if i.other.raiseUsage(runtimeID, UsageUsed) {
		changed = true
	}
	if i.other.DisableMangleUse() {
		changed = true
	}
	return changed
}

// UsedInUnknownWay reports whether the exports object escaped for the
// runtimes selected by rt.
func (i *Info) UsedInUnknownWay(rt runtime.Spec) bool {
	return i.other.Usage(rt) == UsageUsed
}

// IsModuleUsed reports whether any export of the module is used. Without
// resolved usage information every module counts as used.
func (i *Info) IsModuleUsed(rt runtime.Spec) bool {
	if !i.table.Resolved() {
		return true
	}
	if i.other.Usage(rt).rank() > 0 {
		return true
	}
	for _, e := range i.exports {
		if e.Usage(rt).rank() > 0 {
			return true
		}
	}
	return false
}

// SetIncluded records that the module is part of a runtime's output,
// whether or not any export is used.
func (i *Info) SetIncluded(runtimeID int) bool {
	i.table.checkWritable()
	if i.included[runtimeID] {
		return false
	}
	i.included[runtimeID] = true
	return true
}

// IsIncluded reports whether the module was reached in any runtime selected
// by rt. Without resolved usage information every module is included.
func (i *Info) IsIncluded(rt runtime.Spec) bool {
	if !i.table.Resolved() {
		return true
	}
	for _, id := range i.table.runtimeIDs(rt) {
		if i.included[id] {
			return true
		}
	}
	return false
}

// UsedName returns the final name for a requested export path under rt,
// or nil when the export is unused there. A multi-segment request yields a
// multi-segment result, translated through nested infos where properties
// were tracked.
func (i *Info) UsedName(rt runtime.Spec, name UsedName) UsedName {
	if len(name) == 0 {
		if !i.IsModuleUsed(rt) {
			return nil
		}
		return UsedName{}
	}
	e := i.ReadExport(name[0])
	state := e.Usage(rt)
	if state == UsageUnused {
		return nil
	}
	head := name[0]
	if e != i.other {
		head = e.UsedName()
	}
	if len(name) == 1 {
		return UsedName{head}
	}
	if e.nested != nil && state == UsageOnlyPropertiesUsed {
		rest := e.nested.UsedName(rt, name[1:])
		if rest == nil {
			return nil
		}
		return append(UsedName{head}, rest...)
	}
	out := make(UsedName, 0, len(name))
	out = append(out, head)
	return append(out, name[1:]...)
}

func (i *Info) finalize(runtimeID int) {
	for _, e := range i.exports {
		e.finalize(runtimeID)
	}
	i.other.finalize(runtimeID)
}

// Finalize closes a runtime's usage pass: every export still Unknown for
// the runtime becomes Unused.
func (i *Info) Finalize(runtimeID int) {
	i.table.checkWritable()
	i.finalize(runtimeID)
}

func (i *Info) resetUsage(runtimeID int) {
	if i.included != nil {
		i.included[runtimeID] = false
	}
	for _, e := range i.exports {
		e.resetUsage(runtimeID)
	}
	i.other.resetUsage(runtimeID)
}
