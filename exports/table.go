package exports

import (
	"sync"
	"sync/atomic"

	"github.com/wippyai/jsbundle/errors"
	"github.com/wippyai/jsbundle/runtime"
)

// Table is the index-addressed store of every module's exports info.
//
// Modules are addressed by the index assigned at Register, exports by name,
// and runtimes by the index assigned at NewTable. All mutation happens during
// resolution under a single writer; Freeze is the barrier after which the
// table is a read-only snapshot safe for concurrent code generation.
type Table struct {
	runtimeIdx map[string]int
	byModule   map[string]int
	runtimes   []string
	infos      []*Info
	mu         sync.RWMutex
	frozen     atomic.Bool
	resolved   atomic.Bool
}

// NewTable creates a table tracking usage for the given runtimes.
// Duplicate names are collapsed.
func NewTable(runtimes ...string) *Table {
	t := &Table{
		runtimeIdx: make(map[string]int, len(runtimes)),
		byModule:   make(map[string]int),
	}
	for _, r := range runtimes {
		if _, ok := t.runtimeIdx[r]; ok {
			continue
		}
		t.runtimeIdx[r] = len(t.runtimes)
		t.runtimes = append(t.runtimes, r)
	}
	return t
}

// Runtimes returns the tracked runtime names in registration order.
func (t *Table) Runtimes() []string {
	out := make([]string, len(t.runtimes))
	copy(out, t.runtimes)
	return out
}

// RuntimeID returns the index of a runtime name.
func (t *Table) RuntimeID(name string) (int, bool) {
	id, ok := t.runtimeIdx[name]
	return id, ok
}

// runtimeIDs returns the indices selected by spec. Unknown names are skipped.
func (t *Table) runtimeIDs(spec runtime.Spec) []int {
	if spec.IsAll() {
		ids := make([]int, len(t.runtimes))
		for i := range ids {
			ids[i] = i
		}
		return ids
	}
	ids := make([]int, 0, len(spec))
	for _, name := range spec {
		if id, ok := t.runtimeIdx[name]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// Register creates the exports info for a module and returns it.
// Registering the same module twice returns the existing info.
func (t *Table) Register(module string) *Info {
	t.mu.Lock()
	defer t.mu.Unlock()

	if idx, ok := t.byModule[module]; ok {
		return t.infos[idx]
	}
	t.checkWritable()
	info := newInfo(t, module, nil)
	t.byModule[module] = len(t.infos)
	t.infos = append(t.infos, info)
	return info
}

// Info returns the exports info of a module, or nil if unregistered.
func (t *Table) Info(module string) *Info {
	t.mu.RLock()
	defer t.mu.RUnlock()

	idx, ok := t.byModule[module]
	if !ok {
		return nil
	}
	return t.infos[idx]
}

// Index returns the module index assigned at Register.
func (t *Table) Index(module string) (int, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	idx, ok := t.byModule[module]
	return idx, ok
}

// Len returns the number of registered modules.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.infos)
}

// Freeze ends the resolution phase. Any later mutation panics.
func (t *Table) Freeze() {
	t.frozen.Store(true)
}

// Frozen reports whether Freeze was called.
func (t *Table) Frozen() bool {
	return t.frozen.Load()
}

// MarkResolved records that usage information is complete.
// Until then every export is treated as used under its own name.
func (t *Table) MarkResolved() {
	t.resolved.Store(true)
}

// Resolved reports whether usage information is complete.
func (t *Table) Resolved() bool {
	return t.resolved.Load()
}

// Reset discards all provide, usage and naming state while keeping module
// registrations, and reopens the table for writing.
func (t *Table) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.frozen.Store(false)
	t.resolved.Store(false)
	for i, info := range t.infos {
		t.infos[i] = newInfo(t, info.module, nil)
	}
}

// ResetUsage clears usage for one runtime across all modules so the
// runtime's pass can be recomputed from scratch.
func (t *Table) ResetUsage(runtimeID int) {
	t.checkWritable()
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, info := range t.infos {
		info.resetUsage(runtimeID)
	}
}

func (t *Table) checkWritable() {
	if t.frozen.Load() {
		panic(errors.Invariant(errors.PhaseUsage, "exports table mutated after freeze"))
	}
}
