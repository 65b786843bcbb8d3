package codegen

import (
	"sort"
	"strconv"
	"strings"
)

// Stage orders init fragments in the module prologue.
type Stage uint8

const (
	StageConstants Stage = iota
	StageESMImports
	StageESMExports
	StageProvides
)

// InitFragment is a deferred piece of module prologue. Fragments with the
// same key are merged (when they implement Merger) or de-duplicated.
type InitFragment interface {
	Key() string
	Stage() Stage
	Position() int
	Content(env Environment) string
}

// Merger is implemented by fragments that combine with same-key siblings.
type Merger interface {
	MergeWith(other InitFragment) InitFragment
}

// ExportPair binds an emitted export name to a local binding expression.
type ExportPair struct {
	Name  string
	Value string
}

// ExportInitFragment defines getters on a module's exports object.
// All ExportInitFragments of one module merge into one definer call.
type ExportInitFragment struct {
	ExportsArgument string
	Exports         []ExportPair
}

// NewExportInitFragment creates a fragment defining the given pairs.
func NewExportInitFragment(exportsArgument string, pairs ...ExportPair) *ExportInitFragment {
	return &ExportInitFragment{
		ExportsArgument: exportsArgument,
		Exports:         pairs,
	}
}

// Key implements InitFragment.
func (f *ExportInitFragment) Key() string {
	return "esm exports " + f.ExportsArgument
}

// Stage implements InitFragment.
func (f *ExportInitFragment) Stage() Stage {
	return StageESMExports
}

// Position implements InitFragment.
func (f *ExportInitFragment) Position() int {
	return 1
}

// MergeWith combines two export fragments of the same exports object.
// Pairs are sorted by name; the first binding of a name wins.
func (f *ExportInitFragment) MergeWith(other InitFragment) InitFragment {
	o, ok := other.(*ExportInitFragment)
	if !ok {
		return f
	}
	merged := make([]ExportPair, 0, len(f.Exports)+len(o.Exports))
	merged = append(merged, f.Exports...)
	merged = append(merged, o.Exports...)
	return &ExportInitFragment{
		ExportsArgument: f.ExportsArgument,
		Exports:         normalizePairs(merged),
	}
}

func normalizePairs(pairs []ExportPair) []ExportPair {
	seen := make(map[string]struct{}, len(pairs))
	out := make([]ExportPair, 0, len(pairs))
	for _, p := range pairs {
		if _, ok := seen[p.Name]; ok {
			continue
		}
		seen[p.Name] = struct{}{}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Content renders the definer call.
func (f *ExportInitFragment) Content(env Environment) string {
	pairs := normalizePairs(f.Exports)
	if len(pairs) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("/* ESM exports */ ")
	b.WriteString(DefineGettersName)
	b.WriteByte('(')
	b.WriteString(f.ExportsArgument)
	b.WriteString(", {\n")
	for i, p := range pairs {
		b.WriteString("  ")
		b.WriteString(PropertyName(p.Name))
		b.WriteString(": ")
		b.WriteString(env.ReturningFunction(p.Value))
		if i < len(pairs)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	b.WriteString("});\n")
	return b.String()
}

// ImportInitFragment binds an imported module's exports object to a
// module-local variable.
type ImportInitFragment struct {
	Request   string
	ImportVar string
	ModuleID  string
	Order     int
}

// Key implements InitFragment.
func (f *ImportInitFragment) Key() string {
	return "esm import " + f.Request
}

// Stage implements InitFragment.
func (f *ImportInitFragment) Stage() Stage {
	return StageESMImports
}

// Position implements InitFragment.
func (f *ImportInitFragment) Position() int {
	return f.Order
}

// Content renders the import statement.
func (f *ImportInitFragment) Content(Environment) string {
	return "/* ESM import */ var " + f.ImportVar + " = " + RequireName + "(" + strconv.Quote(f.ModuleID) + ");\n"
}

// ImportVarName derives the variable holding an imported module.
func ImportVarName(request string, order int) string {
	var b strings.Builder
	b.WriteByte('_')
	for i := 0; i < len(request); i++ {
		c := request[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			b.WriteByte(c)
		} else {
			b.WriteByte('_')
		}
	}
	b.WriteString("__WEBPACK_IMPORTED_MODULE_")
	b.WriteString(strconv.Itoa(order))
	b.WriteString("__")
	return b.String()
}

// Fragments collects the init fragments of one code generation
// invocation. It is append-only and not safe for concurrent use.
type Fragments struct {
	list []InitFragment
}

// Push appends a fragment.
func (f *Fragments) Push(fr InitFragment) {
	f.list = append(f.list, fr)
}

// Len returns the number of pushed fragments.
func (f *Fragments) Len() int {
	return len(f.list)
}

// All returns the pushed fragments in order.
func (f *Fragments) All() []InitFragment {
	out := make([]InitFragment, len(f.list))
	copy(out, f.list)
	return out
}

// Merge groups fragments by key and orders them by stage, position and
// first appearance. Mergeable fragments combine; others keep the first.
func (f *Fragments) Merge() []InitFragment {
	type slot struct {
		frag  InitFragment
		first int
	}
	byKey := make(map[string]*slot, len(f.list))
	var order []*slot
	for i, fr := range f.list {
		s, ok := byKey[fr.Key()]
		if !ok {
			s = &slot{frag: fr, first: i}
			byKey[fr.Key()] = s
			order = append(order, s)
			continue
		}
		if m, ok := s.frag.(Merger); ok {
			s.frag = m.MergeWith(fr)
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		a, b := order[i].frag, order[j].frag
		if a.Stage() != b.Stage() {
			return a.Stage() < b.Stage()
		}
		if a.Position() != b.Position() {
			return a.Position() < b.Position()
		}
		return order[i].first < order[j].first
	})
	out := make([]InitFragment, len(order))
	for i, s := range order {
		out[i] = s.frag
	}
	return out
}

// ExportDefinitions returns the merged (used name, binding) pairs per
// exports argument.
func (f *Fragments) ExportDefinitions() map[string][]ExportPair {
	out := make(map[string][]ExportPair)
	for _, fr := range f.Merge() {
		if e, ok := fr.(*ExportInitFragment); ok {
			out[e.ExportsArgument] = normalizePairs(e.Exports)
		}
	}
	return out
}

// RawFragment is a fixed piece of prologue identified by its key.
type RawFragment struct {
	ID   string
	At   Stage
	Pos  int
	Text string
}

// Key implements InitFragment.
func (f *RawFragment) Key() string {
	return f.ID
}

// Stage implements InitFragment.
func (f *RawFragment) Stage() Stage {
	return f.At
}

// Position implements InitFragment.
func (f *RawFragment) Position() int {
	return f.Pos
}

// Content implements InitFragment.
func (f *RawFragment) Content(Environment) string {
	return f.Text
}
