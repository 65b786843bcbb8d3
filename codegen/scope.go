package codegen

import (
	"encoding/hex"
	"strconv"
	"strings"
)

// ModuleReference is a placeholder for a binding of another module in the
// same concatenation group. It is rewritten once the group's symbols are
// known. Index is the position of Module in the group, so every member of
// a group names the same binding with the same placeholder.
type ModuleReference struct {
	Index  int
	Module string
	IDs    []string
	Call   bool
}

// Name returns the placeholder identifier.
func (r ModuleReference) Name() string {
	var b strings.Builder
	b.WriteString(ModuleReferencePrefix)
	b.WriteString(strconv.Itoa(r.Index))
	b.WriteByte('_')
	b.WriteString(hex.EncodeToString([]byte(strings.Join(r.IDs, "."))))
	if r.Call {
		b.WriteString("_call")
	}
	b.WriteString("__")
	return b.String()
}

// ConcatenationScope collects the bindings a module exposes when it is
// inlined into a concatenation group instead of defining getters on its
// exports object.
type ConcatenationScope struct {
	module    string
	group     map[string]int
	exports   []ExportPair
	exportIdx map[string]int
	refs      []ModuleReference
	refIdx    map[string]struct{}
}

// NewConcatenationScope creates a scope for module within group. The order
// of group numbers the placeholders and must be the same for every member.
func NewConcatenationScope(module string, group []string) *ConcatenationScope {
	s := &ConcatenationScope{
		module:    module,
		group:     make(map[string]int, len(group)+1),
		exportIdx: make(map[string]int),
		refIdx:    make(map[string]struct{}),
	}
	for _, m := range group {
		if _, ok := s.group[m]; !ok {
			s.group[m] = len(s.group)
		}
	}
	if _, ok := s.group[module]; !ok {
		s.group[module] = len(s.group)
	}
	return s
}

// Module returns the identifier of the module being rendered.
func (s *ConcatenationScope) Module() string {
	return s.module
}

// IsModuleInScope reports whether module belongs to the same group.
func (s *ConcatenationScope) IsModuleInScope(module string) bool {
	_, ok := s.group[module]
	return ok
}

// RegisterExport binds an export name to a local symbol. The first
// registration of a name is kept; it reports whether this call added it.
func (s *ConcatenationScope) RegisterExport(name, symbol string) bool {
	if _, ok := s.exportIdx[name]; ok {
		return false
	}
	s.exportIdx[name] = len(s.exports)
	s.exports = append(s.exports, ExportPair{Name: name, Value: symbol})
	return true
}

// Export returns the symbol registered for name.
func (s *ConcatenationScope) Export(name string) (string, bool) {
	idx, ok := s.exportIdx[name]
	if !ok {
		return "", false
	}
	return s.exports[idx].Value, true
}

// Exports returns the registered bindings in registration order.
func (s *ConcatenationScope) Exports() []ExportPair {
	out := make([]ExportPair, len(s.exports))
	copy(out, s.exports)
	return out
}

// CreateModuleReference records a reference to another group member and
// returns its placeholder name. Repeated references share one record.
func (s *ConcatenationScope) CreateModuleReference(module string, ids []string, call bool) string {
	ref := ModuleReference{
		Index:  s.group[module],
		Module: module,
		IDs:    append([]string(nil), ids...),
		Call:   call,
	}
	name := ref.Name()
	if _, ok := s.refIdx[name]; !ok {
		s.refIdx[name] = struct{}{}
		s.refs = append(s.refs, ref)
	}
	return name
}

// References returns the recorded module references.
func (s *ConcatenationScope) References() []ModuleReference {
	out := make([]ModuleReference, len(s.refs))
	copy(out, s.refs)
	return out
}
