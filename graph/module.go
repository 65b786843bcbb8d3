package graph

import (
	"fmt"

	"github.com/wippyai/jsbundle/codegen"
	"github.com/wippyai/jsbundle/dependency"
)

// ModuleType is the module system a module is written in.
type ModuleType uint8

const (
	ModuleESM ModuleType = iota
	ModuleCommonJS
)

func (t ModuleType) String() string {
	switch t {
	case ModuleESM:
		return "esm"
	case ModuleCommonJS:
		return "commonjs"
	default:
		return fmt.Sprintf("module(%d)", t)
	}
}

// ParseModuleType maps a manifest type name to a ModuleType.
func ParseModuleType(s string) (ModuleType, bool) {
	switch s {
	case "", "esm", "javascript/esm":
		return ModuleESM, true
	case "commonjs", "cjs", "dynamic", "javascript/auto":
		return ModuleCommonJS, true
	default:
		return 0, false
	}
}

// Module is one source module and the dependencies extracted from it.
// The dependency list is owned by whoever builds the module until it is
// added to a Graph.
type Module struct {
	id              string
	exportsArgument string
	source          string
	deps            []dependency.Dependency
	typ             ModuleType
	sideEffectFree  bool
}

// NewModule creates a module with the default exports argument.
func NewModule(id string, typ ModuleType) *Module {
	return &Module{
		id:              id,
		typ:             typ,
		exportsArgument: codegen.ExportsName,
	}
}

// Identifier returns the module id.
func (m *Module) Identifier() string { return m.id }

// ExportsArgument returns the name of the exports object binding.
func (m *Module) ExportsArgument() string { return m.exportsArgument }

// SetExportsArgument overrides the exports object binding.
func (m *Module) SetExportsArgument(name string) {
	if name != "" {
		m.exportsArgument = name
	}
}

// Type returns the module system.
func (m *Module) Type() ModuleType { return m.typ }

// Source returns the module source.
func (m *Module) Source() string { return m.source }

// SetSource sets the module source.
func (m *Module) SetSource(src string) { m.source = src }

// SideEffectFree reports whether evaluating the module's own top-level code
// has no observable effect.
func (m *Module) SideEffectFree() bool { return m.sideEffectFree }

// SetSideEffectFree marks the module's own code as free of side effects.
func (m *Module) SetSideEffectFree(free bool) { m.sideEffectFree = free }

// AddDependency appends a dependency in declaration order.
func (m *Module) AddDependency(d dependency.Dependency) {
	m.deps = append(m.deps, d)
}

// Dependencies returns the module's dependencies in declaration order.
func (m *Module) Dependencies() []dependency.Dependency {
	out := make([]dependency.Dependency, len(m.deps))
	copy(out, m.deps)
	return out
}
