package dependency

import (
	"fmt"
	"sync/atomic"

	"github.com/wippyai/jsbundle/codegen"
	"github.com/wippyai/jsbundle/exports"
	"github.com/wippyai/jsbundle/runtime"
)

// ID identifies a dependency for the lifetime of the process.
type ID uint32

var lastID atomic.Uint32

// NextID returns a fresh dependency id.
func NextID() ID {
	return ID(lastID.Add(1))
}

// Category is the module system a dependency belongs to.
type Category uint8

const (
	CategoryESM Category = iota
	CategoryCommonJS
	CategoryDynamic
)

func (c Category) String() string {
	switch c {
	case CategoryESM:
		return "esm"
	case CategoryCommonJS:
		return "commonjs"
	case CategoryDynamic:
		return "dynamic"
	default:
		return fmt.Sprintf("category(%d)", c)
	}
}

// Type is the fine-grained kind of a dependency.
type Type uint8

const (
	TypeESMExportSpecifier Type = iota
	TypeESMExportExpression
	TypeESMExportImportedSpecifier
	TypeESMImportSideEffect
	TypeESMImportSpecifier
	TypeDynamicImport
	TypeCommonJSExports
	TypeCommonJSRequire
	TypeProvided
	typeCount
)

var typeNames = [typeCount]string{
	TypeESMExportSpecifier:         "esm export specifier",
	TypeESMExportExpression:        "esm export expression",
	TypeESMExportImportedSpecifier: "esm export imported specifier",
	TypeESMImportSideEffect:        "esm side effect",
	TypeESMImportSpecifier:         "esm import specifier",
	TypeDynamicImport:              "dynamic import",
	TypeCommonJSExports:            "cjs exports",
	TypeCommonJSRequire:            "cjs require",
	TypeProvided:                   "provided",
}

func (t Type) String() string {
	if t < typeCount {
		return typeNames[t]
	}
	return fmt.Sprintf("type(%d)", t)
}

// Types returns every known dependency type.
func Types() []Type {
	out := make([]Type, typeCount)
	for i := range out {
		out[i] = Type(i)
	}
	return out
}

// Position is a 1-based line and 0-based column.
type Position struct {
	Line   uint32
	Column uint32
}

// Location is the source span a dependency was extracted from.
type Location struct {
	Start Position
	End   Position
}

func (l Location) String() string {
	if l.Start.Line == l.End.Line {
		return fmt.Sprintf("%d:%d-%d", l.Start.Line, l.Start.Column, l.End.Column)
	}
	return fmt.Sprintf("%d:%d-%d:%d", l.Start.Line, l.Start.Column, l.End.Line, l.End.Column)
}

// Range is a half-open byte range in the module source.
type Range struct {
	Start int
	End   int
}

// IsZero reports whether the range is unset.
func (r Range) IsZero() bool {
	return r.Start == 0 && r.End == 0
}

// ConnectionState says whether a connection is active.
type ConnectionState uint8

const (
	ConnectionFalse ConnectionState = iota
	ConnectionMaybe
	ConnectionTrue
)

func (s ConnectionState) String() string {
	switch s {
	case ConnectionFalse:
		return "false"
	case ConnectionMaybe:
		return "maybe"
	case ConnectionTrue:
		return "true"
	default:
		return fmt.Sprintf("state(%d)", s)
	}
}

// Add combines two states: True dominates, then Maybe.
func (s ConnectionState) Add(o ConnectionState) ConnectionState {
	if o > s {
		return o
	}
	return s
}

// IsActive treats Maybe as active.
func (s ConnectionState) IsActive() bool {
	return s != ConnectionFalse
}

// AffectType says how a dependency's presence influences the module that
// references it.
type AffectType uint8

const (
	AffectFalse AffectType = iota
	AffectTrue
	AffectTransitive
)

func (a AffectType) String() string {
	switch a {
	case AffectFalse:
		return "false"
	case AffectTrue:
		return "true"
	case AffectTransitive:
		return "transitive"
	default:
		return fmt.Sprintf("affect(%d)", a)
	}
}

// ModuleChain is the set of modules on the current side-effect evaluation
// path.
type ModuleChain map[string]struct{}

// Has reports whether module is on the path.
func (c ModuleChain) Has(module string) bool {
	_, ok := c[module]
	return ok
}

// Graph is the module graph as seen by dependencies.
type Graph interface {
	codegen.GraphView
	// ModuleEvaluationSideEffects reports whether evaluating module has
	// side effects. Modules already in chain yield ConnectionMaybe.
	ModuleEvaluationSideEffects(module string, chain ModuleChain) ConnectionState
}

// Dependency is an edge extracted from a module's source. Dependencies are
// immutable after construction.
type Dependency interface {
	ID() ID
	Loc() Location
	Category() Category
	Type() Type
	// Exports returns what the dependency contributes to its module's
	// exports, or nil when it contributes none.
	Exports(g Graph) *exports.Spec
	SideEffectsState(g Graph, chain ModuleChain) ConnectionState
	CouldAffectReferencingModule() AffectType
}

// ModuleDependency is a dependency pointing at another module.
type ModuleDependency interface {
	Dependency
	Request() string
}

// ReferencingDependency consumes exports of the module it points at.
type ReferencingDependency interface {
	ModuleDependency
	// ReferencedExports lists the export paths consumed under rt.
	// exports.EntireNamespace means the exports object itself escapes.
	ReferencedExports(g Graph, rt runtime.Spec) []exports.Reference
}

// Template renders a dependency into generated code.
type Template interface {
	Apply(src *codegen.ReplaceSource, ctx *codegen.TemplateContext)
}

// Hasher receives content hash input.
type Hasher interface {
	Write(p []byte) (int, error)
	WriteString(s string) (int, error)
}

// HashContributor adds bytes to the module content hash that the module's
// structural hash does not already cover.
type HashContributor interface {
	UpdateHash(h Hasher, g Graph, rt runtime.Spec)
}

type base struct {
	id  ID
	loc Location
	rng Range
}

func newBase(loc Location, rng Range) base {
	return base{id: NextID(), loc: loc, rng: rng}
}

// ID implements Dependency.
func (b *base) ID() ID { return b.id }

// Loc implements Dependency.
func (b *base) Loc() Location { return b.loc }

// Range returns the source range the dependency rewrites.
func (b *base) Range() Range { return b.rng }
