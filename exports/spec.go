package exports

// ListKind says what a Spec knows about the exported names.
type ListKind uint8

const (
	// ListNames means Spec.Exports is the explicit ordered list.
	ListNames ListKind = iota
	// ListNone means the dependency declares that no exports are known.
	ListNone
	// ListUnknown means exports are dynamic: any name may exist at run time.
	ListUnknown
)

func (k ListKind) String() string {
	switch k {
	case ListNames:
		return "names"
	case ListNone:
		return "none"
	case ListUnknown:
		return "unknown"
	default:
		return "invalid"
	}
}

// From names the module a re-export reads from and the dependency that
// establishes it. Dependency is the DependencyId of that edge.
type From struct {
	Module     string
	Dependency uint32
}

// Export is one exported name in a Spec, optionally carrying per-name
// overrides and nested namespace members.
type Export struct {
	CanMangle       *bool
	TerminalBinding *bool
	Priority        *int
	From            *From
	Name            string
	// Export is the path read in the From module. When nil and Namespace is
	// false, the path defaults to []string{Name}.
	Export []string
	// Exports describes members of a namespace object bound to Name.
	Exports []Export
	// Namespace binds Name to the whole exports object of From.
	Namespace bool
	Hidden    bool
}

// Name returns a plain named Export.
func Name(name string) Export {
	return Export{Name: name}
}

// Names returns plain Exports for each name, preserving order.
func Names(names ...string) []Export {
	out := make([]Export, len(names))
	for i, n := range names {
		out[i] = Export{Name: n}
	}
	return out
}

// Spec describes the exports a dependency contributes to its module.
// A Spec is a pure function of the dependency's static content; for
// wildcard re-exports it also reflects the provided names of the target.
type Spec struct {
	CanMangle *bool
	From      *From
	Exports   []Export
	// Dependencies lists modules whose provided exports this Spec was
	// computed from. The Spec is recomputed when any of them changes.
	Dependencies   []string
	HideExports    []string
	ExcludeExports []string
	Priority       int
	Kind           ListKind
	// TerminalBinding fixes the source of every listed name in this module.
	TerminalBinding bool
}

// Reference is an export path consumed through a dependency.
// A nil Path means the exports object itself is consumed in a way the
// bundler cannot see through.
type Reference struct {
	Path     []string
	NoMangle bool
}

// EntireNamespace is the Reference for "the whole exports object".
var EntireNamespace = Reference{}

// Ref returns a Reference to the given export path.
func Ref(path ...string) Reference {
	return Reference{Path: path}
}

// IsEntireNamespace reports whether r consumes the whole exports object.
func (r Reference) IsEntireNamespace() bool {
	return len(r.Path) == 0
}

// Bool returns a pointer to b, for optional Spec fields.
func Bool(b bool) *bool {
	return &b
}

// Int returns a pointer to n, for optional Spec fields.
func Int(n int) *int {
	return &n
}
