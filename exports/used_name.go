package exports

import "strings"

// UsedName is an export name or a property path below an export.
// A one-element UsedName is a plain name.
type UsedName []string

// Str returns the UsedName for a single export name.
func Str(name string) UsedName {
	return UsedName{name}
}

// Path returns the UsedName for a property path.
func Path(names ...string) UsedName {
	return UsedName(names)
}

// IsPath reports whether u has more than one segment.
func (u UsedName) IsPath() bool {
	return len(u) > 1
}

// First returns the first candidate. Callers that need a single identifier
// take it unconditionally, even when the request had several segments and
// the first one differs from the requested name.
func (u UsedName) First() string {
	if len(u) == 0 {
		return ""
	}
	return u[0]
}

func (u UsedName) String() string {
	return strings.Join(u, ".")
}
