// Package runtime identifies build targets.
//
// A Spec is a set of runtime names. Usage and naming are resolved
// independently per runtime, and a Spec selects which runtimes a query
// applies to. The nil Spec is the wildcard meaning "all runtimes".
package runtime

import (
	"sort"
	"strings"
)

// AllKey is the key of the wildcard Spec.
const AllKey = "*"

// Spec is a sorted, duplicate-free set of runtime names.
// The nil Spec means all runtimes.
type Spec []string

// New creates a Spec from names. Empty names are ignored.
// New with no names returns the wildcard.
func New(names ...string) Spec {
	if len(names) == 0 {
		return nil
	}
	out := make(Spec, 0, len(names))
	for _, n := range names {
		if n != "" {
			out = append(out, n)
		}
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return dedupe(out)
}

// Single returns a Spec holding exactly one runtime.
func Single(name string) Spec {
	return New(name)
}

func dedupe(s Spec) Spec {
	j := 0
	for i := 0; i < len(s); i++ {
		if i > 0 && s[i] == s[i-1] {
			continue
		}
		s[j] = s[i]
		j++
	}
	return s[:j]
}

// IsAll reports whether s is the wildcard.
func (s Spec) IsAll() bool {
	return s == nil
}

// Key returns a stable map key for s.
func (s Spec) Key() string {
	if s == nil {
		return AllKey
	}
	return strings.Join(s, "|")
}

// String returns a human-readable representation.
func (s Spec) String() string {
	switch len(s) {
	case 0:
		return AllKey
	case 1:
		return s[0]
	default:
		return "{" + strings.Join(s, ", ") + "}"
	}
}

// Contains reports whether name is selected by s.
func (s Spec) Contains(name string) bool {
	if s == nil {
		return true
	}
	i := sort.SearchStrings(s, name)
	return i < len(s) && s[i] == name
}

// Names returns a copy of the runtime names, or nil for the wildcard.
func (s Spec) Names() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

// Select returns the names from all that s selects, preserving order.
func (s Spec) Select(all []string) []string {
	out := make([]string, 0, len(all))
	for _, n := range all {
		if s.Contains(n) {
			out = append(out, n)
		}
	}
	return out
}

// Equal reports whether a and b select the same runtimes.
func Equal(a, b Spec) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Merge returns the union of a and b. The wildcard absorbs everything.
func Merge(a, b Spec) Spec {
	if a == nil || b == nil {
		return nil
	}
	merged := make([]string, 0, len(a)+len(b))
	merged = append(merged, a...)
	merged = append(merged, b...)
	return New(merged...)
}

// Intersects reports whether a and b share at least one runtime.
func Intersects(a, b Spec) bool {
	if a == nil || b == nil {
		return true
	}
	for _, n := range a {
		if b.Contains(n) {
			return true
		}
	}
	return false
}
