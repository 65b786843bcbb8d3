package linker

import (
	"fmt"
	"strings"
)

// MangleMode selects how used export names are chosen.
type MangleMode uint8

const (
	// MangleOff keeps every export under its declared name.
	MangleOff MangleMode = iota
	// MangleSize assigns the shortest free identifiers in export order.
	MangleSize
	// MangleDeterministic derives identifiers from a hash of the export
	// name, so adding an export rarely renames the others.
	MangleDeterministic
)

func (m MangleMode) String() string {
	switch m {
	case MangleOff:
		return "off"
	case MangleSize:
		return "size"
	case MangleDeterministic:
		return "deterministic"
	default:
		return fmt.Sprintf("mangle(%d)", m)
	}
}

// ParseMangleMode maps a configuration value to a MangleMode.
// "false" and "true" are accepted as off and deterministic.
func ParseMangleMode(s string) (MangleMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "false", "":
		return MangleOff, nil
	case "size":
		return MangleSize, nil
	case "deterministic", "true":
		return MangleDeterministic, nil
	default:
		return 0, fmt.Errorf("unknown mangle mode %q", s)
	}
}

// Options configures resolution.
type Options struct {
	Mangle MangleMode
	// LibraryExports marks every export of an entry module used, as when
	// the entry is consumed as a library.
	LibraryExports bool
}

// DefaultOptions returns the default resolution options.
func DefaultOptions() Options {
	return Options{
		Mangle: MangleDeterministic,
	}
}
