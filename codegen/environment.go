package codegen

import (
	"sort"
	"strconv"
)

// Runtime globals referenced by generated code.
const (
	RequireName           = "__webpack_require__"
	DefineGettersName     = "__webpack_require__.d"
	ExportsName           = "__webpack_exports__"
	ModuleName            = "__webpack_module__"
	UnusedExportName      = "__webpack_unused_export__"
	DefaultExportName     = "__WEBPACK_DEFAULT_EXPORT__"
	ModuleReferencePrefix = "__WEBPACK_MODULE_REFERENCE__"
)

// Environment describes the syntax available in the output.
type Environment struct {
	ArrowFunction bool
}

// ReturningFunction renders a zero-argument function returning expr.
func (e Environment) ReturningFunction(expr string) string {
	if e.ArrowFunction {
		return "() => (" + expr + ")"
	}
	return "function() { return " + expr + "; }"
}

// PropertyName renders name as an object literal key.
func PropertyName(name string) string {
	if IsIdentifier(name) {
		return name
	}
	return strconv.Quote(name)
}

// PropertyAccess renders a member access for a path of names.
func PropertyAccess(path []string) string {
	var out string
	for _, p := range path {
		if IsIdentifier(p) {
			out += "." + p
		} else {
			out += "[" + strconv.Quote(p) + "]"
		}
	}
	return out
}

// IsIdentifier reports whether name is a plain ASCII JS identifier.
func IsIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c == '_' || c == '$':
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// RuntimeRequirements is the set of runtime globals a module's code uses.
type RuntimeRequirements map[string]struct{}

// Add records a requirement.
func (r RuntimeRequirements) Add(name string) {
	r[name] = struct{}{}
}

// Has reports whether name was recorded.
func (r RuntimeRequirements) Has(name string) bool {
	_, ok := r[name]
	return ok
}

// List returns the requirements in sorted order.
func (r RuntimeRequirements) List() []string {
	out := make([]string, 0, len(r))
	for name := range r {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
