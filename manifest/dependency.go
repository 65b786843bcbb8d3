package manifest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wippyai/jsbundle/dependency"
	"github.com/wippyai/jsbundle/errors"
)

// Dependency kinds accepted in manifests.
const (
	KindExportSpecifier = "export_specifier"
	KindExportDefault   = "export_default"
	KindReexport        = "reexport"
	KindImport          = "import"
	KindImportSpecifier = "import_specifier"
	KindDynamicImport   = "dynamic_import"
	KindCommonJSExport  = "cjs_export"
	KindRequire         = "require"
	KindProvided        = "provided"
)

type constructor func(d *Dependency, loc dependency.Location, rng dependency.Range) (dependency.Dependency, error)

var constructors = map[string]constructor{
	KindExportSpecifier: func(d *Dependency, loc dependency.Location, _ dependency.Range) (dependency.Dependency, error) {
		if d.Name == "" {
			return nil, missing("name")
		}
		value := d.Value
		if value == "" {
			value = d.Name
		}
		return dependency.NewExportSpecifier(d.Name, value, loc), nil
	},
	KindExportDefault: func(d *Dependency, loc dependency.Location, rng dependency.Range) (dependency.Dependency, error) {
		return dependency.NewExportExpression(d.Declaration, rng, loc), nil
	},
	KindReexport: func(d *Dependency, loc dependency.Location, _ dependency.Range) (dependency.Dependency, error) {
		if d.Request == "" {
			return nil, missing("request")
		}
		switch d.Mode {
		case "", "named":
			if d.Name == "" {
				return nil, missing("name")
			}
			return dependency.NewReexportNamed(d.Request, d.Name, d.IDs, d.Order, loc), nil
		case "namespace":
			if d.Name == "" {
				return nil, missing("name")
			}
			return dependency.NewReexportNamespace(d.Request, d.Name, d.Order, loc), nil
		case "star":
			return dependency.NewReexportStar(d.Request, d.Order, loc), nil
		default:
			return nil, errors.New(errors.PhaseLoad, errors.KindUnsupported).
				Path("mode").
				Detail("unknown re-export mode %q", d.Mode).
				Build()
		}
	},
	KindImport: func(d *Dependency, loc dependency.Location, rng dependency.Range) (dependency.Dependency, error) {
		if d.Request == "" {
			return nil, missing("request")
		}
		return dependency.NewImportSideEffect(d.Request, d.Order, rng, loc), nil
	},
	KindImportSpecifier: func(d *Dependency, loc dependency.Location, rng dependency.Range) (dependency.Dependency, error) {
		if d.Request == "" {
			return nil, missing("request")
		}
		return dependency.NewImportSpecifier(d.Request, d.IDs, d.Call, d.Order, rng, loc), nil
	},
	KindDynamicImport: func(d *Dependency, loc dependency.Location, rng dependency.Range) (dependency.Dependency, error) {
		if d.Request == "" {
			return nil, missing("request")
		}
		return dependency.NewDynamicImport(d.Request, rng, loc), nil
	},
	KindCommonJSExport: func(d *Dependency, loc dependency.Location, rng dependency.Range) (dependency.Dependency, error) {
		return dependency.NewCommonJSExports(d.Name, rng, loc), nil
	},
	KindRequire: func(d *Dependency, loc dependency.Location, rng dependency.Range) (dependency.Dependency, error) {
		if d.Request == "" {
			return nil, missing("request")
		}
		return dependency.NewCommonJSRequire(d.Request, rng, loc), nil
	},
	KindProvided: func(d *Dependency, loc dependency.Location, rng dependency.Range) (dependency.Dependency, error) {
		if d.Request == "" {
			return nil, missing("request")
		}
		if d.Name == "" {
			return nil, missing("name")
		}
		return dependency.NewProvided(d.Request, d.Name, d.IDs, rng, loc), nil
	},
}

// Kinds returns the accepted dependency kinds.
func Kinds() []string {
	return []string{
		KindExportSpecifier, KindExportDefault, KindReexport, KindImport,
		KindImportSpecifier, KindDynamicImport, KindCommonJSExport, KindRequire,
		KindProvided,
	}
}

func buildDependency(d *Dependency, sourceLen int) (dependency.Dependency, error) {
	ctor, ok := constructors[d.Kind]
	if !ok {
		return nil, errors.New(errors.PhaseLoad, errors.KindUnsupported).
			Path("kind").
			Detail("unknown dependency kind %q", d.Kind).
			Build()
	}
	loc, err := ParseLocation(d.Loc)
	if err != nil {
		return nil, err
	}
	rng, err := parseRange(d.Range, sourceLen)
	if err != nil {
		return nil, err
	}
	return ctor(d, loc, rng)
}

func missing(field string) error {
	return errors.InvalidData(errors.PhaseLoad, []string{field}, "missing "+field)
}

// ParseLocation parses "line:col-col" or "line:col-line:col". An empty
// string is the zero location.
func ParseLocation(s string) (dependency.Location, error) {
	var loc dependency.Location
	if s == "" {
		return loc, nil
	}
	start, end, ok := strings.Cut(s, "-")
	if !ok {
		return loc, badLoc(s)
	}
	var err error
	if loc.Start, err = parsePosition(start); err != nil {
		return loc, badLoc(s)
	}
	if strings.Contains(end, ":") {
		loc.End, err = parsePosition(end)
	} else {
		loc.End.Line = loc.Start.Line
		var col uint64
		col, err = strconv.ParseUint(end, 10, 32)
		loc.End.Column = uint32(col)
	}
	if err != nil {
		return loc, badLoc(s)
	}
	return loc, nil
}

func parsePosition(s string) (dependency.Position, error) {
	line, col, ok := strings.Cut(s, ":")
	if !ok {
		return dependency.Position{}, fmt.Errorf("position %q", s)
	}
	l, err := strconv.ParseUint(line, 10, 32)
	if err != nil {
		return dependency.Position{}, err
	}
	c, err := strconv.ParseUint(col, 10, 32)
	if err != nil {
		return dependency.Position{}, err
	}
	return dependency.Position{Line: uint32(l), Column: uint32(c)}, nil
}

func badLoc(s string) error {
	return errors.InvalidData(errors.PhaseLoad, []string{"loc"}, fmt.Sprintf("malformed location %q", s))
}

func parseRange(r []int, sourceLen int) (dependency.Range, error) {
	switch {
	case len(r) == 0:
		return dependency.Range{}, nil
	case len(r) != 2:
		return dependency.Range{}, errors.InvalidData(errors.PhaseLoad, []string{"range"}, "range must be [start, end]")
	case r[0] < 0 || r[1] < r[0] || r[1] > sourceLen:
		return dependency.Range{}, errors.InvalidData(errors.PhaseLoad, []string{"range"},
			fmt.Sprintf("range [%d, %d] outside source of length %d", r[0], r[1], sourceLen))
	}
	return dependency.Range{Start: r[0], End: r[1]}, nil
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
