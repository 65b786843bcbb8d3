// Package manifest loads a module graph from a TOML description.
//
// A manifest lists runtimes, modules and the dependencies already
// extracted from each module's source:
//
//	version = "1.0"
//
//	[[runtime]]
//	name = "main"
//	entries = ["./entry.js"]
//
//	[[module]]
//	id = "./m.js"
//	type = "esm"
//	side_effects = false
//	source = "const a_1 = 1;\n"
//
//	[[module.dependency]]
//	kind = "export_specifier"
//	name = "b"
//	value = "a_1"
//	loc = "1:0-10"
//
// Requests name target module identifiers directly. Manifest problems are
// returned as errors of phase load; they are user input, not invariants.
package manifest

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"

	"github.com/Masterminds/semver/v3"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/sync/errgroup"

	"github.com/wippyai/jsbundle/errors"
	"github.com/wippyai/jsbundle/graph"
)

// SupportedVersion is the manifest format constraint this package reads.
const SupportedVersion = "^1.0"

// Manifest is the decoded form of a manifest file.
type Manifest struct {
	Version  string    `toml:"version"`
	Runtimes []Runtime `toml:"runtime"`
	Modules  []Module  `toml:"module"`

	// dir resolves source_file paths; empty means the working directory.
	dir string
}

// Runtime is a [[runtime]] table.
type Runtime struct {
	Name    string   `toml:"name"`
	Entries []string `toml:"entries"`
}

// Module is a [[module]] table.
type Module struct {
	ID              string       `toml:"id"`
	Type            string       `toml:"type"`
	SideEffects     *bool        `toml:"side_effects"`
	Source          string       `toml:"source"`
	SourceFile      string       `toml:"source_file"`
	ExportsArgument string       `toml:"exports_argument"`
	Dependencies    []Dependency `toml:"dependency"`
}

// Dependency is a [[module.dependency]] table. Which fields apply depends
// on Kind.
type Dependency struct {
	Kind        string   `toml:"kind"`
	Name        string   `toml:"name"`
	Value       string   `toml:"value"`
	Declaration string   `toml:"declaration"`
	Request     string   `toml:"request"`
	Mode        string   `toml:"mode"`
	IDs         []string `toml:"ids"`
	Order       int      `toml:"order"`
	Call        bool     `toml:"call"`
	Loc         string   `toml:"loc"`
	Range       []int    `toml:"range"`
}

// Load reads and builds the manifest at path. source_file entries are
// resolved relative to the manifest's directory.
func Load(ctx context.Context, path string) (*graph.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Load("read manifest "+path, err)
	}
	m, err := Decode(data)
	if err != nil {
		return nil, err
	}
	m.dir = filepath.Dir(path)
	return m.Build(ctx)
}

// Parse decodes and builds a manifest held in memory.
func Parse(ctx context.Context, data []byte) (*graph.Graph, error) {
	m, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return m.Build(ctx)
}

// Decode parses manifest TOML and checks its version. Unknown keys are
// rejected.
func Decode(data []byte) (*Manifest, error) {
	var m Manifest
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		return nil, errors.ParseFailed("manifest", err)
	}
	if err := checkVersion(m.Version); err != nil {
		return nil, err
	}
	return &m, nil
}

func checkVersion(v string) error {
	if v == "" {
		return errors.InvalidData(errors.PhaseLoad, []string{"version"}, "missing manifest version")
	}
	version, err := semver.NewVersion(v)
	if err != nil {
		return errors.Wrap(errors.PhaseLoad, errors.KindInvalidData, err, "manifest version "+v)
	}
	constraint, err := semver.NewConstraint(SupportedVersion)
	if err != nil {
		return errors.Wrap(errors.PhaseLoad, errors.KindInvariant, err, "supported version constraint")
	}
	if !constraint.Check(version) {
		return errors.New(errors.PhaseLoad, errors.KindUnsupported).
			Path("version").
			Detail("manifest version %s does not satisfy %s", v, SupportedVersion).
			Build()
	}
	return nil
}

// Build creates the graph described by m and links it. Modules are built
// in parallel; each dependency list is owned by its builder until the
// module is added to the graph.
func (m *Manifest) Build(ctx context.Context) (*graph.Graph, error) {
	if len(m.Runtimes) == 0 {
		return nil, errors.InvalidData(errors.PhaseLoad, []string{"runtime"}, "manifest declares no runtime")
	}
	runtimes := make([]graph.Runtime, 0, len(m.Runtimes))
	for i, r := range m.Runtimes {
		if r.Name == "" {
			return nil, errors.InvalidData(errors.PhaseLoad, []string{"runtime", itoa(i), "name"}, "runtime without a name")
		}
		runtimes = append(runtimes, graph.Runtime{Name: r.Name, Entries: r.Entries})
	}
	g := graph.New(runtimes...)

	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i := range m.Modules {
		spec := &m.Modules[i]
		eg.Go(func() error {
			if err := ectx.Err(); err != nil {
				return errors.Canceled(errors.PhaseLoad, err)
			}
			mod, err := m.buildModule(i, spec)
			if err != nil {
				return err
			}
			return g.AddModule(mod)
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	if err := g.Link(); err != nil {
		return nil, err
	}
	return g, nil
}

func (m *Manifest) buildModule(i int, spec *Module) (*graph.Module, error) {
	path := []string{"module", itoa(i)}
	if spec.ID == "" {
		return nil, errors.InvalidData(errors.PhaseLoad, append(path, "id"), "module without an id")
	}
	typ, ok := graph.ParseModuleType(spec.Type)
	if !ok {
		return nil, errors.New(errors.PhaseLoad, errors.KindUnsupported).
			Module(spec.ID).
			Path(append(path, "type")...).
			Detail("unknown module type %q", spec.Type).
			Build()
	}

	mod := graph.NewModule(spec.ID, typ)
	if spec.ExportsArgument != "" {
		mod.SetExportsArgument(spec.ExportsArgument)
	}
	if spec.SideEffects != nil {
		mod.SetSideEffectFree(!*spec.SideEffects)
	}

	source := spec.Source
	if spec.SourceFile != "" {
		if source != "" {
			return nil, errors.InvalidData(errors.PhaseLoad, path, "module sets both source and source_file")
		}
		file := spec.SourceFile
		if !filepath.IsAbs(file) {
			file = filepath.Join(m.dir, file)
		}
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, errors.Load("read source of "+spec.ID, err)
		}
		source = string(data)
	}
	mod.SetSource(source)

	for j := range spec.Dependencies {
		d, err := buildDependency(&spec.Dependencies[j], len(source))
		if err != nil {
			if e, ok := err.(*errors.Error); ok {
				e.Module = spec.ID
				e.Path = append(append(path, "dependency", itoa(j)), e.Path...)
			}
			return nil, err
		}
		mod.AddDependency(d)
	}
	return mod, nil
}
