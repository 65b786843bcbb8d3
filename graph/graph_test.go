package graph

import (
	stderrors "errors"
	"testing"

	"github.com/wippyai/jsbundle/dependency"
	"github.com/wippyai/jsbundle/errors"
)

func esm(id string, free bool, deps ...dependency.Dependency) *Module {
	m := NewModule(id, ModuleESM)
	m.SetSideEffectFree(free)
	for _, d := range deps {
		m.AddDependency(d)
	}
	return m
}

func mustLink(t *testing.T, g *Graph, mods ...*Module) {
	t.Helper()
	for _, m := range mods {
		if err := g.AddModule(m); err != nil {
			t.Fatalf("AddModule(%s): %v", m.Identifier(), err)
		}
	}
	if err := g.Link(); err != nil {
		t.Fatalf("Link: %v", err)
	}
}

func TestGraph_Link(t *testing.T) {
	imp := dependency.NewImportSideEffect("./b.js", 0, dependency.Range{}, dependency.Location{})
	spec := dependency.NewExportSpecifier("x", "x", dependency.Location{})

	g := New(Runtime{Name: "main", Entries: []string{"./a.js"}})
	mustLink(t, g, esm("./b.js", true), esm("./a.js", false, imp, spec))

	c, ok := g.Connection(imp.ID())
	if !ok || c.Origin != "./a.js" || c.Module != "./b.js" {
		t.Fatalf("Connection = %+v, %v", c, ok)
	}
	if _, ok := g.Connection(spec.ID()); ok {
		t.Error("export specifier should not create a connection")
	}
	if target, ok := g.ResolvedModule(uint32(imp.ID())); !ok || target != "./b.js" {
		t.Errorf("ResolvedModule = %q, %v", target, ok)
	}
	if parent, _ := g.ParentModule(spec.ID()); parent != "./a.js" {
		t.Errorf("ParentModule = %q", parent)
	}
	if got := g.Incoming("./b.js"); len(got) != 1 {
		t.Errorf("Incoming = %d connections", len(got))
	}
	if g.ExportsInfo("./a.js") == nil || g.ExportsInfo("./b.js") == nil {
		t.Error("Link should register exports info for every module")
	}
	if idx, _ := g.Table().Index("./a.js"); idx != 0 {
		t.Errorf("table index of ./a.js = %d, want 0 (id order)", idx)
	}
	if !g.IsEntry("./a.js") || g.IsEntry("./b.js") {
		t.Error("IsEntry wrong")
	}
}

func TestGraph_LinkErrors(t *testing.T) {
	t.Run("duplicate module", func(t *testing.T) {
		g := New()
		if err := g.AddModule(esm("./a.js", true)); err != nil {
			t.Fatal(err)
		}
		err := g.AddModule(esm("./a.js", true))
		var e *errors.Error
		if !stderrors.As(err, &e) || e.Kind != errors.KindConflict {
			t.Errorf("err = %v, want conflict", err)
		}
	})

	t.Run("unresolved request", func(t *testing.T) {
		g := New()
		req := dependency.NewCommonJSRequire("./missing.js", dependency.Range{}, dependency.Location{})
		if err := g.AddModule(esm("./a.js", true, req)); err != nil {
			t.Fatal(err)
		}
		err := g.Link()
		var e *errors.Error
		if !stderrors.As(err, &e) || e.Kind != errors.KindNotFound || e.Phase != errors.PhaseLoad {
			t.Errorf("err = %v, want load not_found", err)
		}
	})

	t.Run("missing entry", func(t *testing.T) {
		g := New(Runtime{Name: "main", Entries: []string{"./nope.js"}})
		if err := g.Link(); err == nil {
			t.Error("expected error for missing entry")
		}
	})
}

func TestGraph_MustModulePanics(t *testing.T) {
	g := New()
	defer func() {
		if r := recover(); !errors.IsInvariant(r) {
			t.Errorf("recovered %v, want invariant", r)
		}
	}()
	g.MustModule("./ghost.js")
}

func TestGraph_ModuleEvaluationSideEffects(t *testing.T) {
	loc := dependency.Location{}
	g := New()
	mustLink(t, g,
		esm("./pure.js", true),
		esm("./effect.js", false),
		esm("./uses-effect.js", true, dependency.NewImportSideEffect("./effect.js", 0, dependency.Range{}, loc)),
		esm("./cycle-a.js", true, dependency.NewImportSideEffect("./cycle-b.js", 0, dependency.Range{}, loc)),
		esm("./cycle-b.js", true, dependency.NewImportSideEffect("./cycle-a.js", 0, dependency.Range{}, loc)),
		esm("./reexport.js", true, dependency.NewReexportStar("./pure.js", 0, loc)),
	)

	tests := []struct {
		module string
		want   dependency.ConnectionState
	}{
		{"./pure.js", dependency.ConnectionFalse},
		{"./effect.js", dependency.ConnectionTrue},
		{"./uses-effect.js", dependency.ConnectionTrue},
		{"./cycle-a.js", dependency.ConnectionMaybe},
		{"./reexport.js", dependency.ConnectionFalse},
	}
	for _, tt := range tests {
		t.Run(tt.module, func(t *testing.T) {
			if got := g.ModuleEvaluationSideEffects(tt.module, nil); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseModuleType(t *testing.T) {
	if typ, ok := ParseModuleType("cjs"); !ok || typ != ModuleCommonJS {
		t.Errorf("cjs = %v, %v", typ, ok)
	}
	if _, ok := ParseModuleType("wasm"); ok {
		t.Error("wasm should not parse")
	}
}
