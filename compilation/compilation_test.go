package compilation

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/wippyai/jsbundle/codegen"
	"github.com/wippyai/jsbundle/dependency"
	"github.com/wippyai/jsbundle/errors"
	"github.com/wippyai/jsbundle/graph"
	"github.com/wippyai/jsbundle/linker"
)

var noLoc dependency.Location

func esm(id, source string, deps ...dependency.Dependency) *graph.Module {
	m := graph.NewModule(id, graph.ModuleESM)
	m.SetSource(source)
	m.SetSideEffectFree(true)
	for _, d := range deps {
		m.AddDependency(d)
	}
	return m
}

func linked(t *testing.T, runtimes []graph.Runtime, mods ...*graph.Module) *graph.Graph {
	t.Helper()
	g := graph.New(runtimes...)
	for _, m := range mods {
		if err := g.AddModule(m); err != nil {
			t.Fatalf("AddModule: %v", err)
		}
	}
	if err := g.Link(); err != nil {
		t.Fatalf("Link: %v", err)
	}
	return g
}

func sealed(t *testing.T, g *graph.Graph, opts Options, options ...Option) *Compilation {
	t.Helper()
	c, err := New(g, opts, options...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := c.Seal(context.Background()); err != nil {
		t.Fatalf("Seal: %v", err)
	}
	return c
}

// scenarioGraph: ./m.js exports b bound to a_1; r1 never imports it, r2
// reads it at offset 4 of its source.
func scenarioGraph(t *testing.T) *graph.Graph {
	return linked(t,
		[]graph.Runtime{
			{Name: "r1", Entries: []string{"./r1.js"}},
			{Name: "r2", Entries: []string{"./r2.js"}},
		},
		esm("./m.js", "const a_1 = 1;\n", dependency.NewExportSpecifier("b", "a_1", noLoc)),
		esm("./r1.js", "r1();\n"),
		esm("./r2.js", "log(b);\n",
			dependency.NewImportSideEffect("./m.js", 0, dependency.Range{}, noLoc),
			dependency.NewImportSpecifier("./m.js", []string{"b"}, false, 0, dependency.Range{Start: 4, End: 5}, noLoc),
		),
	)
}

func TestCodeGeneration_PerRuntime(t *testing.T) {
	opts := DefaultOptions()
	opts.Mangle = linker.MangleOff
	c := sealed(t, scenarioGraph(t), opts)

	res, err := c.CodeGeneration(context.Background())
	if err != nil {
		t.Fatalf("CodeGeneration: %v", err)
	}
	if _, ok := res.Get("./m.js", "r1"); ok {
		t.Error("./m.js is not part of r1")
	}
	m, ok := res.Get("./m.js", "r2")
	if !ok {
		t.Fatal("missing ./m.js in r2")
	}
	want := "/* ESM exports */ __webpack_require__.d(__webpack_exports__, {\n  b: () => (a_1)\n});\nconst a_1 = 1;\n"
	if diff := cmp.Diff(want, m.Source); diff != "" {
		t.Errorf("./m.js mismatch (-want +got):\n%s", diff)
	}

	entry, _ := res.Get("./r2.js", "r2")
	if !strings.Contains(entry.Source, "log(___m_js__WEBPACK_IMPORTED_MODULE_0__.b);") {
		t.Errorf("entry source = %q", entry.Source)
	}
	if res.Len() != 3 {
		t.Errorf("results = %d, want r1 entry, r2 entry and ./m.js", res.Len())
	}
}

func TestCodeGeneration_Concatenated(t *testing.T) {
	opts := DefaultOptions()
	opts.Mangle = linker.MangleOff
	opts.Concatenate = true
	g := linked(t,
		[]graph.Runtime{{Name: "main", Entries: []string{"./entry.js"}}},
		esm("./m.js", "const a_1 = 1;\n", dependency.NewExportSpecifier("b", "a_1", noLoc)),
		esm("./entry.js", "log(b);\n",
			dependency.NewImportSideEffect("./m.js", 0, dependency.Range{}, noLoc),
			dependency.NewImportSpecifier("./m.js", []string{"b"}, false, 0, dependency.Range{Start: 4, End: 5}, noLoc),
		),
	)
	c := sealed(t, g, opts)

	if root, ok := c.Plan().Root("./m.js"); !ok || root != "./entry.js" {
		t.Fatalf("Root(./m.js) = %q, %v", root, ok)
	}

	res, err := c.CodeGeneration(context.Background())
	if err != nil {
		t.Fatalf("CodeGeneration: %v", err)
	}
	m, _ := res.Get("./m.js", "main")
	if len(m.Fragments) != 0 {
		t.Errorf("inlined module emitted %d fragments", len(m.Fragments))
	}
	if diff := cmp.Diff("const a_1 = 1;\n", m.Source); diff != "" {
		t.Errorf("inlined source mismatch (-want +got):\n%s", diff)
	}
	entry, _ := res.Get("./entry.js", "main")
	if entry.Source != "log(a_1);\n" {
		t.Errorf("entry source = %q, want reference linked to a_1", entry.Source)
	}
	if got := testutil.ToFloat64(c.metrics.concatRegistered); got != 1 {
		t.Errorf("concatenation registrations = %v", got)
	}
}

func TestCodeGeneration_RootExposesExports(t *testing.T) {
	opts := DefaultOptions()
	opts.Mangle = linker.MangleOff
	opts.Concatenate = true
	opts.LibraryExports = true
	g := linked(t,
		[]graph.Runtime{{Name: "main", Entries: []string{"./lib.js"}}},
		esm("./lib.js", "",
			dependency.NewReexportNamed("./impl.js", "api", []string{"impl"}, 0, noLoc),
		),
		esm("./impl.js", "function impl() {}\n", dependency.NewExportSpecifier("impl", "impl", noLoc)),
	)
	c := sealed(t, g, opts)

	res, err := c.CodeGeneration(context.Background())
	if err != nil {
		t.Fatalf("CodeGeneration: %v", err)
	}
	lib, _ := res.Get("./lib.js", "main")
	want := "/* ESM exports */ __webpack_require__.d(__webpack_exports__, {\n  api: () => (impl)\n});\n"
	if diff := cmp.Diff(want, lib.Source); diff != "" {
		t.Errorf("root source mismatch (-want +got):\n%s", diff)
	}
}

// concatenate seals g with concatenation on and returns every result.
func concatenate(t *testing.T, g *graph.Graph) (*Compilation, *Results) {
	t.Helper()
	opts := DefaultOptions()
	opts.Mangle = linker.MangleOff
	opts.Concatenate = true
	c := sealed(t, g, opts)
	res, err := c.CodeGeneration(context.Background())
	if err != nil {
		t.Fatalf("CodeGeneration: %v", err)
	}
	for _, r := range res.All() {
		if strings.Contains(r.Source, codegen.ModuleReferencePrefix) {
			t.Errorf("%s keeps a module reference placeholder:\n%s", r.Module, r.Source)
		}
	}
	return c, res
}

func TestCodeGeneration_ConcatenatedNamespaceImport(t *testing.T) {
	g := linked(t,
		[]graph.Runtime{{Name: "main", Entries: []string{"./entry.js"}}},
		esm("./m.js", "const a_1 = 1;\n", dependency.NewExportSpecifier("b", "a_1", noLoc)),
		esm("./entry.js", "log(ns);\n",
			dependency.NewImportSideEffect("./m.js", 0, dependency.Range{}, noLoc),
			dependency.NewImportSpecifier("./m.js", nil, false, 0, dependency.Range{Start: 4, End: 6}, noLoc),
		),
	)
	c, res := concatenate(t, g)

	if _, ok := c.Plan().Root("./m.js"); ok {
		t.Error("a module read as a namespace object must keep its exports object")
	}
	entry, _ := res.Get("./entry.js", "main")
	if !strings.HasSuffix(entry.Source, "log(___m_js__WEBPACK_IMPORTED_MODULE_0__);\n") {
		t.Errorf("entry source = %q", entry.Source)
	}
	m, _ := res.Get("./m.js", "main")
	if !strings.Contains(m.Source, "b: () => (a_1)") {
		t.Errorf("./m.js source = %q, want getter for b", m.Source)
	}
}

func TestCodeGeneration_ConcatenatedReexportChain(t *testing.T) {
	g := linked(t,
		[]graph.Runtime{{Name: "main", Entries: []string{"./a.js"}}},
		esm("./a.js", "log(x);\n",
			dependency.NewImportSideEffect("./b.js", 0, dependency.Range{}, noLoc),
			dependency.NewImportSpecifier("./b.js", []string{"x"}, false, 0, dependency.Range{Start: 4, End: 5}, noLoc),
		),
		esm("./b.js", "", dependency.NewReexportNamed("./c.js", "x", nil, 0, noLoc)),
		esm("./c.js", "const x_1 = 1;\n", dependency.NewExportSpecifier("x", "x_1", noLoc)),
	)
	c, res := concatenate(t, g)

	if diff := cmp.Diff([]string{"./a.js", "./b.js", "./c.js"}, c.Plan().Group("./a.js")); diff != "" {
		t.Fatalf("group mismatch (-want +got):\n%s", diff)
	}
	a, _ := res.Get("./a.js", "main")
	if diff := cmp.Diff("log(x_1);\n", a.Source); diff != "" {
		t.Errorf("./a.js mismatch (-want +got):\n%s", diff)
	}
}

func TestCodeGeneration_ConcatenatedLocalOutranksReexport(t *testing.T) {
	g := linked(t,
		[]graph.Runtime{{Name: "main", Entries: []string{"./entry.js"}}},
		esm("./entry.js", "log(a);\n",
			dependency.NewImportSideEffect("./m.js", 0, dependency.Range{}, noLoc),
			dependency.NewImportSpecifier("./m.js", []string{"a"}, false, 0, dependency.Range{Start: 4, End: 5}, noLoc),
		),
		esm("./m.js", "const a_local = 1;\n",
			dependency.NewReexportNamed("./x.js", "a", nil, 0, noLoc),
			dependency.NewExportSpecifier("a", "a_local", noLoc),
		),
		esm("./x.js", "const a_x = 2;\n", dependency.NewExportSpecifier("a", "a_x", noLoc)),
	)
	c, res := concatenate(t, g)

	if root, ok := c.Plan().Root("./m.js"); !ok || root != "./entry.js" {
		t.Fatalf("Root(./m.js) = %q, %v", root, ok)
	}
	entry, _ := res.Get("./entry.js", "main")
	if diff := cmp.Diff("log(a_local);\n", entry.Source); diff != "" {
		t.Errorf("entry mismatch (-want +got):\n%s", diff)
	}
}

func TestCodeGeneration_ConcatenatedProvided(t *testing.T) {
	g := linked(t,
		[]graph.Runtime{{Name: "main", Entries: []string{"./entry.js"}}},
		esm("./entry.js", "Mod();\n",
			dependency.NewProvided("./esm.js", "Mod", []string{"default"}, dependency.Range{Start: 0, End: 3}, noLoc),
		),
		esm("./esm.js", "function def() {}\n", dependency.NewExportSpecifier("default", "def", noLoc)),
	)
	_, res := concatenate(t, g)

	entry, _ := res.Get("./entry.js", "main")
	want := "/* provided dependency */ var __webpack_provided_Mod = def;\n__webpack_provided_Mod();\n"
	if diff := cmp.Diff(want, entry.Source); diff != "" {
		t.Errorf("entry mismatch (-want +got):\n%s", diff)
	}
}

// wideGraph has an entry importing one export from each of n leaves.
func wideGraph(t *testing.T, n int) *graph.Graph {
	var entryDeps []dependency.Dependency
	var mods []*graph.Module
	var src strings.Builder
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("./leaf%02d.js", i)
		name := fmt.Sprintf("export%02d", i)
		mods = append(mods, esm(id, "const v = 1;\n",
			dependency.NewExportSpecifier(name, "v", noLoc),
			dependency.NewExportSpecifier("unused", "v", noLoc),
		))
		start := src.Len()
		src.WriteString(name + ";\n")
		entryDeps = append(entryDeps,
			dependency.NewImportSideEffect(id, i, dependency.Range{}, noLoc),
			dependency.NewImportSpecifier(id, []string{name}, false, i, dependency.Range{Start: start, End: start + len(name)}, noLoc))
	}
	mods = append(mods, esm("./entry.js", src.String(), entryDeps...))
	return linked(t, []graph.Runtime{{Name: "main", Entries: []string{"./entry.js"}}}, mods...)
}

func TestCodeGeneration_ParallelEqualsSequential(t *testing.T) {
	generateAll := func(parallelism int) []string {
		opts := DefaultOptions()
		opts.Parallelism = parallelism
		c := sealed(t, wideGraph(t, 40), opts)
		res, err := c.CodeGeneration(context.Background())
		if err != nil {
			t.Fatalf("CodeGeneration: %v", err)
		}
		var out []string
		for _, r := range res.All() {
			out = append(out, r.Module+"\n"+r.Source)
		}
		return out
	}

	seq := generateAll(1)
	par := generateAll(16)
	if diff := cmp.Diff(seq, par); diff != "" {
		t.Errorf("parallel output differs (-sequential +parallel):\n%s", diff)
	}
}

func TestCodeGeneration_Cache(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := sealed(t, wideGraph(t, 4), DefaultOptions(), WithRegisterer(reg))

	if _, err := c.CodeGeneration(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if _, err := c.CodeGeneration(context.Background()); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if got := testutil.ToFloat64(c.metrics.cacheMisses); got != 5 {
		t.Errorf("cache misses = %v, want 5", got)
	}
	if got := testutil.ToFloat64(c.metrics.cacheHits); got != 5 {
		t.Errorf("cache hits = %v, want 5", got)
	}
	if n, err := testutil.GatherAndCount(reg, "jsbundle_codegen_cache_hits_total"); err != nil || n != 1 {
		t.Errorf("registered hits metric count = %d, %v", n, err)
	}
}

func TestCodeGeneration_RequiresSeal(t *testing.T) {
	c, err := New(scenarioGraph(t), DefaultOptions())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = c.CodeGeneration(context.Background())
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != errors.KindInvalidInput {
		t.Errorf("err = %v, want invalid_input", err)
	}
}

func TestCodeGeneration_Canceled(t *testing.T) {
	c := sealed(t, wideGraph(t, 8), DefaultOptions())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.CodeGeneration(ctx)
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != errors.KindCanceled {
		t.Errorf("err = %v, want canceled", err)
	}
}

func TestSeal_CanceledResetsTable(t *testing.T) {
	g := scenarioGraph(t)
	c, err := New(g, DefaultOptions())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := c.Seal(ctx); err == nil {
		t.Fatal("Seal with canceled context succeeded")
	}
	if c.Sealed() || g.Table().Frozen() || g.Table().Resolved() {
		t.Error("canceled Seal must leave the compilation unsealed and the table open")
	}
	if err := c.Seal(context.Background()); err != nil {
		t.Fatalf("Seal after cancel: %v", err)
	}
}

func TestSeal_MissingExportsAreWarnings(t *testing.T) {
	g := linked(t,
		[]graph.Runtime{{Name: "main", Entries: []string{"./entry.js"}}},
		esm("./m.js", "", dependency.NewExportSpecifier("b", "b", noLoc)),
		esm("./entry.js", "nope;",
			dependency.NewImportSideEffect("./m.js", 0, dependency.Range{}, noLoc),
			dependency.NewImportSpecifier("./m.js", []string{"nope"}, false, 0, dependency.Range{Start: 0, End: 4}, noLoc),
		),
	)
	c := sealed(t, g, DefaultOptions())
	if c.MissingExports() == nil {
		t.Fatal("MissingExports() = nil")
	}
	res, err := c.CodeGeneration(context.Background())
	if err != nil {
		t.Fatalf("CodeGeneration: %v", err)
	}
	entry, _ := res.Get("./entry.js", "main")
	if !strings.Contains(entry.Source, "__WEBPACK_IMPORTED_MODULE_0__.nope;") {
		t.Errorf("entry source = %q", entry.Source)
	}
}

func TestNew_InvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Options)
	}{
		{"parallelism", func(o *Options) { o.Parallelism = 0 }},
		{"cache", func(o *Options) { o.CacheSize = -1 }},
		{"mangle", func(o *Options) { o.Mangle = 9 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mod(&opts)
			if _, err := New(scenarioGraph(t), opts); err == nil {
				t.Error("New accepted invalid options")
			}
		})
	}
}

func TestNew_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := New(scenarioGraph(t), DefaultOptions(), WithRegisterer(reg)); err != nil {
		t.Fatalf("first New: %v", err)
	}
	if _, err := New(scenarioGraph(t), DefaultOptions(), WithRegisterer(reg)); err == nil {
		t.Error("second registration into the same registry should fail")
	}
}

func TestAffectedModules(t *testing.T) {
	cjs := graph.NewModule("./legacy.js", graph.ModuleCommonJS)
	cjs.AddDependency(dependency.NewCommonJSRequire("./entry.js", dependency.Range{}, noLoc))
	g := linked(t,
		[]graph.Runtime{{Name: "main", Entries: []string{"./top.js"}}},
		esm("./leaf.js", "", dependency.NewExportSpecifier("y", "y", noLoc)),
		esm("./mid.js", "", dependency.NewReexportNamed("./leaf.js", "x", []string{"y"}, 0, noLoc)),
		esm("./entry.js", "",
			dependency.NewImportSpecifier("./mid.js", []string{"x"}, false, 0, dependency.Range{}, noLoc)),
		esm("./top.js", "",
			dependency.NewImportSpecifier("./entry.js", []string{"z"}, false, 0, dependency.Range{}, noLoc)),
		cjs,
		esm("./other.js", ""),
	)

	got := AffectedModules(g, []string{"./leaf.js", "./ghost.js"})
	want := []string{"./entry.js", "./leaf.js", "./mid.js"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("AffectedModules mismatch (-want +got):\n%s", diff)
	}

	got = AffectedModules(g, []string{"./entry.js"})
	want = []string{"./entry.js", "./legacy.js", "./top.js"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("AffectedModules mismatch (-want +got):\n%s", diff)
	}
}

func TestPlanConcatenation(t *testing.T) {
	g := linked(t,
		[]graph.Runtime{{Name: "main", Entries: []string{"./entry.js"}}},
		esm("./entry.js", "",
			dependency.NewImportSideEffect("./a.js", 0, dependency.Range{}, noLoc),
			dependency.NewImportSideEffect("./shared.js", 1, dependency.Range{}, noLoc),
			dependency.NewDynamicImport("./lazy.js", dependency.Range{}, noLoc),
		),
		esm("./a.js", "",
			dependency.NewImportSideEffect("./b.js", 0, dependency.Range{}, noLoc),
			dependency.NewImportSideEffect("./shared.js", 1, dependency.Range{}, noLoc),
		),
		esm("./b.js", ""),
		esm("./shared.js", ""),
		esm("./lazy.js", ""),
	)

	sealed(t, g, DefaultOptions())
	p := PlanConcatenation(g)
	if diff := cmp.Diff([]string{"./entry.js"}, p.Roots()); diff != "" {
		t.Errorf("roots mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"./entry.js", "./a.js", "./b.js"}, p.Group("./entry.js")); diff != "" {
		t.Errorf("group mismatch (-want +got):\n%s", diff)
	}
	for _, id := range []string{"./shared.js", "./lazy.js"} {
		if _, ok := p.Root(id); ok {
			t.Errorf("%s must not be concatenated", id)
		}
	}
}

func TestResolveReference(t *testing.T) {
	toB := codegen.ModuleReference{Index: 1, Module: "./b.js", IDs: []string{"x", "y"}, Call: true}
	toA := codegen.ModuleReference{Index: 0, Module: "./a.js", IDs: []string{"x"}}
	build := func(list ...*codegen.Result) *Results {
		r := &Results{list: list, index: make(map[string]int)}
		for i, res := range list {
			r.index[resultKey(res.Module, res.Runtime)] = i
		}
		return r
	}

	bound := build(
		&codegen.Result{Module: "./a.js", Runtime: "main"},
		&codegen.Result{Module: "./b.js", Runtime: "main",
			ConcatenatedExports: []codegen.ExportPair{{Name: "x", Value: "ns_b"}}},
	)
	sym, ok := resolveReference(bound, "main", toB, make(map[string]struct{}))
	if !ok || sym != "(0,ns_b.y)" {
		t.Errorf("resolveReference = %q, %v", sym, ok)
	}

	loop := build(
		&codegen.Result{Module: "./a.js", Runtime: "main",
			ConcatenatedExports: []codegen.ExportPair{{Name: "x", Value: toB.Name()}},
			References:          []codegen.ModuleReference{toB}},
		&codegen.Result{Module: "./b.js", Runtime: "main",
			ConcatenatedExports: []codegen.ExportPair{{Name: "x", Value: toA.Name()}},
			References:          []codegen.ModuleReference{toA}},
	)
	if sym, ok := resolveReference(loop, "main", toA, make(map[string]struct{})); ok {
		t.Errorf("cyclic reference resolved to %q", sym)
	}
	if _, ok := resolveReference(bound, "main", codegen.ModuleReference{Module: "./b.js"}, make(map[string]struct{})); ok {
		t.Error("namespace reference should not resolve")
	}
}
