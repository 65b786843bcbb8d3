package exports

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/jsbundle/errors"
	"github.com/wippyai/jsbundle/runtime"
)

func TestTable_Register(t *testing.T) {
	tbl := NewTable("main", "worker", "main")

	if got := tbl.Runtimes(); !cmp.Equal(got, []string{"main", "worker"}) {
		t.Errorf("Runtimes() = %v", got)
	}

	a := tbl.Register("./a.js")
	if again := tbl.Register("./a.js"); again != a {
		t.Error("Register should return the existing info")
	}
	tbl.Register("./b.js")

	if idx, ok := tbl.Index("./b.js"); !ok || idx != 1 {
		t.Errorf("Index(./b.js) = %d, %v", idx, ok)
	}
	if tbl.Info("./missing.js") != nil {
		t.Error("Info of unregistered module should be nil")
	}
	if tbl.Len() != 2 {
		t.Errorf("Len() = %d", tbl.Len())
	}
}

func TestTable_FreezeBlocksMutation(t *testing.T) {
	tbl := NewTable("main")
	info := tbl.Register("./a.js")
	info.Export("x")
	tbl.Freeze()

	// Reads stay legal.
	if info.ReadExport("x") == nil {
		t.Fatal("ReadExport after freeze returned nil")
	}

	defer func() {
		if r := recover(); !errors.IsInvariant(r) {
			t.Fatalf("mutation after freeze: recovered %v, want invariant", r)
		}
	}()
	info.Export("y")
}

func TestTable_Reset(t *testing.T) {
	tbl := NewTable("main")
	info := tbl.Register("./a.js")
	info.Export("x").SetProvided(ProvidedYes)
	tbl.MarkResolved()
	tbl.Freeze()

	tbl.Reset()

	if tbl.Frozen() || tbl.Resolved() {
		t.Error("Reset should reopen the table")
	}
	fresh := tbl.Info("./a.js")
	if fresh == nil {
		t.Fatal("Reset must keep registrations")
	}
	if _, ok := fresh.Lookup("x"); ok {
		t.Error("Reset must discard export state")
	}
}

func TestExportInfo_ProviderPriority(t *testing.T) {
	tbl := NewTable("main")
	e := tbl.Register("./m.js").Export("x")

	starTarget := &Target{Module: "./other.js", Export: []string{"x"}, Dependency: 9}
	e.AddProvider(9, 0, 0, false, starTarget)
	if got := e.Target(); got != starTarget {
		t.Fatalf("Target() = %+v, want star target", got)
	}

	// A local binding with higher priority wins even when declared later.
	e.AddProvider(3, 5, 1, true, nil)
	if e.Target() != nil {
		t.Error("terminal binding should hide the re-export target")
	}
	if !e.TerminalBinding() {
		t.Error("TerminalBinding() should be true")
	}
	if dep, _ := e.ProvidedBy(); dep != 3 {
		t.Errorf("ProvidedBy() = %d, want 3", dep)
	}
}

func TestExportInfo_EqualPriorityEarlierWins(t *testing.T) {
	tbl := NewTable("main")
	e := tbl.Register("./m.js").Export("x")

	late := &Target{Module: "./late.js", Export: []string{"x"}, Dependency: 1}
	early := &Target{Module: "./early.js", Export: []string{"x"}, Dependency: 2}
	e.AddProvider(1, 4, 0, false, late)
	e.AddProvider(2, 1, 0, false, early)

	if got := e.Target(); got != early {
		t.Errorf("Target() = %+v, want earlier declaration", got)
	}

	if e.AddProvider(2, 1, 0, false, early) {
		t.Error("re-adding an identical provider should not report a change")
	}
	if !e.RemoveProvider(2) {
		t.Error("RemoveProvider should report removal")
	}
	if got := e.Target(); got != late {
		t.Errorf("Target() after removal = %+v", got)
	}
}

func TestExportInfo_UsageLattice(t *testing.T) {
	tbl := NewTable("r1", "r2")
	info := tbl.Register("./m.js")
	e := info.Export("b")

	if !e.SetUsed(1, nil) {
		t.Fatal("first SetUsed should change state")
	}
	if e.SetUsed(1, nil) {
		t.Error("second SetUsed should be a no-op")
	}
	if e.SetUsed(1, []string{"prop"}) {
		t.Error("property use must not lower a Used export")
	}

	info.Finalize(0)
	info.Finalize(1)

	if got := e.Usage(runtime.New("r1")); got != UsageUnused {
		t.Errorf("r1 usage = %v, want unused", got)
	}
	if got := e.Usage(runtime.New("r2")); got != UsageUsed {
		t.Errorf("r2 usage = %v, want used", got)
	}
	if got := e.Usage(nil); got != UsageUsed {
		t.Errorf("wildcard usage = %v, want used", got)
	}
}

func TestExportInfo_OnlyPropertiesUsed(t *testing.T) {
	tbl := NewTable("main")
	info := tbl.Register("./m.js")
	ns := info.Export("ns")

	ns.SetUsed(0, []string{"a"})
	if got := ns.UsageFor(0); got != UsageOnlyPropertiesUsed {
		t.Fatalf("usage = %v, want only-properties-used", got)
	}
	nested := ns.Nested()
	if nested == nil {
		t.Fatal("nested info should exist")
	}
	if got := nested.ReadExport("a").UsageFor(0); got != UsageUsed {
		t.Errorf("nested a usage = %v", got)
	}

	ns.SetUsed(0, nil)
	if got := ns.UsageFor(0); got != UsageUsed {
		t.Errorf("usage after full use = %v", got)
	}
}

func TestInfo_SetUsedInUnknownWay(t *testing.T) {
	tbl := NewTable("main")
	info := tbl.Register("./m.js")
	a := info.Export("a")

	if !info.SetUsedInUnknownWay(0) {
		t.Fatal("expected change")
	}
	if a.UsageFor(0) != UsageUsed {
		t.Error("listed export should be used")
	}
	if a.CanMangle() {
		t.Error("unknown use must disable mangling")
	}
	if !info.UsedInUnknownWay(nil) {
		t.Error("UsedInUnknownWay should be true")
	}

	// New names inherit from the other slot.
	late := info.Export("late")
	if late.UsageFor(0) != UsageUsed || late.CanMangle() {
		t.Error("export created after unknown use should inherit usage")
	}
}

func TestInfo_ProvideInfo(t *testing.T) {
	tbl := NewTable("main")
	info := tbl.Register("./m.js")
	info.Export("a").SetProvided(ProvidedYes)
	info.Export("b")

	if got := info.IsExportProvided("zzz"); got != ProvidedUnknown {
		t.Errorf("before provide info: %v", got)
	}

	info.SetHasProvideInfo()

	if got := info.ProvidedNames(); !cmp.Equal(got, []string{"a"}) {
		t.Errorf("ProvidedNames() = %v", got)
	}
	if got := info.IsExportProvided("b"); got != ProvidedNo {
		t.Errorf("b provided = %v", got)
	}
	if got := info.IsExportProvided("zzz"); got != ProvidedNo {
		t.Errorf("zzz provided = %v", got)
	}
	if info.OtherProvided() {
		t.Error("other should not be provided")
	}
}

func TestInfo_SetUnknownExportsProvided(t *testing.T) {
	tbl := NewTable("main")
	info := tbl.Register("./cjs.js")
	info.Export("keep")
	info.Export("skip")

	info.SetUnknownExportsProvided(false, []string{"skip"})
	info.SetHasProvideInfo()

	if got := info.IsExportProvided("keep"); got != ProvidedYes {
		t.Errorf("keep = %v", got)
	}
	if got := info.IsExportProvided("skip"); got != ProvidedNo {
		t.Errorf("skip = %v", got)
	}
	if got := info.IsExportProvided("anything"); got != ProvidedUnknown {
		t.Errorf("anything = %v", got)
	}
	if info.ReadExport("keep").CanMangle() {
		t.Error("canMangle false should disable mangling")
	}
}

func TestExportInfo_ResolveTarget(t *testing.T) {
	tbl := NewTable("main")
	a := tbl.Register("./a.js")
	b := tbl.Register("./b.js")
	c := tbl.Register("./c.js")

	a.Export("x").AddProvider(1, 0, 0, false, &Target{Module: "./b.js", Export: []string{"y"}, Dependency: 1})
	b.Export("y").AddProvider(2, 0, 0, false, &Target{Module: "./c.js", Export: []string{"z"}, Dependency: 2})
	c.Export("z").AddProvider(3, 0, 1, true, nil)

	got, ok := a.ReadExport("x").ResolveTarget()
	if !ok {
		t.Fatal("ResolveTarget failed")
	}
	want := Target{Module: "./c.js", Export: []string{"z"}, Dependency: 2}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ResolveTarget mismatch (-want +got):\n%s", diff)
	}

	local, ok := c.ReadExport("z").ResolveTarget()
	if !ok || local.Module != "./c.js" {
		t.Errorf("terminal export resolves to itself, got %+v", local)
	}
}

func TestExportInfo_ResolveTargetCycle(t *testing.T) {
	tbl := NewTable("main")
	a := tbl.Register("./a.js")
	b := tbl.Register("./b.js")
	a.Export("x").AddProvider(1, 0, 0, false, &Target{Module: "./b.js", Export: []string{"x"}, Dependency: 1})
	b.Export("x").AddProvider(2, 0, 0, false, &Target{Module: "./a.js", Export: []string{"x"}, Dependency: 2})

	if _, ok := a.ReadExport("x").ResolveTarget(); ok {
		t.Error("cyclic re-export should not resolve")
	}
}

func TestInfo_IsIncluded(t *testing.T) {
	tbl := NewTable("main", "worker")
	info := tbl.Register("./a.js")

	if !info.IsIncluded(runtime.Single("worker")) {
		t.Error("unresolved tables include every module")
	}

	mainID, _ := tbl.RuntimeID("main")
	if !info.SetIncluded(mainID) {
		t.Error("first SetIncluded should report a change")
	}
	if info.SetIncluded(mainID) {
		t.Error("second SetIncluded should not report a change")
	}
	tbl.MarkResolved()

	if !info.IsIncluded(runtime.Single("main")) {
		t.Error("included in main")
	}
	if info.IsIncluded(runtime.Single("worker")) {
		t.Error("not included in worker")
	}
	if !info.IsIncluded(nil) {
		t.Error("included in some runtime of all")
	}

	tbl.ResetUsage(mainID)
	if info.IsIncluded(runtime.Single("main")) {
		t.Error("ResetUsage should clear inclusion")
	}
}
