package codegen

import "testing"

func TestReplaceSource(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		apply func(s *ReplaceSource)
		want  string
	}{
		{
			name:  "untouched",
			src:   "let a = 1;",
			apply: func(*ReplaceSource) {},
			want:  "let a = 1;",
		},
		{
			name: "strip export keyword",
			src:  "export const a = 1;",
			apply: func(s *ReplaceSource) {
				s.Replace(0, 7, "")
			},
			want: "const a = 1;",
		},
		{
			name: "inserts keep order",
			src:  "x",
			apply: func(s *ReplaceSource) {
				s.Insert(0, "a")
				s.Insert(0, "b")
			},
			want: "abx",
		},
		{
			name: "out of order edits",
			src:  "0123456789",
			apply: func(s *ReplaceSource) {
				s.Replace(6, 8, "B")
				s.Replace(1, 3, "A")
			},
			want: "0A345B89",
		},
		{
			name: "overlap is clipped",
			src:  "abcdef",
			apply: func(s *ReplaceSource) {
				s.Replace(1, 4, "X")
				s.Replace(2, 5, "Y")
			},
			want: "aXYf",
		},
		{
			name: "bounds clamp",
			src:  "abc",
			apply: func(s *ReplaceSource) {
				s.Replace(-3, 1, "Z")
				s.Insert(99, "!")
			},
			want: "Zbc!",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewReplaceSource(tt.src)
			tt.apply(s)
			if got := s.Source(); got != tt.want {
				t.Errorf("Source() = %q, want %q", got, tt.want)
			}
			if s.Original() != tt.src {
				t.Error("Original changed")
			}
		})
	}
}

func TestConcatenationScope(t *testing.T) {
	s := NewConcatenationScope("./a.js", []string{"./b.js"})

	if !s.RegisterExport("b", "a_1") {
		t.Fatal("first registration should succeed")
	}
	if s.RegisterExport("b", "other") {
		t.Error("second registration of a name should be ignored")
	}
	if sym, ok := s.Export("b"); !ok || sym != "a_1" {
		t.Errorf("Export(b) = %q, %v", sym, ok)
	}
	if !s.IsModuleInScope("./b.js") || !s.IsModuleInScope("./a.js") || s.IsModuleInScope("./c.js") {
		t.Error("IsModuleInScope membership wrong")
	}

	ref := s.CreateModuleReference("./b.js", []string{"x"}, false)
	if ref != "__WEBPACK_MODULE_REFERENCE__0_78__" {
		t.Errorf("reference name = %q", ref)
	}
	if again := s.CreateModuleReference("./b.js", []string{"x"}, false); again != ref {
		t.Errorf("repeated reference = %q, want %q", again, ref)
	}
	if got := s.References(); len(got) != 1 || got[0].Module != "./b.js" {
		t.Errorf("References() = %+v", got)
	}
}

func TestModuleReference_GroupNumbering(t *testing.T) {
	group := []string{"./a.js", "./b.js", "./c.js"}
	a := NewConcatenationScope("./a.js", group)
	b := NewConcatenationScope("./b.js", group)

	fromA := a.CreateModuleReference("./c.js", []string{"x"}, false)
	fromB := b.CreateModuleReference("./c.js", []string{"x"}, false)
	if fromA != fromB {
		t.Errorf("members name the same binding differently: %q / %q", fromA, fromB)
	}
	if want := ModuleReferencePrefix + "2_78__"; fromA != want {
		t.Errorf("reference = %q, want %q", fromA, want)
	}
	if b.CreateModuleReference("./a.js", []string{"x"}, true) == fromB {
		t.Error("references to different modules share a placeholder")
	}

	res := &Result{References: b.References()}
	ref, ok := res.Reference(fromB)
	if !ok || ref.Module != "./c.js" {
		t.Errorf("Reference(%q) = %+v, %v", fromB, ref, ok)
	}
	if _, ok := res.Reference("plain"); ok {
		t.Error("non-placeholder resolved to a reference")
	}
}
