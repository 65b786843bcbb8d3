package config

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"

	"github.com/wippyai/jsbundle/errors"
	"github.com/wippyai/jsbundle/linker"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(context.Background(), LoadOptions{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_Sources(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "jsbundle.toml", `
mangle_exports = "size"
concatenate_modules = true
parallelism = 2

[environment]
arrow_function = false

[log]
level = "debug"
`)
	t.Setenv("JSBUNDLE_CACHE_SIZE", "16")
	t.Setenv("JSBUNDLE_LOG_FORMAT", "json")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("log-level", "info", "")
	flags.Int("parallelism", 1, "")
	if err := flags.Parse([]string{"--log-level=warn"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(context.Background(), LoadOptions{Dir: dir, Flags: flags})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := Default()
	want.MangleExports = "size"
	want.ConcatenateModules = true
	want.Parallelism = 2 // unset flag does not override the file
	want.Environment.ArrowFunction = false
	want.CacheSize = 16
	want.Log = Log{Level: "warn", Format: "json"}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}

	opts := cfg.CompilationOptions()
	if opts.Mangle != linker.MangleSize || !opts.Concatenate || opts.Environment.ArrowFunction {
		t.Errorf("CompilationOptions = %+v", opts)
	}
	if err := opts.Validate(); err != nil {
		t.Errorf("converted options invalid: %v", err)
	}
}

func TestLoad_ExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "custom.yaml", "library_exports: true\nmetrics:\n  enabled: true\n")

	cfg, err := Load(context.Background(), LoadOptions{File: path})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.LibraryExports || !cfg.Metrics.Enabled {
		t.Errorf("yaml values not applied: %+v", cfg)
	}

	_, err = Load(context.Background(), LoadOptions{File: filepath.Join(dir, "missing.toml")})
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != errors.KindNotFound || e.Phase != errors.PhaseConfig {
		t.Errorf("missing explicit file: err = %v", err)
	}
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, ".env", "JSBUNDLE_MANGLE_EXPORTS=size\nJSBUNDLE_PARALLELISM=3\n")
	t.Setenv("JSBUNDLE_PARALLELISM", "5")
	t.Cleanup(func() { os.Unsetenv("JSBUNDLE_MANGLE_EXPORTS") })

	cfg, err := Load(context.Background(), LoadOptions{Dir: dir, EnvFile: path})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MangleExports != "size" {
		t.Errorf("mangle_exports = %q, want size from env file", cfg.MangleExports)
	}
	if cfg.Parallelism != 5 {
		t.Errorf("parallelism = %d, want 5 from the process environment", cfg.Parallelism)
	}

	_, err = Load(context.Background(), LoadOptions{Dir: dir, EnvFile: filepath.Join(dir, "none.env")})
	if err == nil {
		t.Error("expected error for missing env file")
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		file string
		path []string
	}{
		{"mangle mode", `mangle_exports = "tiny"`, []string{"mangle_exports"}},
		{"parallelism", `parallelism = 0`, []string{"parallelism"}},
		{"cache size", `cache_size = -1`, []string{"cache_size"}},
		{"log level", "[log]\nlevel = \"loud\"", []string{"log", "level"}},
		{"log format", "[log]\nformat = \"xml\"", []string{"log", "format"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, "jsbundle.toml", tt.file)
			_, err := Load(context.Background(), LoadOptions{Dir: dir})
			var e *errors.Error
			if !stderrors.As(err, &e) {
				t.Fatalf("err = %v, want *errors.Error", err)
			}
			if e.Phase != errors.PhaseConfig || e.Kind != errors.KindInvalidData {
				t.Errorf("phase/kind = %s/%s", e.Phase, e.Kind)
			}
			if diff := cmp.Diff(tt.path, e.Path); diff != "" {
				t.Errorf("path mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "jsbundle.toml", "parallelism = ")
	_, err := Load(context.Background(), LoadOptions{Dir: dir})
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != errors.KindInvalidData {
		t.Errorf("err = %v, want invalid data", err)
	}
}

func TestLoad_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Load(ctx, LoadOptions{Dir: t.TempDir()})
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != errors.KindCanceled {
		t.Errorf("err = %v, want canceled", err)
	}
}

func TestLog_Logger(t *testing.T) {
	for _, format := range []string{"console", "json"} {
		l, err := Log{Level: "debug", Format: format}.Logger()
		if err != nil {
			t.Fatalf("%s: %v", format, err)
		}
		if !l.Core().Enabled(-1) {
			t.Errorf("%s: debug level not enabled", format)
		}
	}
	if _, err := (Log{Level: "loud"}).Logger(); err == nil {
		t.Error("expected error for unknown level")
	}
}
