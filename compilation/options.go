package compilation

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/wippyai/jsbundle/codegen"
	"github.com/wippyai/jsbundle/dependency"
	"github.com/wippyai/jsbundle/errors"
	"github.com/wippyai/jsbundle/linker"
)

// Options configures a compilation.
type Options struct {
	// Runtimes restricts resolution and code generation. Empty means every
	// runtime of the graph.
	Runtimes []string

	Mangle         linker.MangleMode
	LibraryExports bool
	Concatenate    bool
	Environment    codegen.Environment

	// Parallelism bounds concurrent code generation invocations.
	Parallelism int
	// CacheSize is the number of generated results kept across runs.
	CacheSize int
}

// DefaultOptions returns the default compilation options.
func DefaultOptions() Options {
	return Options{
		Mangle:      linker.MangleDeterministic,
		Environment: codegen.Environment{ArrowFunction: true},
		Parallelism: runtime.GOMAXPROCS(0),
		CacheSize:   1024,
	}
}

// Validate checks option ranges.
func (o Options) Validate() error {
	if o.Parallelism <= 0 {
		return errors.InvalidInput(errors.PhaseConfig, "parallelism must be positive")
	}
	if o.CacheSize <= 0 {
		return errors.InvalidInput(errors.PhaseConfig, "cache size must be positive")
	}
	if o.Mangle > linker.MangleDeterministic {
		return errors.InvalidInput(errors.PhaseConfig, "unknown mangle mode "+o.Mangle.String())
	}
	return nil
}

func (o Options) linker() linker.Options {
	return linker.Options{
		Mangle:         o.Mangle,
		LibraryExports: o.LibraryExports,
	}
}

// Option customizes a Compilation.
type Option func(*Compilation)

// WithLogger sets the compilation logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Compilation) {
		c.logger = l
	}
}

// WithRegisterer registers the compilation metrics with r.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(c *Compilation) {
		c.registerer = r
	}
}

// WithRegistry renders dependencies through r instead of the default
// registry.
func WithRegistry(r *dependency.Registry) Option {
	return func(c *Compilation) {
		c.registry = r
	}
}
