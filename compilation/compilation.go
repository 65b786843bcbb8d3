package compilation

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/wippyai/jsbundle/codegen"
	"github.com/wippyai/jsbundle/dependency"
	"github.com/wippyai/jsbundle/errors"
	"github.com/wippyai/jsbundle/graph"
	"github.com/wippyai/jsbundle/hashing"
	"github.com/wippyai/jsbundle/linker"
)

// cacheKey identifies one generated result. The concatenation root is part
// of the key because scoped and standalone output differ for the same
// module content.
type cacheKey struct {
	hash    hashing.Digest
	runtime string
	root    string
}

// Compilation drives resolution and code generation over one linked graph.
//
// Seal must complete before CodeGeneration. A Compilation may be sealed
// again after the graph's resolution inputs change; cached results whose
// module hash is unchanged are reused.
type Compilation struct {
	graph      *graph.Graph
	opts       Options
	registry   *dependency.Registry
	resolver   *linker.Resolver
	cache      *lru.Cache[cacheKey, *codegen.Result]
	metrics    *metrics
	registerer prometheus.Registerer
	logger     *zap.Logger
	plan       *ConcatenationPlan
	runtimes   []string
	sealed     bool
}

// New creates a compilation for a linked graph.
func New(g *graph.Graph, opts Options, options ...Option) (*Compilation, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	c := &Compilation{
		graph:    g,
		opts:     opts,
		registry: dependency.DefaultRegistry(),
		metrics:  newMetrics(),
		logger:   Logger(),
	}
	for _, o := range options {
		o(c)
	}

	cache, err := lru.New[cacheKey, *codegen.Result](opts.CacheSize)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "create result cache")
	}
	c.cache = cache

	if c.registerer != nil {
		if err := c.metrics.register(c.registerer); err != nil {
			return nil, errors.Wrap(errors.PhaseConfig, errors.KindConflict, err, "register metrics")
		}
	}

	c.runtimes = opts.Runtimes
	if len(c.runtimes) == 0 {
		c.runtimes = g.Runtimes()
	}
	c.resolver = linker.NewResolver(g, opts.linker())
	return c, nil
}

// Graph returns the compiled graph.
func (c *Compilation) Graph() *graph.Graph {
	return c.graph
}

// Runtimes returns the runtimes the compilation resolves and generates.
func (c *Compilation) Runtimes() []string {
	return append([]string(nil), c.runtimes...)
}

// Seal resolves provided exports, usage and used names for every runtime
// and freezes the exports table. When ctx is canceled the table is left
// reset and the compilation unsealed.
func (c *Compilation) Seal(ctx context.Context) error {
	c.sealed = false
	c.plan = nil

	for _, m := range c.graph.Modules() {
		if missing := c.registry.Missing(m.Dependencies()); len(missing) > 0 {
			d := missing[0]
			return errors.New(errors.PhaseCodegen, errors.KindUnsupported).
				Module(m.Identifier()).
				Detail("no template for %s dependency at %s", d.Type(), d.Loc()).
				Build()
		}
	}

	if err := c.resolver.Resolve(ctx, c.runtimes); err != nil {
		return err
	}

	stats := c.resolver.Stats()
	c.metrics.fixpointIters.WithLabelValues("provide").Observe(float64(stats.ProvideIterations))
	for _, rt := range c.runtimes {
		c.metrics.exportsUsed.WithLabelValues(rt).Set(float64(stats.UsedExports[rt]))
		c.metrics.exportsUnused.WithLabelValues(rt).Set(float64(stats.UnusedExports[rt]))
		c.metrics.fixpointIters.WithLabelValues("usage").Observe(float64(stats.UsageSweeps[rt]))
	}

	if missing := c.resolver.MissingExports(); missing != nil {
		for _, m := range missing.Exports {
			c.logger.Warn("export not provided",
				zap.String("module", m.Origin),
				zap.String("target", m.Target),
				zap.String("export", m.Export),
				zap.String("loc", m.Loc))
		}
	}

	if c.opts.Concatenate {
		c.plan = PlanConcatenation(c.graph)
	}
	c.sealed = true
	c.logger.Info("compilation sealed",
		zap.Strings("runtimes", c.runtimes),
		zap.Int("modules", c.graph.Len()),
		zap.Int("mangled", stats.Mangled))
	return nil
}

// Sealed reports whether Seal completed.
func (c *Compilation) Sealed() bool {
	return c.sealed
}

// Stats returns the resolution statistics of the last Seal.
func (c *Compilation) Stats() linker.Stats {
	return c.resolver.Stats()
}

// MissingExports returns the imports of names their target does not
// provide, or nil. They are warnings; code generation proceeds.
func (c *Compilation) MissingExports() *errors.MissingExportsError {
	return c.resolver.MissingExports()
}

// Plan returns the concatenation plan of the last Seal, or nil when
// concatenation is off.
func (c *Compilation) Plan() *ConcatenationPlan {
	return c.plan
}
