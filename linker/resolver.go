package linker

import (
	"context"

	"go.uber.org/zap"

	"github.com/wippyai/jsbundle/errors"
	"github.com/wippyai/jsbundle/exports"
	"github.com/wippyai/jsbundle/graph"
)

// Stats describes the work of the last resolution.
type Stats struct {
	UsageSweeps       map[string]int
	UsedExports       map[string]int
	UnusedExports     map[string]int
	IncludedModules   map[string]int
	ProvideIterations int
	Mangled           int
}

func newStats() Stats {
	return Stats{
		UsageSweeps:     make(map[string]int),
		UsedExports:     make(map[string]int),
		UnusedExports:   make(map[string]int),
		IncludedModules: make(map[string]int),
	}
}

// Resolver is the single writer of a graph's exports table. It computes
// provided exports, per-runtime usage and used names, then freezes the
// table for code generation.
//
// A Resolver is not safe for concurrent use.
type Resolver struct {
	graph *graph.Graph
	// unknownSources maps a module to the modules it star re-exports whose
	// exports are not statically known.
	unknownSources map[string][]string
	missing        *errors.MissingExportsError
	stats          Stats
	options        Options
}

// NewResolver creates a resolver for g.
func NewResolver(g *graph.Graph, opts Options) *Resolver {
	return &Resolver{
		graph:          g,
		options:        opts,
		unknownSources: make(map[string][]string),
		stats:          newStats(),
	}
}

// Resolve runs every resolution pass for the given runtimes, or for all of
// the graph's runtimes when none are given, and freezes the table.
//
// Resolution starts from scratch; a previously resolved table is reset.
// When ctx is canceled the table is reset and an error of kind canceled is
// returned, so no partial state is observable.
func (r *Resolver) Resolve(ctx context.Context, runtimes []string) error {
	table := r.graph.Table()
	r.reset()
	if len(runtimes) == 0 {
		runtimes = r.graph.Runtimes()
	}

	if err := r.FlagProvidedExports(ctx); err != nil {
		return r.abort(err)
	}
	r.collectMissing()
	for _, rt := range runtimes {
		if err := r.FlagUsedExports(ctx, rt); err != nil {
			return r.abort(err)
		}
	}
	if err := ctx.Err(); err != nil {
		return r.abort(errors.Canceled(errors.PhaseMangle, err))
	}
	r.MangleExports()

	table.MarkResolved()
	table.Freeze()
	Logger().Info("exports resolved",
		zap.Strings("runtimes", runtimes),
		zap.Int("modules", table.Len()),
		zap.Int("provide_iterations", r.stats.ProvideIterations))
	return nil
}

func (r *Resolver) reset() {
	r.graph.Table().Reset()
	r.unknownSources = make(map[string][]string)
	r.missing = nil
	r.stats = newStats()
}

func (r *Resolver) abort(err error) error {
	r.reset()
	Logger().Warn("resolution aborted", zap.Error(err))
	return err
}

// Stats returns the statistics of the last resolution.
func (r *Resolver) Stats() Stats {
	return r.stats
}

// MissingExports returns the imports of names their target does not
// provide, or nil.
func (r *Resolver) MissingExports() *errors.MissingExportsError {
	return r.missing
}

func (r *Resolver) info(module string) *exports.Info {
	info := r.graph.ExportsInfo(module)
	if info == nil {
		panic(errors.ModuleNotFound(errors.PhaseUsage, module))
	}
	return info
}
