package compilation

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wippyai/jsbundle/codegen"
	"github.com/wippyai/jsbundle/errors"
	"github.com/wippyai/jsbundle/exports"
	"github.com/wippyai/jsbundle/graph"
	"github.com/wippyai/jsbundle/hashing"
	"github.com/wippyai/jsbundle/runtime"
)

// Results holds generated code per module and runtime.
type Results struct {
	list  []*codegen.Result
	index map[string]int
}

func resultKey(module, rt string) string {
	return module + "\x00" + rt
}

// Get returns the result for module in runtime rt.
func (r *Results) Get(module, rt string) (*codegen.Result, bool) {
	i, ok := r.index[resultKey(module, rt)]
	if !ok {
		return nil, false
	}
	return r.list[i], true
}

// All returns every result ordered by runtime, then module.
func (r *Results) All() []*codegen.Result {
	return append([]*codegen.Result(nil), r.list...)
}

// Len returns the number of results.
func (r *Results) Len() int {
	return len(r.list)
}

type job struct {
	module  *graph.Module
	runtime string
	root    string
}

// CodeGeneration generates every module included in each runtime. The
// compilation must be sealed. Invocations run in parallel up to
// Options.Parallelism; each owns its template context, fragments and
// concatenation scope. Results are identical to a sequential run.
func (c *Compilation) CodeGeneration(ctx context.Context) (*Results, error) {
	if !c.sealed {
		return nil, errors.InvalidInput(errors.PhaseCodegen, "code generation before seal")
	}

	jobs := c.jobs()
	out := make([]*codegen.Result, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Parallelism)
	for i, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return errors.Canceled(errors.PhaseCodegen, err)
			}
			res, err := c.generate(j)
			if err != nil {
				return err
			}
			out[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Canceled(errors.PhaseCodegen, err)
	}

	results := &Results{list: out, index: make(map[string]int, len(out))}
	for i, r := range out {
		results.index[resultKey(r.Module, r.Runtime)] = i
	}
	c.linkReferences(results)

	c.logger.Debug("code generated",
		zap.Int("results", len(out)),
		zap.Int("parallelism", c.opts.Parallelism))
	return results, nil
}

func (c *Compilation) jobs() []job {
	var jobs []job
	for _, rt := range c.runtimes {
		spec := runtime.Single(rt)
		for _, m := range c.graph.Modules() {
			if !c.graph.ExportsInfo(m.Identifier()).IsIncluded(spec) {
				continue
			}
			root, _ := c.plan.Root(m.Identifier())
			jobs = append(jobs, job{module: m, runtime: rt, root: root})
		}
	}
	return jobs
}

// generate renders one module, serving it from the cache when its hash is
// unchanged. A panic raised by a template is returned as an error.
func (c *Compilation) generate(j job) (res *codegen.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(*errors.Error); ok {
				err = e
				return
			}
			panic(r)
		}
	}()

	c.metrics.codegenInvocation.Inc()
	spec := runtime.Single(j.runtime)
	key := cacheKey{
		hash:    hashing.ModuleHash(c.graph, j.module.Identifier(), spec),
		runtime: spec.Key(),
		root:    j.root,
	}
	if cached, ok := c.cache.Get(key); ok {
		c.metrics.cacheHits.Inc()
		return cached, nil
	}
	c.metrics.cacheMisses.Inc()

	tctx := codegen.NewTemplateContext(c.graph, j.module, spec, c.opts.Environment)
	if j.root != "" {
		tctx.ConcatenationScope = codegen.NewConcatenationScope(j.module.Identifier(), c.plan.Group(j.root))
	}
	src := codegen.NewReplaceSource(j.module.Source())
	for _, d := range j.module.Dependencies() {
		c.registry.Apply(d, src, tctx)
	}
	if j.root == j.module.Identifier() {
		c.exposeRoot(tctx)
	}

	res = tctx.Finish(src)
	c.metrics.fragments.Add(float64(len(res.Fragments)))
	c.metrics.concatRegistered.Add(float64(len(res.ConcatenatedExports)))
	c.cache.Add(key, res)
	return res, nil
}

// exposeRoot defines getters for the used exports a group root registered
// in its scope, since the root's exports object stays visible outside the
// group.
func (c *Compilation) exposeRoot(tctx *codegen.TemplateContext) {
	info := tctx.ExportsInfo()
	var pairs []codegen.ExportPair
	for _, p := range tctx.ConcatenationScope.Exports() {
		used := info.UsedName(tctx.Runtime, exports.Str(p.Name))
		if used == nil {
			continue
		}
		pairs = append(pairs, codegen.ExportPair{Name: used.First(), Value: p.Value})
	}
	if len(pairs) == 0 {
		return
	}
	tctx.RuntimeRequirements.Add(codegen.ExportsName)
	tctx.RuntimeRequirements.Add(codegen.DefineGettersName)
	tctx.InitFragments.Push(codegen.NewExportInitFragment(tctx.Module.ExportsArgument(), pairs...))
}

// linkReferences replaces module reference placeholders with the symbols
// the referenced group members registered. A member that registered another
// placeholder for the name is followed in turn, so re-export chains inside a
// group end at the binding. A reference no member binds, or one that loops,
// becomes undefined. Rewritten results are copies; cached results are never
// modified.
func (c *Compilation) linkReferences(results *Results) {
	for i, r := range results.list {
		if len(r.References) == 0 {
			continue
		}
		refs := append([]codegen.ModuleReference(nil), r.References...)
		// Longer placeholders first so that none is a prefix of a later one.
		sort.SliceStable(refs, func(a, b int) bool { return len(refs[a].Name()) > len(refs[b].Name()) })

		pairs := make([]string, 0, 2*len(refs))
		for _, ref := range refs {
			sym, ok := resolveReference(results, r.Runtime, ref, make(map[string]struct{}))
			if !ok {
				c.logger.Warn("unresolved module reference",
					zap.String("module", r.Module),
					zap.String("target", ref.Module),
					zap.Strings("ids", ref.IDs),
					zap.String("runtime", r.Runtime))
				sym = "/* unused export */ undefined"
			}
			pairs = append(pairs, ref.Name(), sym)
		}
		linked := *r
		linked.Source = strings.NewReplacer(pairs...).Replace(r.Source)
		results.list[i] = &linked
	}
}

// resolveReference returns the symbol ref reads. seen holds the (module,
// export) pairs already on the path.
func resolveReference(results *Results, rt string, ref codegen.ModuleReference, seen map[string]struct{}) (string, bool) {
	if len(ref.IDs) == 0 {
		return "", false
	}
	key := ref.Module + "\x00" + ref.IDs[0]
	if _, ok := seen[key]; ok {
		return "", false
	}
	seen[key] = struct{}{}

	target, ok := results.Get(ref.Module, rt)
	if !ok {
		return "", false
	}
	value, ok := registered(target, ref.IDs[0])
	if !ok {
		return "", false
	}
	rest := ref.IDs[1:]
	if inner, ok := target.Reference(value); ok {
		ids := make([]string, 0, len(inner.IDs)+len(rest))
		ids = append(ids, inner.IDs...)
		ids = append(ids, rest...)
		return resolveReference(results, rt, codegen.ModuleReference{
			Index:  inner.Index,
			Module: inner.Module,
			IDs:    ids,
			Call:   ref.Call,
		}, seen)
	}
	sym := value + codegen.PropertyAccess(rest)
	if ref.Call && len(rest) > 0 {
		sym = "(0," + sym + ")"
	}
	return sym, true
}

func registered(r *codegen.Result, name string) (string, bool) {
	for _, p := range r.ConcatenatedExports {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}
