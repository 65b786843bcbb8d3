package linker

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/wippyai/jsbundle/dependency"
	"github.com/wippyai/jsbundle/errors"
	"github.com/wippyai/jsbundle/exports"
	"github.com/wippyai/jsbundle/graph"
	"github.com/wippyai/jsbundle/linker/internal/bitset"
)

// FlagProvidedExports folds every dependency's exports spec into its
// module's exports info until no module changes. A module is revisited
// when a module its specs were computed from changes.
func (r *Resolver) FlagProvidedExports(ctx context.Context) error {
	mods := r.graph.Modules()
	index := make(map[string]int, len(mods))
	for i, m := range mods {
		index[m.Identifier()] = i
		if m.Type() == graph.ModuleESM {
			// ESM exports are exactly the declared ones unless a star
			// re-export says otherwise.
			r.info(m.Identifier()).SetHasProvideInfo()
		}
	}

	dirty := bitset.New(len(mods))
	for i := range mods {
		dirty.Add(i)
	}
	dependents := make(map[string]*bitset.Set)

	iterations := 0
	for {
		idx, ok := dirty.Pop()
		if !ok {
			break
		}
		if err := ctx.Err(); err != nil {
			return errors.Canceled(errors.PhaseProvide, err)
		}
		iterations++

		m := mods[idx]
		info := r.info(m.Identifier())
		changed := false
		for order, d := range m.Dependencies() {
			spec := d.Exports(r.graph)
			if spec == nil {
				continue
			}
			for _, on := range spec.Dependencies {
				set, ok := dependents[on]
				if !ok {
					set = bitset.New(len(mods))
					dependents[on] = set
				}
				set.Add(idx)
			}
			if r.foldSpec(info, d, order, spec) {
				changed = true
			}
		}
		if changed {
			if set, ok := dependents[m.Identifier()]; ok {
				for _, j := range set.Slice() {
					if j != idx {
						dirty.Add(j)
					}
				}
			}
		}
	}

	for _, m := range mods {
		r.info(m.Identifier()).SetHasProvideInfo()
	}
	r.stats.ProvideIterations = iterations
	Logger().Debug("provided exports resolved",
		zap.Int("modules", len(mods)),
		zap.Int("iterations", iterations))
	return nil
}

func (r *Resolver) foldSpec(info *exports.Info, d dependency.Dependency, order int, spec *exports.Spec) bool {
	switch spec.Kind {
	case exports.ListNone:
		return false
	case exports.ListUnknown:
		changed := info.SetUnknownExportsProvided(spec.CanMangle == nil || *spec.CanMangle, spec.ExcludeExports)
		if spec.From != nil {
			r.addUnknownSource(info.Module(), spec.From.Module)
		}
		return changed
	}

	skip := make(map[string]struct{}, len(spec.HideExports)+len(spec.ExcludeExports))
	for _, n := range spec.HideExports {
		skip[n] = struct{}{}
	}
	for _, n := range spec.ExcludeExports {
		skip[n] = struct{}{}
	}

	changed := false
	for _, ex := range spec.Exports {
		if ex.Hidden {
			continue
		}
		if _, ok := skip[ex.Name]; ok {
			continue
		}
		if r.foldExport(info, d, order, spec, ex) {
			changed = true
		}
	}
	return changed
}

func (r *Resolver) foldExport(info *exports.Info, d dependency.Dependency, order int, spec *exports.Spec, ex exports.Export) bool {
	terminal := spec.TerminalBinding
	if ex.TerminalBinding != nil {
		terminal = *ex.TerminalBinding
	}
	if ex.Name == "" {
		errors.New(errors.PhaseProvide, errors.KindMissingName).
			Module(info.Module()).
			Detail("%s dependency at %s exports an empty name", d.Type(), d.Loc()).
			Panic()
	}

	e := info.Export(ex.Name)
	changed := e.SetProvided(exports.ProvidedYes)

	canMangle := spec.CanMangle
	if ex.CanMangle != nil {
		canMangle = ex.CanMangle
	}
	if canMangle != nil && !*canMangle && e.DisableMangleProvide() {
		changed = true
	}

	priority := spec.Priority
	if ex.Priority != nil {
		priority = *ex.Priority
	}

	from := spec.From
	if ex.From != nil {
		from = ex.From
	}
	var target *exports.Target
	if !terminal && from != nil {
		path := ex.Export
		if path == nil && !ex.Namespace {
			path = []string{ex.Name}
		}
		if ex.Namespace {
			path = nil
		}
		target = &exports.Target{Module: from.Module, Export: path, Dependency: from.Dependency}
	}
	if e.AddProvider(uint32(d.ID()), order, priority, terminal, target) {
		changed = true
	}

	if len(ex.Exports) > 0 {
		nested := e.NestedInfo()
		for _, sub := range ex.Exports {
			if r.foldExport(nested, d, order, spec, sub) {
				changed = true
			}
		}
	}
	return changed
}

func (r *Resolver) addUnknownSource(module, from string) {
	for _, m := range r.unknownSources[module] {
		if m == from {
			return
		}
	}
	r.unknownSources[module] = append(r.unknownSources[module], from)
	sort.Strings(r.unknownSources[module])
}

type idsDependency interface {
	dependency.ModuleDependency
	IDs() []string
}

// collectMissing records imports and named re-exports of names their
// target module definitely does not provide.
func (r *Resolver) collectMissing() {
	var missing []errors.MissingExport
	for _, m := range r.graph.Modules() {
		for _, c := range r.graph.Outgoing(m.Identifier()) {
			d, ok := c.Dependency.(idsDependency)
			if !ok {
				continue
			}
			if re, ok := d.(*dependency.ExportImportedSpecifier); ok && re.Mode() != dependency.ReexportNamed {
				continue
			}
			ids := d.IDs()
			if len(ids) == 0 {
				continue
			}
			if r.info(c.Module).IsExportProvided(ids[0]) != exports.ProvidedNo {
				continue
			}
			missing = append(missing, errors.MissingExport{
				Origin: m.Identifier(),
				Target: c.Module,
				Export: ids[0],
				Loc:    d.Loc().String(),
			})
		}
	}
	if len(missing) > 0 {
		r.missing = errors.NewMissingExportsError(missing)
		Logger().Warn("imports of missing exports", zap.Int("count", len(missing)))
	}
}
