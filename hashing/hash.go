// Package hashing computes module content hashes used as code generation
// cache keys.
//
// A hash covers what the module's generated code depends on: its
// identifier, source and dependency list, the used names of its own
// exports, and whatever each dependency adds through
// dependency.HashContributor. Dependency IDs are not hashed, so two graphs
// built from the same input hash identically.
package hashing

import (
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/wippyai/jsbundle/dependency"
	"github.com/wippyai/jsbundle/errors"
	"github.com/wippyai/jsbundle/exports"
	"github.com/wippyai/jsbundle/graph"
	"github.com/wippyai/jsbundle/runtime"
)

// Digest is a 64-bit module content hash.
type Digest uint64

func (d Digest) String() string {
	return fmt.Sprintf("%016x", uint64(d))
}

// ModuleHash hashes module as generated for rt. The graph must be linked;
// used names are read from its exports table, so the result is only
// meaningful after resolution.
func ModuleHash(g *graph.Graph, module string, rt runtime.Spec) Digest {
	m := g.MustModule(module)
	h := xxhash.New()

	field(h, "module", m.Identifier())
	field(h, "type", m.Type().String())
	field(h, "exports", m.ExportsArgument())
	field(h, "source", m.Source())

	for i, d := range m.Dependencies() {
		field(h, "dep", strconv.Itoa(i))
		field(h, "kind", d.Type().String())
		field(h, "loc", d.Loc().String())
		if r, ok := d.(interface{ Range() dependency.Range }); ok {
			rng := r.Range()
			field(h, "range", strconv.Itoa(rng.Start)+"-"+strconv.Itoa(rng.End))
		}
		payload(h, d)
		if target, ok := g.ResolvedModule(uint32(d.ID())); ok {
			field(h, "target", target)
		}
		if c, ok := d.(dependency.HashContributor); ok {
			c.UpdateHash(h, g, rt)
		}
	}

	info := g.ExportsInfo(module)
	if info == nil {
		panic(errors.ModuleNotFound(errors.PhaseHash, module))
	}
	usedNames(h, info, rt)
	return Digest(h.Sum64())
}

// field writes a length-prefixed key/value pair so adjacent values cannot
// run into each other.
func field(h *xxhash.Digest, key, value string) {
	h.WriteString(key)
	h.WriteString(strconv.Itoa(len(value)))
	h.WriteString(":")
	h.WriteString(value)
}

func payload(h *xxhash.Digest, d dependency.Dependency) {
	switch d := d.(type) {
	case *dependency.ExportSpecifier:
		field(h, "name", d.Name())
		field(h, "value", d.Value())
	case *dependency.ExportExpression:
		field(h, "binding", d.Binding())
	case *dependency.ExportImportedSpecifier:
		field(h, "request", d.Request())
		field(h, "mode", d.Mode().String())
		field(h, "name", d.Name())
		path(h, d.IDs())
		field(h, "order", strconv.Itoa(d.Order()))
	case *dependency.ImportSideEffect:
		field(h, "request", d.Request())
		field(h, "order", strconv.Itoa(d.Order()))
	case *dependency.ImportSpecifier:
		field(h, "request", d.Request())
		path(h, d.IDs())
		field(h, "order", strconv.Itoa(d.Order()))
		field(h, "call", strconv.FormatBool(d.Call()))
	case *dependency.DynamicImport:
		field(h, "request", d.Request())
	case *dependency.CommonJSExports:
		field(h, "name", d.Name())
	case *dependency.CommonJSRequire:
		field(h, "request", d.Request())
	case *dependency.Provided:
		field(h, "request", d.Request())
		field(h, "identifier", d.Identifier())
		path(h, d.IDs())
	case dependency.ModuleDependency:
		field(h, "request", d.Request())
	}
}

func path(h *xxhash.Digest, ids []string) {
	field(h, "ids", strconv.Itoa(len(ids)))
	for _, id := range ids {
		field(h, "id", id)
	}
}

// usedNames covers the module's own exports: renaming or dropping one
// changes the getters it defines.
func usedNames(h *xxhash.Digest, info *exports.Info, rt runtime.Spec) {
	for _, e := range info.Exports() {
		field(h, "export", e.Name())
		used := info.UsedName(rt, exports.Str(e.Name()))
		if used == nil {
			field(h, "unused", e.Name())
			continue
		}
		field(h, "used", used.String())
	}
	field(h, "unknown", strconv.FormatBool(info.UsedInUnknownWay(rt)))
	field(h, "included", strconv.FormatBool(info.IsIncluded(rt)))
}
