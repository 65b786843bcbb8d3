// Package jsbundle resolves which exports of an ES module graph are used,
// assigns their final names and generates the code of each module.
//
// The library is organized into packages with distinct responsibilities:
//
//	jsbundle/          Root package with the one-call Bundle helper
//	├── runtime/       Runtime sets that usage and naming are keyed by
//	├── exports/       Per-module export tables, usage lattice, used names
//	├── dependency/    Dependency kinds and their code generation templates
//	├── codegen/       Replace sources, init fragments, concatenation scopes
//	├── graph/         Modules, connections and graph queries
//	├── linker/        Provided exports, usage fixpoint, mangling
//	├── hashing/       Content hashes used as cache keys
//	├── compilation/   Sealing, parallel code generation, caching, metrics
//	├── manifest/      TOML graph descriptions
//	├── config/        Configuration from files, environment and flags
//	└── errors/        Structured error types
//
// # Quick Start
//
// Load a manifest and generate code for every runtime:
//
//	g, err := manifest.Load(ctx, "app.toml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	results, err := jsbundle.Bundle(ctx, g, compilation.DefaultOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, r := range results.All() {
//	    fmt.Println(r.Module, r.Runtime, r.Source)
//	}
//
// Use package compilation directly to keep a compilation across rebuilds,
// so that unchanged modules are served from its result cache.
package jsbundle
