// Package compilation seals a module graph and generates code for it.
//
// # Lifecycle
//
//  1. New validates options, creates the result cache and registers
//     metrics when a registerer is given.
//  2. Seal resolves provided exports, per-runtime usage and used names via
//     linker.Resolver, freezes the exports table and, when enabled, plans
//     module concatenation.
//  3. CodeGeneration renders every module included in each runtime, in
//     parallel, through the dependency registry.
//
// Imports of names a module never provides are reported by MissingExports
// and logged as warnings; they do not fail the compilation.
//
// # Caching
//
// Results are cached in an LRU keyed by the module's content hash (see
// package hashing), the runtime and the concatenation root. Resealing
// after a change reuses every result whose key is unchanged.
//
// # Metrics
//
// With WithRegisterer the compilation exports prometheus metrics prefixed
// jsbundle_: used and unused exports per runtime, fixpoint iterations,
// emitted init fragments, concatenation registrations and cache hits.
//
// # Example
//
//	c, err := compilation.New(g, compilation.DefaultOptions(),
//	    compilation.WithLogger(log))
//	if err != nil {
//	    return err
//	}
//	if err := c.Seal(ctx); err != nil {
//	    return err
//	}
//	results, err := c.CodeGeneration(ctx)
package compilation
