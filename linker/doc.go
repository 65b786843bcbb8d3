// Package linker resolves which exports survive and under what names.
//
// # Main Types
//
//   - Resolver: single writer of a graph's exports table
//   - Options: mangling mode and library-entry handling
//   - Stats: iteration and usage counts of the last resolution
//
// # Passes
//
//  1. FlagProvidedExports: fold every dependency's exports spec into its
//     module, revisiting modules whose specs read a changed module
//  2. FlagUsedExports: per runtime, include modules reachable from the
//     entries and mark the export paths their dependencies reference,
//     forwarding uses along re-export targets
//  3. MangleExports: assign used names to used exports
//
// Resolve runs all three and freezes the table. A canceled context resets
// the table instead.
//
// # Thread Safety
//
// A Resolver is not safe for concurrent use. After Resolve returns the
// exports table is frozen and may be read concurrently.
//
// # Example
//
//	r := linker.NewResolver(g, linker.DefaultOptions())
//	if err := r.Resolve(ctx, nil); err != nil {
//	    return err
//	}
//	name := g.ExportsInfo("./a.js").UsedName(runtime.Single("main"), exports.Str("b"))
package linker
