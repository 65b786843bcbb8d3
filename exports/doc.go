// Package exports holds the per-module export state the bundler resolves.
//
// # Main Types
//
//   - Spec: what a single dependency contributes to its module's exports
//   - Table: index-addressed store of every module's Info, with a freeze barrier
//   - Info: one module's exports, plus the slot standing for unknown names
//   - ExportInfo: one export's provided flag, providers, per-runtime usage and used name
//   - UsedName: an export name or property path as emitted
//
// # Usage Lattice
//
// Usage is tracked per runtime. During a runtime's pass a state only moves
// up (Unknown, OnlyPropertiesUsed, Used); Finalize turns whatever is still
// Unknown into Unused. Outside a pass Unknown is treated as used, so a
// table that was never resolved keeps every export.
//
// # Thread Safety
//
// A Table has a single writer until Freeze. After Freeze it is read-only
// and safe for concurrent use; any further mutation panics with an
// invariant error.
package exports
