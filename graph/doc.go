// Package graph holds the module graph a compilation works on: modules,
// the connections their dependencies resolve to, the entry modules of each
// runtime and the exports table shared by all later phases.
//
// A Graph is built in two steps. AddModule may be called from several
// goroutines while dependencies are extracted; Link then resolves requests
// to connections in a deterministic order. After Link only the exports
// table changes.
package graph
