// Package dependency defines the edges a module's source yields and how
// each one contributes exports, side effects and generated code.
//
// Every kind implements the small Dependency contract; capabilities beyond
// it are optional interfaces discovered by type assertion:
//
//   - ModuleDependency: the edge points at another module (Request)
//   - ReferencingDependency: the edge consumes exports of its target
//   - Template: the edge rewrites source and pushes init fragments
//   - HashContributor: the edge adds bytes to the content hash
//
// # Kinds
//
//   - ExportSpecifier: export { v as n }
//   - ExportExpression: export default expr
//   - ExportImportedSpecifier: export { x as y } from, export * as ns from, export * from
//   - ImportSideEffect: the import statement
//   - ImportSpecifier: a use site of an imported binding
//   - DynamicImport: import()
//   - CommonJSExports, CommonJSRequire: exports.x = and require() interop
//
// Code generation goes through a Registry, which lets callers replace the
// rendering of a dependency type without touching the dependency.
//
// # Thread Safety
//
// Dependencies are immutable after construction and safe to share. Apply
// only mutates the TemplateContext it is given.
package dependency
