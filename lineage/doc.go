// Package lineage models single-inheritance type hierarchies as data and
// dispatches against them explicitly.
//
// Types are declared on a Registry (in Go or from YAML) and sealed into an
// immutable Hierarchy. Sealing links every type to its parent, rejects
// cycles and invalid overrides, and computes a resolution table per type in
// which the nearest declaration of each method wins.
//
// A Dispatcher drives the runtime side:
//   - Construct picks a constructor by arity and runs the ancestor
//     constructors first, root to leaf, each exactly once.
//   - Invoke resolves a method from the instance's most-derived type.
//   - Call.CallBase, used inside a body, resumes resolution one level above
//     the type that owns the running body, so chained base calls climb one
//     level at a time.
//
// Lookup failures surface as *NotFoundError and are never retried.
package lineage
