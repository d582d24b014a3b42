// Package probe decides whether path specs are satisfied below a folder root.
//
// A literal spec is satisfied when the joined path exists, as a file or a
// directory. A glob spec is satisfied when any entry in the folder's subtree,
// expressed relative to the root, matches the compiled pattern.
//
// Probing never fails. Filesystem errors and malformed patterns make the
// affected spec unsatisfied and are reported to a [diag.Sink]. This trades
// precision for availability: a partially unreadable tree still classifies.
//
// Subtree walks never descend into symlinked directories, so link cycles
// cannot cause unbounded recursion.
package probe
