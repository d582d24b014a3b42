// Package expr provides the CEL (Common Expression Language) environment used
// by folder type match expressions.
//
// The environment declares two variables:
//   - `files` (list<string>): names of the entries directly inside the folder
//   - `dir` (string): the folder path
//
// And the path functions pathBase, pathDir, pathExt and pathMatch.
// No function reads file contents.
package expr
