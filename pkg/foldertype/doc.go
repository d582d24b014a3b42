// Package foldertype defines folder type definitions and their detection
// rules.
//
// A [Definition] names a folder type (for example "next" or "python") and
// optionally carries a [DetectRule] describing which paths must exist below a
// folder for it to be classified as that type. Definitions are collected into
// an ordered [Set]; order is significant because the first satisfied
// definition wins, so more specific types must precede broader ones.
//
// Folder type ids are open strings. They are validated only against the
// loaded [Set], never against a fixed enumeration.
package foldertype
