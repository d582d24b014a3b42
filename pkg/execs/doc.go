// Package execs launches external programs, as defined by configuration.
//
// It is used by the action package to open folders and files in editors,
// file managers, and the platform's default handler.
package execs
