// Package glob compiles path glob patterns into reusable matchers.
//
// Patterns and paths are slash-separated and relative. Matching is always
// case-sensitive, on every platform, so results do not depend on the host
// filesystem. Supported syntax is that of [doublestar.Match]: `*` matches any
// run of non-separator characters, `?` a single non-separator character,
// `[...]` a character class, `{a,b}` alternatives, and `**` zero or more
// directories.
package glob

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrCompile is returned when a pattern is malformed.
var ErrCompile = errors.New("invalid glob pattern")

// Matcher is a compiled glob pattern. It is safe for concurrent use.
type Matcher struct {
	pattern string
}

// Compile validates pattern and returns a [Matcher] for it.
func Compile(pattern string) (*Matcher, error) {
	p := Normalize(pattern)
	if p == "" {
		return nil, fmt.Errorf("%w: empty pattern", ErrCompile)
	}

	if !doublestar.ValidatePattern(p) {
		return nil, fmt.Errorf("%w: %q", ErrCompile, pattern)
	}

	return &Matcher{pattern: p}, nil
}

// MustCompile compiles pattern and panics on error.
func MustCompile(pattern string) *Matcher {
	m, err := Compile(pattern)
	if err != nil {
		panic(err)
	}

	return m
}

// Matches reports whether the relative path rel matches the pattern.
// OS-specific separators in rel are converted to slashes first.
func (m *Matcher) Matches(rel string) bool {
	return doublestar.MatchUnvalidated(m.pattern, Normalize(filepath.ToSlash(rel)))
}

func (m *Matcher) String() string {
	return m.pattern
}

// IsPattern reports whether spec contains a glob metacharacter (`*`, `?` or
// `[`). Specs without one are literal paths.
func IsPattern(spec string) bool {
	return strings.ContainsAny(spec, "*?[")
}

// Normalize trims leading slashes, leading "./" segments and trailing slashes
// from a slash-separated path or pattern. A leading slash means the folder
// root, as it does for literal specs.
func Normalize(p string) string {
	p = strings.TrimLeft(p, "/")
	for strings.HasPrefix(p, "./") {
		p = strings.TrimLeft(p[2:], "/")
	}

	return strings.TrimRight(p, "/")
}
