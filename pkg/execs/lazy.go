package execs

import (
	"fmt"
	"regexp"
	"sync"
)

// LazyRegexp compiles a regular expression on first use.
// It is safe for concurrent use.
type LazyRegexp struct {
	err     error
	regex   *regexp.Regexp
	pattern string
	once    sync.Once
}

// NewLazyRegexp creates a new [LazyRegexp] for pattern.
func NewLazyRegexp(pattern string) *LazyRegexp {
	return &LazyRegexp{pattern: pattern}
}

// Get returns the compiled expression. An empty pattern yields nil.
func (lr *LazyRegexp) Get() (*regexp.Regexp, error) {
	lr.once.Do(func() {
		if lr.pattern == "" {
			return
		}

		re, err := regexp.Compile(lr.pattern)
		if err != nil {
			lr.err = fmt.Errorf("compile pattern %q: %w", lr.pattern, err)
			return
		}

		lr.regex = re
	})

	return lr.regex, lr.err
}
