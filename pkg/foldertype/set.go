package foldertype

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalid is the parent of every [Set] validation error.
	ErrInvalid = errors.New("invalid folder types")

	// ErrEmptyID is returned when a definition has no id.
	ErrEmptyID = fmt.Errorf("%w: empty id", ErrInvalid)

	// ErrDuplicateID is returned when two definitions share an id.
	ErrDuplicateID = fmt.Errorf("%w: duplicate id", ErrInvalid)

	// ErrMissingUnknown is returned when no definition has the [Unknown] id.
	ErrMissingUnknown = fmt.Errorf("%w: missing %q type", ErrInvalid, Unknown)
)

// ValidationError locates a [Set] validation failure.
type ValidationError struct {
	Err   error
	Field string // Field of the offending definition, empty for set-level errors.
	Index int    // Index of the offending definition, -1 for set-level errors.
}

func (e *ValidationError) Error() string {
	if e.Index < 0 {
		return e.Err.Error()
	}

	return fmt.Sprintf("types[%d].%s: %v", e.Index, e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Set is an ordered, validated collection of definitions.
// A Set is immutable and safe for concurrent use.
type Set struct {
	index map[string]int
	defs  []*Definition
}

// NewSet validates defs and returns them as a [Set].
// The ids must be non-empty and unique, and one of them must be [Unknown].
func NewSet(defs []*Definition) (*Set, error) {
	s := &Set{
		defs:  make([]*Definition, len(defs)),
		index: make(map[string]int, len(defs)),
	}

	copy(s.defs, defs)

	for i, d := range s.defs {
		if d == nil || d.ID == "" {
			return nil, &ValidationError{Index: i, Field: "id", Err: ErrEmptyID}
		}

		if first, ok := s.index[d.ID]; ok {
			return nil, &ValidationError{
				Index: i,
				Field: "id",
				Err:   fmt.Errorf("%w %q (first defined at types[%d])", ErrDuplicateID, d.ID, first),
			}
		}

		s.index[d.ID] = i
	}

	if _, ok := s.index[Unknown]; !ok {
		return nil, &ValidationError{Index: -1, Err: ErrMissingUnknown}
	}

	return s, nil
}

// MustNewSet creates a new [Set] and panics on error.
func MustNewSet(defs ...*Definition) *Set {
	s, err := NewSet(defs)
	if err != nil {
		panic(err)
	}

	return s
}

// Definitions returns the definitions in priority order.
func (s *Set) Definitions() []*Definition {
	out := make([]*Definition, len(s.defs))
	copy(out, s.defs)

	return out
}

// Len returns the number of definitions.
func (s *Set) Len() int {
	return len(s.defs)
}

// Get returns the definition with the given id.
func (s *Set) Get(id string) (*Definition, bool) {
	i, ok := s.index[id]
	if !ok {
		return nil, false
	}

	return s.defs[i], true
}

// Has reports whether id is a loaded folder type.
func (s *Set) Has(id string) bool {
	_, ok := s.index[id]
	return ok
}

// Public returns the display projection of every definition, in order.
func (s *Set) Public() []Public {
	out := make([]Public, 0, len(s.defs))
	for _, d := range s.defs {
		out = append(out, d.Public())
	}

	return out
}
