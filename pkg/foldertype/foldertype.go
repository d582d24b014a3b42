package foldertype

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/macropower/foldex/pkg/expr"
)

// Unknown is the id of the mandatory fallback folder type.
const Unknown = "unknown"

// DetectRule describes the paths that identify a folder type.
//
// Every clause is optional, and an absent clause is satisfied. A rule is
// satisfied when all of its clauses are satisfied, so a rule with no clauses
// matches every folder.
//
// Path specs are relative to the folder root and use forward slashes. A spec
// containing any of `*`, `?` or `[` is a glob and is matched against every
// entry in the folder's subtree (`**` spans directories). Any other spec is a
// literal that must exist as a file or directory.
type DetectRule struct {
	program cel.Program
	progErr error
	once    sync.Once

	// Any is satisfied if at least one path spec matches.
	Any []string `json:"any,omitempty" jsonschema:"title=Any" yaml:"any,flow,omitempty"`
	// All is satisfied if every path spec matches.
	All []string `json:"all,omitempty" jsonschema:"title=All" yaml:"all,flow,omitempty"`
	// Match is an optional CEL expression evaluated against the names of the
	// entries at the top level of the folder.
	//
	// Variables:
	//   - `files` (list<string>): names of the entries directly inside the folder
	//   - `dir` (string): the folder path
	//
	// Example: files.exists(f, pathExt(f) == ".sln").
	Match string `json:"match,omitempty" jsonschema:"title=Match Expression"`
}

// Program returns the compiled [DetectRule.Match] expression.
// It returns a nil program when the rule has no expression. Compilation
// happens once; later calls return the cached result.
//
//nolint:ireturn // Following CEL's function signature.
func (r *DetectRule) Program() (cel.Program, error) {
	r.once.Do(func() {
		if r.Match == "" {
			return
		}

		prg, err := expr.DefaultEnvironment.Compile(r.Match)
		if err != nil {
			r.progErr = fmt.Errorf("match %q: %w", r.Match, err)
			return
		}

		r.program = prg
	})

	return r.program, r.progErr
}

// Definition is a single folder type.
type Definition struct {
	// Detect is the rule used for automatic classification. Definitions
	// without a rule are never matched automatically.
	Detect *DetectRule `json:"detect,omitempty" jsonschema:"title=Detect"`
	// ID is the unique, stable key of the folder type.
	ID string `json:"id" jsonschema:"title=ID,minLength=1"`
	// Label is the human readable name.
	Label string `json:"label" jsonschema:"title=Label"`
	// Icon is an icon reference for display.
	Icon string `json:"icon,omitempty" jsonschema:"title=Icon"`
}

// DefinitionOpt configures a [Definition].
type DefinitionOpt func(*Definition)

// New creates a new [Definition].
func New(id, label string, opts ...DefinitionOpt) *Definition {
	d := &Definition{
		ID:    id,
		Label: label,
	}
	for _, opt := range opts {
		opt(d)
	}

	return d
}

// WithIcon sets the icon reference.
func WithIcon(icon string) DefinitionOpt {
	return func(d *Definition) {
		d.Icon = icon
	}
}

// WithAny adds path specs to the rule's any clause, creating the rule if needed.
func WithAny(specs ...string) DefinitionOpt {
	return func(d *Definition) {
		d.rule().Any = append(d.rule().Any, specs...)
	}
}

// WithAll adds path specs to the rule's all clause, creating the rule if needed.
func WithAll(specs ...string) DefinitionOpt {
	return func(d *Definition) {
		d.rule().All = append(d.rule().All, specs...)
	}
}

// WithMatch sets the rule's CEL expression, creating the rule if needed.
func WithMatch(expression string) DefinitionOpt {
	return func(d *Definition) {
		d.rule().Match = expression
	}
}

// WithDetect sets an empty rule, which every folder satisfies.
func WithDetect() DefinitionOpt {
	return func(d *Definition) {
		d.rule()
	}
}

func (d *Definition) rule() *DetectRule {
	if d.Detect == nil {
		d.Detect = &DetectRule{}
	}

	return d.Detect
}

// Detectable reports whether the definition takes part in automatic
// classification.
func (d *Definition) Detectable() bool {
	return d.Detect != nil
}

// Public returns the caller-facing projection of the definition.
func (d *Definition) Public() Public {
	return Public{
		ID:    d.ID,
		Label: d.Label,
		Icon:  d.Icon,
	}
}

func (d *Definition) String() string {
	return d.ID
}

// Public is the display information of a folder type, without its rule.
type Public struct {
	ID    string `json:"id"    yaml:"id"`
	Label string `json:"label" yaml:"label"`
	Icon  string `json:"icon"  yaml:"icon"`
}
