package execs

import (
	"errors"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"

	"github.com/mattn/go-shellwords"
)

// PathPlaceholder is replaced with the target path in command arguments.
// When no argument contains it, the path is appended as the last argument.
const PathPlaceholder = "{path}"

var (
	// ErrCommandExecution is returned when command execution fails.
	ErrCommandExecution = errors.New("run")

	// ErrEmptyCommand is returned when a command is empty.
	ErrEmptyCommand = errors.New("empty command")
)

// essentialVars are always inherited from the caller.
var essentialVars = []string{"PATH", "HOME", "USER", "TERM", "COLORTERM", "DISPLAY", "WAYLAND_DISPLAY", "XDG_RUNTIME_DIR"}

// Result represents the output of a command that was waited for.
type Result struct {
	Stdout string
	Stderr string
}

// CallerRef refers to environment variables of the caller process.
type CallerRef struct {
	pattern *LazyRegexp

	// Pattern is a regex pattern for matching environment variable names.
	Pattern string `json:"pattern,omitempty" jsonschema:"title=Pattern,format=regex"`
	// Name is the specific environment variable name to inherit.
	Name string `json:"name,omitempty" jsonschema:"title=Name"`
}

// EnvVar is an environment variable definition.
type EnvVar struct {
	// ValueFrom takes the value from the caller's environment.
	ValueFrom *CallerRef `json:"valueFrom,omitempty" jsonschema:"title=Value From"`
	// Name is the environment variable name.
	Name string `json:"name" jsonschema:"title=Name,minLength=1"`
	// Value is the environment variable value.
	Value string `json:"value,omitempty" jsonschema:"title=Value"`
}

// Command is a configured external program.
type Command struct {
	// Command is the command line, split into arguments with shell quoting
	// rules. Use "{path}" to place the target path.
	Command string `json:"command" jsonschema:"title=Command,minLength=1"`
	// Env sets additional environment variables.
	Env []EnvVar `json:"env,omitempty" jsonschema:"title=Environment Variables"`
	// EnvFrom inherits environment variables from the caller.
	EnvFrom []CallerRef `json:"envFrom,omitempty" jsonschema:"title=Environment Variables From"`
}

// NewCommand creates a new [Command] from a command line.
func NewCommand(line string) *Command {
	return &Command{Command: line}
}

// Argv splits the command line and places path.
func (c *Command) Argv(path string) ([]string, error) {
	if strings.TrimSpace(c.Command) == "" {
		return nil, ErrEmptyCommand
	}

	args, err := shellwords.Parse(c.Command)
	if err != nil {
		return nil, fmt.Errorf("parse command %q: %w", c.Command, err)
	}

	if len(args) == 0 {
		return nil, ErrEmptyCommand
	}

	placed := false

	for i, arg := range args[1:] {
		if strings.Contains(arg, PathPlaceholder) {
			args[i+1] = strings.ReplaceAll(arg, PathPlaceholder, path)
			placed = true
		}
	}

	if !placed && path != "" {
		args = append(args, path)
	}

	return args, nil
}

// Validate checks that the command line parses and compiles every pattern.
func (c *Command) Validate() error {
	if _, err := c.Argv(""); err != nil {
		return err
	}

	for i := range c.EnvFrom {
		if err := c.EnvFrom[i].Compile(); err != nil {
			return fmt.Errorf("envFrom[%d]: %w", i, err)
		}
	}

	return nil
}

// Environ builds the environment for the command from the caller's
// environment, given in [os.Environ] form.
func (c *Command) Environ(base []string) []string {
	baseEnv := make(map[string]string, len(base))
	for _, kv := range base {
		if k, v, ok := strings.Cut(kv, "="); ok {
			baseEnv[k] = v
		}
	}

	env := make(map[string]string)
	for _, k := range essentialVars {
		if v, ok := baseEnv[k]; ok {
			env[k] = v
		}
	}

	for i := range c.EnvFrom {
		ref := &c.EnvFrom[i]
		if ref.Name != "" {
			if v, ok := baseEnv[ref.Name]; ok {
				env[ref.Name] = v
			}
		}

		re, err := ref.regexp()
		if err != nil || re == nil {
			continue
		}

		for k, v := range baseEnv {
			if re.MatchString(k) {
				env[k] = v
			}
		}
	}

	for _, ev := range c.Env {
		switch {
		case ev.Name == "":
		case ev.Value != "":
			env[ev.Name] = ev.Value
		case ev.ValueFrom != nil && ev.ValueFrom.Name != "":
			if v, ok := baseEnv[ev.ValueFrom.Name]; ok {
				env[ev.Name] = v
			}
		}
	}

	out := make([]string, 0, len(env))
	for _, k := range slices.Sorted(maps.Keys(env)) {
		out = append(out, k+"="+env[k])
	}

	return out
}

func (c *Command) String() string {
	return c.Command
}

// Compile prepares the pattern for use. Call it before sharing the reference
// between goroutines.
func (r *CallerRef) Compile() error {
	r.pattern = NewLazyRegexp(r.Pattern)

	_, err := r.pattern.Get()

	return err
}

func (r *CallerRef) regexp() (*regexp.Regexp, error) {
	if r.pattern == nil {
		return NewLazyRegexp(r.Pattern).Get()
	}

	return r.pattern.Get()
}
