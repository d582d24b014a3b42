// Package action launches external programs on tracked folders and files.
//
// Each [Action] names the kinds of [Target] it accepts. A [Dispatcher] looks
// actions up by id and refuses targets of the wrong kind before launching
// anything.
package action

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/macropower/foldex/pkg/execs"
	"github.com/macropower/foldex/pkg/log"
)

var (
	// ErrUnknownAction is returned for an action id that is not configured.
	ErrUnknownAction = errors.New("unknown action")

	// ErrIncompatibleTarget is returned when an action does not accept the
	// target's kind.
	ErrIncompatibleTarget = errors.New("incompatible target")

	// ErrInvalidAction is returned by [NewDispatcher] for a malformed table.
	ErrInvalidAction = errors.New("invalid action")
)

// TargetKind is the kind of filesystem entry an action is run on.
type TargetKind string

const (
	KindFile   TargetKind = "file"
	KindFolder TargetKind = "folder"
)

// Target is a filesystem entry an action is run on.
type Target struct {
	Kind TargetKind `json:"kind" yaml:"kind"`
	Path string     `json:"path" yaml:"path"`
}

// TargetFor stats path and returns the matching [Target].
func TargetFor(path string) (Target, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Target{}, fmt.Errorf("target: %w", err)
	}

	if info.IsDir() {
		return Target{Kind: KindFolder, Path: path}, nil
	}

	return Target{Kind: KindFile, Path: path}, nil
}

// dir is the working directory used when launching for the target.
func (t Target) dir() string {
	if t.Kind == KindFolder {
		return t.Path
	}

	return filepath.Dir(t.Path)
}

// Action is a configured launcher.
type Action struct {
	execs.Command `json:",inline"`

	// ID is the unique key of the action.
	ID string `json:"id" jsonschema:"title=ID,minLength=1"`
	// Label is the human readable name.
	Label string `json:"label,omitempty" jsonschema:"title=Label"`
	// Accepts lists the target kinds the action can be run on.
	Accepts []TargetKind `json:"accepts" jsonschema:"title=Accepts,minItems=1" yaml:"accepts,flow"`
}

// Accept reports whether the action can be run on targets of kind k.
func (a *Action) Accept(k TargetKind) bool {
	return slices.Contains(a.Accepts, k)
}

// Launcher starts external programs.
type Launcher interface {
	Start(ctx context.Context, cmd *execs.Command, dir, path string) (int, error)
	Run(ctx context.Context, cmd *execs.Command, dir, path string) (*execs.Result, error)
}

// Dispatcher runs actions by id.
type Dispatcher struct {
	launcher Launcher
	index    map[string]*Action
	actions  []*Action
}

// NewDispatcher validates actions and returns a [Dispatcher] for them.
func NewDispatcher(actions []*Action, l Launcher) (*Dispatcher, error) {
	d := &Dispatcher{
		launcher: l,
		index:    make(map[string]*Action, len(actions)),
		actions:  slices.Clone(actions),
	}

	for i, a := range d.actions {
		if err := validate(a); err != nil {
			return nil, fmt.Errorf("actions[%d]: %w", i, err)
		}

		if _, ok := d.index[a.ID]; ok {
			return nil, fmt.Errorf("actions[%d]: %w: duplicate id %q", i, ErrInvalidAction, a.ID)
		}

		d.index[a.ID] = a
	}

	return d, nil
}

func validate(a *Action) error {
	if a == nil || a.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidAction)
	}

	if len(a.Accepts) == 0 {
		return fmt.Errorf("%w: %s: no accepted target kinds", ErrInvalidAction, a.ID)
	}

	for _, k := range a.Accepts {
		if k != KindFile && k != KindFolder {
			return fmt.Errorf("%w: %s: unknown target kind %q", ErrInvalidAction, a.ID, k)
		}
	}

	if err := a.Command.Validate(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidAction, a.ID, err)
	}

	return nil
}

// Actions returns the configured actions in order.
func (d *Dispatcher) Actions() []*Action {
	return slices.Clone(d.actions)
}

// For returns the actions that accept targets of kind k.
func (d *Dispatcher) For(k TargetKind) []*Action {
	var out []*Action
	for _, a := range d.actions {
		if a.Accept(k) {
			out = append(out, a)
		}
	}

	return out
}

// Run launches the action id on t. It does not wait for the program to exit.
func (d *Dispatcher) Run(ctx context.Context, id string, t Target) error {
	a, err := d.lookup(id, t)
	if err != nil {
		return err
	}

	pid, err := d.launcher.Start(ctx, &a.Command, t.dir(), t.Path)
	if err != nil {
		return fmt.Errorf("run %s: %w", id, err)
	}

	log.WithContext(ctx).InfoContext(ctx, "action started",
		slog.String("action", id),
		slog.String("path", t.Path),
		slog.Int("pid", pid),
	)

	return nil
}

// Wait runs the action id on t and waits for the program to exit.
// The returned output is set even when the program fails.
func (d *Dispatcher) Wait(ctx context.Context, id string, t Target) (*execs.Result, error) {
	a, err := d.lookup(id, t)
	if err != nil {
		return nil, err
	}

	res, err := d.launcher.Run(ctx, &a.Command, t.dir(), t.Path)
	if err != nil {
		return res, fmt.Errorf("run %s: %w", id, err)
	}

	return res, nil
}

func (d *Dispatcher) lookup(id string, t Target) (*Action, error) {
	a, ok := d.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, id)
	}

	if !a.Accept(t.Kind) {
		return nil, fmt.Errorf("%w: %s does not accept %s targets", ErrIncompatibleTarget, id, t.Kind)
	}

	return a, nil
}
