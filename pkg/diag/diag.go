// Package diag carries non-fatal diagnostics produced while classifying
// folders.
//
// Classification treats malformed globs, failing match expressions, and
// filesystem errors as "not satisfied" so that one bad rule or unreadable
// entry never fails a whole pass. Those conditions are still reported to a
// [Sink], so a misconfigured rule can be noticed without changing the outcome
// of the pass.
package diag

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/macropower/foldex/pkg/log"
)

// Kind classifies a [Diagnostic].
type Kind string

const (
	// KindGlobCompile reports a path spec that is not a valid glob.
	KindGlobCompile Kind = "glob_compile"
	// KindProbeIO reports a filesystem error while probing a folder.
	KindProbeIO Kind = "probe_io"
	// KindExpr reports a match expression that failed to compile or evaluate.
	KindExpr Kind = "expr"
	// KindLimit reports a subtree walk stopped by a configured bound.
	KindLimit Kind = "limit"
)

// Diagnostic describes a recovered problem.
type Diagnostic struct {
	Err  error  `json:"-"              yaml:"-"`
	Kind Kind   `json:"kind"           yaml:"kind"`
	Root string `json:"root,omitempty" yaml:"root,omitempty"`
	Spec string `json:"spec,omitempty" yaml:"spec,omitempty"`
	Type string `json:"type,omitempty" yaml:"type,omitempty"`
}

func (d Diagnostic) Error() string {
	msg := string(d.Kind)
	if d.Type != "" {
		msg += " type=" + d.Type
	}

	if d.Spec != "" {
		msg += fmt.Sprintf(" spec=%q", d.Spec)
	}

	if d.Root != "" {
		msg += " root=" + d.Root
	}

	if d.Err != nil {
		msg += ": " + d.Err.Error()
	}

	return msg
}

func (d Diagnostic) Unwrap() error {
	return d.Err
}

// Sink receives diagnostics. Implementations must be safe for concurrent use.
type Sink interface {
	Report(ctx context.Context, d Diagnostic)
}

// SinkFunc adapts a function to the [Sink] interface.
type SinkFunc func(ctx context.Context, d Diagnostic)

// Report calls f.
func (f SinkFunc) Report(ctx context.Context, d Diagnostic) {
	f(ctx, d)
}

// Discard drops every diagnostic.
var Discard Sink = SinkFunc(func(context.Context, Diagnostic) {})

// LogSink writes diagnostics to the context logger. Configuration problems
// (globs and expressions) are logged at warn level; filesystem errors are
// expected on real trees and are logged at debug level.
type LogSink struct{}

// Report implements [Sink].
func (LogSink) Report(ctx context.Context, d Diagnostic) {
	level := slog.LevelDebug
	if d.Kind == KindGlobCompile || d.Kind == KindExpr {
		level = slog.LevelWarn
	}

	log.WithContext(ctx).Log(ctx, level, "classification diagnostic",
		slog.String("kind", string(d.Kind)),
		slog.String("type", d.Type),
		slog.String("spec", d.Spec),
		slog.String("root", d.Root),
		slog.Any("error", d.Err),
	)
}

// Multi fans a diagnostic out to several sinks.
func Multi(sinks ...Sink) Sink {
	return SinkFunc(func(ctx context.Context, d Diagnostic) {
		for _, s := range sinks {
			if s != nil {
				s.Report(ctx, d)
			}
		}
	})
}

// WithType returns a sink that stamps diagnostics with a folder type id
// before forwarding them.
func WithType(s Sink, typeID string) Sink {
	return SinkFunc(func(ctx context.Context, d Diagnostic) {
		if d.Type == "" {
			d.Type = typeID
		}

		s.Report(ctx, d)
	})
}
