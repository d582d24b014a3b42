// Package classify assigns a folder type to a folder root.
//
// A [Classifier] walks an ordered [foldertype.Set] and returns the id of the
// first definition whose detect rule is satisfied, or [foldertype.Unknown]
// when none is. Classification only reads the filesystem; it never mutates
// any state, so repeated calls over an unchanged tree give the same result.
package classify

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/macropower/foldex/pkg/diag"
	"github.com/macropower/foldex/pkg/expr"
	"github.com/macropower/foldex/pkg/foldertype"
	"github.com/macropower/foldex/pkg/log"
	"github.com/macropower/foldex/pkg/probe"
)

// Outcome is the result of evaluating one clause of a detect rule.
type Outcome string

const (
	// OutcomeAbsent means the clause is not present, which satisfies it.
	OutcomeAbsent Outcome = "absent"
	// OutcomePass means the clause was evaluated and satisfied.
	OutcomePass Outcome = "pass"
	// OutcomeFail means the clause was evaluated and not satisfied.
	OutcomeFail Outcome = "fail"
	// OutcomeSkipped means an earlier clause failed, so this one was not evaluated.
	OutcomeSkipped Outcome = "skipped"
)

// Evaluation records how one definition's rule was evaluated.
type Evaluation struct {
	Type    string  `json:"type"  yaml:"type"`
	Any     Outcome `json:"any"   yaml:"any"`
	All     Outcome `json:"all"   yaml:"all"`
	Match   Outcome `json:"match" yaml:"match"`
	Matched bool    `json:"matched" yaml:"matched"`
}

// Result is the outcome of a classification.
type Result struct {
	Type        string       `json:"type"        yaml:"type"`
	Root        string       `json:"root"        yaml:"root"`
	Evaluations []Evaluation `json:"evaluations" yaml:"evaluations"`
}

// Classifier evaluates folder type definitions against folder roots.
// It is safe for concurrent use.
type Classifier struct {
	prober *probe.Prober
	tracer trace.Tracer
}

// New creates a new [Classifier] that probes paths with p.
func New(p *probe.Prober) *Classifier {
	if p == nil {
		p = probe.New()
	}

	return &Classifier{
		prober: p,
		tracer: otel.Tracer("classifier"),
	}
}

// Classify returns the id of the first definition in set whose rule is
// satisfied by root, or [foldertype.Unknown].
func (c *Classifier) Classify(ctx context.Context, root string, set *foldertype.Set) string {
	return c.Explain(ctx, root, set).Type
}

// Explain classifies root like [Classifier.Classify] and also reports how
// each definition up to the first match was evaluated.
func (c *Classifier) Explain(ctx context.Context, root string, set *foldertype.Set) Result {
	ctx, span := c.tracer.Start(ctx, "classify", trace.WithAttributes(
		attribute.String("path", root),
	))
	defer span.End()

	res := Result{Type: foldertype.Unknown, Root: root}
	if set == nil {
		return res
	}

	sess := c.prober.Session(root)

	for _, def := range set.Definitions() {
		if !def.Detectable() {
			continue
		}

		ev := c.evaluate(ctx, sess.WithDiagnostics(diag.WithType(sess.Sink(), def.ID)), def)
		res.Evaluations = append(res.Evaluations, ev)

		if ev.Matched {
			res.Type = def.ID
			break
		}
	}

	span.SetAttributes(attribute.String("type", res.Type))

	log.WithContext(ctx).DebugContext(ctx, "classified folder",
		slog.String("path", root),
		slog.String("type", res.Type),
		slog.Int("evaluated", len(res.Evaluations)),
	)

	return res
}

func (c *Classifier) evaluate(ctx context.Context, sess *probe.Session, def *foldertype.Definition) Evaluation {
	rule := def.Detect
	ev := Evaluation{
		Type:  def.ID,
		Any:   OutcomeAbsent,
		All:   OutcomeAbsent,
		Match: OutcomeAbsent,
	}

	if len(rule.Any) > 0 {
		ev.Any = outcome(sess.Any(ctx, rule.Any))
	}

	if ev.Any == OutcomeFail {
		ev.All = skipIfPresent(len(rule.All) > 0)
		ev.Match = skipIfPresent(rule.Match != "")

		return ev
	}

	if len(rule.All) > 0 {
		ev.All = outcome(sess.All(ctx, rule.All))
	}

	if ev.All == OutcomeFail {
		ev.Match = skipIfPresent(rule.Match != "")
		return ev
	}

	if rule.Match != "" {
		ev.Match = outcome(c.match(ctx, sess, rule))
	}

	ev.Matched = ev.Match != OutcomeFail

	return ev
}

// match evaluates the rule's CEL expression. Compile and evaluation errors
// are reported as diagnostics and count as a non-match.
func (c *Classifier) match(ctx context.Context, sess *probe.Session, rule *foldertype.DetectRule) bool {
	prg, err := rule.Program()
	if err != nil {
		sess.Report(ctx, diag.Diagnostic{Kind: diag.KindExpr, Spec: rule.Match, Err: err})
		return false
	}

	ok, err := expr.EvalBool(prg, sess.Root(), sess.Names(ctx))
	if err != nil {
		sess.Report(ctx, diag.Diagnostic{Kind: diag.KindExpr, Spec: rule.Match, Err: err})
		return false
	}

	return ok
}

func outcome(ok bool) Outcome {
	if ok {
		return OutcomePass
	}

	return OutcomeFail
}

func skipIfPresent(present bool) Outcome {
	if present {
		return OutcomeSkipped
	}

	return OutcomeAbsent
}
