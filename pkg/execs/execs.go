package execs

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/macropower/foldex/pkg/log"
)

// Executor runs configured commands against a target path.
type Executor struct {
	tracer  trace.Tracer
	baseEnv []string
}

// ExecutorOpt configures an [Executor].
type ExecutorOpt func(*Executor)

// WithBaseEnv sets the caller environment that commands inherit from.
// Defaults to [os.Environ].
func WithBaseEnv(env []string) ExecutorOpt {
	return func(e *Executor) {
		e.baseEnv = env
	}
}

// NewExecutor creates a new [Executor].
func NewExecutor(opts ...ExecutorOpt) *Executor {
	e := &Executor{
		tracer:  otel.Tracer("executor"),
		baseEnv: os.Environ(),
	}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Start launches cmd for path without waiting for it to exit, and returns the
// process id. The process outlives ctx.
func (e *Executor) Start(ctx context.Context, cmd *Command, dir, path string) (int, error) {
	ctx, span := e.tracer.Start(ctx, "exec.start", trace.WithAttributes(
		attribute.String("command", cmd.String()),
		attribute.String("path", path),
	))
	defer span.End()

	c, err := e.prepare(context.WithoutCancel(ctx), cmd, dir, path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return 0, err
	}

	if err := c.Start(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return 0, fmt.Errorf("%w: %w", ErrCommandExecution, err)
	}

	pid := c.Process.Pid

	// Reap the child once it exits.
	go func() {
		_ = c.Wait() //nolint:errcheck // Detached.
	}()

	log.WithContext(ctx).DebugContext(ctx, "command started",
		slog.String("command", strings.Join(c.Args, " ")),
		slog.Int("pid", pid),
	)

	return pid, nil
}

// Run runs cmd for path and waits for it to exit.
func (e *Executor) Run(ctx context.Context, cmd *Command, dir, path string) (*Result, error) {
	ctx, span := e.tracer.Start(ctx, "exec.run", trace.WithAttributes(
		attribute.String("command", cmd.String()),
		attribute.String("path", path),
	))
	defer span.End()

	c, err := e.prepare(ctx, cmd, dir, path)
	if err != nil {
		return nil, err
	}

	logger := log.WithContext(ctx).With(slog.String("command", strings.Join(c.Args, " ")))

	var stdout, stderr bytes.Buffer

	c.Stdout = &stdout
	c.Stderr = &stderr

	start := time.Now()
	err = c.Run()
	result := &Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		logger.DebugContext(ctx, "command failed",
			slog.Duration("duration", time.Since(start)),
			log.ErrAttr(err),
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return result, fmt.Errorf("%w: %w", ErrCommandExecution, err)
	}

	logger.DebugContext(ctx, "command executed successfully",
		slog.Duration("duration", time.Since(start)),
	)

	return result, nil
}

func (e *Executor) prepare(ctx context.Context, cmd *Command, dir, path string) (*exec.Cmd, error) {
	argv, err := cmd.Argv(path)
	if err != nil {
		return nil, err
	}

	//nolint:gosec // G204: Commands come from the user's own configuration.
	c := exec.CommandContext(ctx, argv[0], argv[1:]...)
	c.Dir = dir
	c.Env = cmd.Environ(e.baseEnv)

	return c, nil
}
