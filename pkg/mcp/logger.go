package mcp

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/macropower/foldex/pkg/log"
)

// ToolHandler is the signature shared by all foldex tool handlers.
type ToolHandler[In, Out any] func(
	context.Context,
	*mcp.ServerSession,
	*mcp.CallToolParamsFor[In],
) (*mcp.CallToolResultFor[Out], error)

// WithTracing wraps handler in a span named after the tool. Failed calls,
// whether returned as errors or as error results, are logged and recorded
// on the span.
func WithTracing[In, Out any](tracer trace.Tracer, handler ToolHandler[In, Out]) mcp.ToolHandlerFor[In, Out] {
	return func(
		ctx context.Context,
		session *mcp.ServerSession,
		params *mcp.CallToolParamsFor[In],
	) (*mcp.CallToolResultFor[Out], error) {
		ctx, span := tracer.Start(ctx, params.Name, trace.WithAttributes(
			attribute.String("mcp.tool", params.Name),
		))
		defer span.End()

		logger := log.WithContext(ctx).With(slog.String("tool", params.Name))
		logger.DebugContext(ctx, "handling tool call", slog.Any("args", params.Arguments))

		result, err := handler(ctx, session, params)

		switch {
		case err != nil:
			logger.ErrorContext(ctx, "tool call failed", log.ErrAttr(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())

		case result != nil && result.IsError:
			logger.WarnContext(ctx, "tool call returned an error result")
			span.SetStatus(codes.Error, "error result")

		default:
			logger.DebugContext(ctx, "tool call completed")
		}

		return result, err
	}
}
