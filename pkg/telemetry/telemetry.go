// Package telemetry configures OpenTelemetry tracing for foldex.
//
// Without an endpoint, spans are recorded only by explicitly added span
// processors. With one, they are exported over OTLP/gRPC.
package telemetry

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/macropower/foldex/pkg/version"
)

const serviceName = "foldex"

// ShutdownFunc flushes and stops a tracer provider.
type ShutdownFunc func(context.Context) error

type options struct {
	endpoint   string
	processors []sdktrace.SpanProcessor
}

// Opt configures [NewProvider] and [Setup].
type Opt func(*options)

// WithEndpoint exports spans to the OTLP/gRPC collector at endpoint.
// A bare host:port uses an insecure connection. A URL is used as given.
func WithEndpoint(endpoint string) Opt {
	return func(o *options) {
		o.endpoint = endpoint
	}
}

// WithSpanProcessor adds sp to the provider.
func WithSpanProcessor(sp sdktrace.SpanProcessor) Opt {
	return func(o *options) {
		o.processors = append(o.processors, sp)
	}
}

// NewProvider creates a tracer provider. It does not install it.
func NewProvider(ctx context.Context, opts ...Opt) (*sdktrace.TracerProvider, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		attribute.String("service.name", serviceName),
		attribute.String("service.version", version.GetVersion()),
	))
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	tpOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}

	if o.endpoint != "" {
		exp, err := newExporter(ctx, o.endpoint)
		if err != nil {
			return nil, err
		}

		tpOpts = append(tpOpts, sdktrace.WithBatcher(exp))
	}

	for _, sp := range o.processors {
		tpOpts = append(tpOpts, sdktrace.WithSpanProcessor(sp))
	}

	return sdktrace.NewTracerProvider(tpOpts...), nil
}

// Setup creates a tracer provider and installs it globally.
// The returned function must be called before exiting to flush spans.
func Setup(ctx context.Context, opts ...Opt) (ShutdownFunc, error) {
	tp, err := NewProvider(ctx, opts...)
	if err != nil {
		return nil, err
	}

	otel.SetTracerProvider(tp)

	return func(ctx context.Context) error {
		err := tp.Shutdown(ctx)
		if err != nil {
			return fmt.Errorf("shutdown tracer provider: %w", err)
		}

		return nil
	}, nil
}

func newExporter(ctx context.Context, endpoint string) (*otlptrace.Exporter, error) {
	var opt []otlptracegrpc.Option
	if strings.Contains(endpoint, "://") {
		opt = append(opt, otlptracegrpc.WithEndpointURL(endpoint))
	} else {
		opt = append(opt, otlptracegrpc.WithEndpoint(endpoint), otlptracegrpc.WithInsecure())
	}

	exp, err := otlptracegrpc.New(ctx, opt...)
	if err != nil {
		return nil, fmt.Errorf("create OTLP exporter: %w", err)
	}

	return exp, nil
}
