package main

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/cschleiden/swf-workers/internal/config"
)

// setupTracing installs a tracer provider for the configured exporter. Without an exporter it
// returns a nil provider and the backends fall back to a no-op tracer.
func setupTracing(ctx context.Context, cfg *config.Config) (trace.TracerProvider, func(context.Context) error, error) {
	var opt sdktrace.TracerProviderOption

	switch cfg.Tracing.Exporter {
	case config.ExporterStdout:
		exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, nil, err
		}

		opt = sdktrace.WithSyncer(exp)

	case config.ExporterOTLP:
		var opts []otlptracehttp.Option
		if cfg.Tracing.Endpoint != "" {
			opts = append(opts, otlptracehttp.WithEndpoint(cfg.Tracing.Endpoint))
		}

		exp, err := otlptracehttp.New(ctx, opts...)
		if err != nil {
			return nil, nil, err
		}

		opt = sdktrace.WithBatcher(exp)

	default:
		return nil, func(context.Context) error { return nil }, nil
	}

	tp := sdktrace.NewTracerProvider(
		opt,
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String("swf-worker"),
		)),
	)

	otel.SetTracerProvider(tp)

	return tp, tp.Shutdown, nil
}
