// Package telemetry provides OpenTelemetry tracing setup and the
// Prometheus metrics relay exposes. The runtime does not emit spans:
// nothing in this repository calls InitTracing or StartSpan.
package telemetry

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig configures the process tracer.
type TracingConfig struct {
	ServiceName    string
	ServiceVersion string
	// Exporter selects "jaeger", "zipkin", "stdout", or "none".
	Exporter    string
	Endpoint    string
	Environment string
	SampleRate  float64
}

// DefaultTracingConfig returns sane defaults for local development.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		ServiceName:    "relay",
		ServiceVersion: "0.1.0",
		Exporter:       "stdout",
		Environment:    "development",
		SampleRate:     1.0,
	}
}

func (c TracingConfig) validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("service name cannot be empty")
	}
	if c.SampleRate < 0.0 || c.SampleRate > 1.0 {
		return fmt.Errorf("sample rate must be between 0.0 and 1.0")
	}
	return nil
}

var (
	globalTracer trace.Tracer
	mu           sync.RWMutex
	initialized  bool
)

// InitTracing installs a tracer provider matching cfg. Tracer() and
// StartSpan are no-ops until this is called.
func InitTracing(ctx context.Context, cfg TracingConfig) error {
	if err := cfg.validate(); err != nil {
		return fmt.Errorf("invalid tracing config: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if initialized {
		return fmt.Errorf("telemetry: tracing already initialized")
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String(cfg.ServiceVersion),
			attribute.String("environment", cfg.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := newExporter(cfg.Exporter, cfg.Endpoint)
	if err != nil {
		return err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRate)),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	globalTracer = tp.Tracer(cfg.ServiceName)
	initialized = true
	return nil
}

// Tracer returns the global tracer, or a noop tracer before InitTracing.
func Tracer() trace.Tracer {
	mu.RLock()
	defer mu.RUnlock()
	if globalTracer == nil {
		return trace.NewNoopTracerProvider().Tracer("noop")
	}
	return globalTracer
}

// StartSpan starts a span on the global tracer. The runtime does not
// call it; spawns and handler invocations are not traced.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

// ShutdownTracing drains and shuts down the tracer provider.
func ShutdownTracing(ctx context.Context) error {
	mu.Lock()
	defer mu.Unlock()
	if !initialized {
		return nil
	}
	if tp, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); ok {
		return tp.Shutdown(ctx)
	}
	return nil
}
