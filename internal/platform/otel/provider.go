// Package otel wires OpenTelemetry tracing for the site's processes.
package otel

import (
	"context"
	"fmt"
	"strings"

	"github.com/pepedome/site/internal/platform/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Settings selects where and how much to trace.
type Settings struct {
	Enabled     string  `env:"PEPEDOME_OTEL_ENABLED"`
	Endpoint    string  `env:"PEPEDOME_OTEL_ENDPOINT"`
	SampleRatio float64 `env:"PEPEDOME_OTEL_SAMPLE_RATIO" envDefault:"1"`
}

func (s Settings) active() bool {
	return strings.TrimSpace(s.Endpoint) != "" && !strings.EqualFold(strings.TrimSpace(s.Enabled), "false")
}

func (s Settings) sampler() sdktrace.Sampler {
	switch {
	case s.SampleRatio <= 0:
		return sdktrace.NeverSample()
	case s.SampleRatio >= 1:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(s.SampleRatio))
	}
}

// Setup reads Settings from the environment and initialises tracing for
// serviceName. Without an endpoint it registers nothing and returns a no-op
// shutdown. The returned shutdown flushes pending spans.
func Setup(ctx context.Context, serviceName string) (shutdown func(context.Context) error, err error) {
	var settings Settings
	if err := config.ParseEnv(&settings); err != nil {
		return noop, fmt.Errorf("otel settings: %w", err)
	}
	return SetupWith(ctx, serviceName, settings)
}

// SetupWith initialises tracing from explicit settings.
func SetupWith(ctx context.Context, serviceName string, settings Settings) (func(context.Context) error, error) {
	if !settings.active() {
		return noop, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(settings.Endpoint))
	if err != nil {
		return noop, fmt.Errorf("otel exporter: %w", err)
	}
	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName("pepedome-"+serviceName),
		semconv.ServiceNamespace("pepedome"),
	))
	if err != nil {
		return noop, fmt.Errorf("otel resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(settings.sampler()),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	return tp.Shutdown, nil
}

func noop(context.Context) error { return nil }
