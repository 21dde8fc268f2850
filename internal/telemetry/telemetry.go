// Package telemetry installs the global OpenTelemetry tracer and meter
// providers. Components only use the global API (otel.Tracer, otel.Meter), so
// with telemetry disabled they run against the no-op providers.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/raysh454/phishlens/internal/logging"
)

type Config struct {
	Enabled bool
	// Endpoint is the OTLP gRPC collector address (host:port).
	Endpoint    string
	ServiceName string
	// MetricInterval is how often metrics are pushed.
	MetricInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		Enabled:        false,
		Endpoint:       "localhost:4317",
		ServiceName:    "phishlens",
		MetricInterval: 10 * time.Second,
	}
}

// ShutdownFunc flushes and stops the providers installed by Init.
type ShutdownFunc func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// Init installs OTLP trace and metric exporters when cfg.Enabled. The
// returned ShutdownFunc is always safe to call.
func Init(ctx context.Context, cfg Config, logger logging.Logger) (ShutdownFunc, error) {
	if logger == nil {
		return noopShutdown, errors.New("telemetry: nil logger")
	}
	if !cfg.Enabled {
		logger.Debug("telemetry disabled")
		return noopShutdown, nil
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultConfig().Endpoint
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = DefaultConfig().ServiceName
	}
	if cfg.MetricInterval <= 0 {
		cfg.MetricInterval = DefaultConfig().MetricInterval
	}

	res, err := resource.New(ctx,
		resource.WithTelemetrySDK(),
		resource.WithFromEnv(),
		resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)),
	)
	if err != nil {
		return noopShutdown, fmt.Errorf("telemetry: build resource: %w", err)
	}

	dialOpts := []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}

	traceExp, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
		otlptracegrpc.WithDialOption(dialOpts...),
	)
	if err != nil {
		return noopShutdown, fmt.Errorf("telemetry: trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExp),
		sdktrace.WithResource(res),
	)

	metricExp, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
		otlpmetricgrpc.WithDialOption(dialOpts...),
	)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return noopShutdown, fmt.Errorf("telemetry: metric exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp, sdkmetric.WithInterval(cfg.MetricInterval))),
		sdkmetric.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	logger.Info("telemetry initialized",
		logging.Field{Key: "endpoint", Value: cfg.Endpoint},
		logging.Field{Key: "service", Value: cfg.ServiceName})

	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}

// Flush calls shutdown with a bounded timeout.
func Flush(ctx context.Context, shutdown ShutdownFunc, logger logging.Logger) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil && logger != nil {
		logger.Warn("telemetry shutdown failed", logging.Err(err))
	}
}
