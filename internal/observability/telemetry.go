package observability

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/railzwaylabs/metertrack/internal/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/railzwaylabs/metertrack"

// Telemetry holds the installed OpenTelemetry providers. Both are nil
// when no OTLP endpoint is configured and the global no-op providers stay.
type Telemetry struct {
	Tracer *sdktrace.TracerProvider
	Meter  *sdkmetric.MeterProvider
}

func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	if t.Tracer != nil {
		errs = append(errs, t.Tracer.Shutdown(ctx))
	}
	if t.Meter != nil {
		errs = append(errs, t.Meter.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

func NewTelemetry(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (*Telemetry, error) {
	tel := &Telemetry{}
	endpoint := strings.TrimSpace(cfg.Observability.OTLPEndpoint)
	if endpoint == "" {
		log.Info("otlp endpoint not configured, telemetry export disabled")
		return tel, nil
	}

	ctx := context.Background()
	res := resource.NewSchemaless(attribute.String("service.name", cfg.AppName))

	traceExp, metricExp, err := newExporters(ctx, cfg.Observability)
	if err != nil {
		return nil, err
	}

	ratio := cfg.Observability.SampleRatio
	if ratio <= 0 || ratio > 1 {
		ratio = 1
	}
	tel.Tracer = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExp),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
	)
	tel.Meter = sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp)),
		sdkmetric.WithResource(res),
	)

	otel.SetTracerProvider(tel.Tracer)
	otel.SetMeterProvider(tel.Meter)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return tel.Shutdown(ctx)
		},
	})

	log.Info("telemetry export enabled",
		zap.String("endpoint", endpoint),
		zap.String("protocol", cfg.Observability.OTLPProtocol),
	)
	return tel, nil
}

func newExporters(ctx context.Context, cfg config.ObservabilityConfig) (sdktrace.SpanExporter, sdkmetric.Exporter, error) {
	endpoint := strings.TrimSpace(cfg.OTLPEndpoint)

	switch strings.ToLower(cfg.OTLPProtocol) {
	case "grpc":
		traceOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(endpoint)}
		metricOpts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(endpoint)}
		if cfg.OTLPInsecure {
			traceOpts = append(traceOpts, otlptracegrpc.WithInsecure())
			metricOpts = append(metricOpts, otlpmetricgrpc.WithInsecure())
		}
		te, err := otlptracegrpc.New(ctx, traceOpts...)
		if err != nil {
			return nil, nil, fmt.Errorf("create otlp grpc trace exporter: %w", err)
		}
		me, err := otlpmetricgrpc.New(ctx, metricOpts...)
		if err != nil {
			return nil, nil, fmt.Errorf("create otlp grpc metric exporter: %w", err)
		}
		return te, me, nil
	case "http", "":
		traceOpts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
		metricOpts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(endpoint)}
		if cfg.OTLPInsecure {
			traceOpts = append(traceOpts, otlptracehttp.WithInsecure())
			metricOpts = append(metricOpts, otlpmetrichttp.WithInsecure())
		}
		te, err := otlptracehttp.New(ctx, traceOpts...)
		if err != nil {
			return nil, nil, fmt.Errorf("create otlp http trace exporter: %w", err)
		}
		me, err := otlpmetrichttp.New(ctx, metricOpts...)
		if err != nil {
			return nil, nil, fmt.Errorf("create otlp http metric exporter: %w", err)
		}
		return te, me, nil
	default:
		return nil, nil, fmt.Errorf("unsupported otlp protocol %q", cfg.OTLPProtocol)
	}
}

// Instruments are the domain counters exported over OTLP.
type Instruments struct {
	ReadingsSubmitted metric.Int64Counter
	ReadingsDeleted   metric.Int64Counter
	BaselinesSet      metric.Int64Counter
	UsageComputed     metric.Int64Counter
}

// NewInstruments creates counters on the global meter provider. The
// telemetry argument orders construction after provider installation.
func NewInstruments(_ *Telemetry) (*Instruments, error) {
	meter := otel.Meter(instrumentationName)

	submitted, err := meter.Int64Counter("metertrack.readings.submitted",
		metric.WithDescription("Meter readings inserted or replaced."))
	if err != nil {
		return nil, err
	}
	deleted, err := meter.Int64Counter("metertrack.readings.deleted",
		metric.WithDescription("Meter readings removed individually or by cutoff."))
	if err != nil {
		return nil, err
	}
	baselines, err := meter.Int64Counter("metertrack.baselines.set",
		metric.WithDescription("Base readings recorded."))
	if err != nil {
		return nil, err
	}
	computed, err := meter.Int64Counter("metertrack.usage.computed",
		metric.WithDescription("Usage metric reports computed without cache."))
	if err != nil {
		return nil, err
	}

	return &Instruments{
		ReadingsSubmitted: submitted,
		ReadingsDeleted:   deleted,
		BaselinesSet:      baselines,
		UsageComputed:     computed,
	}, nil
}

// NopInstruments returns counters bound to the no-op meter, for tests.
func NopInstruments() *Instruments {
	ins, _ := NewInstruments(nil)
	return ins
}
