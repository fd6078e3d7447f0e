package metrics

import (
	"context"

	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"

	config "github.com/tigerroll/demorunner/pkg/batch/core/config"
	metrics "github.com/tigerroll/demorunner/pkg/batch/core/metrics"
	logger "github.com/tigerroll/demorunner/pkg/batch/support/util/logger"
)

// NewMetricRecorder selects the MetricRecorder named by runner.metrics.backend.
// Metrics stay in-process; a summary is logged at DEBUG on shutdown.
func NewMetricRecorder(lc fx.Lifecycle, cfg *config.Config) (metrics.MetricRecorder, error) {
	switch cfg.Runner.Metrics.Backend {
	case config.MetricsBackendPrometheus:
		recorder := NewPrometheusRecorder()
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				families, err := recorder.GetRegistry().Gather()
				if err != nil {
					logger.Warnf("Metrics: failed to gather Prometheus metrics: %v", err)
					return nil
				}
				logger.Debugf("Metrics: Prometheus registry holds %d metric families.", len(families))
				return nil
			},
		})
		logger.Debugf("Metrics: using Prometheus recorder.")
		return recorder, nil

	case config.MetricsBackendOTel:
		reader := sdkmetric.NewManualReader()
		provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		recorder, err := NewOTelMetricRecorder(provider)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				var rm metricdata.ResourceMetrics
				if err := reader.Collect(ctx, &rm); err != nil {
					logger.Warnf("Metrics: failed to collect OpenTelemetry metrics: %v", err)
				} else {
					count := 0
					for _, sm := range rm.ScopeMetrics {
						count += len(sm.Metrics)
					}
					logger.Debugf("Metrics: OpenTelemetry reader collected %d metrics.", count)
				}
				return provider.Shutdown(ctx)
			},
		})
		logger.Debugf("Metrics: using OpenTelemetry recorder.")
		return recorder, nil

	default:
		return metrics.NewNoOpMetricRecorder(), nil
	}
}

// NewTracer returns an OpenTelemetry tracer when runner.metrics.tracing_enabled is set.
func NewTracer(lc fx.Lifecycle, cfg *config.Config) metrics.Tracer {
	if !cfg.Runner.Metrics.TracingEnabled {
		return metrics.NewNoOpTracer()
	}
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithSpanProcessor(newLoggingSpanProcessor()),
	)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return provider.Shutdown(ctx)
		},
	})
	return NewOpenTelemetryTracer(provider)
}

// Module provides the configured MetricRecorder and Tracer.
var Module = fx.Options(
	fx.Invoke(func() {
		otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
			logger.Warnf("OpenTelemetry: %v", err)
		}))
	}),
	fx.Provide(NewMetricRecorder),
	fx.Provide(NewTracer),
)
