package metrics

import (
	"go.uber.org/fx"

	config "github.com/tigerroll/surfin-flow/pkg/ingest/core/config"
	metrics "github.com/tigerroll/surfin-flow/pkg/ingest/core/metrics"
	"github.com/tigerroll/surfin-flow/pkg/ingest/support/util/logger"
)

// NewMetricRecorderProvider selects the Prometheus recorder when metrics are
// enabled, the no-op recorder otherwise.
func NewMetricRecorderProvider(cfg *config.Config) metrics.MetricRecorder {
	if !cfg.SurfinFlow.Metrics.Enabled {
		logger.Debugf("Metrics disabled; using no-op recorder.")
		return metrics.NewNoOpMetricRecorder()
	}
	return NewPrometheusRecorder()
}

// NewTracerProvider selects the OpenTelemetry tracer when tracing is enabled.
func NewTracerProvider(cfg *config.Config) metrics.Tracer {
	if !cfg.SurfinFlow.Metrics.Tracing {
		return metrics.NewNoOpTracer()
	}
	return NewOpenTelemetryTracer(nil)
}

// Module provides the metric recorder and tracer.
var Module = fx.Options(
	fx.Provide(NewMetricRecorderProvider),
	fx.Provide(NewTracerProvider),
)
