// Package metrics holds the Prometheus and OpenTelemetry implementations of
// the compiler's observability ports.
package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	metrics "github.com/tigerroll/surfin-flow/pkg/ingest/core/metrics"
)

const instrumentationName = "github.com/tigerroll/surfin-flow"

// OpenTelemetryTracer implements metrics.Tracer on an OpenTelemetry TracerProvider.
type OpenTelemetryTracer struct {
	tracer trace.Tracer
}

// NewOpenTelemetryTracer creates a tracer from tp; nil selects the global provider.
func NewOpenTelemetryTracer(tp trace.TracerProvider) metrics.Tracer {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &OpenTelemetryTracer{tracer: tp.Tracer(instrumentationName)}
}

// StartCompileSpan starts the root span of one compile run.
func (t *OpenTelemetryTracer) StartCompileSpan(ctx context.Context, runID string, jobs int) (context.Context, func()) {
	ctx, span := t.tracer.Start(ctx, "surfin_flow.compile", trace.WithAttributes(
		attribute.String("surfin_flow.run_id", runID),
		attribute.Int("surfin_flow.jobs", jobs),
	))
	return ctx, func() { span.End() }
}

// StartWorkflowSpan starts a child span for one generated workflow.
func (t *OpenTelemetryTracer) StartWorkflowSpan(ctx context.Context, workflow string, nested bool) (context.Context, func()) {
	ctx, span := t.tracer.Start(ctx, "surfin_flow.workflow", trace.WithAttributes(
		attribute.String("surfin_flow.workflow", workflow),
		attribute.Bool("surfin_flow.nested", nested),
	))
	return ctx, func() { span.End() }
}

// RecordError records err on the current span and marks it failed.
func (t *OpenTelemetryTracer) RecordError(ctx context.Context, module string, err error) {
	if err == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	span.RecordError(err, trace.WithAttributes(attribute.String("surfin_flow.module", module)))
	span.SetStatus(codes.Error, err.Error())
}

// RecordEvent adds a span event. Values that are not string, bool, int or
// float64 are formatted with %v.
func (t *OpenTelemetryTracer) RecordEvent(ctx context.Context, name string, attributes map[string]interface{}) {
	kvs := make([]attribute.KeyValue, 0, len(attributes))
	for k, v := range attributes {
		switch val := v.(type) {
		case string:
			kvs = append(kvs, attribute.String(k, val))
		case bool:
			kvs = append(kvs, attribute.Bool(k, val))
		case int:
			kvs = append(kvs, attribute.Int(k, val))
		case float64:
			kvs = append(kvs, attribute.Float64(k, val))
		default:
			kvs = append(kvs, attribute.String(k, fmt.Sprintf("%v", val)))
		}
	}
	trace.SpanFromContext(ctx).AddEvent(name, trace.WithAttributes(kvs...))
}

var _ metrics.Tracer = (*OpenTelemetryTracer)(nil)
