package metrics

import (
	"context"
	"time"

	model "github.com/tigerroll/surfin-flow/pkg/ingest/core/domain/model"
)

// NoOpMetricRecorder is used when metrics are disabled and in tests.
type NoOpMetricRecorder struct{}

// NewNoOpMetricRecorder creates a new instance of NoOpMetricRecorder.
func NewNoOpMetricRecorder() MetricRecorder {
	return &NoOpMetricRecorder{}
}

func (r *NoOpMetricRecorder) RecordJobs(ctx context.Context, class model.WeightClass, count int) {}
func (r *NoOpMetricRecorder) RecordPipeline(ctx context.Context, workflow string, style string, size int) {
}
func (r *NoOpMetricRecorder) RecordLookupMiss(ctx context.Context, workflow string) {}
func (r *NoOpMetricRecorder) RecordPredicate(ctx context.Context, dialect model.Dialect, mode model.ExtractionMode) {
}
func (r *NoOpMetricRecorder) RecordPredicateFailure(ctx context.Context, dialect model.Dialect) {}
func (r *NoOpMetricRecorder) RecordDuration(ctx context.Context, name string, duration time.Duration, tags map[string]string) {
}

var _ MetricRecorder = (*NoOpMetricRecorder)(nil)

// NoOpTracer is a Tracer that does nothing.
type NoOpTracer struct{}

// NewNoOpTracer creates a new instance of NoOpTracer.
func NewNoOpTracer() Tracer {
	return &NoOpTracer{}
}

func (t *NoOpTracer) StartCompileSpan(ctx context.Context, runID string, jobs int) (context.Context, func()) {
	return ctx, func() {}
}

func (t *NoOpTracer) StartWorkflowSpan(ctx context.Context, workflow string, nested bool) (context.Context, func()) {
	return ctx, func() {}
}

func (t *NoOpTracer) RecordError(ctx context.Context, module string, err error) {}

func (t *NoOpTracer) RecordEvent(ctx context.Context, name string, attributes map[string]interface{}) {
}

var _ Tracer = (*NoOpTracer)(nil)
