// Package metrics defines the observability ports of the compiler. The
// compile path talks to these interfaces only; infrastructure/metrics
// provides the Prometheus and OpenTelemetry implementations.
package metrics

import (
	"context"
	"time"

	model "github.com/tigerroll/surfin-flow/pkg/ingest/core/domain/model"
)

// MetricRecorder records counters and durations for compile runs.
type MetricRecorder interface {
	// RecordJobs records how many jobs of one weight class entered a compile.
	RecordJobs(ctx context.Context, class model.WeightClass, count int)

	// RecordPipeline records one emitted pipeline of a generated workflow.
	// style is the fan-out style ("single", "concurrent", "staggered").
	RecordPipeline(ctx context.Context, workflow string, style string, size int)

	// RecordLookupMiss records a nested job whose sub-workflow file was not found.
	RecordLookupMiss(ctx context.Context, workflow string)

	// RecordPredicate records a rendered incremental predicate.
	RecordPredicate(ctx context.Context, dialect model.Dialect, mode model.ExtractionMode)

	// RecordPredicateFailure records a table whose predicate could not be built.
	RecordPredicateFailure(ctx context.Context, dialect model.Dialect)

	// RecordDuration records the execution time of a named operation.
	RecordDuration(ctx context.Context, name string, duration time.Duration, tags map[string]string)
}

// Tracer is the tracing port of the compiler.
type Tracer interface {
	// StartCompileSpan starts a span for one Compile call. The returned
	// function ends the span.
	StartCompileSpan(ctx context.Context, runID string, jobs int) (context.Context, func())

	// StartWorkflowSpan starts a span for one generated workflow.
	StartWorkflowSpan(ctx context.Context, workflow string, nested bool) (context.Context, func())

	// RecordError records err on the current span.
	RecordError(ctx context.Context, module string, err error)

	// RecordEvent records a named event on the current span.
	RecordEvent(ctx context.Context, name string, attributes map[string]interface{})
}
