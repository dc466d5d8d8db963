package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	model "github.com/tigerroll/surfin-flow/pkg/ingest/core/domain/model"
	metrics "github.com/tigerroll/surfin-flow/pkg/ingest/core/metrics"
	"github.com/tigerroll/surfin-flow/pkg/ingest/support/util/logger"
)

// PrometheusRecorder is a Prometheus implementation of metrics.MetricRecorder.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	jobsTotal              *prometheus.CounterVec
	pipelinesTotal         *prometheus.CounterVec
	pipelineSize           *prometheus.HistogramVec
	lookupMissesTotal      *prometheus.CounterVec
	predicatesTotal        *prometheus.CounterVec
	predicateFailuresTotal *prometheus.CounterVec
	durationSeconds        *prometheus.HistogramVec
}

// NewPrometheusRecorder creates a recorder with its own registry.
func NewPrometheusRecorder() *PrometheusRecorder {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &PrometheusRecorder{
		registry: registry,
		jobsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "surfin_flow_jobs_total",
			Help: "Jobs entering a compile, by weight class.",
		}, []string{"weight_class"}),
		pipelinesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "surfin_flow_pipelines_total",
			Help: "Pipelines emitted, by fan-out style.",
		}, []string{"style"}),
		pipelineSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "surfin_flow_pipeline_size",
			Help:    "Number of jobs per emitted pipeline.",
			Buckets: []float64{1, 2, 3, 4},
		}, []string{"style"}),
		lookupMissesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "surfin_flow_subworkflow_lookup_misses_total",
			Help: "Nested jobs wired with an empty sub-workflow reference.",
		}, []string{"workflow"}),
		predicatesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "surfin_flow_predicates_total",
			Help: "Incremental predicates rendered, by dialect and mode.",
		}, []string{"dialect", "mode"}),
		predicateFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "surfin_flow_predicate_failures_total",
			Help: "Tables whose incremental predicate could not be built.",
		}, []string{"dialect"}),
		durationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "surfin_flow_operation_duration_seconds",
			Help:    "Duration of compiler operations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}

	registry.MustRegister(
		r.jobsTotal,
		r.pipelinesTotal,
		r.pipelineSize,
		r.lookupMissesTotal,
		r.predicatesTotal,
		r.predicateFailuresTotal,
		r.durationSeconds,
	)
	return r
}

// GetRegistry returns the Prometheus registry.
func (r *PrometheusRecorder) GetRegistry() *prometheus.Registry {
	return r.registry
}

func (r *PrometheusRecorder) RecordJobs(ctx context.Context, class model.WeightClass, count int) {
	r.jobsTotal.WithLabelValues(string(class)).Add(float64(count))
}

func (r *PrometheusRecorder) RecordPipeline(ctx context.Context, workflow string, style string, size int) {
	r.pipelinesTotal.WithLabelValues(style).Inc()
	r.pipelineSize.WithLabelValues(style).Observe(float64(size))
}

func (r *PrometheusRecorder) RecordLookupMiss(ctx context.Context, workflow string) {
	r.lookupMissesTotal.WithLabelValues(workflow).Inc()
}

func (r *PrometheusRecorder) RecordPredicate(ctx context.Context, dialect model.Dialect, mode model.ExtractionMode) {
	r.predicatesTotal.WithLabelValues(string(dialect), string(mode)).Inc()
}

func (r *PrometheusRecorder) RecordPredicateFailure(ctx context.Context, dialect model.Dialect) {
	r.predicateFailuresTotal.WithLabelValues(string(dialect)).Inc()
}

// RecordDuration observes duration under tags["operation"], falling back to name.
func (r *PrometheusRecorder) RecordDuration(ctx context.Context, name string, duration time.Duration, tags map[string]string) {
	operation := name
	if op, ok := tags["operation"]; ok && op != "" {
		operation = op
	}
	r.durationSeconds.WithLabelValues(operation).Observe(duration.Seconds())
	logger.Debugf("Metrics: %s took %v", operation, duration)
}

var _ metrics.MetricRecorder = (*PrometheusRecorder)(nil)
