// Package test holds mocks and fixtures shared by the surfin-flow tests.
package test

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	usecase "github.com/tigerroll/surfin-flow/pkg/ingest/core/application/usecase"
	model "github.com/tigerroll/surfin-flow/pkg/ingest/core/domain/model"
)

// MockJobSource is a testify mock of usecase.JobSource.
type MockJobSource struct {
	mock.Mock
}

// LoadJobs records the call and returns the predefined values.
func (m *MockJobSource) LoadJobs(ctx context.Context) ([]model.Job, error) {
	args := m.Called(ctx)
	jobs, _ := args.Get(0).([]model.Job)
	return jobs, args.Error(1)
}

// MockColumnSource is a testify mock of usecase.ColumnSource.
type MockColumnSource struct {
	mock.Mock
}

// Columns records the call and returns the predefined values.
func (m *MockColumnSource) Columns(ctx context.Context, job model.Job) ([]model.Column, error) {
	args := m.Called(ctx, job)
	columns, _ := args.Get(0).([]model.Column)
	return columns, args.Error(1)
}

// MockPlanPublisher is a testify mock of usecase.PlanPublisher.
type MockPlanPublisher struct {
	mock.Mock
}

// Publish records the call and returns the predefined error.
func (m *MockPlanPublisher) Publish(ctx context.Context, result *usecase.Result) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

// MockStorageExecutor is a testify mock of the storage executor. Upload
// drains data so expectations can match on the uploaded content.
type MockStorageExecutor struct {
	mock.Mock
}

// Upload reads data fully and records (ctx, bucket, objectName, content, contentType).
func (m *MockStorageExecutor) Upload(ctx context.Context, bucket, objectName string, data io.Reader, contentType string) error {
	content, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	args := m.Called(ctx, bucket, objectName, string(content), contentType)
	return args.Error(0)
}

// ListObjects records the call and returns the predefined error.
func (m *MockStorageExecutor) ListObjects(ctx context.Context, bucket, prefix string, fn func(objectName string) error) error {
	args := m.Called(ctx, bucket, prefix, fn)
	return args.Error(0)
}

// DeleteObject records the call and returns the predefined error.
func (m *MockStorageExecutor) DeleteObject(ctx context.Context, bucket, objectName string) error {
	args := m.Called(ctx, bucket, objectName)
	return args.Error(0)
}

// RecordingMetricRecorder is an in-memory metrics.MetricRecorder.
type RecordingMetricRecorder struct {
	mu                sync.Mutex
	Jobs              map[model.WeightClass]int
	Pipelines         map[string]int
	LookupMisses      int
	Predicates        int
	PredicateFailures int
	Durations         []string
}

// NewRecordingMetricRecorder creates an empty RecordingMetricRecorder.
func NewRecordingMetricRecorder() *RecordingMetricRecorder {
	return &RecordingMetricRecorder{
		Jobs:      make(map[model.WeightClass]int),
		Pipelines: make(map[string]int),
	}
}

func (r *RecordingMetricRecorder) RecordJobs(ctx context.Context, class model.WeightClass, count int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Jobs[class] += count
}

func (r *RecordingMetricRecorder) RecordPipeline(ctx context.Context, workflow string, style string, size int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Pipelines[style]++
}

func (r *RecordingMetricRecorder) RecordLookupMiss(ctx context.Context, workflow string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.LookupMisses++
}

func (r *RecordingMetricRecorder) RecordPredicate(ctx context.Context, dialect model.Dialect, mode model.ExtractionMode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Predicates++
}

func (r *RecordingMetricRecorder) RecordPredicateFailure(ctx context.Context, dialect model.Dialect) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.PredicateFailures++
}

func (r *RecordingMetricRecorder) RecordDuration(ctx context.Context, name string, duration time.Duration, tags map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Durations = append(r.Durations, name)
}
