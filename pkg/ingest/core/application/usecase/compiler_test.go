package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	usecase "github.com/tigerroll/surfin-flow/pkg/ingest/core/application/usecase"
	model "github.com/tigerroll/surfin-flow/pkg/ingest/core/domain/model"
	metrics "github.com/tigerroll/surfin-flow/pkg/ingest/core/metrics"
	pack "github.com/tigerroll/surfin-flow/pkg/ingest/core/pack"
	sequence "github.com/tigerroll/surfin-flow/pkg/ingest/core/sequence"
	"github.com/tigerroll/surfin-flow/pkg/ingest/support/util/exception"
	testutil "github.com/tigerroll/surfin-flow/pkg/ingest/test"
)

func newCompiler(t *testing.T, columns usecase.ColumnSource, recorder *testutil.RecordingMetricRecorder) *usecase.Compiler {
	t.Helper()
	var rec metrics.MetricRecorder
	if recorder != nil {
		rec = recorder
	}
	c, err := usecase.NewCompiler(pack.DefaultCapacities(), nil, columns, rec, nil)
	require.NoError(t, err)
	return c
}

func defaultOptions(max int) usecase.CompileOptions {
	return usecase.CompileOptions{
		Name:                "ingest",
		Environment:         model.EnvironmentLower,
		MaxTablePerWorkflow: max,
		SubWorkflowSuffix:   "_workflow.xml",
	}
}

func stageSizes(wf usecase.GeneratedWorkflow) []int {
	out := make([]int, len(wf.Plan.Pipelines))
	for i, p := range wf.Plan.Pipelines {
		out[i] = p.Size()
	}
	return out
}

func TestCompiler_TopLevel(t *testing.T) {
	recorder := testutil.NewRecordingMetricRecorder()
	c := newCompiler(t, nil, recorder)

	result, err := c.Compile(context.Background(), testutil.MixedJobs(5, 3, 3), defaultOptions(50))
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	require.Len(t, result.Workflows, 1)
	wf := result.Workflows[0]
	assert.Equal(t, "ingest", wf.Name)
	assert.False(t, wf.Plan.Nested)
	assert.Nil(t, wf.Batch)
	assert.Equal(t, []int{4, 2, 2, 2, 1}, stageSizes(wf))
	assert.Equal(t, "fork_0", wf.Wiring.Start)
	assert.Equal(t, 5, result.NextSequence)
	assert.Empty(t, result.Predicates)
	assert.NoError(t, result.PredicateErrors)

	assert.Equal(t, 5, recorder.Jobs[model.WeightLight])
	assert.Equal(t, 3, recorder.Jobs[model.WeightHeavy])
	assert.Equal(t, 3, recorder.Pipelines[string(sequence.StyleConcurrent)])
	assert.Equal(t, 1, recorder.Pipelines[string(sequence.StyleStaggered)])
	assert.Equal(t, 1, recorder.Pipelines[string(sequence.StyleSingle)])
	assert.Equal(t, []string{"compile"}, recorder.Durations)
}

func TestCompiler_NestedBatches(t *testing.T) {
	recorder := testutil.NewRecordingMetricRecorder()
	c := newCompiler(t, nil, recorder)

	opts := defaultOptions(5)
	opts.Sequence = 10
	result, err := c.Compile(context.Background(), testutil.MixedJobs(5, 3, 3), opts)
	require.NoError(t, err)

	require.Len(t, result.Workflows, 3)
	names := []string{result.Workflows[0].Name, result.Workflows[1].Name, result.Workflows[2].Name}
	assert.Equal(t, []string{"ingest", "ingest_1", "ingest_2"}, names)

	// Batches are cut from the jobs in ordering-key order: h1..h3 l1 l2 | l3..l5 m1 m2 | m3.
	first := result.Workflows[0]
	assert.True(t, first.Plan.Nested)
	require.NotNil(t, first.Batch)
	assert.Len(t, first.Batch.Entries, 5)
	assert.Equal(t, "db.h1@dev", first.Batch.Entries[0].Job.ID())
	// Heavy jobs are packed one per stage inside a sub-workflow.
	assert.Equal(t, []int{2, 1, 1, 1}, stageSizes(first))
	assert.Equal(t, "fork_10", first.Wiring.Start)
	assert.Equal(t, "job_0", first.Wiring.Stages[0].Branches[0].Entry)
	assert.Equal(t, "db_l1_workflow.xml", first.Wiring.Stages[0].Branches[0].SubWorkflow)

	second := result.Workflows[1]
	assert.Equal(t, []int{3, 2}, stageSizes(second))
	assert.Equal(t, "fork_12", second.Wiring.Start)

	third := result.Workflows[2]
	assert.Equal(t, []int{1}, stageSizes(third))
	assert.Equal(t, "join_14", third.Wiring.Stages[0].Join)
	assert.Equal(t, 15, result.NextSequence)

	for _, wf := range result.Workflows {
		assert.Empty(t, wf.Wiring.LookupMisses, wf.Name)
	}
	assert.Equal(t, 0, recorder.LookupMisses)
}

func TestCompiler_NestedBatchesIgnoreInputOrder(t *testing.T) {
	codes := []string{"LGTDLY", "MEDDLY", "HVYDLY"}
	var forward []model.Job
	for i := 0; i < 7; i++ {
		forward = append(forward, testutil.NewJob(fmt.Sprintf("t%d", i), codes[i%len(codes)]))
	}
	reversed := make([]model.Job, len(forward))
	for i, job := range forward {
		reversed[len(forward)-1-i] = job
	}

	c := newCompiler(t, nil, nil)
	want, err := c.Compile(context.Background(), forward, defaultOptions(3))
	require.NoError(t, err)
	got, err := c.Compile(context.Background(), reversed, defaultOptions(3))
	require.NoError(t, err)

	require.Len(t, got.Workflows, len(want.Workflows))
	for i := range want.Workflows {
		assert.Equal(t, want.Workflows[i].Name, got.Workflows[i].Name)
		assert.Equal(t, want.Workflows[i].Plan, got.Workflows[i].Plan, want.Workflows[i].Name)
		assert.Equal(t, want.Workflows[i].Batch, got.Workflows[i].Batch, want.Workflows[i].Name)
		assert.Equal(t, want.Workflows[i].Wiring, got.Workflows[i].Wiring, want.Workflows[i].Name)
	}
	assert.Equal(t, "db_t0_workflow.xml", got.Workflows[0].Wiring.Stages[0].Branches[0].SubWorkflow)
	assert.Equal(t, want.NextSequence, got.NextSequence)
}

func TestCompiler_ProductionBatchNames(t *testing.T) {
	c := newCompiler(t, nil, nil)

	opts := defaultOptions(4)
	opts.Environment = model.EnvironmentProduction
	result, err := c.Compile(context.Background(), testutil.MixedJobs(6, 0, 0), opts)
	require.NoError(t, err)

	require.Len(t, result.Workflows, 2)
	assert.Equal(t, "ingest_1", result.Workflows[0].Name)
	assert.Equal(t, "ingest_2", result.Workflows[1].Name)
}

func TestCompiler_ExplicitFilenamesReportMisses(t *testing.T) {
	recorder := testutil.NewRecordingMetricRecorder()
	c := newCompiler(t, nil, recorder)

	opts := defaultOptions(2)
	opts.Filenames = map[string]string{"db.l1@dev": "custom_l1.xml"}
	result, err := c.Compile(context.Background(), testutil.MixedJobs(3, 0, 0), opts)
	require.NoError(t, err)

	require.Len(t, result.Workflows, 2)
	first := result.Workflows[0].Wiring
	assert.Equal(t, "custom_l1.xml", first.Stages[0].Branches[0].SubWorkflow)
	assert.Equal(t, []string{"db.l2@dev"}, first.LookupMisses)
	assert.Equal(t, []string{"db.l3@dev"}, result.Workflows[1].Wiring.LookupMisses)
	assert.Equal(t, 2, recorder.LookupMisses)
}

func TestCompiler_Predicates(t *testing.T) {
	orders := testutil.NewIncrementalJob("orders", "HVYDLY", "updated_at", model.DialectOracle)
	lines := testutil.NewIncrementalJob("lines", "MEDDLY", "modified", model.DialectMySQL)
	audit := testutil.NewIncrementalJob("audit", "LGTDLY", "ts", model.DialectPostgreSQL)
	regions := testutil.NewJob("regions", "LGTWKY")

	columns := new(testutil.MockColumnSource)
	columns.On("Columns", mock.Anything, orders).Return([]model.Column{{Name: "UPDATED_AT", Type: "TIMESTAMP(6)"}}, nil)
	columns.On("Columns", mock.Anything, lines).Return([]model.Column{{Name: "id", Type: "bigint"}}, nil)
	columns.On("Columns", mock.Anything, audit).Return(nil, errors.New("relation does not exist"))

	recorder := testutil.NewRecordingMetricRecorder()
	c := newCompiler(t, columns, recorder)

	result, err := c.Compile(context.Background(), []model.Job{orders, lines, audit, regions}, defaultOptions(50))
	require.NoError(t, err)

	require.Len(t, result.Predicates, 1)
	p := result.Predicates[0]
	assert.Equal(t, "db.orders@dev", p.JobID)
	assert.Equal(t, model.ModeLastModified, p.Mode)
	assert.Equal(t, "UPDATED_AT > to_timestamp('${wf:actionData('watermark_orders')['last_value']}','YYYY-MM-DD HH24:MI:SS.FF9')", p.Expression)

	var merr *multierror.Error
	require.ErrorAs(t, result.PredicateErrors, &merr)
	require.Len(t, merr.Errors, 2)
	assert.True(t, exception.IsValidationError(merr.Errors[0]))
	assert.Contains(t, merr.Errors[0].Error(), "'modified'")
	assert.Contains(t, merr.Errors[1].Error(), "db.audit@dev")
	assert.Equal(t, 1, recorder.Predicates)
	assert.Equal(t, 2, recorder.PredicateFailures)

	columns.AssertExpectations(t)
	columns.AssertNotCalled(t, "Columns", mock.Anything, regions)
}

func TestCompiler_PredicateConfigurationErrorAborts(t *testing.T) {
	job := testutil.NewIncrementalJob("orders", "LGTDLY", "updated_at", model.Dialect("Sybase"))
	columns := new(testutil.MockColumnSource)
	columns.On("Columns", mock.Anything, job).Return([]model.Column{{Name: "updated_at", Type: "datetime"}}, nil)

	c := newCompiler(t, columns, nil)
	result, err := c.Compile(context.Background(), []model.Job{job}, defaultOptions(50))

	assert.Nil(t, result)
	assert.True(t, exception.IsConfigurationError(err))
	assert.Contains(t, err.Error(), "unrecognized source 'Sybase'")
}

func TestCompiler_RejectsBadInput(t *testing.T) {
	c := newCompiler(t, nil, nil)
	ctx := context.Background()

	_, err := c.Compile(ctx, nil, defaultOptions(50))
	assert.True(t, exception.IsConfigurationError(err))

	_, err = c.Compile(ctx, testutil.MixedJobs(1, 0, 0), defaultOptions(0))
	assert.True(t, exception.IsConfigurationError(err))

	opts := defaultOptions(50)
	opts.Name = ""
	_, err = c.Compile(ctx, testutil.MixedJobs(1, 0, 0), opts)
	assert.True(t, exception.IsConfigurationError(err))

	bad := []model.Job{testutil.NewJob("t", "XXLDLY")}
	_, err = c.Compile(ctx, bad, defaultOptions(50))
	assert.True(t, exception.IsConfigurationError(err))
}

func TestNewCompiler_InvalidCapacities(t *testing.T) {
	_, err := usecase.NewCompiler(pack.Capacities{}, nil, nil, nil, nil)
	assert.True(t, exception.IsConfigurationError(err))
}
