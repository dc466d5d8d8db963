package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	usecase "github.com/tigerroll/surfin-flow/pkg/ingest/core/application/usecase"
	config "github.com/tigerroll/surfin-flow/pkg/ingest/core/config"
	model "github.com/tigerroll/surfin-flow/pkg/ingest/core/domain/model"
	"github.com/tigerroll/surfin-flow/pkg/ingest/support/util/exception"
	testutil "github.com/tigerroll/surfin-flow/pkg/ingest/test"
)

func TestPlanRunner_Run(t *testing.T) {
	ctx := context.Background()
	source := new(testutil.MockJobSource)
	source.On("LoadJobs", ctx).Return(testutil.MixedJobs(2, 1, 0), nil)
	publisher := new(testutil.MockPlanPublisher)
	publisher.On("Publish", ctx, mock.AnythingOfType("*usecase.Result")).Return(nil)

	runner := usecase.NewPlanRunner(source, newCompiler(t, nil, nil), publisher, defaultOptions(50))
	result, err := runner.Run(ctx)
	require.NoError(t, err)

	require.Len(t, result.Workflows, 1)
	source.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestPlanRunner_Run_WithoutPublisher(t *testing.T) {
	ctx := context.Background()
	source := new(testutil.MockJobSource)
	source.On("LoadJobs", ctx).Return(testutil.MixedJobs(1, 0, 0), nil)

	result, err := usecase.NewPlanRunner(source, newCompiler(t, nil, nil), nil, defaultOptions(50)).Run(ctx)
	require.NoError(t, err)
	assert.Len(t, result.Workflows, 1)
}

func TestPlanRunner_Run_LoadFailure(t *testing.T) {
	ctx := context.Background()
	source := new(testutil.MockJobSource)
	source.On("LoadJobs", ctx).Return(nil, errors.New("connection refused"))
	publisher := new(testutil.MockPlanPublisher)

	result, err := usecase.NewPlanRunner(source, newCompiler(t, nil, nil), publisher, defaultOptions(50)).Run(ctx)
	assert.Nil(t, result)
	assert.True(t, exception.IsConfigurationError(err))
	assert.Contains(t, err.Error(), "connection refused")
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestPlanRunner_Run_PublishFailureKeepsResult(t *testing.T) {
	ctx := context.Background()
	source := new(testutil.MockJobSource)
	source.On("LoadJobs", ctx).Return(testutil.MixedJobs(1, 0, 0), nil)
	publisher := new(testutil.MockPlanPublisher)
	publisher.On("Publish", ctx, mock.Anything).Return(errors.New("bucket not found"))

	result, err := usecase.NewPlanRunner(source, newCompiler(t, nil, nil), publisher, defaultOptions(50)).Run(ctx)
	assert.EqualError(t, err, "bucket not found")
	require.NotNil(t, result)
	assert.NotEmpty(t, result.RunID)
}

func TestNewCompileOptionsProvider(t *testing.T) {
	cfg := config.NewConfig()
	cfg.SurfinFlow.Compiler.Environment = "Production"

	opts, err := usecase.NewCompileOptionsProvider(cfg)
	require.NoError(t, err)
	assert.Equal(t, "ingest", opts.Name)
	assert.Equal(t, model.EnvironmentProduction, opts.Environment)
	assert.Equal(t, 50, opts.MaxTablePerWorkflow)
	assert.Equal(t, "completion", opts.Completion)
	assert.Equal(t, "_workflow.xml", opts.SubWorkflowSuffix)
	assert.Nil(t, opts.Filenames)

	cfg.SurfinFlow.Compiler.Environment = "staging"
	_, err = usecase.NewCompileOptionsProvider(cfg)
	assert.True(t, exception.IsConfigurationError(err))
}
