package manifest_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	storageConfig "github.com/tigerroll/surfin-flow/pkg/ingest/adapter/storage/config"
	"github.com/tigerroll/surfin-flow/pkg/ingest/adapter/storage/local"
	usecase "github.com/tigerroll/surfin-flow/pkg/ingest/core/application/usecase"
	model "github.com/tigerroll/surfin-flow/pkg/ingest/core/domain/model"
	pack "github.com/tigerroll/surfin-flow/pkg/ingest/core/pack"
	"github.com/tigerroll/surfin-flow/pkg/ingest/infrastructure/manifest"
	testutil "github.com/tigerroll/surfin-flow/pkg/ingest/test"
)

func compile(t *testing.T, jobs []model.Job, max int) *usecase.Result {
	t.Helper()
	c, err := usecase.NewCompiler(pack.DefaultCapacities(), nil, nil, nil, nil)
	require.NoError(t, err)
	result, err := c.Compile(context.Background(), jobs, usecase.CompileOptions{
		Name:                "ingest",
		Environment:         model.EnvironmentLower,
		MaxTablePerWorkflow: max,
		SubWorkflowSuffix:   "_workflow.xml",
	})
	require.NoError(t, err)
	return result
}

func TestWriter_Publish_LocalStorage(t *testing.T) {
	baseDir := t.TempDir()
	conn, err := local.NewLocalAdapter(storageConfig.StorageConfig{BaseDir: baseDir}, "manifests")
	require.NoError(t, err)

	result := compile(t, testutil.MixedJobs(4, 0, 0), 2)
	result.Predicates = []model.IncrementalPredicate{{
		JobID:      "db.h1@dev",
		Dialect:    model.DialectMySQL,
		Column:     "updated_at",
		Mode:       model.ModeLastModified,
		Expression: "updated_at > '${wm}'",
	}}

	require.NoError(t, manifest.NewWriter(conn, "plans", "run").Publish(context.Background(), result))

	for _, name := range []string{"ingest.yaml", "ingest_1.yaml", "predicates.yaml"} {
		assert.FileExists(t, filepath.Join(baseDir, "plans", "run", name))
	}

	data, err := os.ReadFile(filepath.Join(baseDir, "plans", "run", "ingest.yaml"))
	require.NoError(t, err)
	var wf manifest.WorkflowManifest
	require.NoError(t, yaml.Unmarshal(data, &wf))
	assert.Equal(t, result.RunID, wf.RunID)
	assert.Equal(t, "ingest", wf.Workflow)
	assert.True(t, wf.Nested)
	assert.Equal(t, "fork_0", wf.Start)
	assert.Equal(t, manifest.TransitionLine("start -> fork_0"), wf.Transitions[0])
	require.Len(t, wf.Stages, 1)
	assert.Equal(t, "db_l1_workflow.xml", wf.Stages[0].Branches[0].SubWorkflow)

	data, err = os.ReadFile(filepath.Join(baseDir, "plans", "run", "predicates.yaml"))
	require.NoError(t, err)
	var preds manifest.PredicatesManifest
	require.NoError(t, yaml.Unmarshal(data, &preds))
	require.Len(t, preds.Predicates, 1)
	assert.Equal(t, "MySQL", preds.Predicates[0].Dialect)
	assert.Equal(t, "lastmodified", preds.Predicates[0].Mode)
	assert.Empty(t, preds.Errors)
}

func TestWriter_Publish_UploadFailure(t *testing.T) {
	conn := new(testutil.MockStorageExecutor)
	conn.On("Upload", mock.Anything, "", "ingest.yaml", mock.AnythingOfType("string"), "application/yaml").
		Return(errors.New("permission denied"))

	err := manifest.NewWriter(conn, "", "").Publish(context.Background(), compile(t, testutil.MixedJobs(2, 0, 0), 50))
	assert.ErrorContains(t, err, "upload manifest 'ingest.yaml': permission denied")
	conn.AssertNumberOfCalls(t, "Upload", 1)
}

func TestNewWorkflowManifest_StaggeredGate(t *testing.T) {
	result := compile(t, testutil.MixedJobs(0, 1, 1), 50)
	m := manifest.NewWorkflowManifest(result.RunID, result.Workflows[0].Wiring)

	require.Len(t, m.Stages, 1)
	st := m.Stages[0]
	assert.Equal(t, "staggered", st.Style)
	assert.Equal(t, "prep_db_h1", st.Entry)
	assert.True(t, st.Branches[0].Gate)
	assert.Equal(t, "db.h1@dev", st.Branches[0].Job)
	assert.Contains(t, m.Transitions, manifest.TransitionLine("prep_db_h1 -> fork_0"))
	assert.Contains(t, m.Transitions, manifest.TransitionLine("join_0 -> completion"))
}

func TestNewPredicatesManifest_FlattensErrors(t *testing.T) {
	var errs *multierror.Error
	errs = multierror.Append(errs, errors.New("check column 'a' not found"), errors.New("failed to read columns"))
	m := manifest.NewPredicatesManifest(&usecase.Result{RunID: "run-1", PredicateErrors: errs.ErrorOrNil()})

	assert.Equal(t, "run-1", m.RunID)
	assert.NotNil(t, m.Predicates)
	assert.Empty(t, m.Predicates)
	assert.Equal(t, []string{"check column 'a' not found", "failed to read columns"}, m.Errors)

	single := manifest.NewPredicatesManifest(&usecase.Result{PredicateErrors: errors.New("boom")})
	assert.Equal(t, []string{"boom"}, single.Errors)
}

func TestWriter_Publish_RemovesStaleManifests(t *testing.T) {
	baseDir := t.TempDir()
	conn, err := local.NewLocalAdapter(storageConfig.StorageConfig{BaseDir: baseDir}, "manifests")
	require.NoError(t, err)
	ctx := context.Background()
	runDir := filepath.Join(baseDir, "plans", "run")

	require.NoError(t, manifest.NewWriter(conn, "plans", "run").Publish(ctx, compile(t, testutil.MixedJobs(5, 0, 0), 2)))
	assert.FileExists(t, filepath.Join(runDir, "ingest_2.yaml"))

	require.NoError(t, os.WriteFile(filepath.Join(runDir, "notes.txt"), []byte("keep"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(runDir, "archive"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(runDir, "archive", "old.yaml"), []byte("keep"), 0o644))

	require.NoError(t, manifest.NewWriter(conn, "plans", "run").Publish(ctx, compile(t, testutil.MixedJobs(3, 0, 0), 2)))

	assert.FileExists(t, filepath.Join(runDir, "ingest.yaml"))
	assert.FileExists(t, filepath.Join(runDir, "ingest_1.yaml"))
	assert.FileExists(t, filepath.Join(runDir, "predicates.yaml"))
	assert.NoFileExists(t, filepath.Join(runDir, "ingest_2.yaml"))
	assert.FileExists(t, filepath.Join(runDir, "notes.txt"))
	assert.FileExists(t, filepath.Join(runDir, "archive", "old.yaml"))
}

func TestWriter_Publish_ListFailure(t *testing.T) {
	conn := new(testutil.MockStorageExecutor)
	conn.On("Upload", mock.Anything, "", mock.AnythingOfType("string"), mock.AnythingOfType("string"), "application/yaml").Return(nil)
	conn.On("ListObjects", mock.Anything, "", "run/", mock.Anything).Return(errors.New("forbidden"))

	err := manifest.NewWriter(conn, "", "run").Publish(context.Background(), compile(t, testutil.MixedJobs(2, 0, 0), 50))
	assert.ErrorContains(t, err, "list manifests under 'run/': forbidden")
	conn.AssertNumberOfCalls(t, "Upload", 2)
	conn.AssertNotCalled(t, "DeleteObject", mock.Anything, mock.Anything, mock.Anything)
}
