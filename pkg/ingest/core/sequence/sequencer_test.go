package sequence_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "github.com/tigerroll/surfin-flow/pkg/ingest/core/domain/model"
	sequence "github.com/tigerroll/surfin-flow/pkg/ingest/core/sequence"
	"github.com/tigerroll/surfin-flow/pkg/ingest/support/util/exception"
)

func job(table string, class model.WeightClass) model.Job {
	return model.Job{Database: "db", Table: table, Environment: "dev", Weight: class}
}

func light(table string) model.Job  { return job(table, model.WeightLight) }
func medium(table string) model.Job { return job(table, model.WeightMedium) }
func heavy(table string) model.Job  { return job(table, model.WeightHeavy) }

func plan(pipelines ...model.Pipeline) model.WorkflowPlan {
	return model.WorkflowPlan{Name: "ingest", Pipelines: pipelines}
}

func edges(pairs ...string) []sequence.Transition {
	out := make([]sequence.Transition, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, sequence.Transition{From: pairs[i], To: pairs[i+1]})
	}
	return out
}

func TestWire_TopLevel(t *testing.T) {
	p := plan(
		model.NewPipeline(light("a"), light("b")),
		model.NewPipeline(heavy("zeta"), medium("alpha")),
		model.NewPipeline(light("c")),
	)

	w, err := sequence.Wire(p, sequence.Options{})
	require.NoError(t, err)
	require.NoError(t, w.Validate())

	assert.Equal(t, "fork_0", w.Start)
	assert.Equal(t, sequence.DefaultCompletion, w.Completion)
	assert.Equal(t, 3, w.NextSequence)
	assert.Empty(t, w.LookupMisses)

	concurrent := w.Stages[0]
	assert.Equal(t, sequence.StyleConcurrent, concurrent.Style)
	assert.Equal(t, "fork_0", concurrent.Entry)
	assert.Equal(t, "join_0", concurrent.Join)
	assert.Equal(t, "prep_db_zeta", concurrent.Next)

	staggered := w.Stages[1]
	assert.Equal(t, sequence.StyleStaggered, staggered.Style)
	assert.Equal(t, "prep_db_zeta", staggered.Entry)
	assert.Equal(t, "fork_1", staggered.Fork)
	require.Len(t, staggered.Branches, 2)
	assert.True(t, staggered.Branches[0].Gate)
	assert.Equal(t, "db.zeta@dev", staggered.Branches[0].JobID)
	assert.False(t, staggered.Branches[1].Gate)
	assert.Equal(t, "prep_db_alpha", staggered.Branches[1].Entry)

	last := w.Stages[2]
	assert.Equal(t, sequence.StyleSingle, last.Style)
	assert.Equal(t, "", last.Fork)
	assert.Equal(t, "join_2", last.Join)
	assert.Equal(t, sequence.DefaultCompletion, last.Next)

	assert.Equal(t, edges(
		"start", "fork_0",
		"fork_0", "prep_db_a",
		"fork_0", "prep_db_b",
		"prep_db_a", "ingest_db_a",
		"ingest_db_a", "join_0",
		"prep_db_b", "ingest_db_b",
		"ingest_db_b", "join_0",
		"join_0", "prep_db_zeta",
		"prep_db_zeta", "fork_1",
		"fork_1", "ingest_db_zeta",
		"fork_1", "prep_db_alpha",
		"ingest_db_zeta", "join_1",
		"prep_db_alpha", "ingest_db_alpha",
		"ingest_db_alpha", "join_1",
		"join_1", "prep_db_c",
		"prep_db_c", "ingest_db_c",
		"ingest_db_c", "join_2",
		"join_2", "completion",
	), w.Transitions())
}

func TestWire_MidPlanSingletonHandsOverDirectly(t *testing.T) {
	p := plan(
		model.NewPipeline(light("a"), light("b")),
		model.NewPipeline(light("c")),
		model.NewPipeline(light("d"), light("e")),
	)

	w, err := sequence.Wire(p, sequence.Options{})
	require.NoError(t, err)
	require.NoError(t, w.Validate())

	mid := w.Stages[1]
	assert.Equal(t, "", mid.Join)
	assert.Equal(t, "", mid.Fork)
	assert.Equal(t, "prep_db_c", mid.Entry)
	assert.Equal(t, "fork_1", mid.Next)
	assert.Equal(t, "fork_1", w.Stages[2].Fork)
	assert.Equal(t, 2, w.NextSequence)

	assert.Contains(t, w.Transitions(), sequence.Transition{From: "ingest_db_c", To: "fork_1"})
	assert.Contains(t, w.Transitions(), sequence.Transition{From: "join_0", To: "prep_db_c"})
}

func TestWire_LeadingSingletonKeepsJoin(t *testing.T) {
	p := plan(
		model.NewPipeline(light("c")),
		model.NewPipeline(light("a"), light("b")),
	)

	w, err := sequence.Wire(p, sequence.Options{})
	require.NoError(t, err)
	require.NoError(t, w.Validate())

	assert.Equal(t, "prep_db_c", w.Start)
	assert.Equal(t, "join_0", w.Stages[0].Join)
	assert.Equal(t, "fork_1", w.Stages[0].Next)
}

func TestWire_OnlySingleton(t *testing.T) {
	w, err := sequence.Wire(plan(model.NewPipeline(heavy("h"))), sequence.Options{Completion: "done"})
	require.NoError(t, err)
	require.NoError(t, w.Validate())

	assert.Equal(t, edges(
		"start", "prep_db_h",
		"prep_db_h", "ingest_db_h",
		"ingest_db_h", "join_0",
		"join_0", "done",
	), w.Transitions())
}

func TestWire_NestedNamingAndLookupMiss(t *testing.T) {
	p := model.WorkflowPlan{
		Name:   "ingest_1",
		Nested: true,
		Pipelines: []model.Pipeline{
			model.NewPipeline(light("a"), light("b")),
			model.NewPipeline(light("c")),
		},
	}
	opts := sequence.Options{
		Nested: true,
		Filenames: map[string]string{
			"db.a@dev": "db_a_workflow.xml",
			"db.b@dev": "db_b_workflow.xml",
		},
	}

	w, err := sequence.Wire(p, opts)
	require.NoError(t, err)
	require.NoError(t, w.Validate())

	first := w.Stages[0]
	assert.Equal(t, "job_0", first.Branches[0].Entry)
	assert.Equal(t, "subwf_0", first.Branches[0].Work)
	assert.Equal(t, "db_a_workflow.xml", first.Branches[0].SubWorkflow)
	assert.Equal(t, "job_1", first.Branches[1].Entry)

	missing := w.Stages[1].Branches[0]
	assert.Equal(t, "job_2", missing.Entry)
	assert.Equal(t, "subwf_2", missing.Work)
	assert.Equal(t, "", missing.SubWorkflow)
	assert.Equal(t, []string{"db.c@dev"}, w.LookupMisses)
}

func TestWire_NestedStaggeredGateComesFirst(t *testing.T) {
	p := model.WorkflowPlan{
		Name:      "ingest",
		Nested:    true,
		Pipelines: []model.Pipeline{model.NewPipeline(medium("alpha"), heavy("zeta"))},
	}
	w, err := sequence.Wire(p, sequence.Options{Nested: true, Filenames: map[string]string{
		"db.alpha@dev": "db_alpha_workflow.xml",
		"db.zeta@dev":  "db_zeta_workflow.xml",
	}})
	require.NoError(t, err)

	st := w.Stages[0]
	assert.Equal(t, "job_0", st.Entry)
	assert.Equal(t, "db.zeta@dev", st.Branches[0].JobID)
	assert.True(t, st.Branches[0].Gate)
	assert.Equal(t, "db_zeta_workflow.xml", st.Branches[0].SubWorkflow)
	assert.Equal(t, "job_1", st.Branches[1].Entry)
}

func TestWire_SequenceThreading(t *testing.T) {
	p := plan(
		model.NewPipeline(light("a"), light("b")),
		model.NewPipeline(light("c"), light("d")),
	)

	first, err := sequence.Wire(p, sequence.Options{Sequence: 5})
	require.NoError(t, err)
	assert.Equal(t, "fork_5", first.Start)
	assert.Equal(t, "join_6", first.Stages[1].Join)
	assert.Equal(t, 7, first.NextSequence)

	second, err := sequence.Wire(p, sequence.Options{Sequence: first.NextSequence})
	require.NoError(t, err)
	assert.Equal(t, "fork_7", second.Start)
	assert.Equal(t, 9, second.NextSequence)
}

func TestWire_RejectsEmptyPlanAndStage(t *testing.T) {
	_, err := sequence.Wire(plan(), sequence.Options{})
	assert.True(t, exception.IsConfigurationError(err))

	_, err = sequence.Wire(plan(model.NewPipeline(light("a")), model.Pipeline{}), sequence.Options{})
	assert.True(t, exception.IsConfigurationError(err))
}

func TestWiring_ValidateDetectsDeadEnd(t *testing.T) {
	w, err := sequence.Wire(plan(
		model.NewPipeline(light("a"), light("b")),
		model.NewPipeline(light("c"), light("d")),
	), sequence.Options{})
	require.NoError(t, err)

	w.Stages[0].Next = "nowhere"
	err = w.Validate()
	assert.True(t, exception.IsConfigurationError(err))
}
