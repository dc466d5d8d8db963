package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	chunk "github.com/tigerroll/surfin-flow/pkg/ingest/core/chunk"
	classify "github.com/tigerroll/surfin-flow/pkg/ingest/core/classify"
	model "github.com/tigerroll/surfin-flow/pkg/ingest/core/domain/model"
	metrics "github.com/tigerroll/surfin-flow/pkg/ingest/core/metrics"
	pack "github.com/tigerroll/surfin-flow/pkg/ingest/core/pack"
	predicate "github.com/tigerroll/surfin-flow/pkg/ingest/core/predicate"
	sequence "github.com/tigerroll/surfin-flow/pkg/ingest/core/sequence"
	"github.com/tigerroll/surfin-flow/pkg/ingest/support/util/exception"
	"github.com/tigerroll/surfin-flow/pkg/ingest/support/util/logger"
)

const moduleName = "compiler"

// CompileOptions controls one Compile call.
type CompileOptions struct {
	// Name is the top-level workflow name and the stem of batch names.
	Name string
	// Environment selects the batch naming scheme.
	Environment model.Environment
	// MaxTablePerWorkflow is the job count above which the plan is split
	// into nested workflows.
	MaxTablePerWorkflow int
	// Completion is the terminal node name; empty selects sequence.DefaultCompletion.
	Completion string
	// Sequence is the first fork/join number.
	Sequence int
	// SubWorkflowSuffix derives a job's generated file name from its node
	// name when Filenames is nil.
	SubWorkflowSuffix string
	// Filenames maps job identity to its generated file. When set it is the
	// only source of file names; jobs missing from it are lookup misses.
	Filenames map[string]string
}

// GeneratedWorkflow is one workflow of a compile result.
type GeneratedWorkflow struct {
	Name   string
	Plan   model.WorkflowPlan
	Wiring *sequence.Wiring
	// Batch is the window this workflow was built from; nil at top level.
	Batch *model.Batch
}

// Result is the output of one Compile call.
type Result struct {
	RunID      string
	Workflows  []GeneratedWorkflow
	Predicates []model.IncrementalPredicate
	// PredicateErrors collects per-table validation failures. The plan is
	// still valid when it is non-nil.
	PredicateErrors error
	// NextSequence is the fork/join number following the last one used.
	NextSequence int
}

// Compiler turns job descriptors into workflow wirings and predicates.
// It keeps no state between calls.
type Compiler struct {
	packer   *pack.Packer
	builder  *predicate.Builder
	columns  ColumnSource
	recorder metrics.MetricRecorder
	tracer   metrics.Tracer
}

// NewCompiler creates a Compiler. columns may be nil, in which case no
// predicates are built.
func NewCompiler(
	capacities pack.Capacities,
	builder *predicate.Builder,
	columns ColumnSource,
	recorder metrics.MetricRecorder,
	tracer metrics.Tracer,
) (*Compiler, error) {
	packer, err := pack.NewPacker(capacities)
	if err != nil {
		return nil, err
	}
	if builder == nil {
		if builder, err = predicate.NewBuilder(""); err != nil {
			return nil, err
		}
	}
	if recorder == nil {
		recorder = metrics.NewNoOpMetricRecorder()
	}
	if tracer == nil {
		tracer = metrics.NewNoOpTracer()
	}
	return &Compiler{packer: packer, builder: builder, columns: columns, recorder: recorder, tracer: tracer}, nil
}

// Compile builds one top-level workflow when len(jobs) fits the ceiling,
// otherwise one nested workflow per batch. Configuration errors abort the
// call; predicate validation errors are collected in Result.PredicateErrors.
func (c *Compiler) Compile(ctx context.Context, jobs []model.Job, opts CompileOptions) (*Result, error) {
	runID := uuid.NewString()
	ctx, end := c.tracer.StartCompileSpan(ctx, runID, len(jobs))
	defer end()
	start := time.Now()

	result, err := c.compile(ctx, runID, jobs, opts)
	if err != nil {
		c.tracer.RecordError(ctx, moduleName, err)
		logger.Errorf("Compile run %s failed: %v", runID, err)
		return nil, err
	}

	c.recorder.RecordDuration(ctx, "compile", time.Since(start), map[string]string{"operation": "compile"})
	logger.Infof("Compile run %s finished: %d jobs, %d workflows, %d predicates.",
		runID, len(jobs), len(result.Workflows), len(result.Predicates))
	return result, nil
}

func (c *Compiler) compile(ctx context.Context, runID string, jobs []model.Job, opts CompileOptions) (*Result, error) {
	if len(jobs) == 0 {
		return nil, exception.NewConfigurationError(moduleName, "no jobs to compile", nil)
	}
	if opts.Name == "" {
		return nil, exception.NewConfigurationError(moduleName, "workflow name must not be empty", nil)
	}
	if opts.MaxTablePerWorkflow < 1 {
		return nil, exception.NewConfigurationErrorf(moduleName, "max_table_per_workflow must be at least 1, got %d", opts.MaxTablePerWorkflow)
	}

	classified, err := classify.Jobs(jobs)
	if err != nil {
		return nil, err
	}
	for _, class := range model.WeightOrder {
		c.recorder.RecordJobs(ctx, class, len(classified[class]))
	}

	result := &Result{RunID: runID}
	seq := opts.Sequence
	if len(jobs) <= opts.MaxTablePerWorkflow {
		wf, err := c.workflow(ctx, opts.Name, classified, nil, sequence.Options{
			Sequence:   seq,
			Completion: opts.Completion,
		})
		if err != nil {
			return nil, err
		}
		result.Workflows = append(result.Workflows, *wf)
		seq = wf.Wiring.NextSequence
	} else {
		// Batch membership must not depend on arrival order.
		ordered := make([]model.Job, len(jobs))
		copy(ordered, jobs)
		model.SortJobs(ordered)
		batches, err := chunk.Split(c.entries(ordered, opts), opts.MaxTablePerWorkflow, opts.Name, opts.Environment)
		if err != nil {
			return nil, err
		}
		logger.Infof("%d jobs exceed max_table_per_workflow=%d; splitting into %d nested workflows.",
			len(jobs), opts.MaxTablePerWorkflow, len(batches))
		for i := range batches {
			batch := batches[i]
			grouped, err := classify.Jobs(batch.Jobs())
			if err != nil {
				return nil, err
			}
			wf, err := c.workflow(ctx, batch.Name, grouped, &batch, sequence.Options{
				Nested:     true,
				Sequence:   seq,
				Completion: opts.Completion,
				Filenames:  batch.Filenames(),
			})
			if err != nil {
				return nil, err
			}
			result.Workflows = append(result.Workflows, *wf)
			seq = wf.Wiring.NextSequence
		}
	}
	result.NextSequence = seq

	if err := c.predicates(ctx, jobs, result); err != nil {
		return nil, err
	}
	return result, nil
}

// workflow packs and wires one generated workflow.
func (c *Compiler) workflow(ctx context.Context, name string, classified map[model.WeightClass][]model.Job, batch *model.Batch, opts sequence.Options) (*GeneratedWorkflow, error) {
	ctx, end := c.tracer.StartWorkflowSpan(ctx, name, opts.Nested)
	defer end()

	pipelines, err := c.packer.Pack(classified, opts.Nested)
	if err != nil {
		c.tracer.RecordError(ctx, moduleName, err)
		return nil, err
	}
	plan := model.WorkflowPlan{Name: name, Nested: opts.Nested, Pipelines: pipelines}
	wiring, err := sequence.Wire(plan, opts)
	if err != nil {
		c.tracer.RecordError(ctx, moduleName, err)
		return nil, err
	}
	if err := wiring.Validate(); err != nil {
		c.tracer.RecordError(ctx, moduleName, err)
		return nil, err
	}

	for _, st := range wiring.Stages {
		c.recorder.RecordPipeline(ctx, name, string(st.Style), len(st.Branches))
	}
	for range wiring.LookupMisses {
		c.recorder.RecordLookupMiss(ctx, name)
	}
	c.tracer.RecordEvent(ctx, "workflow.wired", map[string]interface{}{
		"stages":        len(wiring.Stages),
		"jobs":          plan.JobCount(),
		"lookup_misses": len(wiring.LookupMisses),
	})
	logger.Infof("Workflow '%s': %d jobs in %d stages (nested=%t).", name, plan.JobCount(), len(pipelines), opts.Nested)
	return &GeneratedWorkflow{Name: name, Plan: plan, Wiring: wiring, Batch: batch}, nil
}

func (c *Compiler) entries(jobs []model.Job, opts CompileOptions) []model.BatchEntry {
	entries := make([]model.BatchEntry, len(jobs))
	for i, j := range jobs {
		entries[i] = model.BatchEntry{Job: j}
		if opts.Filenames != nil {
			entries[i].Filename = opts.Filenames[j.ID()]
		} else {
			entries[i].Filename = j.NodeName() + opts.SubWorkflowSuffix
		}
	}
	return entries
}

// predicates builds one predicate per incremental job into result.
// Validation and column lookup failures are collected in
// result.PredicateErrors; a configuration error aborts.
func (c *Compiler) predicates(ctx context.Context, jobs []model.Job, result *Result) error {
	if c.columns == nil {
		return nil
	}
	var collected *multierror.Error
	for _, job := range jobs {
		if !job.Incremental() {
			continue
		}
		columns, err := c.columns.Columns(ctx, job)
		if err != nil {
			c.recorder.RecordPredicateFailure(ctx, job.Dialect)
			collected = multierror.Append(collected, exception.NewValidationError(moduleName,
				fmt.Sprintf("failed to read columns of '%s': %v", job.ID(), err), nil))
			continue
		}
		p, err := c.builder.ForJob(job, columns)
		switch {
		case exception.IsValidationError(err):
			c.recorder.RecordPredicateFailure(ctx, job.Dialect)
			logger.Warnf("Predicate for '%s' skipped: %v", job.ID(), err)
			collected = multierror.Append(collected, err)
			continue
		case err != nil:
			c.recorder.RecordPredicateFailure(ctx, job.Dialect)
			return err
		}
		c.recorder.RecordPredicate(ctx, p.Dialect, p.Mode)
		result.Predicates = append(result.Predicates, p)
	}
	result.PredicateErrors = collected.ErrorOrNil()
	return nil
}
