package usecase

import (
	"context"

	"github.com/tigerroll/surfin-flow/pkg/ingest/support/util/exception"
	"github.com/tigerroll/surfin-flow/pkg/ingest/support/util/logger"
)

// PlanRunner loads jobs, compiles them and publishes the result.
type PlanRunner struct {
	source    JobSource
	compiler  *Compiler
	publisher PlanPublisher
	opts      CompileOptions
}

// NewPlanRunner creates a PlanRunner. publisher may be nil.
func NewPlanRunner(source JobSource, compiler *Compiler, publisher PlanPublisher, opts CompileOptions) *PlanRunner {
	return &PlanRunner{source: source, compiler: compiler, publisher: publisher, opts: opts}
}

// Run performs one load-compile-publish cycle. Predicate validation errors
// are logged and do not fail the run.
func (r *PlanRunner) Run(ctx context.Context) (*Result, error) {
	jobs, err := r.source.LoadJobs(ctx)
	if err != nil {
		return nil, exception.NewConfigurationError(moduleName, "failed to load jobs", err)
	}

	result, err := r.compiler.Compile(ctx, jobs, r.opts)
	if err != nil {
		return nil, err
	}
	if result.PredicateErrors != nil {
		logger.Warnf("Compile run %s: some incremental predicates could not be built: %v", result.RunID, result.PredicateErrors)
	}

	if r.publisher != nil {
		if err := r.publisher.Publish(ctx, result); err != nil {
			return result, err
		}
	}
	return result, nil
}
