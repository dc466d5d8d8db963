package usecase

import (
	"go.uber.org/fx"

	config "github.com/tigerroll/surfin-flow/pkg/ingest/core/config"
	metrics "github.com/tigerroll/surfin-flow/pkg/ingest/core/metrics"
	predicate "github.com/tigerroll/surfin-flow/pkg/ingest/core/predicate"
)

// CompilerParams defines the dependencies for NewCompilerProvider.
type CompilerParams struct {
	fx.In
	Config   *config.Config
	Columns  ColumnSource `optional:"true"`
	Recorder metrics.MetricRecorder
	Tracer   metrics.Tracer
}

// NewCompilerProvider builds a Compiler from the compiler configuration.
func NewCompilerProvider(p CompilerParams) (*Compiler, error) {
	builder, err := predicate.NewBuilder(p.Config.SurfinFlow.Compiler.WatermarkTemplate)
	if err != nil {
		return nil, err
	}
	return NewCompiler(p.Config.SurfinFlow.Compiler.Capacity, builder, p.Columns, p.Recorder, p.Tracer)
}

// NewCompileOptionsProvider derives CompileOptions from the configuration.
func NewCompileOptionsProvider(cfg *config.Config) (CompileOptions, error) {
	env, err := cfg.Environment()
	if err != nil {
		return CompileOptions{}, err
	}
	compiler := cfg.SurfinFlow.Compiler
	return CompileOptions{
		Name:                compiler.WorkflowPrefix,
		Environment:         env,
		MaxTablePerWorkflow: compiler.MaxTablePerWorkflow,
		Completion:          compiler.CompletionNode,
		SubWorkflowSuffix:   compiler.SubWorkflowSuffix,
	}, nil
}

// RunnerParams defines the dependencies for NewPlanRunnerProvider.
type RunnerParams struct {
	fx.In
	Source    JobSource
	Compiler  *Compiler
	Publisher PlanPublisher `optional:"true"`
	Options   CompileOptions
}

// NewPlanRunnerProvider wires a PlanRunner.
func NewPlanRunnerProvider(p RunnerParams) *PlanRunner {
	return NewPlanRunner(p.Source, p.Compiler, p.Publisher, p.Options)
}

// Module provides the Compiler, its options and the PlanRunner.
var Module = fx.Options(
	fx.Provide(NewCompilerProvider),
	fx.Provide(NewCompileOptionsProvider),
	fx.Provide(NewPlanRunnerProvider),
)
