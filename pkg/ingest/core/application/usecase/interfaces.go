package usecase

import (
	"context"

	model "github.com/tigerroll/surfin-flow/pkg/ingest/core/domain/model"
)

// JobSource supplies the job descriptors of one compile run.
type JobSource interface {
	// LoadJobs returns the jobs to compile. Each call returns a fresh snapshot.
	LoadJobs(ctx context.Context) ([]model.Job, error)
}

// ColumnSource supplies the live columns of a source table.
type ColumnSource interface {
	// Columns returns the columns of job's table in ordinal order.
	Columns(ctx context.Context, job model.Job) ([]model.Column, error)
}

// PlanPublisher hands a compiled result to its consumer, e.g. a manifest store.
type PlanPublisher interface {
	Publish(ctx context.Context, result *Result) error
}
