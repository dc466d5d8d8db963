package jsl

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	classify "github.com/tigerroll/surfin-flow/pkg/ingest/core/classify"
	config "github.com/tigerroll/surfin-flow/pkg/ingest/core/config"
	model "github.com/tigerroll/surfin-flow/pkg/ingest/core/domain/model"
	predicate "github.com/tigerroll/surfin-flow/pkg/ingest/core/predicate"
	"github.com/tigerroll/surfin-flow/pkg/ingest/support/util/exception"
	"github.com/tigerroll/surfin-flow/pkg/ingest/support/util/logger"
)

const moduleName = "jsl_loader"

// LoadInventoryFromBytes parses an inventory document. Placeholders are
// expanded with expander first when it is non-nil.
func LoadInventoryFromBytes(data []byte, expander config.EnvironmentExpander) (*Inventory, error) {
	if expander != nil {
		expanded, err := expander.Expand(data)
		if err != nil {
			return nil, exception.NewConfigurationError(moduleName, "failed to expand inventory", err)
		}
		data = expanded
	}

	var file inventoryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, exception.NewConfigurationError(moduleName, "failed to parse inventory file", err)
	}
	inv := file.Inventory
	if len(inv.Jobs) == 0 {
		return nil, exception.NewConfigurationErrorf(moduleName, "inventory '%s' does not define any jobs", inv.Name)
	}
	return &inv, nil
}

// ToJobs converts every entry to a model.Job. All entry problems are
// reported together; no jobs are returned if any entry is invalid.
func (inv *Inventory) ToJobs() ([]model.Job, error) {
	var result *multierror.Error
	jobs := make([]model.Job, 0, len(inv.Jobs))
	seen := make(map[string]int, len(inv.Jobs))

	for i, entry := range inv.Jobs {
		job, err := inv.toJob(entry)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("jobs[%d]: %w", i, err))
			continue
		}
		if first, dup := seen[job.ID()]; dup {
			result = multierror.Append(result, exception.NewConfigurationErrorf(moduleName, "jobs[%d]: job '%s' duplicates jobs[%d]", i, job.ID(), first))
			continue
		}
		seen[job.ID()] = i
		jobs = append(jobs, job)
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return jobs, nil
}

func (inv *Inventory) toJob(entry JobEntry) (model.Job, error) {
	job := model.Job{
		Database:    entry.Database,
		Table:       entry.Table,
		Environment: firstNonEmpty(entry.Environment, inv.Defaults.Environment),
		WeightCode:  entry.WeightCode,
		CheckColumn: entry.CheckColumn,
	}
	if job.Database == "" || job.Table == "" {
		return job, exception.NewConfigurationError(moduleName, "'database' and 'table' are required", nil)
	}
	if job.Environment == "" {
		return job, exception.NewConfigurationErrorf(moduleName, "job '%s.%s' has no environment", job.Database, job.Table)
	}
	class, _, err := classify.Code(job.WeightCode)
	if err != nil {
		return job, err
	}
	job.Weight = class

	source, connect := entry.Source, entry.Connect
	if source == "" && connect == "" {
		source, connect = inv.Defaults.Source, inv.Defaults.Connect
	}
	dialect, err := resolveDialect(source, connect)
	if err != nil {
		return job, err
	}
	if dialect == "" && job.Incremental() {
		return job, exception.NewConfigurationErrorf(moduleName, "job '%s' has a check_column but no source", job.ID())
	}
	job.Dialect = dialect
	return job, nil
}

// resolveDialect prefers the tag; the connect string is only sniffed when no tag is given.
func resolveDialect(source, connect string) (model.Dialect, error) {
	switch {
	case source != "":
		return model.ParseDialect(source)
	case connect != "":
		return predicate.ResolveDialect(connect)
	}
	return "", nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// FileJobSource reads jobs from an inventory file on every call.
type FileJobSource struct {
	path     string
	expander config.EnvironmentExpander
}

// NewFileJobSource creates a FileJobSource for path.
func NewFileJobSource(path string, expander config.EnvironmentExpander) *FileJobSource {
	return &FileJobSource{path: path, expander: expander}
}

// LoadJobs reads, expands and validates the inventory file.
func (s *FileJobSource) LoadJobs(ctx context.Context) ([]model.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, exception.NewConfigurationErrorf(moduleName, "failed to read inventory '%s'", s.path, err)
	}
	inv, err := LoadInventoryFromBytes(data, s.expander)
	if err != nil {
		return nil, err
	}
	jobs, err := inv.ToJobs()
	if err != nil {
		return nil, err
	}
	logger.Infof("Loaded inventory '%s' from '%s': %d jobs.", inv.Name, s.path, len(jobs))
	return jobs, nil
}
