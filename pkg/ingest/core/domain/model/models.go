// Package model defines the transient values that flow through one compile
// call: jobs, pipelines, plans, batches and incremental predicates.
// Nothing here is persisted.
package model

import (
	"fmt"
	"sort"
	"strings"
)

// WeightClass is the load bucket of a table.
type WeightClass string

const (
	WeightLight  WeightClass = "light"
	WeightMedium WeightClass = "medium"
	WeightHeavy  WeightClass = "heavy"
)

// WeightOrder lists the recognized classes from lightest to heaviest.
var WeightOrder = []WeightClass{WeightLight, WeightMedium, WeightHeavy}

// Valid reports whether w is one of the recognized classes.
func (w WeightClass) Valid() bool {
	switch w {
	case WeightLight, WeightMedium, WeightHeavy:
		return true
	}
	return false
}

// Frequency is the refresh cadence half of a weight code.
type Frequency string

const (
	FrequencyHourly  Frequency = "HRY"
	FrequencyDaily   Frequency = "DLY"
	FrequencyWeekly  Frequency = "WKY"
	FrequencyMonthly Frequency = "MTH"
)

// Environment selects the batch naming scheme.
type Environment string

const (
	// EnvironmentLower covers dev/test/qa: the first batch keeps the bare prefix.
	EnvironmentLower Environment = "lower"
	// EnvironmentProduction covers promoted environments: every batch gets a suffix.
	EnvironmentProduction Environment = "production"
)

// Job is one ingestion unit. It is an immutable snapshot for one compile call.
type Job struct {
	Database    string `yaml:"database"`
	Table       string `yaml:"table"`
	Environment string `yaml:"environment"`
	// WeightCode is the 6-character weight+frequency code, e.g. "HVYDLY".
	WeightCode string `yaml:"weight_code"`
	// Weight is derived from WeightCode by the classifier.
	Weight WeightClass `yaml:"-"`
	// CheckColumn is the change-tracking column; empty for full refresh.
	CheckColumn string  `yaml:"check_column,omitempty"`
	Dialect     Dialect `yaml:"-"`
}

// ID returns the stable identity "database.table@environment".
func (j Job) ID() string {
	return fmt.Sprintf("%s.%s@%s", j.Database, j.Table, j.Environment)
}

// OrderingKey returns the key pipelines are sorted by.
func (j Job) OrderingKey() string {
	return j.Table
}

// Heavy reports whether the job belongs to the heavy class.
func (j Job) Heavy() bool {
	return j.Weight == WeightHeavy
}

// Incremental reports whether the job has a change-tracking column.
func (j Job) Incremental() bool {
	return j.CheckColumn != ""
}

// NodeName returns the lower-case "database_table" stem used in workflow node names.
func (j Job) NodeName() string {
	return strings.ToLower(j.Database + "_" + j.Table)
}

// SortJobs orders jobs by ordering key, then identity, in place.
func SortJobs(jobs []Job) {
	sort.SliceStable(jobs, func(a, b int) bool {
		if jobs[a].OrderingKey() != jobs[b].OrderingKey() {
			return jobs[a].OrderingKey() < jobs[b].OrderingKey()
		}
		return jobs[a].ID() < jobs[b].ID()
	})
}

// Pipeline is a non-empty set of jobs sharing one execution stage,
// kept sorted by ordering key.
type Pipeline struct {
	Jobs []Job
}

// NewPipeline copies and sorts jobs into a Pipeline.
func NewPipeline(jobs ...Job) Pipeline {
	members := append([]Job(nil), jobs...)
	SortJobs(members)
	return Pipeline{Jobs: members}
}

// Size returns the number of jobs.
func (p Pipeline) Size() int {
	return len(p.Jobs)
}

// HasHeavy reports whether any member is heavy.
func (p Pipeline) HasHeavy() bool {
	_, ok := p.FirstHeavy()
	return ok
}

// FirstHeavy returns the index of the first heavy member.
func (p Pipeline) FirstHeavy() (int, bool) {
	for i, j := range p.Jobs {
		if j.Heavy() {
			return i, true
		}
	}
	return -1, false
}

// String renders the member tables, e.g. "[a b c]".
func (p Pipeline) String() string {
	names := make([]string, len(p.Jobs))
	for i, j := range p.Jobs {
		names[i] = j.Table
	}
	return "[" + strings.Join(names, " ") + "]"
}

// WorkflowPlan is an ordered sequence of pipelines ("stages").
type WorkflowPlan struct {
	Name      string
	Nested    bool
	Pipelines []Pipeline
}

// JobCount returns the number of jobs across all stages.
func (p WorkflowPlan) JobCount() int {
	n := 0
	for _, pl := range p.Pipelines {
		n += pl.Size()
	}
	return n
}

// BatchEntry pairs a job with the file name of its generated (sub)workflow.
type BatchEntry struct {
	Job      Job
	Filename string
}

// Batch is one bounded window of entries that becomes one generated workflow.
type Batch struct {
	Name    string
	Entries []BatchEntry
}

// Jobs returns the batch's jobs in input order.
func (b Batch) Jobs() []Job {
	jobs := make([]Job, len(b.Entries))
	for i, e := range b.Entries {
		jobs[i] = e.Job
	}
	return jobs
}

// Filenames returns the identity -> filename map for the batch. Entries
// without a file name are left out.
func (b Batch) Filenames() map[string]string {
	m := make(map[string]string, len(b.Entries))
	for _, e := range b.Entries {
		if e.Filename != "" {
			m[e.Job.ID()] = e.Filename
		}
	}
	return m
}

// Column is one live column of a source table.
type Column struct {
	Name string
	Type string
}

// ExtractionMode selects how the extractor tracks changes.
type ExtractionMode string

const (
	ModeLastModified ExtractionMode = "lastmodified"
	ModeAppend       ExtractionMode = "append"
)

// IncrementalPredicate is the boundary comparison for one table. Expression
// references the prior run's watermark; it is never resolved at compile time.
type IncrementalPredicate struct {
	JobID      string
	Dialect    Dialect
	Column     string
	Mode       ExtractionMode
	Expression string
}
