// Package pack groups classified jobs into capacity-bounded pipelines.
//
// Jobs of one class are chunked into full pipelines of that class's capacity.
// Leftovers are drained lightest-first: a single leftover job borrows one job
// from the next heavier class that still has leftovers, any other leftover
// group becomes a pipeline of its own.
package pack

import (
	model "github.com/tigerroll/surfin-flow/pkg/ingest/core/domain/model"
	"github.com/tigerroll/surfin-flow/pkg/ingest/support/util/exception"
	"github.com/tigerroll/surfin-flow/pkg/ingest/support/util/logger"
)

const moduleName = "pack"

// Capacities holds the maximum pipeline size per weight class.
type Capacities struct {
	Light  int `yaml:"light"`
	Medium int `yaml:"medium"`
	Heavy  int `yaml:"heavy"`
	// HeavyNested applies to heavy jobs packed inside a sub-workflow.
	HeavyNested int `yaml:"heavy_nested"`
}

// DefaultCapacities returns the standard capacities: light 4, medium 2,
// heavy 2 at top level and 1 when nested.
func DefaultCapacities() Capacities {
	return Capacities{Light: 4, Medium: 2, Heavy: 2, HeavyNested: 1}
}

// For returns the capacity of class.
func (c Capacities) For(class model.WeightClass, nested bool) int {
	switch class {
	case model.WeightLight:
		return c.Light
	case model.WeightMedium:
		return c.Medium
	case model.WeightHeavy:
		if nested {
			return c.HeavyNested
		}
		return c.Heavy
	}
	return 0
}

// Validate rejects capacities below one.
func (c Capacities) Validate() error {
	checks := []struct {
		name  string
		value int
	}{{"light", c.Light}, {"medium", c.Medium}, {"heavy", c.Heavy}, {"heavy_nested", c.HeavyNested}}
	for _, check := range checks {
		if check.value < 1 {
			return exception.NewConfigurationErrorf(moduleName, "capacity for '%s' must be at least 1, got %d", check.name, check.value)
		}
	}
	return nil
}

// Packer packs classified jobs into pipelines.
type Packer struct {
	capacities Capacities
}

// NewPacker validates capacities and returns a Packer.
func NewPacker(capacities Capacities) (*Packer, error) {
	if err := capacities.Validate(); err != nil {
		return nil, err
	}
	return &Packer{capacities: capacities}, nil
}

// Pack packs with DefaultCapacities.
func Pack(classified map[model.WeightClass][]model.Job, nested bool) ([]model.Pipeline, error) {
	return (&Packer{capacities: DefaultCapacities()}).Pack(classified, nested)
}

// bucket is one weight class split into full chunks and a leftover group.
type bucket struct {
	class     model.WeightClass
	full      [][]model.Job
	remainder []model.Job
}

// Pack returns the pipelines for classified. Any key outside the recognized
// classes is a configuration error; nothing is returned in that case.
// The result depends only on the set of jobs, not their arrival order.
func (p *Packer) Pack(classified map[model.WeightClass][]model.Job, nested bool) ([]model.Pipeline, error) {
	for class := range classified {
		if !class.Valid() {
			return nil, exception.NewConfigurationErrorf(moduleName, "unrecognized weight class '%s'", class)
		}
	}

	buckets := make([]bucket, 0, len(model.WeightOrder))
	for _, class := range model.WeightOrder {
		buckets = append(buckets, p.fill(class, classified[class], nested))
	}

	var pipelines []model.Pipeline
	for i := range buckets {
		for _, chunk := range buckets[i].full {
			pipelines = append(pipelines, model.NewPipeline(chunk...))
		}

		leftover := buckets[i].remainder
		if len(leftover) == 0 {
			continue
		}
		if len(leftover) == 1 {
			if borrowed, ok := borrow(buckets[i+1:]); ok {
				leftover = []model.Job{leftover[0], borrowed}
			}
		}
		buckets[i].remainder = nil
		pipelines = append(pipelines, model.NewPipeline(leftover...))
	}

	for i, pl := range pipelines {
		logger.Debugf("pack: pipeline %d (nested=%t) %s", i, nested, pl)
	}
	return pipelines, nil
}

// fill sorts one class and splits it into full chunks plus a remainder.
func (p *Packer) fill(class model.WeightClass, jobs []model.Job, nested bool) bucket {
	sorted := append([]model.Job(nil), jobs...)
	model.SortJobs(sorted)

	capacity := p.capacities.For(class, nested)
	b := bucket{class: class}
	cut := len(sorted) - len(sorted)%capacity
	for start := 0; start < cut; start += capacity {
		b.full = append(b.full, sorted[start:start+capacity])
	}
	b.remainder = sorted[cut:]
	return b
}

// borrow takes the first leftover job of the first heavier bucket that has one.
func borrow(heavier []bucket) (model.Job, bool) {
	for k := range heavier {
		if len(heavier[k].remainder) > 0 {
			job := heavier[k].remainder[0]
			heavier[k].remainder = heavier[k].remainder[1:]
			return job, true
		}
	}
	return model.Job{}, false
}
