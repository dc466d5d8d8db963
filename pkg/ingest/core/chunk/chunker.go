// Package chunk splits an oversized job list into fixed-size windows, each of
// which becomes one generated (sub)workflow.
package chunk

import (
	"fmt"

	model "github.com/tigerroll/surfin-flow/pkg/ingest/core/domain/model"
	"github.com/tigerroll/surfin-flow/pkg/ingest/support/util/exception"
	"github.com/tigerroll/surfin-flow/pkg/ingest/support/util/logger"
)

const moduleName = "chunk"

// Split cuts entries into batches of at most max entries, keeping input
// order. The last batch holds the remainder.
//
// In the lower environment the first batch is named prefix and later ones
// prefix_1, prefix_2, ...; in production every batch is suffixed starting at 1.
func Split(entries []model.BatchEntry, max int, prefix string, env model.Environment) ([]model.Batch, error) {
	if max < 1 {
		return nil, exception.NewConfigurationErrorf(moduleName, "max_table_per_workflow must be at least 1, got %d", max)
	}
	if env != model.EnvironmentLower && env != model.EnvironmentProduction {
		return nil, exception.NewConfigurationErrorf(moduleName, "unrecognized environment '%s'", env)
	}

	batches := make([]model.Batch, 0, (len(entries)+max-1)/max)
	for start := 0; start < len(entries); start += max {
		end := start + max
		if end > len(entries) {
			end = len(entries)
		}
		window := append([]model.BatchEntry(nil), entries[start:end]...)
		batches = append(batches, model.Batch{
			Name:    BatchName(prefix, len(batches), env),
			Entries: window,
		})
	}
	logger.Debugf("chunk: %d entries -> %d batches (max %d, %s)", len(entries), len(batches), max, env)
	return batches, nil
}

// BatchName returns the name of the index-th batch (0-based).
func BatchName(prefix string, index int, env model.Environment) string {
	if env == model.EnvironmentLower {
		if index == 0 {
			return prefix
		}
		return fmt.Sprintf("%s_%d", prefix, index)
	}
	return fmt.Sprintf("%s_%d", prefix, index+1)
}
