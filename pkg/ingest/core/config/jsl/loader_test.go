package jsl_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/tigerroll/surfin-flow/pkg/ingest/core/config"
	jsl "github.com/tigerroll/surfin-flow/pkg/ingest/core/config/jsl"
	model "github.com/tigerroll/surfin-flow/pkg/ingest/core/domain/model"
	"github.com/tigerroll/surfin-flow/pkg/ingest/support/util/exception"
)

const inventoryYAML = `
inventory:
  name: retail
  defaults:
    environment: ${INVENTORY_ENV}
    source: Oracle
  jobs:
    - database: sales
      table: orders
      weight_code: HVYDLY
      check_column: updated_at
    - database: sales
      table: regions
      weight_code: lgtwky
    - database: crm
      table: contacts
      environment: prod
      weight_code: MEDDLY
      connect: jdbc:mysql://crm-db:3306/crm
      check_column: modified
`

func TestLoadInventoryFromBytes_ToJobs(t *testing.T) {
	t.Setenv("INVENTORY_ENV", "qa")

	inv, err := jsl.LoadInventoryFromBytes([]byte(inventoryYAML), config.NewOsEnvironmentExpander())
	require.NoError(t, err)
	assert.Equal(t, "retail", inv.Name)

	jobs, err := inv.ToJobs()
	require.NoError(t, err)
	require.Len(t, jobs, 3)

	assert.Equal(t, "sales.orders@qa", jobs[0].ID())
	assert.Equal(t, model.WeightHeavy, jobs[0].Weight)
	assert.Equal(t, model.DialectOracle, jobs[0].Dialect)
	assert.True(t, jobs[0].Incremental())

	assert.Equal(t, model.WeightLight, jobs[1].Weight)
	assert.False(t, jobs[1].Incremental())

	// The entry's own connect string overrides the default source tag.
	assert.Equal(t, "crm.contacts@prod", jobs[2].ID())
	assert.Equal(t, model.DialectMySQL, jobs[2].Dialect)
}

func TestLoadInventoryFromBytes_NoJobs(t *testing.T) {
	_, err := jsl.LoadInventoryFromBytes([]byte("inventory:\n  name: empty\n"), nil)
	assert.True(t, exception.IsConfigurationError(err))
	assert.Contains(t, err.Error(), "'empty'")
}

func TestLoadInventoryFromBytes_InvalidYAML(t *testing.T) {
	_, err := jsl.LoadInventoryFromBytes([]byte("inventory: ["), nil)
	assert.True(t, exception.IsConfigurationError(err))
}

func TestInventory_ToJobs_CollectsAllErrors(t *testing.T) {
	inv := &jsl.Inventory{
		Name:     "broken",
		Defaults: jsl.JobDefaults{Environment: "dev"},
		Jobs: []jsl.JobEntry{
			{Database: "sales", Table: "orders", WeightCode: "HVYDLY"},
			{Database: "sales", Table: "lines", WeightCode: "XXLDLY"},
			{Database: "sales", Table: "orders", WeightCode: "LGTDLY"},
			{Table: "nameless", WeightCode: "LGTDLY"},
			{Database: "sales", Table: "audit", WeightCode: "LGTDLY", CheckColumn: "ts"},
			{Database: "sales", Table: "legacy", WeightCode: "LGTDLY", Source: "Informix"},
		},
	}

	jobs, err := inv.ToJobs()
	assert.Nil(t, jobs)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	require.Len(t, merr.Errors, 5)
	assert.Contains(t, merr.Errors[0].Error(), "jobs[1]")
	assert.Contains(t, merr.Errors[0].Error(), "'XXL'")
	assert.Contains(t, merr.Errors[1].Error(), "duplicates jobs[0]")
	assert.Contains(t, merr.Errors[2].Error(), "jobs[3]")
	assert.Contains(t, merr.Errors[3].Error(), "no source")
	assert.Contains(t, merr.Errors[4].Error(), "unrecognized source 'Informix'")
	for _, e := range merr.Errors {
		assert.True(t, exception.IsConfigurationError(e))
	}
}

func TestFileJobSource_LoadJobs(t *testing.T) {
	t.Setenv("INVENTORY_ENV", "dev")
	path := filepath.Join(t.TempDir(), "inventory.yaml")
	require.NoError(t, os.WriteFile(path, []byte(inventoryYAML), 0o644))

	jobs, err := jsl.NewFileJobSource(path, config.NewOsEnvironmentExpander()).LoadJobs(context.Background())
	require.NoError(t, err)
	assert.Len(t, jobs, 3)
	assert.Equal(t, "sales.orders@dev", jobs[0].ID())
}

func TestFileJobSource_MissingFile(t *testing.T) {
	src := jsl.NewFileJobSource(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	_, err := src.LoadJobs(context.Background())
	assert.True(t, exception.IsConfigurationError(err))
}

func TestFileJobSource_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := jsl.NewFileJobSource("unused.yaml", nil).LoadJobs(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
