package gorm

import (
	"context"

	"gorm.io/gorm"

	jsl "github.com/tigerroll/surfin-flow/pkg/ingest/core/config/jsl"
	model "github.com/tigerroll/surfin-flow/pkg/ingest/core/domain/model"
	"github.com/tigerroll/surfin-flow/pkg/ingest/support/util/exception"
	"github.com/tigerroll/surfin-flow/pkg/ingest/support/util/logger"
)

// DefaultInventoryTable is read when the connection does not name one.
const DefaultInventoryTable = "ingest_inventory"

// inventoryRow is one row of the inventory table.
type inventoryRow struct {
	DatabaseName  string `gorm:"column:database_name"`
	TableName     string `gorm:"column:table_name"`
	Environment   string `gorm:"column:environment"`
	WeightCode    string `gorm:"column:weight_code"`
	CheckColumn   string `gorm:"column:check_column"`
	Source        string `gorm:"column:source"`
	ConnectString string `gorm:"column:connect_string"`
}

// InventoryReader loads jobs from an inventory table. Rows are validated
// exactly like an inventory file.
type InventoryReader struct {
	db    *gorm.DB
	table string
}

// NewInventoryReader creates a reader over table; empty selects DefaultInventoryTable.
func NewInventoryReader(db *gorm.DB, table string) *InventoryReader {
	if table == "" {
		table = DefaultInventoryTable
	}
	return &InventoryReader{db: db, table: table}
}

// LoadJobs reads every inventory row ordered by database and table.
func (r *InventoryReader) LoadJobs(ctx context.Context) ([]model.Job, error) {
	var rows []inventoryRow
	err := r.db.WithContext(ctx).
		Table(r.table).
		Order("database_name, table_name").
		Find(&rows).Error
	if err != nil {
		return nil, exception.NewConfigurationErrorf("inventory_reader", "failed to read inventory table '%s'", r.table, err)
	}

	inv := jsl.Inventory{Name: r.table, Jobs: make([]jsl.JobEntry, len(rows))}
	for i, row := range rows {
		inv.Jobs[i] = jsl.JobEntry{
			Database:    row.DatabaseName,
			Table:       row.TableName,
			Environment: row.Environment,
			WeightCode:  row.WeightCode,
			CheckColumn: row.CheckColumn,
			Source:      row.Source,
			Connect:     row.ConnectString,
		}
	}
	jobs, err := inv.ToJobs()
	if err != nil {
		return nil, err
	}
	logger.Infof("Loaded %d jobs from inventory table '%s'.", len(jobs), r.table)
	return jobs, nil
}
