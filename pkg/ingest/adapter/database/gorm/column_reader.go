package gorm

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	model "github.com/tigerroll/surfin-flow/pkg/ingest/core/domain/model"
)

const columnsQuery = "SELECT column_name, data_type FROM information_schema.columns " +
	"WHERE table_schema = ? AND table_name = ? ORDER BY ordinal_position"

type columnRow struct {
	ColumnName string `gorm:"column:column_name"`
	DataType   string `gorm:"column:data_type"`
}

// ColumnReader reads live columns from information_schema.columns. The
// job's database is used as the schema name.
type ColumnReader struct {
	db *gorm.DB
}

// NewColumnReader creates a ColumnReader.
func NewColumnReader(db *gorm.DB) *ColumnReader {
	return &ColumnReader{db: db}
}

// Columns returns the columns of job's table in ordinal order. A table
// with no visible columns is an error.
func (r *ColumnReader) Columns(ctx context.Context, job model.Job) ([]model.Column, error) {
	var rows []columnRow
	if err := r.db.WithContext(ctx).Raw(columnsQuery, job.Database, job.Table).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("read columns of %s.%s: %w", job.Database, job.Table, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("table %s.%s not found or has no columns", job.Database, job.Table)
	}
	columns := make([]model.Column, len(rows))
	for i, row := range rows {
		columns[i] = model.Column{Name: row.ColumnName, Type: row.DataType}
	}
	return columns, nil
}
