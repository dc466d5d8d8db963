// Package predicate renders the incremental-extraction boundary predicate for
// a table with a change-tracking column.
package predicate

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	model "github.com/tigerroll/surfin-flow/pkg/ingest/core/domain/model"
	"github.com/tigerroll/surfin-flow/pkg/ingest/support/util/exception"
	"github.com/tigerroll/surfin-flow/pkg/ingest/support/util/logger"
)

const moduleName = "predicate"

// DefaultWatermarkTemplate references the watermark action output of the
// running workflow. {{.Table}} is the source table name.
const DefaultWatermarkTemplate = "${wf:actionData('watermark_{{.Table}}')['last_value']}"

// lastModified holds one boundary template per dialect. The first verb is
// the column, the second the deferred watermark.
var lastModified = map[model.Dialect]string{
	model.DialectOracle:     "%s > to_timestamp('%s','YYYY-MM-DD HH24:MI:SS.FF9')",
	model.DialectTeradata:   "%s > '%s'",
	model.DialectMySQL:      "%s > '%s'",
	model.DialectPostgreSQL: "%s > '%s'",
	model.DialectSQLServer:  "%s > convert(datetime2, '%s')",
	model.DialectDB2:        "timestamp(%s) > timestamp('%s')",
}

const appendTemplate = "%s > %s"

// Builder renders IncrementalPredicates.
type Builder struct {
	watermark *template.Template
}

// NewBuilder parses watermarkTemplate; an empty string selects DefaultWatermarkTemplate.
func NewBuilder(watermarkTemplate string) (*Builder, error) {
	if watermarkTemplate == "" {
		watermarkTemplate = DefaultWatermarkTemplate
	}
	tmpl, err := template.New("watermark").Option("missingkey=error").Parse(watermarkTemplate)
	if err != nil {
		return nil, exception.NewConfigurationErrorf(moduleName, "invalid watermark template '%s'", watermarkTemplate, err)
	}
	return &Builder{watermark: tmpl}, nil
}

var defaultBuilder = func() *Builder {
	b, err := NewBuilder(DefaultWatermarkTemplate)
	if err != nil {
		panic(err)
	}
	return b
}()

// Build renders a predicate with the default watermark reference.
func Build(table, checkColumn string, dialect model.Dialect, columns []model.Column) (model.IncrementalPredicate, error) {
	return defaultBuilder.Build(table, checkColumn, dialect, columns)
}

// ForJob renders the predicate of an incremental job.
func (b *Builder) ForJob(job model.Job, columns []model.Column) (model.IncrementalPredicate, error) {
	p, err := b.Build(job.Table, job.CheckColumn, job.Dialect, columns)
	if err != nil {
		return model.IncrementalPredicate{}, err
	}
	p.JobID = job.ID()
	return p, nil
}

// Build validates checkColumn against the live columns, picks the extraction
// mode from the column's type and renders the boundary comparison.
func (b *Builder) Build(table, checkColumn string, dialect model.Dialect, columns []model.Column) (model.IncrementalPredicate, error) {
	tmpl, ok := lastModified[dialect]
	if !ok {
		return model.IncrementalPredicate{}, exception.NewConfigurationErrorf(moduleName, "unrecognized source '%s'", dialect)
	}

	col, ok := findColumn(columns, checkColumn)
	if !ok {
		names := make([]string, len(columns))
		for i, c := range columns {
			names[i] = c.Name
		}
		return model.IncrementalPredicate{}, exception.NewValidationError(moduleName,
			fmt.Sprintf("check column '%s' not found in table '%s'", checkColumn, table), names)
	}

	watermark, err := b.render(table)
	if err != nil {
		return model.IncrementalPredicate{}, err
	}

	p := model.IncrementalPredicate{Dialect: dialect, Column: checkColumn}
	if Categorize(col.Type) == CategoryTimestamp {
		column := checkColumn
		if dialect.UpperCaseIdentifiers() {
			column = strings.ToUpper(column)
		}
		p.Mode = model.ModeLastModified
		p.Expression = fmt.Sprintf(tmpl, column, watermark)
	} else {
		p.Mode = model.ModeAppend
		p.Expression = fmt.Sprintf(appendTemplate, checkColumn, watermark)
	}
	logger.Debugf("predicate: %s.%s (%s, %s) -> %s", table, checkColumn, dialect, p.Mode, p.Expression)
	return p, nil
}

func (b *Builder) render(table string) (string, error) {
	var buf bytes.Buffer
	if err := b.watermark.Execute(&buf, struct{ Table string }{Table: table}); err != nil {
		return "", exception.NewConfigurationErrorf(moduleName, "failed to render watermark for '%s'", table, err)
	}
	return buf.String(), nil
}

func findColumn(columns []model.Column, name string) (model.Column, bool) {
	for _, c := range columns {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return model.Column{}, false
}
