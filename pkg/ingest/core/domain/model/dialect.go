package model

import (
	"strings"

	"github.com/tigerroll/surfin-flow/pkg/ingest/support/util/exception"
)

// Dialect is the closed set of supported source databases.
type Dialect string

const (
	DialectOracle     Dialect = "Oracle"
	DialectDB2        Dialect = "DB2"
	DialectTeradata   Dialect = "Teradata"
	DialectSQLServer  Dialect = "SqlServer"
	DialectPostgreSQL Dialect = "PostgreSQL"
	DialectMySQL      Dialect = "MySQL"
)

// Dialects lists every supported dialect.
var Dialects = []Dialect{DialectOracle, DialectDB2, DialectTeradata, DialectSQLServer, DialectPostgreSQL, DialectMySQL}

// ParseDialect resolves a configured tag (case-insensitive) to a Dialect.
func ParseDialect(tag string) (Dialect, error) {
	for _, d := range Dialects {
		if strings.EqualFold(strings.TrimSpace(tag), string(d)) {
			return d, nil
		}
	}
	return "", exception.NewConfigurationErrorf("dialect", "unrecognized source '%s'", tag)
}

// UpperCaseIdentifiers reports whether the dialect folds unquoted identifiers to upper case.
func (d Dialect) UpperCaseIdentifiers() bool {
	switch d {
	case DialectOracle, DialectTeradata, DialectDB2:
		return true
	}
	return false
}
