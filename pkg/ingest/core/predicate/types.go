package predicate

import (
	"regexp"
	"strings"
)

// Category is the coarse family of a native column type.
type Category string

const (
	CategoryTimestamp Category = "TIMESTAMP"
	CategoryNumeric   Category = "NUMERIC"
	CategoryString    Category = "STRING"
	CategoryOther     Category = "OTHER"
)

var typeCategories = map[string]Category{
	"DATE":                           CategoryTimestamp,
	"DATETIME":                       CategoryTimestamp,
	"DATETIME2":                      CategoryTimestamp,
	"SMALLDATETIME":                  CategoryTimestamp,
	"DATETIMEOFFSET":                 CategoryTimestamp,
	"TIMESTAMP":                      CategoryTimestamp,
	"TIMESTMP":                       CategoryTimestamp,
	"TIMESTAMPTZ":                    CategoryTimestamp,
	"TIMESTAMP WITH TIME ZONE":       CategoryTimestamp,
	"TIMESTAMP WITHOUT TIME ZONE":    CategoryTimestamp,
	"TIMESTAMP WITH LOCAL TIME ZONE": CategoryTimestamp,
	"NUMBER":                         CategoryNumeric,
	"NUMERIC":                        CategoryNumeric,
	"DECIMAL":                        CategoryNumeric,
	"INT":                            CategoryNumeric,
	"INTEGER":                        CategoryNumeric,
	"BIGINT":                         CategoryNumeric,
	"SMALLINT":                       CategoryNumeric,
	"TINYINT":                        CategoryNumeric,
	"BYTEINT":                        CategoryNumeric,
	"FLOAT":                          CategoryNumeric,
	"REAL":                           CategoryNumeric,
	"DOUBLE":                         CategoryNumeric,
	"DOUBLE PRECISION":               CategoryNumeric,
	"SERIAL":                         CategoryNumeric,
	"BIGSERIAL":                      CategoryNumeric,
	"CHAR":                           CategoryString,
	"NCHAR":                          CategoryString,
	"VARCHAR":                        CategoryString,
	"VARCHAR2":                       CategoryString,
	"NVARCHAR":                       CategoryString,
	"NVARCHAR2":                      CategoryString,
	"CHARACTER VARYING":              CategoryString,
	"TEXT":                           CategoryString,
	"CLOB":                           CategoryString,
}

var (
	precision  = regexp.MustCompile(`\([^)]*\)`)
	whitespace = regexp.MustCompile(`\s+`)
)

// Categorize maps a native type such as "TIMESTAMP(6) WITH TIME ZONE" or
// "varchar(32)" to its Category. Precision and case are ignored.
func Categorize(nativeType string) Category {
	normalized := precision.ReplaceAllString(strings.ToUpper(nativeType), "")
	normalized = strings.TrimSpace(whitespace.ReplaceAllString(normalized, " "))
	if c, ok := typeCategories[normalized]; ok {
		return c
	}
	return CategoryOther
}
