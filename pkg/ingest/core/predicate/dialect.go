package predicate

import (
	"strings"

	model "github.com/tigerroll/surfin-flow/pkg/ingest/core/domain/model"
	"github.com/tigerroll/surfin-flow/pkg/ingest/support/util/exception"
)

var connectPrefixes = []struct {
	prefix  string
	dialect model.Dialect
}{
	{"jdbc:oracle:", model.DialectOracle},
	{"jdbc:db2:", model.DialectDB2},
	{"jdbc:teradata:", model.DialectTeradata},
	{"jdbc:sqlserver:", model.DialectSQLServer},
	{"jdbc:postgresql:", model.DialectPostgreSQL},
	{"jdbc:mysql:", model.DialectMySQL},
}

// ResolveDialect maps a JDBC connect string to its Dialect. This is the only
// place a connect string is inspected; everything downstream takes the tag.
func ResolveDialect(connectString string) (model.Dialect, error) {
	normalized := strings.ToLower(strings.TrimSpace(connectString))
	for _, p := range connectPrefixes {
		if strings.HasPrefix(normalized, p.prefix) {
			return p.dialect, nil
		}
	}
	return "", exception.NewConfigurationErrorf(moduleName, "unrecognized source '%s'", connectString)
}
