// Package postgres contributes the PostgreSQL dialector to the gorm adapter.
package postgres

import (
	"fmt"

	"go.uber.org/fx"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	dbconfig "github.com/tigerroll/surfin-flow/pkg/ingest/adapter/database/config"
	gormadapter "github.com/tigerroll/surfin-flow/pkg/ingest/adapter/database/gorm"
)

// Type is the database type handled by this package.
const Type = "postgres"

// ConnectionString builds a libpq key/value DSN. An empty sslmode selects "disable".
func ConnectionString(c dbconfig.DatabaseConfig) string {
	sslmode := c.Sslmode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, sslmode)
}

// Dialector opens a PostgreSQL dialector for cfg.
func Dialector(cfg dbconfig.DatabaseConfig) (gorm.Dialector, error) {
	return postgres.Open(ConnectionString(cfg)), nil
}

// Module registers the PostgreSQL dialector.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		func() gormadapter.DialectorRegistration {
			return gormadapter.DialectorRegistration{Type: Type, Factory: Dialector}
		},
		fx.ResultTags(`group:"gorm_dialectors"`),
	)),
)
