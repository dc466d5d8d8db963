// Package mysql contributes the MySQL dialector to the gorm adapter.
package mysql

import (
	"fmt"

	"go.uber.org/fx"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	dbconfig "github.com/tigerroll/surfin-flow/pkg/ingest/adapter/database/config"
	gormadapter "github.com/tigerroll/surfin-flow/pkg/ingest/adapter/database/gorm"
)

// Type is the database type handled by this package.
const Type = "mysql"

// ConnectionString builds a go-sql-driver DSN:
// user:password@tcp(host:port)/dbname?charset=utf8mb4&parseTime=True&loc=Local
func ConnectionString(c dbconfig.DatabaseConfig) string {
	var authPart string
	if c.User != "" {
		authPart = c.User
		if c.Password != "" {
			authPart = fmt.Sprintf("%s:%s", c.User, c.Password)
		}
		authPart += "@"
	}
	return fmt.Sprintf("%stcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		authPart, c.Host, c.Port, c.Database)
}

// Dialector opens a MySQL dialector for cfg.
func Dialector(cfg dbconfig.DatabaseConfig) (gorm.Dialector, error) {
	return mysql.Open(ConnectionString(cfg)), nil
}

// Module registers the MySQL dialector.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		func() gormadapter.DialectorRegistration {
			return gormadapter.DialectorRegistration{Type: Type, Factory: Dialector}
		},
		fx.ResultTags(`group:"gorm_dialectors"`),
	)),
)
