// Package sqlite contributes the SQLite dialector to the gorm adapter.
package sqlite

import (
	"errors"

	"go.uber.org/fx"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	dbconfig "github.com/tigerroll/surfin-flow/pkg/ingest/adapter/database/config"
	gormadapter "github.com/tigerroll/surfin-flow/pkg/ingest/adapter/database/gorm"
)

// Type is the database type handled by this package.
const Type = "sqlite"

// Dialector opens a SQLite dialector; database is the file path.
func Dialector(cfg dbconfig.DatabaseConfig) (gorm.Dialector, error) {
	if cfg.Database == "" {
		return nil, errors.New("SQLite database path cannot be empty")
	}
	return sqlite.Open(cfg.Database), nil
}

// Module registers the SQLite dialector.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		func() gormadapter.DialectorRegistration {
			return gormadapter.DialectorRegistration{Type: Type, Factory: Dialector}
		},
		fx.ResultTags(`group:"gorm_dialectors"`),
	)),
)
