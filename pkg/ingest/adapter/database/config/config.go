package config

import (
	"fmt"

	"github.com/tigerroll/surfin-flow/pkg/ingest/support/util/configbinder"
)

// PoolConfig holds database connection pool settings.
type PoolConfig struct {
	MaxOpenConns           int `yaml:"max_open_conns"`
	MaxIdleConns           int `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int `yaml:"conn_max_lifetime_minutes"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Type     string     `yaml:"type"`     // "postgres", "mysql" or "sqlite".
	Host     string     `yaml:"host"`     // Database host address.
	Port     int        `yaml:"port"`     // Database port number.
	Database string     `yaml:"database"` // Database name, or file path for sqlite.
	User     string     `yaml:"user"`
	Password string     `yaml:"password"`
	Sslmode  string     `yaml:"sslmode"`
	Pool     PoolConfig `yaml:"pool"`
	// InventoryTable is the table the inventory reader selects from.
	InventoryTable string `yaml:"inventory_table"`
}

// Lookup decodes the named connection from the raw "database" configuration map.
func Lookup(databaseConfigs map[string]interface{}, name string) (DatabaseConfig, error) {
	var cfg DatabaseConfig
	raw, ok := databaseConfigs[name]
	if !ok {
		return cfg, fmt.Errorf("database configuration '%s' not found", name)
	}
	props, ok := raw.(map[string]interface{})
	if !ok {
		return cfg, fmt.Errorf("invalid database configuration for '%s': expected a mapping, got %T", name, raw)
	}
	if err := configbinder.BindProperties(props, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to decode database config for '%s': %w", name, err)
	}
	return cfg, nil
}
