package config

import (
	"fmt"

	"github.com/tigerroll/surfin-flow/pkg/ingest/support/util/configbinder"
)

// StorageConfig holds configuration for a single storage connection.
type StorageConfig struct {
	Type            string `yaml:"type"`             // "local" or "gcs".
	BucketName      string `yaml:"bucket_name"`      // Default bucket for operations.
	CredentialsFile string `yaml:"credentials_file"` // Service account key for GCS; empty uses default credentials.
	BaseDir         string `yaml:"base_dir"`         // Root directory for the local adapter.
}

// Lookup decodes the named connection from the raw "storage" configuration map.
func Lookup(storageConfigs map[string]interface{}, name string) (StorageConfig, error) {
	var cfg StorageConfig
	raw, ok := storageConfigs[name]
	if !ok {
		return cfg, fmt.Errorf("storage configuration for name '%s' not found", name)
	}
	props, ok := raw.(map[string]interface{})
	if !ok {
		return cfg, fmt.Errorf("invalid storage configuration for '%s': expected a mapping, got %T", name, raw)
	}
	if err := configbinder.BindProperties(props, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to decode storage config for '%s': %w", name, err)
	}
	return cfg, nil
}
