// Package config provides the configuration structures of surfin-flow and
// the loader that fills them from defaults, the embedded application.yaml
// and environment variables.
package config

import (
	pack "github.com/tigerroll/surfin-flow/pkg/ingest/core/pack"
)

// EmbeddedConfig holds the content of the configuration file, typically passed from main.go.
type EmbeddedConfig []byte

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the logging level (e.g., "INFO", "DEBUG").
	Level string `yaml:"level"`
}

// SystemConfig holds system-wide settings.
type SystemConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// CompilerConfig holds the plan compiler settings.
type CompilerConfig struct {
	// MaxTablePerWorkflow is the job count above which the plan is split
	// into nested sub-workflows.
	MaxTablePerWorkflow int `yaml:"max_table_per_workflow"`
	// Capacity is the maximum pipeline size per weight class.
	Capacity pack.Capacities `yaml:"capacity"`
	// Environment selects the batch naming scheme ("lower" or "production").
	Environment string `yaml:"environment"`
	// WorkflowPrefix is the name of the top-level workflow and the stem of batch names.
	WorkflowPrefix string `yaml:"workflow_prefix"`
	// CompletionNode is the terminal node every generated workflow ends in.
	CompletionNode string `yaml:"completion_node"`
	// WatermarkTemplate renders the deferred watermark reference; {{.Table}} is the table.
	WatermarkTemplate string `yaml:"watermark_template"`
	// SubWorkflowSuffix is appended to a job's node name to form its generated file name.
	SubWorkflowSuffix string `yaml:"sub_workflow_suffix"`
}

// InventoryConfig selects where job descriptors are read from.
type InventoryConfig struct {
	// Source is "file" for a YAML inventory or "database" for the gorm reader.
	Source string `yaml:"source"`
	// Path is the YAML inventory path when Source is "file".
	Path string `yaml:"path"`
	// DatabaseRef names the database connection when Source is "database".
	DatabaseRef string `yaml:"database_ref"`
	// ColumnsDatabaseRef names the connection live columns are read from; empty disables predicates.
	ColumnsDatabaseRef string `yaml:"columns_database_ref"`
}

// OutputConfig selects where plan manifests are written.
type OutputConfig struct {
	// StorageRef names the storage connection; empty disables manifest output.
	StorageRef string `yaml:"storage_ref"`
	// Bucket overrides the connection's default bucket.
	Bucket string `yaml:"bucket"`
	// Prefix is prepended to every manifest object name.
	Prefix string `yaml:"prefix"`
}

// MetricsConfig toggles the observability implementations.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Tracing bool `yaml:"tracing"`
}

// SurfinFlowConfig holds all configuration under the "surfin_flow" top-level key.
type SurfinFlowConfig struct {
	Compiler  CompilerConfig  `yaml:"compiler"`
	System    SystemConfig    `yaml:"system"`
	Inventory InventoryConfig `yaml:"inventory"`
	Output    OutputConfig    `yaml:"output"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	// StorageConfigs holds named storage connections, decoded by the storage adapters.
	StorageConfigs map[string]interface{} `yaml:"storage"`
	// DatabaseConfigs holds named database connections, decoded by the database adapters.
	DatabaseConfigs map[string]interface{} `yaml:"database"`
}

// Config is the root structure for the entire application configuration.
type Config struct {
	SurfinFlow SurfinFlowConfig `yaml:"surfin_flow"`
	// EmbeddedConfig holds configuration loaded from an embedded source, not from YAML.
	EmbeddedConfig EmbeddedConfig `yaml:"-"`
}

// NewConfig returns a new instance of Config with default values.
func NewConfig() *Config {
	return &Config{
		SurfinFlow: SurfinFlowConfig{
			Compiler: CompilerConfig{
				MaxTablePerWorkflow: 50,
				Capacity:            pack.DefaultCapacities(),
				Environment:         "lower",
				WorkflowPrefix:      "ingest",
				CompletionNode:      "completion",
				SubWorkflowSuffix:   "_workflow.xml",
			},
			System: SystemConfig{
				Logging: LoggingConfig{Level: "INFO"},
			},
			Inventory: InventoryConfig{
				Source: "file",
			},
			StorageConfigs:  map[string]interface{}{},
			DatabaseConfigs: map[string]interface{}{},
		},
	}
}
