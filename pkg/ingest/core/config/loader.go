package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	model "github.com/tigerroll/surfin-flow/pkg/ingest/core/domain/model"
	"github.com/tigerroll/surfin-flow/pkg/ingest/support/util/exception"
	"github.com/tigerroll/surfin-flow/pkg/ingest/support/util/logger"
)

const moduleName = "config"

// LoadConfig builds a Config from defaults, the embedded YAML and the
// environment, in that order of precedence (lowest first). A .env file is
// loaded first when present.
func LoadConfig(envFilePath string, embeddedConfig EmbeddedConfig) (*Config, error) {
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			logger.Warnf(".env file (%s) not found or could not be loaded: %v", envFilePath, err)
		}
	} else if err := godotenv.Load(); err != nil {
		logger.Debugf(".env file not found or could not be loaded: %v", err)
	}

	cfg := NewConfig()

	var yamlConfig Config
	if err := yaml.Unmarshal(embeddedConfig, &yamlConfig); err != nil {
		return nil, exception.NewConfigurationError(moduleName, "failed to unmarshal embedded config", err)
	}
	mergeConfig(cfg, &yamlConfig)

	if err := loadStructFromEnv(reflect.ValueOf(cfg).Elem(), ""); err != nil {
		return nil, exception.NewConfigurationError(moduleName, "failed to load config from environment variables", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.EmbeddedConfig = embeddedConfig
	return cfg, nil
}

// Validate rejects compiler settings the compile path cannot run with.
func (c *Config) Validate() error {
	compiler := c.SurfinFlow.Compiler
	if compiler.MaxTablePerWorkflow < 1 {
		return exception.NewConfigurationErrorf(moduleName, "max_table_per_workflow must be at least 1, got %d", compiler.MaxTablePerWorkflow)
	}
	if _, err := c.Environment(); err != nil {
		return err
	}
	if err := compiler.Capacity.Validate(); err != nil {
		return err
	}
	if compiler.WorkflowPrefix == "" {
		return exception.NewConfigurationError(moduleName, "workflow_prefix must not be empty", nil)
	}
	switch c.SurfinFlow.Inventory.Source {
	case "file", "database":
	default:
		return exception.NewConfigurationErrorf(moduleName, "unrecognized inventory source '%s'", c.SurfinFlow.Inventory.Source)
	}
	return nil
}

// Environment returns the configured batch naming environment.
func (c *Config) Environment() (model.Environment, error) {
	env := model.Environment(strings.ToLower(strings.TrimSpace(c.SurfinFlow.Compiler.Environment)))
	switch env {
	case model.EnvironmentLower, model.EnvironmentProduction:
		return env, nil
	}
	return "", exception.NewConfigurationErrorf(moduleName, "unrecognized environment '%s'", c.SurfinFlow.Compiler.Environment)
}

// mergeConfig copies every non-zero value of source into dest.
func mergeConfig(dest, source *Config) {
	mergeSurfinFlowConfig(&dest.SurfinFlow, &source.SurfinFlow)
}

func mergeSurfinFlowConfig(dest, source *SurfinFlowConfig) {
	mergeCompilerConfig(&dest.Compiler, &source.Compiler)

	if source.System.Logging.Level != "" {
		dest.System.Logging.Level = source.System.Logging.Level
	}

	if source.Inventory.Source != "" {
		dest.Inventory.Source = source.Inventory.Source
	}
	if source.Inventory.Path != "" {
		dest.Inventory.Path = source.Inventory.Path
	}
	if source.Inventory.DatabaseRef != "" {
		dest.Inventory.DatabaseRef = source.Inventory.DatabaseRef
	}
	if source.Inventory.ColumnsDatabaseRef != "" {
		dest.Inventory.ColumnsDatabaseRef = source.Inventory.ColumnsDatabaseRef
	}

	if source.Output.StorageRef != "" {
		dest.Output.StorageRef = source.Output.StorageRef
	}
	if source.Output.Bucket != "" {
		dest.Output.Bucket = source.Output.Bucket
	}
	if source.Output.Prefix != "" {
		dest.Output.Prefix = source.Output.Prefix
	}

	// Booleans have no "unset" state in YAML decoding; true wins.
	if source.Metrics.Enabled {
		dest.Metrics.Enabled = true
	}
	if source.Metrics.Tracing {
		dest.Metrics.Tracing = true
	}

	mergeAdapterConfigs(&dest.StorageConfigs, source.StorageConfigs)
	mergeAdapterConfigs(&dest.DatabaseConfigs, source.DatabaseConfigs)
}

func mergeCompilerConfig(dest, source *CompilerConfig) {
	if source.MaxTablePerWorkflow != 0 {
		dest.MaxTablePerWorkflow = source.MaxTablePerWorkflow
	}
	if source.Capacity.Light != 0 {
		dest.Capacity.Light = source.Capacity.Light
	}
	if source.Capacity.Medium != 0 {
		dest.Capacity.Medium = source.Capacity.Medium
	}
	if source.Capacity.Heavy != 0 {
		dest.Capacity.Heavy = source.Capacity.Heavy
	}
	if source.Capacity.HeavyNested != 0 {
		dest.Capacity.HeavyNested = source.Capacity.HeavyNested
	}
	if source.Environment != "" {
		dest.Environment = source.Environment
	}
	if source.WorkflowPrefix != "" {
		dest.WorkflowPrefix = source.WorkflowPrefix
	}
	if source.CompletionNode != "" {
		dest.CompletionNode = source.CompletionNode
	}
	if source.WatermarkTemplate != "" {
		dest.WatermarkTemplate = source.WatermarkTemplate
	}
	if source.SubWorkflowSuffix != "" {
		dest.SubWorkflowSuffix = source.SubWorkflowSuffix
	}
}

func mergeAdapterConfigs(dest *map[string]interface{}, source map[string]interface{}) {
	if source == nil {
		return
	}
	if *dest == nil {
		*dest = make(map[string]interface{})
	}
	for key, value := range source {
		(*dest)[key] = value
	}
}

// loadStructFromEnv recursively overrides struct fields from environment
// variables named after the upper-cased yaml tag path, e.g.
// SURFIN_FLOW_COMPILER_MAX_TABLE_PER_WORKFLOW. Map fields are left to YAML.
func loadStructFromEnv(val reflect.Value, prefix string) error {
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)
		yamlTag := strings.Split(fieldType.Tag.Get("yaml"), ",")[0]
		if yamlTag == "" || yamlTag == "-" {
			continue
		}
		envVarName := strings.ToUpper(prefix + yamlTag)

		switch field.Kind() {
		case reflect.Struct:
			if err := loadStructFromEnv(field, envVarName+"_"); err != nil {
				return err
			}
			continue
		case reflect.Map, reflect.Slice, reflect.Interface:
			continue
		}

		envValue, exists := os.LookupEnv(envVarName)
		if !exists {
			continue
		}
		if err := setField(field, envValue); err != nil {
			return fmt.Errorf("failed to set field '%s' from env var '%s': %w", fieldType.Name, envVarName, err)
		}
	}
	return nil
}

// setField sets a string, int, float or bool field from its string form.
func setField(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(intValue)
	case reflect.Float64, reflect.Float32:
		floatValue, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(floatValue)
	case reflect.Bool:
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(boolValue)
	}
	return nil
}
