package main

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	storageAdapter "github.com/tigerroll/surfin-flow/pkg/ingest/adapter/storage"
	gcsStorage "github.com/tigerroll/surfin-flow/pkg/ingest/adapter/storage/gcs"
	localStorage "github.com/tigerroll/surfin-flow/pkg/ingest/adapter/storage/local"
	gormAdapter "github.com/tigerroll/surfin-flow/pkg/ingest/adapter/database/gorm"
	gormMySQL "github.com/tigerroll/surfin-flow/pkg/ingest/adapter/database/gorm/mysql"
	gormPostgres "github.com/tigerroll/surfin-flow/pkg/ingest/adapter/database/gorm/postgres"
	gormSQLite "github.com/tigerroll/surfin-flow/pkg/ingest/adapter/database/gorm/sqlite"
	usecase "github.com/tigerroll/surfin-flow/pkg/ingest/core/application/usecase"
	config "github.com/tigerroll/surfin-flow/pkg/ingest/core/config"
	jsl "github.com/tigerroll/surfin-flow/pkg/ingest/core/config/jsl"
	infraMetrics "github.com/tigerroll/surfin-flow/pkg/ingest/infrastructure/metrics"
	"github.com/tigerroll/surfin-flow/pkg/ingest/infrastructure/manifest"
	"github.com/tigerroll/surfin-flow/pkg/ingest/support/util/logger"
)

// GetApplicationOptions loads the configuration and assembles the fx options.
func GetApplicationOptions(appCtx context.Context, envFilePath string, embeddedConfig config.EmbeddedConfig) []fx.Option {
	cfg, err := config.LoadConfig(envFilePath, embeddedConfig)
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}
	logger.SetLogLevel(cfg.SurfinFlow.System.Logging.Level)
	logger.Infof("Log level set to: %s", cfg.SurfinFlow.System.Logging.Level)

	var options []fx.Option
	options = append(options, fx.Supply(
		cfg,
		fx.Annotate(appCtx, fx.As(new(context.Context)), fx.ResultTags(`name:"appCtx"`)),
	))
	options = append(options, logger.Module)
	options = append(options, config.Module)
	options = append(options, infraMetrics.Module)
	options = append(options, storageAdapter.Module)
	options = append(options, localStorage.Module)
	options = append(options, gcsStorage.Module)
	options = append(options, gormAdapter.Module)
	options = append(options, gormMySQL.Module)
	options = append(options, gormPostgres.Module)
	options = append(options, gormSQLite.Module)
	options = append(options, fx.Provide(
		NewJobSource,
		NewColumnSource,
		NewPlanPublisher,
	))
	options = append(options, usecase.Module)
	options = append(options, fx.Invoke(fx.Annotate(startCompile, fx.ParamTags("", "", "", `name:"appCtx"`))))
	return options
}

// NewJobSource selects the inventory file or the inventory table.
func NewJobSource(cfg *config.Config, expander config.EnvironmentExpander, provider *gormAdapter.Provider) (usecase.JobSource, error) {
	inv := cfg.SurfinFlow.Inventory
	switch inv.Source {
	case "file":
		if inv.Path == "" {
			return nil, fmt.Errorf("inventory.path must be set when inventory.source is 'file'")
		}
		return jsl.NewFileJobSource(inv.Path, expander), nil
	case "database":
		db, err := provider.GetDB(context.Background(), inv.DatabaseRef)
		if err != nil {
			return nil, err
		}
		dbCfg, err := provider.Config(inv.DatabaseRef)
		if err != nil {
			return nil, err
		}
		return gormAdapter.NewInventoryReader(db, dbCfg.InventoryTable), nil
	}
	return nil, fmt.Errorf("unrecognized inventory source '%s'", inv.Source)
}

// NewColumnSource opens the live-column reader; nil disables predicates.
func NewColumnSource(cfg *config.Config, provider *gormAdapter.Provider) (usecase.ColumnSource, error) {
	ref := cfg.SurfinFlow.Inventory.ColumnsDatabaseRef
	if ref == "" {
		logger.Infof("inventory.columns_database_ref is not set; incremental predicates are not built.")
		return nil, nil
	}
	db, err := provider.GetDB(context.Background(), ref)
	if err != nil {
		return nil, err
	}
	return gormAdapter.NewColumnReader(db), nil
}

// NewPlanPublisher opens the manifest storage; nil disables manifest output.
func NewPlanPublisher(cfg *config.Config, resolver *storageAdapter.ConnectionResolver) (usecase.PlanPublisher, error) {
	out := cfg.SurfinFlow.Output
	if out.StorageRef == "" {
		return nil, nil
	}
	conn, err := resolver.Resolve(context.Background(), out.StorageRef)
	if err != nil {
		return nil, err
	}
	return manifest.NewWriter(conn, out.Bucket, out.Prefix), nil
}
