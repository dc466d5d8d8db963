// Package gorm provides gorm-backed readers for the job inventory and for
// live table columns, plus the connection provider they share.
package gorm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/fx"
	"gorm.io/gorm"

	dbconfig "github.com/tigerroll/surfin-flow/pkg/ingest/adapter/database/config"
	coreConfig "github.com/tigerroll/surfin-flow/pkg/ingest/core/config"
	"github.com/tigerroll/surfin-flow/pkg/ingest/support/util/logger"
)

// DialectorFactory generates a gorm.Dialector from a DatabaseConfig.
type DialectorFactory func(cfg dbconfig.DatabaseConfig) (gorm.Dialector, error)

// DialectorRegistration binds a DialectorFactory to a database type.
// Driver subpackages contribute one each to the "gorm_dialectors" group.
type DialectorRegistration struct {
	Type    string
	Factory DialectorFactory
}

// Provider opens and caches one *gorm.DB per configured connection name.
type Provider struct {
	configs   map[string]interface{}
	factories map[string]DialectorFactory
	logLevel  string
	dbs       map[string]*gorm.DB
	mu        sync.Mutex
}

// NewProvider creates a Provider over the "database" configuration section.
func NewProvider(cfg *coreConfig.Config, registrations ...DialectorRegistration) *Provider {
	factories := make(map[string]DialectorFactory, len(registrations))
	for _, r := range registrations {
		if _, exists := factories[r.Type]; exists {
			logger.Warnf("Dialector for type '%s' already registered. Overwriting.", r.Type)
		}
		factories[r.Type] = r.Factory
	}
	return &Provider{
		configs:   cfg.SurfinFlow.DatabaseConfigs,
		factories: factories,
		logLevel:  "SILENT",
		dbs:       make(map[string]*gorm.DB),
	}
}

// Config returns the decoded configuration of the named connection.
func (p *Provider) Config(name string) (dbconfig.DatabaseConfig, error) {
	return dbconfig.Lookup(p.configs, name)
}

// GetDB returns the named connection, opening it on first use.
func (p *Provider) GetDB(ctx context.Context, name string) (*gorm.DB, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if db, ok := p.dbs[name]; ok {
		return db.WithContext(ctx), nil
	}
	dbConfig, err := dbconfig.Lookup(p.configs, name)
	if err != nil {
		return nil, err
	}
	factory, ok := p.factories[dbConfig.Type]
	if !ok {
		return nil, fmt.Errorf("no dialector registered for database type: %s", dbConfig.Type)
	}
	dialector, err := factory(dbConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create dialector for %s: %w", dbConfig.Type, err)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: NewGormLogger(p.logLevel)})
	if err != nil {
		return nil, fmt.Errorf("failed to open GORM connection '%s': %w", name, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if dbConfig.Pool.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(dbConfig.Pool.MaxOpenConns)
	}
	if dbConfig.Pool.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(dbConfig.Pool.MaxIdleConns)
	}
	if dbConfig.Pool.ConnMaxLifetimeMinutes > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(dbConfig.Pool.ConnMaxLifetimeMinutes) * time.Minute)
	}

	p.dbs[name] = db
	logger.Infof("Established new DB connection: %s (%s)", name, dbConfig.Type)
	return db.WithContext(ctx), nil
}

// CloseAll closes every connection opened by this provider.
func (p *Provider) CloseAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var result *multierror.Error
	for name, db := range p.dbs {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.Close()
		}
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("failed to close connection '%s': %w", name, err))
		}
		delete(p.dbs, name)
	}
	return result.ErrorOrNil()
}

// ProviderParams collects the dialector registrations of the fx graph.
type ProviderParams struct {
	fx.In
	Config        *coreConfig.Config
	Registrations []DialectorRegistration `group:"gorm_dialectors"`
}

// Module provides the Provider and closes its connections on stop.
var Module = fx.Options(
	fx.Provide(func(p ProviderParams) *Provider {
		provider := NewProvider(p.Config, p.Registrations...)
		provider.logLevel = p.Config.SurfinFlow.System.Logging.Level
		return provider
	}),
	fx.Invoke(func(lc fx.Lifecycle, p *Provider) {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return p.CloseAll()
			},
		})
	}),
)
