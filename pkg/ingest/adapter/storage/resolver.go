package storage

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/fx"

	storageConfig "github.com/tigerroll/surfin-flow/pkg/ingest/adapter/storage/config"
	coreConfig "github.com/tigerroll/surfin-flow/pkg/ingest/core/config"
	"github.com/tigerroll/surfin-flow/pkg/ingest/support/util/logger"
)

// ConnectionResolver routes a connection name to the provider of its configured type.
type ConnectionResolver struct {
	providers map[string]StorageProvider
	configs   map[string]interface{}
}

// NewConnectionResolver creates a resolver over providers, keyed by Type().
func NewConnectionResolver(providers []StorageProvider, cfg *coreConfig.Config) *ConnectionResolver {
	byType := make(map[string]StorageProvider, len(providers))
	for _, p := range providers {
		byType[p.Type()] = p
	}
	return &ConnectionResolver{providers: byType, configs: cfg.SurfinFlow.StorageConfigs}
}

// Resolve returns the named connection.
func (r *ConnectionResolver) Resolve(ctx context.Context, name string) (StorageConnection, error) {
	cfg, err := storageConfig.Lookup(r.configs, name)
	if err != nil {
		return nil, err
	}
	provider, ok := r.providers[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("no storage provider found for type '%s' (connection '%s')", cfg.Type, name)
	}
	conn, err := provider.GetConnection(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get storage connection '%s' from provider '%s': %w", name, cfg.Type, err)
	}
	return conn, nil
}

// CloseAll closes the connections of every provider.
func (r *ConnectionResolver) CloseAll() error {
	var result *multierror.Error
	for _, p := range r.providers {
		if err := p.CloseAll(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	logger.Debugf("All storage providers closed.")
	return result.ErrorOrNil()
}

// ResolverParams collects the storage providers registered in the fx graph.
type ResolverParams struct {
	fx.In
	Providers []StorageProvider `group:"storage_providers"`
	Config    *coreConfig.Config
}

// Module provides the ConnectionResolver and closes all connections on stop.
var Module = fx.Options(
	fx.Provide(func(p ResolverParams) *ConnectionResolver {
		return NewConnectionResolver(p.Providers, p.Config)
	}),
	fx.Invoke(func(lc fx.Lifecycle, r *ConnectionResolver) {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return r.CloseAll()
			},
		})
	}),
)
