package local

import (
	"go.uber.org/fx"

	storageAdapter "github.com/tigerroll/surfin-flow/pkg/ingest/adapter/storage"
)

// Module registers the LocalProvider in the "storage_providers" group.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewLocalProvider,
		fx.As(new(storageAdapter.StorageProvider)),
		fx.ResultTags(`group:"storage_providers"`),
	)),
)
