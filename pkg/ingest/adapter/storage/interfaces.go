// Package storage defines the storage adapter interfaces used to publish plan
// manifests. Implementations live in the local and gcs subpackages.
package storage

import (
	"context"
	"io"
)

// StorageExecutor defines generic object storage operations.
type StorageExecutor interface {
	// Upload writes data to objectName in bucket. An empty bucket selects the
	// connection's default.
	Upload(ctx context.Context, bucket, objectName string, data io.Reader, contentType string) error
	// ListObjects calls fn with the full name of every object under prefix.
	ListObjects(ctx context.Context, bucket, prefix string, fn func(objectName string) error) error
	// DeleteObject removes objectName; a missing object is not an error.
	DeleteObject(ctx context.Context, bucket, objectName string) error
}

// StorageConnection is one named, open storage connection.
type StorageConnection interface {
	StorageExecutor
	Close() error
	Type() string
	Name() string
}

// StorageProvider creates and caches connections of one storage type.
type StorageProvider interface {
	// GetConnection returns the named connection, opening it on first use.
	GetConnection(ctx context.Context, name string) (StorageConnection, error)
	// CloseAll closes every connection opened by this provider.
	CloseAll() error
	// Type returns the storage type this provider handles (e.g. "local", "gcs").
	Type() string
}
