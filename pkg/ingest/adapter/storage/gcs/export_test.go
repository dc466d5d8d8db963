package gcs

import storageAdapter "github.com/tigerroll/surfin-flow/pkg/ingest/adapter/storage"

// AddConnection registers conn under name without opening a client.
func (p *GCSProvider) AddConnection(name string, conn storageAdapter.StorageConnection) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.connections[name] = conn
}
