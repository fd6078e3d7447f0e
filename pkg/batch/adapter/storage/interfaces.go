// Package storage defines the interfaces of storage adapters.
// Readers acquire their input through these, so the same reader can read from any backend.
package storage

import (
	"context"
	"io"
)

// StorageExecutor defines generic storage operations.
type StorageExecutor interface {
	// Download opens the named object for reading.
	// The returned ReadCloser must be closed by the caller after use.
	// A failure to acquire the object matches exception.ErrResourceUnavailable.
	Download(ctx context.Context, bucket, objectName string) (io.ReadCloser, error)
}

// StorageConnection represents a data storage connection.
type StorageConnection interface {
	StorageExecutor

	// Name returns the name of this connection.
	Name() string
	// Type returns the storage type (e.g., "local").
	Type() string
	// Close releases the connection.
	Close() error
}
