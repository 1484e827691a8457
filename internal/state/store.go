// Package state is the key-value collaborator shared by the ledger
// components. Each component owns one namespace; values are opaque bytes
// produced by a codec.
//
// Three Store implementations are provided:
//   - MemoryStore: in-process, for tests and single-node development.
//   - PostgresStore: durable, one row per key.
//   - RedisStore: one hash per namespace.
//
// Every implementation scans a namespace in ascending id order, which makes
// full-scan lookups deterministic.
package state

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("key not found")

// Namespaces owned by the three components.
const (
	NamespaceRecords   = "records"
	NamespaceDirectory = "directory"
	NamespaceProviders = "providers"
)

// Key addresses a single value.
type Key struct {
	Namespace string
	ID        string
}

func (k Key) String() string { return k.Namespace + "/" + k.ID }

// ScanFunc is called once per key during Scan. Returning an error stops the
// scan and the error is returned from Scan. Returning ErrStopScan stops the
// scan without error.
type ScanFunc func(id string, value []byte) error

// ErrStopScan ends a Scan early without reporting a failure.
var ErrStopScan = errors.New("stop scan")

// Store is the ledger key-value interface.
type Store interface {
	// Get returns the stored value or ErrNotFound.
	Get(ctx context.Context, key Key) ([]byte, error)

	// Put creates or replaces the value at key.
	Put(ctx context.Context, key Key, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key Key) error

	// Scan visits every key in namespace in ascending id order.
	Scan(ctx context.Context, namespace string, fn ScanFunc) error

	// Close releases resources held by the store.
	Close() error
}
