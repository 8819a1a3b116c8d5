// Package cache provides keyed byte-blob storage for collected data.
//
// The collector reads and writes whole documents under fixed logical keys
// (e.g. "gitlab.json"), so the interface is deliberately small: opaque bytes
// in, opaque bytes out. Freshness policies live with the data, not here.
//
// Two production backends are provided:
//   - [FileCache]: one file per key under a directory (CLI usage)
//   - [NullCache]: discards everything (caching disabled)
//
// [MemCache] is an in-memory implementation intended for tests.
package cache

import "context"

// Cache is the interface for keyed byte-blob storage backends.
type Cache interface {
	// Get retrieves the value stored under key.
	// The second return value reports whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key, replacing any previous value.
	Set(ctx context.Context, key string, data []byte) error

	// Close releases any resources held by the backend.
	Close() error
}
