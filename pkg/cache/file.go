package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileCache stores each key as a file in a directory.
// Keys are logical file names ("gitlab.json"); path separators are rejected
// so a key can never escape the cache directory.
type FileCache struct {
	dir string
}

// NewFileCache creates a file-based cache rooted at dir.
// The directory will be created if it doesn't exist.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir}, nil
}

// Dir returns the cache directory.
func (c *FileCache) Dir() string {
	return c.dir
}

// Get retrieves a value from the cache.
func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path, err := c.path(key)
	if err != nil {
		return nil, false, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set stores a value in the cache.
func (c *FileCache) Set(ctx context.Context, key string, data []byte) error {
	path, err := c.path(key)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Close does nothing for file cache.
func (c *FileCache) Close() error {
	return nil
}

// path converts a cache key to a file path, rejecting keys that would
// resolve outside the cache directory.
func (c *FileCache) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key != filepath.Base(key) {
		return "", fmt.Errorf("invalid cache key: %q", key)
	}
	return filepath.Join(c.dir, key), nil
}

// Ensure FileCache implements Cache.
var _ Cache = (*FileCache)(nil)
