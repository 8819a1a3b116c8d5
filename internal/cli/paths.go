package cli

import (
	"os"
	"path/filepath"
)

// appName is the directory name used for glcollect's cache.
const appName = "glcollect"

// cacheDir returns the default cache directory, honoring XDG_CACHE_HOME and
// falling back to ~/.cache/glcollect.
func cacheDir() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
