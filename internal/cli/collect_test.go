package cli

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/landscapekit/glcollect/pkg/gitlab"
)

const testCatalog = `items:
  - name: Example
    repositories:
      - url: https://gl.example.com/group/project
`

func writeTestCatalog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "landscape.yml")
	if err := os.WriteFile(path, []byte(testCatalog), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	return path
}

func TestRunCollectWithoutCredentials(t *testing.T) {
	t.Setenv(gitlab.EnvTokens, "")

	dir := t.TempDir()
	ctx := withLogger(context.Background(), log.New(io.Discard))

	opts := collectOpts{
		catalogPath: writeTestCatalog(t),
		cacheDir:    dir,
		ttl:         gitlab.DefaultTTL,
	}
	if err := runCollect(ctx, opts); err != nil {
		t.Fatalf("runCollect() error = %v", err)
	}

	// Even with no credentials the run persists a (possibly empty) result.
	if _, err := os.Stat(filepath.Join(dir, gitlab.CacheKey)); err != nil {
		t.Errorf("expected cache file to be written: %v", err)
	}
}

func TestRunCollectWritesOutput(t *testing.T) {
	t.Setenv(gitlab.EnvTokens, "")

	outPath := filepath.Join(t.TempDir(), "result.json")
	ctx := withLogger(context.Background(), log.New(io.Discard))

	opts := collectOpts{
		catalogPath: writeTestCatalog(t),
		cacheDir:    t.TempDir(),
		ttl:         gitlab.DefaultTTL,
		output:      outPath,
	}
	if err := runCollect(ctx, opts); err != nil {
		t.Fatalf("runCollect() error = %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var result gitlab.Result
	if err := json.Unmarshal(data, &result); err != nil {
		t.Errorf("output is not valid JSON: %v", err)
	}
}

func TestRunCollectMissingCatalog(t *testing.T) {
	ctx := withLogger(context.Background(), log.New(io.Discard))

	opts := collectOpts{
		catalogPath: filepath.Join(t.TempDir(), "missing.yml"),
		cacheDir:    t.TempDir(),
		ttl:         gitlab.DefaultTTL,
	}
	if err := runCollect(ctx, opts); err == nil {
		t.Fatal("runCollect() should fail when the catalog does not exist")
	}
}

func TestWriteResult(t *testing.T) {
	now := time.Now().UTC()
	result := gitlab.Result{
		"https://gl.example.com/group/project": &gitlab.RepositorySnapshot{
			GeneratedAt: now,
			URL:         "https://gl.example.com/group/project",
		},
	}

	path := filepath.Join(t.TempDir(), "out.json")
	if err := writeResult(path, result); err != nil {
		t.Fatalf("writeResult() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read result: %v", err)
	}
	var decoded gitlab.Result
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if len(decoded) != 1 {
		t.Errorf("decoded %d snapshots, want 1", len(decoded))
	}
}
