package gitlab

import (
	"encoding/json"
	"fmt"
	"time"
)

// CacheKey is the logical cache key under which collected data is stored.
const CacheKey = "gitlab.json"

// DefaultTTL is how long a cached snapshot stays fresh.
const DefaultTTL = 7 * 24 * time.Hour

// Commit is a reference to a single commit.
type Commit struct {
	URL string     `json:"url"`
	TS  *time.Time `json:"ts,omitempty"`
}

// Release is a reference to a published release.
type Release struct {
	URL string     `json:"url"`
	TS  *time.Time `json:"ts,omitempty"`
}

// Contributors holds the contributor count and a browsable graph URL.
type Contributors struct {
	Count int    `json:"count"`
	URL   string `json:"url"`
}

// RepositorySnapshot is the complete set of facts collected for one
// repository at one point in time. Once built it is never mutated; cache
// reuse hands out the decoded value as-is, original GeneratedAt included.
type RepositorySnapshot struct {
	GeneratedAt  time.Time    `json:"generated_at"`
	Contributors Contributors `json:"contributors"`
	Description  string       `json:"description"`
	FirstCommit  *Commit      `json:"first_commit,omitempty"`

	// GoodFirstIssues is the count of open issues labeled "good first
	// issue". Nil means the count could not be determined.
	GoodFirstIssues *int `json:"good_first_issues,omitempty"`

	// Languages maps language name to a relative weight derived from the
	// API's percentage breakdown (percentage * 1000). The value is NOT a
	// byte count; it is only meaningful relative to the other entries of
	// the same snapshot.
	Languages map[string]int64 `json:"languages,omitempty"`

	LatestCommit  Commit   `json:"latest_commit"`
	LatestRelease *Release `json:"latest_release,omitempty"`
	License       *string  `json:"license,omitempty"`
	Stars         int64    `json:"stars"`
	Topics        []string `json:"topics,omitempty"`
	URL           string   `json:"url"`
}

// Result maps a repository URL, exactly as it appeared in the catalog, to
// the snapshot collected for it.
type Result map[string]*RepositorySnapshot

// fresh reports whether a cached snapshot is still within its TTL.
// A snapshot aged exactly ttl is stale.
func fresh(snap *RepositorySnapshot, now time.Time, ttl time.Duration) bool {
	return snap != nil && snap.GeneratedAt.Add(ttl).After(now)
}

// encodeResult serializes a result map for the cache. Keys are emitted in
// sorted order, so identical content encodes identically.
func encodeResult(r Result) ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode collected data: %w", err)
	}
	return data, nil
}

// decodeResult deserializes a cached result map. Unknown fields are
// ignored so payloads written by newer versions still decode.
func decodeResult(data []byte) (Result, error) {
	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode cached data: %w", err)
	}
	return r, nil
}
