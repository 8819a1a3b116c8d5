package gitlab

import (
	"bytes"
	"testing"
	"time"
)

func TestFreshBoundary(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name string
		age  time.Duration
		want bool
	}{
		{"six days old", 6 * 24 * time.Hour, true},
		{"just under ttl", DefaultTTL - time.Second, true},
		{"exactly ttl", DefaultTTL, false},
		{"eight days old", 8 * 24 * time.Hour, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := &RepositorySnapshot{GeneratedAt: now.Add(-tt.age)}
			if got := fresh(snap, now, DefaultTTL); got != tt.want {
				t.Errorf("fresh(age=%v) = %v, want %v", tt.age, got, tt.want)
			}
		})
	}

	if fresh(nil, now, DefaultTTL) {
		t.Error("fresh(nil) should be false")
	}
}

func TestCodecRoundTrip(t *testing.T) {
	ts := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	gfi := 3
	license := "Apache-2.0"
	r := Result{
		"https://gitlab.com/group/project": {
			GeneratedAt:     ts,
			Contributors:    Contributors{Count: 12, URL: "https://gitlab.com/group/project/-/graphs/main?ref_type=heads"},
			Description:     "demo",
			FirstCommit:     &Commit{URL: "https://gitlab.com/group/project/-/commit/aaa", TS: &ts},
			GoodFirstIssues: &gfi,
			Languages:       map[string]int64{"Go": 91200, "Makefile": 8800},
			LatestCommit:    Commit{URL: "https://gitlab.com/group/project/-/commit/bbb", TS: &ts},
			LatestRelease:   &Release{URL: "https://gitlab.com/group/project/-/releases", TS: &ts},
			License:         &license,
			Stars:           42,
			Topics:          []string{"tooling", "go"},
			URL:             "https://gitlab.com/group/project",
		},
	}

	data, err := encodeResult(r)
	if err != nil {
		t.Fatalf("encodeResult error: %v", err)
	}
	decoded, err := decodeResult(data)
	if err != nil {
		t.Fatalf("decodeResult error: %v", err)
	}

	again, err := encodeResult(decoded)
	if err != nil {
		t.Fatalf("encodeResult error: %v", err)
	}
	if !bytes.Equal(data, again) {
		t.Error("re-encoding a decoded result should be byte-identical")
	}

	snap := decoded["https://gitlab.com/group/project"]
	if snap == nil {
		t.Fatal("decoded result missing snapshot")
	}
	if !snap.GeneratedAt.Equal(ts) {
		t.Errorf("GeneratedAt = %v, want %v", snap.GeneratedAt, ts)
	}
	if snap.Languages["Go"] != 91200 {
		t.Errorf("Languages[Go] = %d", snap.Languages["Go"])
	}
}

func TestDecodeIgnoresUnknownAndMissingFields(t *testing.T) {
	// Payload written by a (hypothetical) future version: extra fields
	// must be ignored, absent optional fields default to absent.
	payload := []byte(`{
	  "https://gitlab.com/g/p": {
	    "generated_at": "2026-08-01T12:00:00Z",
	    "contributors": {"count": 1, "url": "u"},
	    "latest_commit": {"url": "c"},
	    "url": "https://gitlab.com/g/p",
	    "shiny_new_field": {"nested": true}
	  }
	}`)

	r, err := decodeResult(payload)
	if err != nil {
		t.Fatalf("decodeResult error: %v", err)
	}
	snap := r["https://gitlab.com/g/p"]
	if snap == nil {
		t.Fatal("missing snapshot")
	}
	if snap.GoodFirstIssues != nil || snap.Languages != nil || snap.LatestRelease != nil || snap.License != nil {
		t.Error("absent optional fields should decode as absent")
	}
}

func TestDecodeCorruptPayload(t *testing.T) {
	if _, err := decodeResult([]byte("not json")); err == nil {
		t.Error("decodeResult should fail on corrupt payload")
	}
}
