// Package gitlab collects repository metadata from GitLab instances.
//
// # Overview
//
// The package implements the collection engine used to enrich a project
// catalog with per-repository facts: contributor counts, commit history
// bounds, languages, latest release, license, stars and topics. Repository
// URLs are grouped by GitLab instance, each instance is matched against the
// tokens configured for it, and one authenticated API client is built per
// token. Clients are shared across fetch tasks through a bounded pool, and
// results are merged with a time-bounded cache so repeat runs avoid
// redundant API calls.
//
// # Usage
//
//	store, _ := cache.NewFileCache(dir)
//	collector := &gitlab.Collector{Cache: store, Logger: logger}
//	result, err := collector.Collect(ctx, data)
//
// Tokens are read from the GITLAB_TOKENS environment variable unless set
// explicitly on the [Collector]. See [ParseTokens] for the format.
//
// # Failure containment
//
// A failed repository fetch drops that one repository from the result; a
// GitLab instance without usable tokens is skipped with a warning. Neither
// aborts the run. Only the final cache write can fail a run as a whole.
package gitlab
