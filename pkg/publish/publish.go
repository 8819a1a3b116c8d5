// Package publish pushes freshly collected snapshots to downstream
// consumers. Publishing is strictly best-effort: a consumer being down must
// never fail a collection run, since the cache file remains the durable
// output.
package publish

import "context"

// Publisher delivers one encoded repository snapshot, keyed by the
// repository URL it was collected for.
type Publisher interface {
	Publish(ctx context.Context, repoURL string, snapshot []byte) error
	Close() error
}
