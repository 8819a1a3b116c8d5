package gitlab

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/landscapekit/glcollect/pkg/cache"
	"github.com/landscapekit/glcollect/pkg/catalog"
	"github.com/landscapekit/glcollect/pkg/publish"
)

// Collector drives one collection run over a catalog. The zero value is
// usable: it reads tokens from GITLAB_TOKENS, talks to the live API, logs
// through log.Default() and keeps nothing cached.
type Collector struct {
	// Cache stores the collected result between runs. Nil disables
	// caching.
	Cache cache.Cache

	// Logger receives progress and warnings. Nil selects log.Default().
	Logger *log.Logger

	// TTL is the maximum age at which a cached snapshot is reused.
	// Zero selects DefaultTTL (7 days).
	TTL time.Duration

	// Tokens is the raw credential configuration (see EnvTokens for the
	// format). Empty falls back to the GITLAB_TOKENS environment
	// variable.
	Tokens string

	// NewHost builds API clients. Nil selects the live GitLab API;
	// tests substitute doubles here.
	NewHost HostFactory

	// Publisher, when set, receives every freshly fetched snapshot.
	// Publish failures are logged and otherwise ignored.
	Publisher publish.Publisher
}

// fetchResult is the outcome of processing one repository URL.
type fetchResult struct {
	url     string
	snap    *RepositorySnapshot
	fetched bool
	err     error
}

// Collect gathers repository data for every GitLab URL in the catalog,
// reusing cached snapshots that are still fresh. Failures are contained per
// repository or per instance; the only error Collect itself returns is a
// failed write of the final cache.
func (c *Collector) Collect(ctx context.Context, data *catalog.Catalog) (Result, error) {
	logger := c.Logger
	if logger == nil {
		logger = log.Default()
	}
	ttl := c.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	store := c.Cache
	if store == nil {
		store = cache.NewNullCache()
	}
	newHost := c.NewHost
	if newHost == nil {
		newHost = APIHostFactory(logger)
	}

	// Discover: route every catalog URL and group by instance, dropping
	// exact duplicates.
	byInstance := make(map[string][]string)
	seen := make(map[string]bool)
	for _, rawURL := range data.RepositoryURLs() {
		base, _, ok := ParseRepoURL(rawURL)
		if !ok || seen[rawURL] {
			continue
		}
		seen[rawURL] = true
		byInstance[base] = append(byInstance[base], rawURL)
	}
	logger.Debug("discovered gitlab repositories",
		"instances", len(byInstance), "repositories", len(seen))

	// Load the previous run's data. A missing or corrupt cache is a
	// warning, never a failure.
	cached := Result{}
	if blob, hit, err := store.Get(ctx, CacheKey); err != nil {
		logger.Warn("could not read gitlab cache", "error", err)
	} else if hit {
		if dec, err := decodeResult(blob); err != nil {
			logger.Warn("could not parse gitlab cache", "error", err)
		} else {
			cached = dec
		}
	}

	tokens := c.Tokens
	if tokens == "" {
		tokens = os.Getenv(EnvTokens)
	}
	configs := ParseTokens(tokens)

	// One pool per instance that has both repositories and tokens. A pool
	// that cannot be built skips its instance, not the run.
	pools := make(map[string]*Pool)
	for _, base := range sortedKeys(byInstance) {
		cfg, ok := FindCredentials(base, configs)
		if !ok {
			logger.Warn("no gitlab token configured for instance",
				"instance", base, "repositories", len(byInstance[base]))
			continue
		}
		pool, err := NewPool(ctx, base, cfg.Tokens, newHost)
		if err != nil {
			logger.Warn("could not build client pool",
				"instance", base, "error", err)
			continue
		}
		pools[base] = pool
	}
	if len(pools) == 0 && len(byInstance) > 0 {
		logger.Warn("no usable gitlab credentials: only fresh cached data will be reused")
	}

	// Dispatch with a global worker cap equal to the total number of
	// configured tokens. One worker still runs when no tokens are
	// configured, so cached snapshots are carried over.
	workers := max(TotalTokens(configs), 1)
	jobs := make(chan string)
	results := make(chan fetchResult)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rawURL := range jobs {
				results <- c.processURL(ctx, rawURL, cached, pools, ttl, logger)
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()
	go func() {
		defer close(jobs)
		for _, base := range sortedKeys(byInstance) {
			for _, rawURL := range byInstance[base] {
				select {
				case jobs <- rawURL:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	// Merge: failed URLs are dropped from the result entirely, stale
	// cache entries included.
	result := Result{}
	var fetched, reused, failed int
	for r := range results {
		if r.err != nil {
			failed++
			logger.Warn("repository skipped", "url", r.url, "error", r.err)
			continue
		}
		result[r.url] = r.snap
		if r.fetched {
			fetched++
			c.publishSnapshot(ctx, logger, r.url, r.snap)
		} else {
			reused++
		}
	}

	// Persist unconditionally; an empty result legitimately means no
	// repository was reachable. Only a failed write aborts the run.
	encoded, err := encodeResult(result)
	if err != nil {
		return result, err
	}
	if err := store.Set(ctx, CacheKey, encoded); err != nil {
		return result, fmt.Errorf("write gitlab cache: %w", err)
	}

	logger.Info("gitlab collection finished",
		"fetched", fetched, "reused", reused, "failed", failed)
	return result, nil
}

// processURL resolves one repository URL to a snapshot: from cache when
// fresh, otherwise through a checked-out client of its instance's pool.
func (c *Collector) processURL(ctx context.Context, rawURL string, cached Result, pools map[string]*Pool, ttl time.Duration, logger *log.Logger) fetchResult {
	if snap, ok := cached[rawURL]; ok && fresh(snap, time.Now(), ttl) {
		logger.Debug("using cached data", "url", rawURL)
		return fetchResult{url: rawURL, snap: snap}
	}

	base, path, ok := ParseRepoURL(rawURL)
	if !ok {
		return fetchResult{url: rawURL, err: fmt.Errorf("invalid gitlab repository url")}
	}
	pool := pools[base]
	if pool == nil {
		return fetchResult{url: rawURL, err: fmt.Errorf("no client available for instance %s", base)}
	}

	host, err := pool.Checkout(ctx)
	if err != nil {
		return fetchResult{url: rawURL, err: err}
	}
	defer pool.Checkin(host)

	logger.Debug("fetching fresh data", "url", rawURL)
	snap, err := fetchRepository(ctx, host, base, path)
	if err != nil {
		return fetchResult{url: rawURL, err: err}
	}
	return fetchResult{url: rawURL, snap: snap, fetched: true}
}

func (c *Collector) publishSnapshot(ctx context.Context, logger *log.Logger, rawURL string, snap *RepositorySnapshot) {
	if c.Publisher == nil {
		return
	}
	encoded, err := json.Marshal(snap)
	if err != nil {
		logger.Warn("could not encode snapshot for publishing", "url", rawURL, "error", err)
		return
	}
	if err := c.Publisher.Publish(ctx, rawURL, encoded); err != nil {
		logger.Warn("could not publish snapshot", "url", rawURL, "error", err)
	}
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
