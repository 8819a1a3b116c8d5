package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/landscapekit/glcollect/pkg/cache"
	"github.com/landscapekit/glcollect/pkg/catalog"
	"github.com/landscapekit/glcollect/pkg/gitlab"
	"github.com/landscapekit/glcollect/pkg/publish"
)

// collectOpts holds the command-line flags for the collect command.
type collectOpts struct {
	catalogPath string        // catalog file listing repository URLs
	cacheDir    string        // cache directory (default honors XDG_CACHE_HOME)
	ttl         time.Duration // freshness window for cached snapshots
	natsURL     string        // NATS server URL (publishing disabled if empty)
	natsSubject string        // NATS subject for snapshot messages
	output      string        // optional path to also write the result as JSON
}

// newCollectCmd creates the collect command, which runs a single collection
// pass over the catalog.
func newCollectCmd() *cobra.Command {
	opts := collectOpts{ttl: gitlab.DefaultTTL, natsSubject: publish.DefaultSubject}

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Collect repository metadata for every catalog entry",
		Long: `Collect fetches metadata for every GitLab repository listed in the catalog.

Repositories with a fresh cached snapshot are reused without any network
traffic; everything else is fetched through the GitLab REST API using the
credentials in the GITLAB_TOKENS environment variable.

Examples:
  glcollect collect --catalog landscape.yml
  glcollect collect --catalog landscape.yml --ttl 24h -o snapshots.json
  glcollect collect --catalog landscape.yml --nats-url nats://localhost:4222`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCollect(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.catalogPath, "catalog", "c", "", "catalog file with repository URLs (required)")
	cmd.Flags().StringVar(&opts.cacheDir, "cache-dir", "", "cache directory (default: $XDG_CACHE_HOME/glcollect)")
	cmd.Flags().DurationVar(&opts.ttl, "ttl", opts.ttl, "snapshot freshness window")
	cmd.Flags().StringVar(&opts.natsURL, "nats-url", "", "NATS server URL for snapshot publishing")
	cmd.Flags().StringVar(&opts.natsSubject, "nats-subject", opts.natsSubject, "NATS subject for snapshot messages")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "also write the collected result as JSON (use - for stdout)")
	_ = cmd.MarkFlagRequired("catalog")

	return cmd
}

// runCollect executes one collection pass and prints a summary.
func runCollect(ctx context.Context, opts collectOpts) error {
	logger := loggerFromContext(ctx)

	cat, err := catalog.Load(opts.catalogPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	dir := opts.cacheDir
	if dir == "" {
		if dir, err = cacheDir(); err != nil {
			return fmt.Errorf("get cache dir: %w", err)
		}
	}
	store, err := cache.NewFileCache(dir)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer store.Close()

	var pub publish.Publisher
	if opts.natsURL != "" {
		pub, err = publish.NewNATS(opts.natsURL, opts.natsSubject)
		if err != nil {
			return fmt.Errorf("connect to NATS: %w", err)
		}
		defer func() {
			if cerr := pub.Close(); cerr != nil {
				logger.Warn("Failed to close publisher", "error", cerr)
			}
		}()
	}

	collector := &gitlab.Collector{
		Cache:     store,
		Logger:    logger,
		TTL:       opts.ttl,
		Publisher: pub,
	}

	logger.Info("Collecting repository metadata", "repositories", len(cat.RepositoryURLs()))
	p := newProgress(logger)
	result, err := collector.Collect(ctx, cat)
	if err != nil {
		return err
	}
	p.done("Collection finished")

	if opts.output != "" {
		if err := writeResult(opts.output, result); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		if opts.output != "-" {
			printKeyValue("Output", opts.output)
		}
	}

	printSuccess("Collected data for %d repositories", len(result))
	printDetail("Cache: %s", store.Dir())
	return nil
}

// writeResult serializes the collected result as indented JSON to path, or
// to stdout when path is "-".
func writeResult(path string, result gitlab.Result) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	if path == "-" {
		_, err = os.Stdout.Write(append(data, '\n'))
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
