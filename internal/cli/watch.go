package cli

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/landscapekit/glcollect/pkg/gitlab"
	"github.com/landscapekit/glcollect/pkg/publish"
)

// newWatchCmd creates the watch command, which keeps the cache warm by
// running collect on a cron schedule until the process is interrupted.
func newWatchCmd() *cobra.Command {
	opts := collectOpts{ttl: gitlab.DefaultTTL, natsSubject: publish.DefaultSubject}
	schedule := "@daily"

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run collect on a schedule until interrupted",
		Long: `Watch runs a collection pass immediately and then again on a cron
schedule. The schedule accepts standard five-field cron expressions as well as
descriptors like @hourly and @daily.

Examples:
  glcollect watch --catalog landscape.yml
  glcollect watch --catalog landscape.yml --schedule "0 6 * * *"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, opts, schedule)
		},
	}

	cmd.Flags().StringVarP(&opts.catalogPath, "catalog", "c", "", "catalog file with repository URLs (required)")
	cmd.Flags().StringVar(&opts.cacheDir, "cache-dir", "", "cache directory (default: $XDG_CACHE_HOME/glcollect)")
	cmd.Flags().DurationVar(&opts.ttl, "ttl", opts.ttl, "snapshot freshness window")
	cmd.Flags().StringVar(&opts.natsURL, "nats-url", "", "NATS server URL for snapshot publishing")
	cmd.Flags().StringVar(&opts.natsSubject, "nats-subject", opts.natsSubject, "NATS subject for snapshot messages")
	cmd.Flags().StringVar(&schedule, "schedule", schedule, "cron schedule for collection runs")
	_ = cmd.MarkFlagRequired("catalog")

	return cmd
}

// runWatch runs one immediate collection and then schedules further runs
// until the command context is canceled.
func runWatch(cmd *cobra.Command, opts collectOpts, schedule string) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	if err := runCollect(ctx, opts); err != nil {
		return err
	}

	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		if err := runCollect(ctx, opts); err != nil {
			logger.Error("Scheduled collection failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	logger.Info("Watching catalog", "schedule", schedule)
	c.Start()
	<-ctx.Done()

	// Let an in-flight run finish before returning.
	<-c.Stop().Done()
	return ctx.Err()
}
