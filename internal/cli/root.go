package cli

import (
	"context"
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	version string // semantic version (e.g., "v1.2.3")
	commit  string // git commit SHA
	date    string // build timestamp
)

// SetVersion sets the version information displayed by --version.
// This is typically called by the main package during initialization with
// values injected via ldflags at build time.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the glcollect CLI and returns an error if any command fails.
//
// The function sets up the root command with all subcommands (collect, watch,
// cache), configures logging based on the --verbose flag, and executes the
// command tree. The logger is attached to the context and accessible to all
// commands via loggerFromContext.
func Execute(ctx context.Context) error {
	var verbose bool

	root := &cobra.Command{
		Use:          "glcollect",
		Short:        "glcollect gathers repository metadata from GitLab instances",
		Long:         `glcollect reads a catalog of GitLab repository URLs, fetches metadata for each repository through the GitLab REST API, and maintains a local cache so unchanged repositories are not re-fetched on every run.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(os.Stderr, level)))
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("glcollect %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newCollectCmd())
	root.AddCommand(newWatchCmd())
	root.AddCommand(newCacheCmd())

	return root.ExecuteContext(ctx)
}
