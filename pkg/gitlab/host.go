package gitlab

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

// Project holds the subset of GitLab project metadata the collector needs.
type Project struct {
	Description       string
	DefaultBranch     string
	PathWithNamespace string
	Stars             int64
	Topics            []string
	WebURL            string
	License           string // empty when the project has no detected license
}

// Host is the set of operations a GitLab instance must support to produce a
// repository snapshot. The live implementation is built by
// [APIHostFactory]; tests plug in doubles.
type Host interface {
	// Project fetches the project's metadata.
	Project(ctx context.Context, projectPath string) (*Project, error)

	// ContributorsCount enumerates all contributors and returns their
	// number. The enumeration traverses every page: an approximate count
	// is unacceptable downstream.
	ContributorsCount(ctx context.Context, projectPath string) (int, error)

	// FirstCommit returns the earliest commit on ref, or nil if the
	// branch has no commits.
	FirstCommit(ctx context.Context, projectPath, ref string) (*Commit, error)

	// GoodFirstIssuesCount returns the number of open issues labeled
	// "good first issue", or nil when the count cannot be determined.
	GoodFirstIssuesCount(ctx context.Context, projectPath string) (*int, error)

	// Languages returns the per-language relative weights, or nil when no
	// language data is available.
	Languages(ctx context.Context, projectPath string) (map[string]int64, error)

	// LatestCommit returns the most recent commit on ref. It is an error
	// for the branch to have no commits.
	LatestCommit(ctx context.Context, projectPath, ref string) (*Commit, error)

	// LatestRelease returns the most recent release, or nil when the
	// project has none.
	LatestRelease(ctx context.Context, projectPath string) (*Release, error)
}

// HostFactory builds an authenticated Host for one instance and token.
type HostFactory func(ctx context.Context, baseURL, token string) (Host, error)

// fetchRepository assembles a complete snapshot for one repository using an
// already checked-out host. Success is all-or-nothing: if any required
// sub-fetch fails, no snapshot is returned. The degradable sub-fetches
// (good first issues, languages, release presence) resolve their own
// failures to absent values inside the Host implementation.
func fetchRepository(ctx context.Context, host Host, baseURL, projectPath string) (*RepositorySnapshot, error) {
	project, err := host.Project(ctx, projectPath)
	if err != nil {
		return nil, fmt.Errorf("get project %s: %w", projectPath, err)
	}

	contributors, err := host.ContributorsCount(ctx, projectPath)
	if err != nil {
		return nil, fmt.Errorf("get contributors for %s: %w", projectPath, err)
	}

	firstCommit, err := host.FirstCommit(ctx, projectPath, project.DefaultBranch)
	if err != nil {
		return nil, fmt.Errorf("get first commit for %s: %w", projectPath, err)
	}

	goodFirstIssues, err := host.GoodFirstIssuesCount(ctx, projectPath)
	if err != nil {
		return nil, fmt.Errorf("get good first issues for %s: %w", projectPath, err)
	}

	languages, err := host.Languages(ctx, projectPath)
	if err != nil {
		return nil, fmt.Errorf("get languages for %s: %w", projectPath, err)
	}

	latestCommit, err := host.LatestCommit(ctx, projectPath, project.DefaultBranch)
	if err != nil {
		return nil, fmt.Errorf("get latest commit for %s: %w", projectPath, err)
	}

	latestRelease, err := host.LatestRelease(ctx, projectPath)
	if err != nil {
		return nil, fmt.Errorf("get latest release for %s: %w", projectPath, err)
	}

	snap := &RepositorySnapshot{
		GeneratedAt: time.Now().UTC(),
		Contributors: Contributors{
			Count: contributors,
			URL:   fmt.Sprintf("%s/%s/-/graphs/main?ref_type=heads", baseURL, projectPath),
		},
		Description:     project.Description,
		FirstCommit:     firstCommit,
		GoodFirstIssues: goodFirstIssues,
		Languages:       languages,
		LatestCommit:    *latestCommit,
		LatestRelease:   latestRelease,
		Stars:           project.Stars,
		Topics:          project.Topics,
		URL:             project.WebURL,
	}
	if project.License != "" {
		license := project.License
		snap.License = &license
	}
	return snap, nil
}

// hostLogger returns l, or the default logger when l is nil, so Host
// implementations can log degraded sub-fetches without a nil check at each
// call site.
func hostLogger(l *log.Logger) *log.Logger {
	if l == nil {
		return log.Default()
	}
	return l
}
