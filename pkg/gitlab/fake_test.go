package gitlab

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

var errConstruction = errors.New("client construction failed")

// fakeHost is a test double for Host. It records how many sub-fetches ran
// and detects concurrent use of the same host, which the pool must prevent.
type fakeHost struct {
	project         Project
	projectErr      error
	contributors    int
	contribErr      error
	firstCommit     *Commit
	goodFirstIssues *int
	languages       map[string]int64
	latestCommit    *Commit
	latestCommitErr error
	latestRelease   *Release

	delay    time.Duration
	calls    atomic.Int32
	inUse    atomic.Bool
	overlaps atomic.Int32
}

func newFakeHost() *fakeHost {
	now := time.Now().UTC()
	return &fakeHost{
		project: Project{
			Description:   "a project",
			DefaultBranch: "main",
			Stars:         42,
			Topics:        []string{"tooling"},
			WebURL:        "https://gitlab.com/group/project",
		},
		contributors: 7,
		firstCommit:  &Commit{URL: "https://gitlab.com/group/project/-/commit/aaa", TS: &now},
		latestCommit: &Commit{URL: "https://gitlab.com/group/project/-/commit/bbb", TS: &now},
	}
}

// enter marks the host busy for the duration of one sub-fetch, counting
// overlapping entries from other goroutines.
func (f *fakeHost) enter() func() {
	f.calls.Add(1)
	if !f.inUse.CompareAndSwap(false, true) {
		f.overlaps.Add(1)
		return func() {}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return func() { f.inUse.Store(false) }
}

func (f *fakeHost) Project(ctx context.Context, path string) (*Project, error) {
	defer f.enter()()
	if f.projectErr != nil {
		return nil, f.projectErr
	}
	p := f.project
	return &p, nil
}

func (f *fakeHost) ContributorsCount(ctx context.Context, path string) (int, error) {
	defer f.enter()()
	return f.contributors, f.contribErr
}

func (f *fakeHost) FirstCommit(ctx context.Context, path, ref string) (*Commit, error) {
	defer f.enter()()
	return f.firstCommit, nil
}

func (f *fakeHost) GoodFirstIssuesCount(ctx context.Context, path string) (*int, error) {
	defer f.enter()()
	return f.goodFirstIssues, nil
}

func (f *fakeHost) Languages(ctx context.Context, path string) (map[string]int64, error) {
	defer f.enter()()
	return f.languages, nil
}

func (f *fakeHost) LatestCommit(ctx context.Context, path, ref string) (*Commit, error) {
	defer f.enter()()
	if f.latestCommitErr != nil {
		return nil, f.latestCommitErr
	}
	return f.latestCommit, nil
}

func (f *fakeHost) LatestRelease(ctx context.Context, path string) (*Release, error) {
	defer f.enter()()
	return f.latestRelease, nil
}

var _ Host = (*fakeHost)(nil)

// fakeFactory builds fakeHost values and counts constructions per instance.
type fakeFactory struct {
	hosts    []*fakeHost
	failFor  string // base URL whose host construction fails
	built    atomic.Int32
	template func() *fakeHost
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{template: newFakeHost}
}

func (f *fakeFactory) factory() HostFactory {
	return func(ctx context.Context, baseURL, token string) (Host, error) {
		if f.failFor != "" && baseURL == f.failFor {
			return nil, errConstruction
		}
		f.built.Add(1)
		h := f.template()
		f.hosts = append(f.hosts, h)
		return h, nil
	}
}

// totalFetches sums sub-fetch calls across all constructed hosts.
func (f *fakeFactory) totalFetches() int {
	total := 0
	for _, h := range f.hosts {
		total += int(h.calls.Load())
	}
	return total
}
