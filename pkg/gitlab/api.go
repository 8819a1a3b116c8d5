package gitlab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"

	"github.com/landscapekit/glcollect/pkg/httputil"
)

// Sentinel errors for API operations.
var (
	// ErrNotFound is returned when a requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection
	// errors, unexpected status codes).
	ErrNetwork = errors.New("network error")
)

const (
	requestTimeout = 30 * time.Second
	perPage        = 100

	goodFirstIssueLabel = "good first issue"
)

// apiHost is the live Host implementation backed by the GitLab REST API.
type apiHost struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *log.Logger
}

// APIHostFactory returns a HostFactory producing live API hosts that log
// degraded sub-fetches through logger.
func APIHostFactory(logger *log.Logger) HostFactory {
	return func(ctx context.Context, baseURL, token string) (Host, error) {
		return newAPIHost(baseURL, token, logger)
	}
}

func newAPIHost(baseURL, token string, logger *log.Logger) (*apiHost, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid instance url %q", baseURL)
	}
	if token == "" {
		return nil, fmt.Errorf("empty token for instance %q", baseURL)
	}

	return &apiHost{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: requestTimeout},
		logger:  hostLogger(logger),
	}, nil
}

// Project implements [Host].
func (h *apiHost) Project(ctx context.Context, projectPath string) (*Project, error) {
	endpoint := fmt.Sprintf("%s/api/v4/projects/%s?license=true", h.baseURL, url.PathEscape(projectPath))

	var p apiProject
	if err := h.getJSON(ctx, endpoint, &p); err != nil {
		return nil, err
	}

	project := &Project{
		Description:       p.Description,
		DefaultBranch:     p.DefaultBranch,
		PathWithNamespace: p.PathWithNamespace,
		Stars:             p.StarCount,
		Topics:            p.Topics,
		WebURL:            p.WebURL,
	}
	if p.License != nil {
		project.License = p.License.Name
	}
	return project, nil
}

// ContributorsCount implements [Host]. All pages are traversed: the count
// must be exact, not the size of the first page.
func (h *apiHost) ContributorsCount(ctx context.Context, projectPath string) (int, error) {
	endpoint := fmt.Sprintf("%s/api/v4/projects/%s/repository/contributors?per_page=%d",
		h.baseURL, url.PathEscape(projectPath), perPage)

	contributors, err := getAllPages[apiContributor](ctx, h, endpoint)
	if err != nil {
		return 0, err
	}
	return len(contributors), nil
}

// FirstCommit implements [Host]. The API lists commits newest first, so the
// earliest commit is the last element of a full traversal.
func (h *apiHost) FirstCommit(ctx context.Context, projectPath, ref string) (*Commit, error) {
	endpoint := fmt.Sprintf("%s/api/v4/projects/%s/repository/commits?ref_name=%s&per_page=%d",
		h.baseURL, url.PathEscape(projectPath), url.QueryEscape(ref), perPage)

	commits, err := getAllPages[apiCommit](ctx, h, endpoint)
	if err != nil {
		return nil, err
	}
	if len(commits) == 0 {
		return nil, nil
	}

	first := commits[len(commits)-1]
	ts := first.CommittedDate
	return &Commit{URL: first.WebURL, TS: &ts}, nil
}

// GoodFirstIssuesCount implements [Host]. This sub-fetch is best-effort: a
// non-success status or an unparseable body yields an unknown count, never
// an error.
func (h *apiHost) GoodFirstIssuesCount(ctx context.Context, projectPath string) (*int, error) {
	query := url.Values{"labels": {goodFirstIssueLabel}, "state": {"opened"}}
	endpoint := fmt.Sprintf("%s/api/v4/projects/%s/issues_statistics?%s",
		h.baseURL, url.PathEscape(projectPath), query.Encode())

	resp, err := h.do(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		h.logger.Warn("could not get good first issues count",
			"project", projectPath, "status", resp.StatusCode)
		return nil, nil
	}

	var stats apiIssuesStatistics
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		h.logger.Warn("could not parse issues statistics",
			"project", projectPath, "error", err)
		return nil, nil
	}
	return &stats.Statistics.Counts.Opened, nil
}

// Languages implements [Host]. A non-success status or an empty breakdown
// degrades to no language data. Percentages are scaled to relative integer
// weights (percentage * 1000); the result is not a byte count.
func (h *apiHost) Languages(ctx context.Context, projectPath string) (map[string]int64, error) {
	endpoint := fmt.Sprintf("%s/api/v4/projects/%s/languages", h.baseURL, url.PathEscape(projectPath))

	resp, err := h.do(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		h.logger.Warn("could not get languages",
			"project", projectPath, "status", resp.StatusCode)
		return nil, nil
	}

	var percentages map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&percentages); err != nil {
		return nil, fmt.Errorf("parse languages: %w", err)
	}
	if len(percentages) == 0 {
		return nil, nil
	}

	weights := make(map[string]int64, len(percentages))
	for lang, pct := range percentages {
		weights[lang] = int64(pct * 1000)
	}
	return weights, nil
}

// LatestCommit implements [Host].
func (h *apiHost) LatestCommit(ctx context.Context, projectPath, ref string) (*Commit, error) {
	endpoint := fmt.Sprintf("%s/api/v4/projects/%s/repository/commits?ref_name=%s&per_page=1",
		h.baseURL, url.PathEscape(projectPath), url.QueryEscape(ref))

	var commits []apiCommit
	if _, err := h.getJSONPage(ctx, endpoint, &commits); err != nil {
		return nil, err
	}
	if len(commits) == 0 {
		return nil, fmt.Errorf("no commits found on %s", ref)
	}

	ts := commits[0].CommittedDate
	return &Commit{URL: commits[0].WebURL, TS: &ts}, nil
}

// LatestRelease implements [Host]. The release timestamp falls back from
// released_at to created_at, and the URL falls back to the instance's
// releases listing when the API provides no direct link.
func (h *apiHost) LatestRelease(ctx context.Context, projectPath string) (*Release, error) {
	endpoint := fmt.Sprintf("%s/api/v4/projects/%s/releases?per_page=1",
		h.baseURL, url.PathEscape(projectPath))

	var releases []apiRelease
	if _, err := h.getJSONPage(ctx, endpoint, &releases); err != nil {
		return nil, err
	}
	if len(releases) == 0 {
		return nil, nil
	}

	rel := releases[0]
	release := &Release{URL: rel.Links.Self}
	if release.URL == "" {
		release.URL = fmt.Sprintf("%s/%s/-/releases", h.baseURL, projectPath)
	}
	switch {
	case rel.ReleasedAt != nil:
		release.TS = rel.ReleasedAt
	case rel.CreatedAt != nil:
		release.TS = rel.CreatedAt
	}
	return release, nil
}

// do performs one GET request with the instance token attached. Network
// failures are marked retryable; the response status is left for the caller
// to interpret.
func (h *apiHost) do(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("PRIVATE-TOKEN", h.token)

	resp, err := h.http.Do(req)
	if err != nil {
		return nil, httputil.Retryable(fmt.Errorf("%w: %v", ErrNetwork, err))
	}
	return resp, nil
}

// getJSON performs a GET with retries and decodes the response into v.
func (h *apiHost) getJSON(ctx context.Context, rawURL string, v any) error {
	_, err := h.getJSONPage(ctx, rawURL, v)
	return err
}

// getJSONPage is getJSON plus the x-next-page pagination header, empty on
// the last page.
func (h *apiHost) getJSONPage(ctx context.Context, rawURL string, v any) (next string, err error) {
	err = httputil.RetryWithBackoff(ctx, func() error {
		resp, reqErr := h.do(ctx, rawURL)
		if reqErr != nil {
			return reqErr
		}
		defer resp.Body.Close()

		if stErr := checkStatus(resp.StatusCode); stErr != nil {
			return stErr
		}
		next = resp.Header.Get("x-next-page")
		return json.NewDecoder(resp.Body).Decode(v)
	})
	return next, err
}

// getAllPages fetches every page of a paginated endpoint. The endpoint URL
// must already carry query parameters.
func getAllPages[T any](ctx context.Context, h *apiHost, endpoint string) ([]T, error) {
	var all []T
	page := "1"
	for page != "" {
		var items []T
		next, err := h.getJSONPage(ctx, endpoint+"&page="+page, &items)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		page = next
	}
	return all, nil
}

func checkStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusTooManyRequests:
		// Rate limits are terminal for the current fetch; the collector
		// does not back off and retry against an exhausted token.
		return fmt.Errorf("%w: rate limited", ErrNetwork)
	case code >= 500:
		return httputil.Retryable(fmt.Errorf("%w: status %d", ErrNetwork, code))
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}

// API response shapes, trimmed to the fields the collector reads.

type apiProject struct {
	Description       string      `json:"description"`
	DefaultBranch     string      `json:"default_branch"`
	PathWithNamespace string      `json:"path_with_namespace"`
	StarCount         int64       `json:"star_count"`
	Topics            []string    `json:"topics"`
	WebURL            string      `json:"web_url"`
	License           *apiLicense `json:"license"`
}

type apiLicense struct {
	Name string `json:"name"`
}

type apiContributor struct {
	Name string `json:"name"`
}

type apiCommit struct {
	WebURL        string    `json:"web_url"`
	CommittedDate time.Time `json:"committed_date"`
}

type apiRelease struct {
	ReleasedAt *time.Time `json:"released_at"`
	CreatedAt  *time.Time `json:"created_at"`
	Links      struct {
		Self string `json:"self"`
	} `json:"_links"`
}

type apiIssuesStatistics struct {
	Statistics struct {
		Counts struct {
			Opened int `json:"opened"`
		} `json:"counts"`
	} `json:"statistics"`
}
