package gitlab

import (
	"regexp"
	"strings"
)

// repoURLPattern matches repository URLs of any GitLab instance: scheme and
// host become the instance base URL, the remainder is the project path.
var repoURLPattern = regexp.MustCompile(`^(https?://[^/]+)/(.+?)/?$`)

// ParseRepoURL splits a repository URL into its instance base URL and
// project path. GitHub URLs are rejected so that mixed catalogs can route
// each platform to its own collector. A trailing slash and a trailing
// ".git" suffix are stripped from the project path.
//
// The function is purely syntactic; it performs no network access.
func ParseRepoURL(rawURL string) (baseURL, projectPath string, ok bool) {
	if strings.Contains(rawURL, "github.com") {
		return "", "", false
	}

	m := repoURLPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return "", "", false
	}
	return m[1], strings.TrimSuffix(m[2], ".git"), true
}
