package gitlab

import (
	"slices"
	"strings"
)

// EnvTokens is the environment variable holding the token configuration.
//
// Format: segments separated by ";". A segment starting with "http://" or
// "https://" names an instance and binds the next segment to it as a
// comma-separated token list. Segments with no preceding URL segment are a
// comma-separated token list for gitlab.com.
//
//	"tok1,tok2"                                  tokens for gitlab.com
//	"https://gl.example;tokA"                    one self-hosted instance
//	"tok1;https://gl.example;tokA,tokB"          both
const EnvTokens = "GITLAB_TOKENS"

// DefaultInstanceURL is the instance assumed for bare token segments.
const DefaultInstanceURL = "https://gitlab.com"

// InstanceCredentials binds a GitLab instance to the tokens configured for
// it. Tokens keep their configured order; duplicates within one entry are
// dropped.
type InstanceCredentials struct {
	BaseURL string
	Tokens  []string
}

// ParseTokens parses a GITLAB_TOKENS-formatted string. An empty or missing
// value yields an empty list, which simply means no credentials are
// available. Malformed fragments (a URL with nothing after it, segments
// that trim down to nothing) are skipped rather than reported.
func ParseTokens(env string) []InstanceCredentials {
	if env == "" {
		return nil
	}

	var configs []InstanceCredentials
	segments := strings.Split(env, ";")

	// Cursor over segments: a URL segment consumes the segment after it as
	// its token list, anything else is a token list for the default
	// instance.
	i := 0
	for i < len(segments) {
		segment := strings.TrimSpace(segments[i])
		if segment == "" {
			i++
			continue
		}

		if strings.HasPrefix(segment, "http://") || strings.HasPrefix(segment, "https://") {
			if i+1 >= len(segments) {
				// Trailing URL with no token segment contributes nothing.
				i++
				continue
			}
			if tokens := splitTokens(segments[i+1]); len(tokens) > 0 {
				configs = append(configs, InstanceCredentials{
					BaseURL: strings.TrimRight(segment, "/"),
					Tokens:  tokens,
				})
			}
			i += 2
			continue
		}

		if tokens := splitTokens(segment); len(tokens) > 0 {
			configs = append(configs, InstanceCredentials{
				BaseURL: DefaultInstanceURL,
				Tokens:  tokens,
			})
		}
		i++
	}

	return configs
}

// FindCredentials returns the first entry matching the given instance base
// URL. Matching is case-insensitive and ignores trailing slashes.
func FindCredentials(baseURL string, configs []InstanceCredentials) (InstanceCredentials, bool) {
	want := normalizeInstanceURL(baseURL)
	for _, cfg := range configs {
		if normalizeInstanceURL(cfg.BaseURL) == want {
			return cfg, true
		}
	}
	return InstanceCredentials{}, false
}

// TotalTokens returns the number of tokens configured across all instances.
func TotalTokens(configs []InstanceCredentials) int {
	total := 0
	for _, cfg := range configs {
		total += len(cfg.Tokens)
	}
	return total
}

func splitTokens(segment string) []string {
	var tokens []string
	for _, tok := range strings.Split(segment, ",") {
		tok = strings.TrimSpace(tok)
		if tok != "" && !slices.Contains(tokens, tok) {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

func normalizeInstanceURL(baseURL string) string {
	return strings.ToLower(strings.TrimRight(baseURL, "/"))
}
