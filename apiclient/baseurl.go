package apiclient

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	apiPrefix   = "/api/v1"
	defaultPort = "3536"
)

// Env looks up an environment variable, like os.LookupEnv.
type Env func(key string) (string, bool)

func (e Env) get(key string) string {
	if e == nil {
		return ""
	}
	v, _ := e(key)
	return strings.TrimSpace(v)
}

// ResolveBaseURL picks the API base URL for the current environment:
// API_BASE_URL wins; production requires API_PUBLIC_URL; API_INTERNAL_URL is
// used inside a container network; otherwise localhost on PORT.
func ResolveBaseURL(env Env) (string, error) {
	raw := env.get("API_BASE_URL")
	if raw == "" {
		switch {
		case env.get("APP_ENV") == "production":
			raw = env.get("API_PUBLIC_URL")
			if raw == "" {
				return "", fmt.Errorf("API_PUBLIC_URL must be set in production")
			}
		case env.get("API_INTERNAL_URL") != "":
			raw = env.get("API_INTERNAL_URL")
		default:
			port := env.get("PORT")
			if port == "" {
				port = defaultPort
			}
			raw = "http://localhost:" + port
		}
	}
	return normalizeBaseURL(raw)
}

func normalizeBaseURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("invalid API base URL %q: %w", raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("invalid API base URL %q: must be an absolute http(s) URL", raw)
	}

	u.Path = strings.TrimRight(u.Path, "/")
	if !strings.HasSuffix(u.Path, apiPrefix) {
		u.Path += apiPrefix
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}
