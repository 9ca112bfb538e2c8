package appblock

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-storefront/pkg/interfaces"
)

const (
	maxScriptBytes      = 2 << 20
	maxScriptRedirects  = 5
	defaultFetchTimeout = 5 * time.Second
)

// ErrScriptNotAllowed is returned for script URLs that are not https or whose
// host is missing from the allow-list.
var ErrScriptNotAllowed = errors.New("appblock: script url is not allowed")

// HTTPSource fetches app block scripts over HTTPS from AllowedHosts and keeps
// bodies in a cache. An empty allow-list rejects every URL.
type HTTPSource struct {
	Client       *http.Client
	Cache        interfaces.Cache
	TTL          time.Duration
	Timeout      time.Duration
	AllowedHosts []string
}

var _ ScriptSource = (*HTTPSource)(nil)

func (s *HTTPSource) Fetch(ctx context.Context, rawURL string) (string, error) {
	if err := s.check(rawURL); err != nil {
		return "", err
	}
	key := "appblock:script:" + rawURL
	if s.Cache != nil {
		if body, ok, err := s.Cache.Get(ctx, key); err == nil && ok {
			return string(body), nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := s.client().Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxScriptBytes))
	if err != nil {
		return "", err
	}
	if s.Cache != nil {
		_ = s.Cache.Set(ctx, key, body, s.TTL)
	}
	return string(body), nil
}

func (s *HTTPSource) timeout() time.Duration {
	if s.Timeout > 0 {
		return s.Timeout
	}
	return defaultFetchTimeout
}

// client copies the configured client so redirects are held to the same
// allow-list as the first request.
func (s *HTTPSource) client() *http.Client {
	client := http.Client{Timeout: s.timeout()}
	if s.Client != nil {
		client = *s.Client
	}
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxScriptRedirects {
			return fmt.Errorf("fetch %s: too many redirects", via[0].URL)
		}
		return s.check(req.URL.String())
	}
	return &client
}

func (s *HTTPSource) check(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrScriptNotAllowed, err)
	}
	if parsed.Scheme != "https" || parsed.User != nil || parsed.Hostname() == "" {
		return fmt.Errorf("%w: %s", ErrScriptNotAllowed, rawURL)
	}
	if !HostAllowed(parsed.Hostname(), s.AllowedHosts) {
		return fmt.Errorf("%w: host %s", ErrScriptNotAllowed, parsed.Hostname())
	}
	return nil
}

// HostAllowed reports whether host matches one of patterns. A pattern is an
// exact host name or "*.example.com", which matches subdomains only.
func HostAllowed(host string, patterns []string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	for _, pattern := range patterns {
		pattern = strings.ToLower(strings.TrimSpace(pattern))
		if suffix, ok := strings.CutPrefix(pattern, "*."); ok {
			if strings.HasSuffix(host, "."+suffix) {
				return true
			}
			continue
		}
		if pattern != "" && host == pattern {
			return true
		}
	}
	return false
}
