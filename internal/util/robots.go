package util

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/temoto/robotstxt"
)

const robotsTTL = 6 * time.Hour

// RobotsChecker answers robots.txt questions for a single user agent.
// Parsed files are kept per scheme and host for a few hours.
type RobotsChecker struct {
	rules      *gocache.Cache
	httpClient *http.Client
	userAgent  string
}

// NewRobotsChecker creates a robots.txt checker for userAgent
func NewRobotsChecker(userAgent string, timeout time.Duration) *RobotsChecker {
	return &RobotsChecker{
		rules:      gocache.New(robotsTTL, robotsTTL),
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
	}
}

// NormalizeUserAgent returns the product token robots.txt groups are matched
// against: "DoNotMiss/0.1 (+https://...)" becomes "DoNotMiss".
func NormalizeUserAgent(userAgent string) string {
	token := strings.TrimSpace(userAgent)
	if i := strings.IndexAny(token, " /("); i > 0 {
		token = token[:i]
	}
	return token
}

// CanFetch reports whether rawURL may be fetched, plus the crawl delay the
// site asks for. An unreachable robots.txt allows everything.
func (r *RobotsChecker) CanFetch(ctx context.Context, rawURL string) (bool, time.Duration, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false, 0, fmt.Errorf("parse URL: %w", err)
	}
	if parsed.Host == "" {
		return false, 0, fmt.Errorf("parse URL: missing host in %q", rawURL)
	}

	data, err := r.load(ctx, parsed.Scheme, parsed.Host)
	if err != nil {
		return true, 0, nil
	}

	path := parsed.EscapedPath()
	if path == "" {
		path = "/"
	}
	if parsed.RawQuery != "" {
		path += "?" + parsed.RawQuery
	}

	var crawlDelay time.Duration
	if group := data.FindGroup(r.userAgent); group != nil {
		crawlDelay = group.CrawlDelay
	}

	return data.TestAgent(path, r.userAgent), crawlDelay, nil
}

func (r *RobotsChecker) load(ctx context.Context, scheme, host string) (*robotstxt.RobotsData, error) {
	key := scheme + "://" + host
	if cached, ok := r.rules.Get(key); ok {
		return cached.(*robotstxt.RobotsData), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, key+"/robots.txt", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// FromResponse maps 4xx to allow-all and 5xx to disallow-all
	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}

	r.rules.SetDefault(key, data)
	return data, nil
}

// Forget drops every cached robots.txt
func (r *RobotsChecker) Forget() {
	r.rules.Flush()
}
