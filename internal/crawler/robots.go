package crawler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/temoto/robotstxt"
)

// ErrDisallowed marks a page skipped because robots.txt forbids it.
var ErrDisallowed = errors.New("disallowed by robots.txt")

const maxRobotsBody = 512 * 1024

// RobotsPolicy caches robots.txt per scheme+host for the lifetime of one
// engine. Missing or unreadable robots.txt allows everything.
type RobotsPolicy struct {
	client    *http.Client
	userAgent string

	mu    sync.Mutex
	hosts map[string]*robotstxt.RobotsData
}

func NewRobotsPolicy(client *http.Client, userAgent string) *RobotsPolicy {
	return &RobotsPolicy{
		client:    client,
		userAgent: userAgent,
		hosts:     map[string]*robotstxt.RobotsData{},
	}
}

// Allowed reports whether u may be fetched.
func (r *RobotsPolicy) Allowed(ctx context.Context, u *url.URL) bool {
	key := strings.ToLower(u.Scheme + "://" + u.Host)

	r.mu.Lock()
	data, cached := r.hosts[key]
	r.mu.Unlock()
	if !cached {
		data = r.fetch(ctx, key)
		r.mu.Lock()
		r.hosts[key] = data
		r.mu.Unlock()
	}
	if data == nil {
		return true
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return data.TestAgent(path, r.userAgent)
}

func (r *RobotsPolicy) fetch(ctx context.Context, origin string) *robotstxt.RobotsData {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", r.userAgent)
	resp, err := r.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBody))
	if err != nil {
		return nil
	}
	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil
	}
	return data
}
