package crawler

import (
	"net/url"
	"path"
	"strings"
)

// visitKey is the identity of a URL inside one crawl run: lowercased
// scheme and host, default port dropped, fragment removed, dot-segments
// resolved and trailing slash trimmed. Scheme is kept as-is so http and
// https stay distinct origins.
func visitKey(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}
	u.Scheme = strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	if p := u.Port(); p != "" && !(u.Scheme == "http" && p == "80") && !(u.Scheme == "https" && p == "443") {
		host += ":" + p
	}
	u.Host = host
	u.Fragment = ""
	u.RawFragment = ""
	if u.RawQuery == "" {
		u.ForceQuery = false
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/"
	} else {
		u.Path = strings.TrimRight(path.Clean(u.Path), "/")
		if u.Path == "" {
			u.Path = "/"
		}
	}
	u.RawPath = ""
	return u.String(), true
}

// ParseSeed validates a seed URL for well-formedness (absolute http(s)).
func ParseSeed(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, ErrInvalidURL
	}
	return u, nil
}
