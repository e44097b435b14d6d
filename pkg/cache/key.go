package cache

import (
	"net/http"
	"net/url"
	"strings"
)

// RequestKey identifies a cached response by request method and URL.
type RequestKey struct {
	// Method is the HTTP method (normalized to upper case)
	Method string

	// URL is the absolute request URL
	URL *url.URL
}

// KeyFor builds the cache key for a request.
func KeyFor(req *http.Request) RequestKey {
	return RequestKey{
		Method: req.Method,
		URL:    req.URL,
	}
}

// String generates a deterministic cache key string.
// Format: METHOD scheme://host/path?query
//
// Fragments never reach the cache key and the host is lower-cased, so
// "https://Example.com/a#top" and "https://example.com/a" share an entry.
//
// Example:
//
//	GET https://cornella.local/assets/app.js
func (k RequestKey) String() string {
	method := strings.ToUpper(k.Method)
	if method == "" {
		method = http.MethodGet
	}
	if k.URL == nil {
		return method + " "
	}

	u := *k.URL
	u.Fragment = ""
	u.RawFragment = ""
	u.Host = strings.ToLower(u.Host)
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Path == "" && u.Host != "" {
		u.Path = "/"
	}

	return method + " " + u.String()
}
