package cache

import (
	"net/http"
	"time"
)

// Entry is a cached response snapshot.
type Entry struct {
	// Data is the response body
	Data []byte `json:"data"`

	// StatusCode is the HTTP status code of the cached response
	StatusCode int `json:"status_code"`

	// Headers are the response headers
	Headers http.Header `json:"headers"`

	// URL is the request URL the snapshot answers
	URL string `json:"url"`

	// CachedAt is when we cached this response
	CachedAt time.Time `json:"cached_at"`
}

// OK reports whether the snapshot carries a 2xx status.
func (e *Entry) OK() bool {
	return Cacheable(e.StatusCode)
}

// Cacheable reports whether a response with the given status may be stored.
// Only 2xx responses are cached.
func Cacheable(status int) bool {
	return status >= 200 && status < 300
}

// Age returns how long ago the entry was cached.
func (e *Entry) Age() time.Duration {
	if e.CachedAt.IsZero() {
		return 0
	}
	return time.Since(e.CachedAt)
}

// Clone returns a deep copy of the entry.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	data := make([]byte, len(e.Data))
	copy(data, e.Data)
	return &Entry{
		Data:       data,
		StatusCode: e.StatusCode,
		Headers:    e.Headers.Clone(),
		URL:        e.URL,
		CachedAt:   e.CachedAt,
	}
}
