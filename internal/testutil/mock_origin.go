// Package testutil provides testing utilities for the Cornellà Local edge.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockResponse defines the behavior for a mock origin path.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// ShellAssets are the default app shell files every MockOrigin serves.
var ShellAssets = map[string]MockResponse{
	"/": {
		StatusCode: http.StatusOK,
		Body:       "<!doctype html><title>Cornellà Local</title>",
		Headers:    map[string]string{"Content-Type": "text/html; charset=utf-8"},
	},
	"/index.html": {
		StatusCode: http.StatusOK,
		Body:       "<!doctype html><title>Cornellà Local</title>",
		Headers:    map[string]string{"Content-Type": "text/html; charset=utf-8"},
	},
	"/offline.html": {
		StatusCode: http.StatusOK,
		Body:       "<!doctype html><h1>Sin conexión</h1>",
		Headers:    map[string]string{"Content-Type": "text/html; charset=utf-8"},
	},
	"/manifest.json": {
		StatusCode: http.StatusOK,
		Body:       `{"name":"Cornellà Local","short_name":"Cornellà"}`,
		Headers:    map[string]string{"Content-Type": "application/manifest+json"},
	},
	"/icons/placeholder.svg": {
		StatusCode: http.StatusOK,
		Body:       `<svg xmlns="http://www.w3.org/2000/svg"/>`,
		Headers:    map[string]string{"Content-Type": "image/svg+xml"},
	},
}

// MockOrigin is a configurable app origin for testing. While offline it
// drops every connection, which clients observe as a network error.
type MockOrigin struct {
	server    *httptest.Server
	mu        sync.RWMutex
	responses map[string]MockResponse
	offline   bool

	// Tracking
	requestCount int
	pathCounts   map[string]int
	lastHeader   http.Header
}

// NewMockOrigin creates a mock origin serving ShellAssets.
func NewMockOrigin() *MockOrigin {
	mock := &MockOrigin{
		responses:  make(map[string]MockResponse),
		pathCounts: make(map[string]int),
	}
	for path, resp := range ShellAssets {
		mock.responses[path] = resp
	}

	mock.server = httptest.NewServer(http.HandlerFunc(mock.serve))
	return mock
}

func (m *MockOrigin) serve(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.requestCount++
	m.pathCounts[r.URL.Path]++
	m.lastHeader = r.Header.Clone()
	offline := m.offline
	resp, exists := m.responses[r.URL.Path]
	m.mu.Unlock()

	if offline {
		if hj, ok := w.(http.Hijacker); ok {
			if conn, _, err := hj.Hijack(); err == nil {
				conn.Close()
				return
			}
		}
		panic(http.ErrAbortHandler)
	}

	if !exists {
		http.NotFound(w, r)
		return
	}

	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if resp.Body != "" {
		w.Write([]byte(resp.Body))
	}
}

// URL returns the mock origin URL.
func (m *MockOrigin) URL() string {
	return m.server.URL
}

// Client returns an HTTP client wired to the mock server.
func (m *MockOrigin) Client() *http.Client {
	return m.server.Client()
}

// Close shuts down the mock server.
func (m *MockOrigin) Close() {
	m.server.Close()
}

// SetResponse configures the response for a path.
func (m *MockOrigin) SetResponse(path string, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[path] = resp
}

// RemoveResponse makes a path answer 404.
func (m *MockOrigin) RemoveResponse(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.responses, path)
}

// SetOffline toggles connection dropping.
func (m *MockOrigin) SetOffline(offline bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offline = offline
}

// Reset clears all tracking counters.
func (m *MockOrigin) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount = 0
	m.pathCounts = make(map[string]int)
	m.lastHeader = nil
}

// RequestCount returns the number of requests received, including dropped ones.
func (m *MockOrigin) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// PathCount returns the number of requests received for path.
func (m *MockOrigin) PathCount(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pathCounts[path]
}

// LastRequestHeader returns the headers of the most recent request.
func (m *MockOrigin) LastRequestHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastHeader
}
