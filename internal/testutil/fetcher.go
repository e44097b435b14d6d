package testutil

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"
	"sync"

	"github.com/cornella-local/cornella-edge/pkg/client"
)

// ErrNetworkDown is the cause wrapped by FakeFetcher network failures.
var ErrNetworkDown = errors.New("network down")

// FakeFetcher answers requests from an in-memory table without touching
// the network, and counts every call.
type FakeFetcher struct {
	mu        sync.Mutex
	responses map[string]MockResponse
	failing   map[string]bool
	offline   bool
	calls     []string
}

// NewFakeFetcher creates a fetcher with no configured responses.
func NewFakeFetcher() *FakeFetcher {
	return &FakeFetcher{
		responses: make(map[string]MockResponse),
		failing:   make(map[string]bool),
	}
}

// SetResponse configures the response for an absolute URL.
func (f *FakeFetcher) SetResponse(rawURL string, resp MockResponse) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[rawURL] = resp
}

// Fail makes requests for rawURL fail with a network error.
func (f *FakeFetcher) Fail(rawURL string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing[rawURL] = true
}

// SetOffline makes every request fail with a network error.
func (f *FakeFetcher) SetOffline(offline bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offline = offline
}

// Calls returns the number of requests issued.
func (f *FakeFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// CallsFor returns the number of requests issued for rawURL.
func (f *FakeFetcher) CallsFor(rawURL string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, u := range f.calls {
		if u == rawURL {
			n++
		}
	}
	return n
}

// Do implements client.Fetcher.
func (f *FakeFetcher) Do(req *http.Request) (*http.Response, error) {
	rawURL := req.URL.String()

	f.mu.Lock()
	f.calls = append(f.calls, rawURL)
	offline := f.offline || f.failing[rawURL]
	resp, ok := f.responses[rawURL]
	f.mu.Unlock()

	if offline {
		return nil, &client.FetchError{URL: rawURL, ErrorClass: client.ErrorClassNetwork, Err: ErrNetworkDown}
	}
	if !ok {
		resp = MockResponse{StatusCode: http.StatusNotFound, Body: "not found"}
	}

	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	header := http.Header{}
	for k, v := range resp.Headers {
		header.Set(k, v)
	}
	header.Set("Content-Length", strconv.Itoa(len(resp.Body)))

	return &http.Response{
		Status:        strconv.Itoa(status) + " " + http.StatusText(status),
		StatusCode:    status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader([]byte(resp.Body))),
		ContentLength: int64(len(resp.Body)),
		Request:       req,
	}, nil
}
