package edge

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/cornella-local/cornella-edge/internal/testutil"
	"github.com/cornella-local/cornella-edge/pkg/cache"
	"github.com/cornella-local/cornella-edge/pkg/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testOrigin = "https://cornella.local"

type harness struct {
	server  *Server
	handler http.Handler
	worker  *worker.Worker
	storage *cache.MemoryStorage
	fetcher *testutil.FakeFetcher
}

func newHarness(t *testing.T, notifier Deliverer) *harness {
	t.Helper()
	origin, err := url.Parse(testOrigin)
	require.NoError(t, err)

	storage := cache.NewMemoryStorage()
	fetcher := testutil.NewFakeFetcher()
	for path, resp := range testutil.ShellAssets {
		fetcher.SetResponse(testOrigin+path, resp)
	}

	w, err := worker.New(worker.DefaultConfig("test", origin, "abc.supabase.co"), storage, fetcher)
	require.NoError(t, err)

	s, err := New(w, origin, notifier)
	require.NoError(t, err)

	return &harness{server: s, handler: s.Handler(), worker: w, storage: storage, fetcher: fetcher}
}

func (h *harness) activate(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, h.worker.Install(ctx))
	_, err := h.worker.Activate(ctx)
	require.NoError(t, err)
}

func (h *harness) do(t *testing.T, req *http.Request) (*http.Response, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	resp := rec.Result()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, &url.URL{Scheme: "https", Host: "x"}, nil)
	assert.Error(t, err)

	h := newHarness(t, nil)
	_, err = New(h.worker, &url.URL{Path: "/relative"}, nil)
	assert.Error(t, err)
}

func TestHealthEndpoint(t *testing.T) {
	h := newHarness(t, nil)

	resp, body := h.do(t, httptest.NewRequest(http.MethodGet, "/_edge/health", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", body)
}

func TestReadyEndpoint(t *testing.T) {
	h := newHarness(t, nil)

	resp, body := h.do(t, httptest.NewRequest(http.MethodGet, "/_edge/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, body, "new")

	h.activate(t)

	resp, _ = h.do(t, httptest.NewRequest(http.MethodGet, "/_edge/ready", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHarness(t, nil)
	h.activate(t)

	resp, body := h.do(t, httptest.NewRequest(http.MethodGet, "/_edge/metrics", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "# TYPE")
	assert.Contains(t, body, "cornella_worker_passthrough_total")
}

func TestReservedPrefixNotForwarded(t *testing.T) {
	h := newHarness(t, nil)

	resp, _ := h.do(t, httptest.NewRequest(http.MethodGet, "/_edge/unknown", nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Zero(t, h.fetcher.Calls())
}

func TestFetch_RewritesOntoOrigin(t *testing.T) {
	h := newHarness(t, nil)
	h.activate(t)
	h.fetcher.SetResponse(testOrigin+"/api/negocios?cat=bares", testutil.MockResponse{
		Body:    `[{"id":1}]`,
		Headers: map[string]string{"Content-Type": "application/json"},
	})

	req := httptest.NewRequest(http.MethodGet, "http://edge.internal:8080/api/negocios?cat=bares", nil)
	resp, body := h.do(t, req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `[{"id":1}]`, body)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, 1, h.fetcher.CallsFor(testOrigin+"/api/negocios?cat=bares"))
}

func TestFetch_StaticSurvivesOffline(t *testing.T) {
	h := newHarness(t, nil)
	h.activate(t)
	h.fetcher.SetResponse(testOrigin+"/assets/app.js", testutil.MockResponse{Body: "console.log(1)"})

	resp, body := h.do(t, httptest.NewRequest(http.MethodGet, "/assets/app.js", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "console.log(1)", body)

	h.fetcher.SetOffline(true)
	calls := h.fetcher.Calls()

	resp, body = h.do(t, httptest.NewRequest(http.MethodGet, "/assets/app.js", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "console.log(1)", body)
	assert.Equal(t, calls, h.fetcher.Calls())
}

func TestFetch_NavigationOffline(t *testing.T) {
	h := newHarness(t, nil)
	h.activate(t)
	h.fetcher.SetOffline(true)

	req := httptest.NewRequest(http.MethodGet, "/negocios/12", nil)
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	resp, body := h.do(t, req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, testutil.ShellAssets[worker.OfflinePage].Body, body)
}

func TestFetch_OtherOfflineWithoutCache(t *testing.T) {
	h := newHarness(t, nil)
	h.activate(t)
	h.fetcher.SetOffline(true)

	resp, body := h.do(t, httptest.NewRequest(http.MethodGet, "/api/ofertas", nil))
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "Offline", body)
}

func TestFetch_PassThroughFailureIsBadGateway(t *testing.T) {
	h := newHarness(t, nil)
	h.activate(t)
	h.fetcher.SetOffline(true)

	resp, _ := h.do(t, httptest.NewRequest(http.MethodPost, "/api/resenas", strings.NewReader(`{"stars":5}`)))
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestFetch_HopHeadersDropped(t *testing.T) {
	h := newHarness(t, nil)
	h.activate(t)
	h.fetcher.SetResponse(testOrigin+"/api/x", testutil.MockResponse{
		Body:    "x",
		Headers: map[string]string{"Connection": "close", "X-Origin": "yes"},
	})

	resp, _ := h.do(t, httptest.NewRequest(http.MethodGet, "/api/x", nil))
	assert.Empty(t, resp.Header.Get("Connection"))
	assert.Equal(t, "yes", resp.Header.Get("X-Origin"))
}

func TestRequestIDEchoed(t *testing.T) {
	h := newHarness(t, nil)

	resp, _ := h.do(t, httptest.NewRequest(http.MethodGet, "/_edge/health", nil))
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/_edge/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	resp, _ = h.do(t, req)
	assert.Equal(t, "abc-123", resp.Header.Get(RequestIDHeader))
}

func TestSyncEndpoint(t *testing.T) {
	h := newHarness(t, nil)

	resp, _ := h.do(t, httptest.NewRequest(http.MethodPost, "/_edge/sync/"+worker.SyncTag, nil))
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Zero(t, h.fetcher.Calls())
}

func TestUpstreamRequest_DropsAcceptEncoding(t *testing.T) {
	h := newHarness(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/assets/app.js?v=2", nil)
	req.Header.Set("Accept-Encoding", "gzip, br")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Accept", "*/*")

	out := h.server.upstreamRequest(req)

	assert.Equal(t, testOrigin+"/assets/app.js?v=2", out.URL.String())
	assert.Empty(t, out.Header.Get("Accept-Encoding"))
	assert.Empty(t, out.Header.Get("Connection"))
	assert.Equal(t, "*/*", out.Header.Get("Accept"))
	assert.Equal(t, "gzip, br", req.Header.Get("Accept-Encoding"), "incoming request must be left untouched")
}
