// Package edge serves the offline worker over HTTP. Every request outside
// the reserved /_edge/ prefix is rewritten onto the app origin and answered
// by the worker; the prefix carries health, metrics, push and sync
// endpoints.
package edge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cornella-local/cornella-edge/pkg/logging"
	"github.com/cornella-local/cornella-edge/pkg/metrics"
	"github.com/cornella-local/cornella-edge/pkg/push"
	"github.com/cornella-local/cornella-edge/pkg/worker"
	"github.com/rs/zerolog"
)

// ReservedPrefix is never forwarded to the origin.
const ReservedPrefix = "/_edge/"

// maxPayloadBytes bounds push and click request bodies.
const maxPayloadBytes = 64 << 10

// hopHeaders are connection-scoped and never forwarded.
var hopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// Deliverer displays a notification.
type Deliverer interface {
	Deliver(ctx context.Context, notif *push.Notification) error
}

// Server is the HTTP face of a worker.
type Server struct {
	worker   *worker.Worker
	origin   *url.URL
	notifier Deliverer
	logger   zerolog.Logger
	now      func() time.Time
}

// New creates a server forwarding to origin. notifier may be nil, in which
// case push payloads are built but not delivered.
func New(w *worker.Worker, origin *url.URL, notifier Deliverer) (*Server, error) {
	if w == nil {
		return nil, errors.New("worker is required")
	}
	if origin == nil || origin.Host == "" {
		return nil, errors.New("absolute origin is required")
	}
	return &Server{
		worker:   w,
		origin:   origin,
		notifier: notifier,
		logger:   logging.NewLogger("edge"),
		now:      time.Now,
	}, nil
}

// Handler returns the complete handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+ReservedPrefix+"health", s.handleHealth)
	mux.HandleFunc("GET "+ReservedPrefix+"ready", s.handleReady)
	mux.Handle("GET "+ReservedPrefix+"metrics", metrics.Handler())
	mux.HandleFunc("POST "+ReservedPrefix+"push", s.handlePush)
	mux.HandleFunc("POST "+ReservedPrefix+"push/click", s.handleClick)
	mux.HandleFunc("POST "+ReservedPrefix+"sync/{tag}", s.handleSync)
	mux.HandleFunc(ReservedPrefix, http.NotFound)
	mux.HandleFunc("/", s.handleFetch)

	return Chain(mux, RequestID(), AccessLog(s.logger), Recover(s.logger))
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	out := s.upstreamRequest(r)

	resp, err := s.worker.Fetch(out)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("request_id", RequestIDFromContext(r.Context())).
			Str("url", out.URL.String()).
			Msg("Pass-through request failed")
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	header := w.Header()
	for key, values := range resp.Header {
		for _, value := range values {
			header.Add(key, value)
		}
	}
	for _, h := range hopHeaders {
		header.Del(h)
	}
	w.WriteHeader(resp.StatusCode)

	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		s.logger.Debug().Err(err).Str("url", out.URL.String()).Msg("Client went away while copying body")
	}
}

// upstreamRequest rewrites r onto the origin so its cache key matches the
// keys written at install time.
func (s *Server) upstreamRequest(r *http.Request) *http.Request {
	target := &url.URL{
		Scheme:   s.origin.Scheme,
		Host:     s.origin.Host,
		Path:     r.URL.Path,
		RawPath:  r.URL.RawPath,
		RawQuery: r.URL.RawQuery,
	}

	out := r.Clone(r.Context())
	out.URL = target
	out.Host = ""
	out.RequestURI = ""
	for _, h := range hopHeaders {
		out.Header.Del(h)
	}
	// Cached bodies are keyed without encoding, so the upstream transport
	// negotiates compression itself and hands back decoded bytes.
	out.Header.Del("Accept-Encoding")
	return out
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	state := s.worker.State()
	if state != worker.StateActivated {
		http.Error(w, "worker "+state.String(), http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	s.worker.Sync(r.Context(), r.PathValue("tag"))
	w.WriteHeader(http.StatusAccepted)
}
