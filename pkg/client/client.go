// Package client provides the upstream HTTP fetcher used by the offline
// edge: a single network round trip per call, classified errors, and
// request metrics. It never caches and never retries on its own.
package client

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for upstream fetches.
var (
	upstreamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cornella_upstream_requests_total",
		Help: "Total upstream requests by host and status",
	}, []string{"host", "status"})

	upstreamRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cornella_upstream_request_duration_seconds",
		Help:    "Upstream request duration in seconds by host",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10},
	}, []string{"host"})

	upstreamErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cornella_upstream_errors_total",
		Help: "Total upstream errors by class",
	}, []string{"class"})
)

// ErrorClass represents a classification of fetch failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"
)

// Fetcher performs a single network round trip.
type Fetcher interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is the upstream fetcher.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// User-Agent header sent upstream
	UserAgent string

	// Timeout for a single round trip
	Timeout time.Duration
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(userAgent string) Config {
	return Config{
		UserAgent: userAgent,
		Timeout:   30 * time.Second,
	}
}

// New creates a new upstream client.
func New(cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("timeout must be >= 0 (got %s)", cfg.Timeout)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			// Redirects are handed back to the caller untouched.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		config: cfg,
		logger: log.With().Str("component", "upstream-client").Logger(),
	}, nil
}

// Do performs one HTTP round trip. Transport failures come back as a
// *FetchError of class network; any HTTP status, including 4xx and 5xx,
// is returned as a response, like a browser fetch.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	host := req.URL.Host

	startTime := time.Now()
	defer func() {
		upstreamRequestDuration.WithLabelValues(host).Observe(time.Since(startTime).Seconds())
	}()

	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	c.logger.Debug().
		Str("url", req.URL.String()).
		Str("method", req.Method).
		Msg("Executing upstream request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		upstreamErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		upstreamRequestsTotal.WithLabelValues(host, "network_error").Inc()
		c.logger.Warn().Err(err).Str("url", req.URL.String()).Msg("Upstream request failed")
		return nil, &FetchError{
			URL:        req.URL.String(),
			ErrorClass: ErrorClassNetwork,
			Err:        err,
		}
	}

	upstreamRequestsTotal.WithLabelValues(host, strconv.Itoa(resp.StatusCode)).Inc()
	if class := ClassifyStatus(resp.StatusCode); class != "" {
		upstreamErrorsTotal.WithLabelValues(string(class)).Inc()
		c.logger.Debug().
			Str("url", req.URL.String()).
			Int("status", resp.StatusCode).
			Str("error_class", string(class)).
			Msg("Upstream returned error status")
	}

	return resp, nil
}

// ClassifyStatus categorizes an HTTP status for observability.
func ClassifyStatus(status int) ErrorClass {
	switch {
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
