package backend

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/cornella-local/cornella-edge/pkg/client"
)

// Probe endpoints relative to the project URL.
const (
	RESTPath = "/rest/v1/"
	AuthPath = "/auth/v1/health"
)

// ProbeResult is the outcome of one connectivity probe.
type ProbeResult struct {
	Name       string        `json:"name"`
	URL        string        `json:"url"`
	StatusCode int           `json:"status_code"`
	Duration   time.Duration `json:"duration"`
	Err        error         `json:"-"`
}

// OK reports whether the endpoint answered with a 2xx status.
func (r ProbeResult) OK() bool {
	return r.Err == nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Probe checks the REST and Auth endpoints and logs each result. Network
// failures and 5xx answers are retried with backoff; the results are
// returned even when an endpoint is down.
func (b *Backend) Probe(ctx context.Context, retry client.RetryConfig) []ProbeResult {
	results := []ProbeResult{
		b.probe(ctx, "rest", RESTPath, retry),
		b.probe(ctx, "auth", AuthPath, retry),
	}

	for _, r := range results {
		event := b.logger.Info()
		if !r.OK() {
			event = b.logger.Warn()
		}
		event.
			Str("probe", r.Name).
			Str("url", r.URL).
			Int("status", r.StatusCode).
			Dur("duration", r.Duration).
			Err(r.Err).
			Msg("Backend probe")
	}
	return results
}

func (b *Backend) probe(ctx context.Context, name, path string, retry client.RetryConfig) ProbeResult {
	result := ProbeResult{Name: name, URL: b.config.URL + path}
	start := time.Now()

	result.Err = client.Retry(ctx, retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, result.URL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("apikey", b.config.AnonKey)
		req.Header.Set("Authorization", "Bearer "+b.config.AnonKey)

		resp, err := b.httpClient.Do(req)
		if err != nil {
			return &client.FetchError{URL: result.URL, ErrorClass: client.ErrorClassNetwork, Err: err}
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		result.StatusCode = resp.StatusCode
		if class := client.ClassifyStatus(resp.StatusCode); class != "" {
			return &client.FetchError{URL: result.URL, ErrorClass: class, StatusCode: resp.StatusCode}
		}
		return nil
	}, client.ClassifyErr)

	result.Duration = time.Since(start)
	return result
}
