package router

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/cornella-local/cornella-edge/pkg/cache"
)

// OfflineBody is the body of the synthetic response served when no
// fallback is available.
const OfflineBody = "Offline"

// Offline returns the synthetic 503 response.
func Offline(req *http.Request) *http.Response {
	return &http.Response{
		Status:     "503 Service Unavailable",
		StatusCode: http.StatusServiceUnavailable,
		Proto:      "HTTP/1.1",
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header: http.Header{
			"Content-Type":   []string{"text/plain; charset=utf-8"},
			"Content-Length": []string{strconv.Itoa(len(OfflineBody))},
		},
		Body:          io.NopCloser(bytes.NewReader([]byte(OfflineBody))),
		ContentLength: int64(len(OfflineBody)),
		Request:       req,
	}
}

// cacheFirst serves static assets from the static bucket and only goes to
// the network on a miss. Cached entries are never revalidated.
func (r *Router) cacheFirst(req *http.Request, class Class) *http.Response {
	if entry, ok := r.lookup(req, r.config.StaticCache); ok {
		strategyResponses.WithLabelValues(class.String(), sourceCache).Inc()
		return cache.EntryToResponse(entry, req)
	}

	resp, err := r.fetch(req, r.config.StaticCache)
	if err != nil {
		networkFailures.WithLabelValues(class.String()).Inc()
		r.logger.Warn().Err(err).Str("url", req.URL.String()).Msg("Static asset unavailable offline")
		strategyResponses.WithLabelValues(class.String(), sourceSynthetic).Inc()
		return Offline(req)
	}

	strategyResponses.WithLabelValues(class.String(), sourceNetwork).Inc()
	return resp
}

// cacheFirstImage is cacheFirst for images: hits may come from either
// bucket, fresh copies go to the dynamic bucket, and a failed fetch falls
// back to the placeholder image.
func (r *Router) cacheFirstImage(req *http.Request, class Class) *http.Response {
	if entry, ok := r.lookup(req, r.config.StaticCache, r.config.DynamicCache); ok {
		strategyResponses.WithLabelValues(class.String(), sourceCache).Inc()
		return cache.EntryToResponse(entry, req)
	}

	resp, err := r.fetch(req, r.config.DynamicCache)
	if err != nil {
		networkFailures.WithLabelValues(class.String()).Inc()
		r.logger.Warn().Err(err).Str("url", req.URL.String()).Msg("Image unavailable, serving placeholder")

		placeholder := r.assetRequest(req, r.config.PlaceholderImage)
		if entry, ok := r.lookup(placeholder, r.config.StaticCache, r.config.DynamicCache); ok {
			strategyResponses.WithLabelValues(class.String(), sourcePlaceholder).Inc()
			return cache.EntryToResponse(entry, req)
		}

		strategyResponses.WithLabelValues(class.String(), sourceSynthetic).Inc()
		return Offline(req)
	}

	strategyResponses.WithLabelValues(class.String(), sourceNetwork).Inc()
	return resp
}

// networkFirst prefers fresh data and uses the cache only when the network
// is unreachable.
func (r *Router) networkFirst(req *http.Request, class Class) *http.Response {
	resp, err := r.fetch(req, r.config.DynamicCache)
	if err == nil {
		strategyResponses.WithLabelValues(class.String(), sourceNetwork).Inc()
		return resp
	}

	networkFailures.WithLabelValues(class.String()).Inc()
	r.logger.Warn().Err(err).Str("url", req.URL.String()).Msg("Network unavailable, trying cache")

	if entry, ok := r.lookup(req, r.config.StaticCache, r.config.DynamicCache); ok {
		strategyResponses.WithLabelValues(class.String(), sourceCache).Inc()
		return cache.EntryToResponse(entry, req)
	}

	strategyResponses.WithLabelValues(class.String(), sourceSynthetic).Inc()
	return Offline(req)
}

// networkFirstOffline is networkFirst for page loads with a longer fallback
// chain: cached page, offline page, root document, synthetic 503.
func (r *Router) networkFirstOffline(req *http.Request, class Class) *http.Response {
	resp, err := r.fetch(req, r.config.DynamicCache)
	if err == nil {
		strategyResponses.WithLabelValues(class.String(), sourceNetwork).Inc()
		return resp
	}

	networkFailures.WithLabelValues(class.String()).Inc()
	r.logger.Warn().Err(err).Str("url", req.URL.String()).Msg("Navigation offline, trying fallbacks")

	buckets := []string{r.config.StaticCache, r.config.DynamicCache}

	if entry, ok := r.lookup(req, buckets...); ok {
		strategyResponses.WithLabelValues(class.String(), sourceCache).Inc()
		return cache.EntryToResponse(entry, req)
	}

	if entry, ok := r.lookup(r.assetRequest(req, r.config.OfflinePage), buckets...); ok {
		strategyResponses.WithLabelValues(class.String(), sourceOfflinePage).Inc()
		return cache.EntryToResponse(entry, req)
	}

	if entry, ok := r.lookup(r.assetRequest(req, r.config.RootDocument), buckets...); ok {
		strategyResponses.WithLabelValues(class.String(), sourceRootDoc).Inc()
		return cache.EntryToResponse(entry, req)
	}

	strategyResponses.WithLabelValues(class.String(), sourceSynthetic).Inc()
	return Offline(req)
}

// lookup searches the named buckets in order. Backend errors are logged
// and treated as a miss.
func (r *Router) lookup(req *http.Request, buckets ...string) (*cache.Entry, bool) {
	entry, err := cache.MatchAny(req.Context(), r.storage, req, buckets...)
	if err == nil {
		r.logger.Debug().Str("url", req.URL.String()).Msg("Cache hit")
		return entry, true
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		r.logger.Warn().Err(err).Str("url", req.URL.String()).Msg("Cache lookup failed")
	}
	return nil, false
}

// fetch goes to the network and stores a copy of a successful response
// in bucketName. A body that breaks while being read counts as a network
// failure so the caller walks its fallback chain.
func (r *Router) fetch(req *http.Request, bucketName string) (*http.Response, error) {
	resp, err := r.fetcher.Do(req)
	if err != nil {
		return nil, err
	}
	if err := r.store(req.Context(), bucketName, req, resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

// store writes a copy of a successful response into bucket. Non-2xx
// responses are not cached. Storage failures are logged and never affect
// resp; only an unreadable body is returned.
func (r *Router) store(ctx context.Context, bucketName string, req *http.Request, resp *http.Response) error {
	if !cache.Cacheable(resp.StatusCode) {
		return nil
	}

	entry, err := cache.ResponseToEntry(resp)
	if err != nil {
		cacheWriteFailures.WithLabelValues(bucketName).Inc()
		return err
	}
	if entry.URL == "" {
		entry.URL = req.URL.String()
	}

	bucket, err := r.storage.Open(ctx, bucketName)
	if err == nil {
		err = bucket.Put(ctx, req, entry)
	}
	if err != nil {
		cacheWriteFailures.WithLabelValues(bucketName).Inc()
		r.logger.Warn().Err(err).Str("bucket", bucketName).Str("url", req.URL.String()).Msg("Failed to cache response")
		return nil
	}

	r.logger.Debug().
		Str("bucket", bucketName).
		Str("url", req.URL.String()).
		Int("bytes", len(entry.Data)).
		Msg("Cached response")
	return nil
}
