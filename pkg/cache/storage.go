package cache

import (
	"context"
	"errors"
	"net/http"
)

var (
	// ErrCacheMiss indicates the requested key was not found in the bucket
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the cache entry is invalid or corrupted
	ErrInvalidEntry = errors.New("invalid cache entry")

	// ErrBodyRead indicates the upstream body failed part way through
	ErrBodyRead = errors.New("response body read failed")
)

// Bucket is a named partition of cached request/response pairs.
type Bucket interface {
	// Name returns the bucket name.
	Name() string

	// Match returns the entry stored for req, or ErrCacheMiss.
	Match(ctx context.Context, req *http.Request) (*Entry, error)

	// Put stores entry under req, replacing any previous entry.
	Put(ctx context.Context, req *http.Request, entry *Entry) error
}

// Storage manages the set of named buckets.
type Storage interface {
	// Open returns the named bucket, creating it if it does not exist.
	Open(ctx context.Context, name string) (Bucket, error)

	// Keys lists existing bucket names in sorted order.
	Keys(ctx context.Context) ([]string, error)

	// Delete removes a whole bucket. It reports whether the bucket existed.
	Delete(ctx context.Context, name string) (bool, error)
}

// MatchAny looks req up in each named bucket in order and returns the first
// hit. Buckets that do not exist yet are skipped without being created.
func MatchAny(ctx context.Context, storage Storage, req *http.Request, names ...string) (*Entry, error) {
	existing, err := storage.Keys(ctx)
	if err != nil {
		return nil, err
	}
	present := make(map[string]bool, len(existing))
	for _, name := range existing {
		present[name] = true
	}

	for _, name := range names {
		if !present[name] {
			continue
		}
		bucket, err := storage.Open(ctx, name)
		if err != nil {
			return nil, err
		}
		entry, err := bucket.Match(ctx, req)
		if err == nil {
			return entry, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			return nil, err
		}
	}
	return nil, ErrCacheMiss
}
