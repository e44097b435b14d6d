package cache

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStorage keeps cache buckets in process memory.
type MemoryStorage struct {
	mu      sync.RWMutex
	buckets map[string]*memoryBucket
}

// NewMemoryStorage creates an empty in-memory bucket storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		buckets: make(map[string]*memoryBucket),
	}
}

// Open returns the named bucket, creating it if needed.
func (s *MemoryStorage) Open(_ context.Context, name string) (Bucket, error) {
	if name == "" {
		return nil, fmt.Errorf("bucket name cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[name]
	if !ok {
		b = &memoryBucket{
			name:    name,
			entries: gocache.New(gocache.NoExpiration, 0),
		}
		s.buckets[name] = b
	}
	return b, nil
}

// Keys lists the bucket names in sorted order.
func (s *MemoryStorage) Keys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.buckets))
	for name := range s.buckets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes a bucket and all of its entries.
func (s *MemoryStorage) Delete(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[name]
	if !ok {
		return false, nil
	}
	b.entries.Flush()
	delete(s.buckets, name)
	BucketsDeleted.Inc()
	return true, nil
}

type memoryBucket struct {
	name    string
	entries *gocache.Cache
}

func (b *memoryBucket) Name() string {
	return b.name
}

func (b *memoryBucket) Match(_ context.Context, req *http.Request) (*Entry, error) {
	v, ok := b.entries.Get(KeyFor(req).String())
	if !ok {
		CacheMisses.WithLabelValues(b.name).Inc()
		return nil, ErrCacheMiss
	}
	entry, ok := v.(*Entry)
	if !ok {
		CacheErrors.WithLabelValues("match").Inc()
		return nil, ErrInvalidEntry
	}

	CacheHits.WithLabelValues(b.name).Inc()
	return entry.Clone(), nil
}

func (b *memoryBucket) Put(_ context.Context, req *http.Request, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}
	b.entries.Set(KeyFor(req).String(), entry.Clone(), gocache.NoExpiration)
	CachePuts.WithLabelValues(b.name).Inc()
	return nil
}

// Len returns the number of entries in the bucket (for testing).
func (b *memoryBucket) Len() int {
	return b.entries.ItemCount()
}
