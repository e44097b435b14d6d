package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks bucket hits
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cornella_cache_hits_total",
			Help: "Total number of cache bucket hits",
		},
		[]string{"bucket"},
	)

	// CacheMisses tracks bucket misses
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cornella_cache_misses_total",
			Help: "Total number of cache bucket misses",
		},
		[]string{"bucket"},
	)

	// CachePuts tracks entries written into buckets
	CachePuts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cornella_cache_puts_total",
			Help: "Total number of entries written to cache buckets",
		},
		[]string{"bucket"},
	)

	// BucketsDeleted tracks whole-bucket removals
	BucketsDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cornella_cache_buckets_deleted_total",
			Help: "Total number of cache buckets deleted",
		},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cornella_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "match", "put", "keys", "delete"
	)
)
