// Package cache provides named, versioned cache buckets of HTTP
// request/response snapshots for the Cornellà Local offline edge.
//
// A bucket is a key-value partition where the key is the request method plus
// its absolute URL and the value is a full response snapshot. Buckets are
// created lazily the first time they are opened and are only ever removed as
// a whole, never entry by entry.
//
// Two storage backends are provided:
//
//   - RedisStorage keeps every bucket in a Redis hash so that several edge
//     instances share the same offline copy.
//   - MemoryStorage keeps buckets in process, backed by go-cache.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	storage := cache.NewRedisStorage(redisClient)
//
//	bucket, err := storage.Open(ctx, "cornella-static-v1")
//	if err != nil {
//		return err
//	}
//
//	entry, err := bucket.Match(ctx, req)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch from network
//	}
//
// # HTTP Response Caching
//
//	entry, err := cache.ResponseToEntry(resp)
//	if err != nil {
//		return err
//	}
//	if err := bucket.Put(ctx, req, entry); err != nil {
//		return err
//	}
//
// # Metrics
//
//   - cornella_cache_hits_total{bucket} - Bucket hits
//   - cornella_cache_misses_total{bucket} - Bucket misses
//   - cornella_cache_puts_total{bucket} - Entries written
//   - cornella_cache_buckets_deleted_total - Whole buckets removed
//   - cornella_cache_errors_total{operation} - Backend errors
package cache
