package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"github.com/redis/go-redis/v9"
)

// Redis keys for bucket storage.
const (
	// RedisKeyBuckets is the set of existing bucket names.
	RedisKeyBuckets = "cornella:cache:buckets"

	// RedisKeyBucketPrefix prefixes the hash holding one bucket's entries.
	RedisKeyBucketPrefix = "cornella:cache:bucket:"
)

// RedisStorage keeps cache buckets in Redis hashes.
type RedisStorage struct {
	redis *redis.Client
}

// NewRedisStorage creates a bucket storage with Redis backend.
func NewRedisStorage(redisClient *redis.Client) *RedisStorage {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisStorage{
		redis: redisClient,
	}
}

func bucketKey(name string) string {
	return RedisKeyBucketPrefix + name
}

// Open returns the named bucket, registering it if needed.
func (s *RedisStorage) Open(ctx context.Context, name string) (Bucket, error) {
	if name == "" {
		return nil, fmt.Errorf("bucket name cannot be empty")
	}
	if err := s.redis.SAdd(ctx, RedisKeyBuckets, name).Err(); err != nil {
		CacheErrors.WithLabelValues("open").Inc()
		return nil, fmt.Errorf("redis sadd: %w", err)
	}
	return &redisBucket{redis: s.redis, name: name}, nil
}

// Keys lists the bucket names in sorted order.
func (s *RedisStorage) Keys(ctx context.Context) ([]string, error) {
	names, err := s.redis.SMembers(ctx, RedisKeyBuckets).Result()
	if err != nil {
		CacheErrors.WithLabelValues("keys").Inc()
		return nil, fmt.Errorf("redis smembers: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes a bucket and all of its entries.
func (s *RedisStorage) Delete(ctx context.Context, name string) (bool, error) {
	var removed *redis.IntCmd
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		removed = pipe.SRem(ctx, RedisKeyBuckets, name)
		pipe.Del(ctx, bucketKey(name))
		return nil
	})
	if err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		return false, fmt.Errorf("redis delete bucket: %w", err)
	}

	if removed.Val() > 0 {
		BucketsDeleted.Inc()
		return true, nil
	}
	return false, nil
}

type redisBucket struct {
	redis *redis.Client
	name  string
}

func (b *redisBucket) Name() string {
	return b.name
}

// Match retrieves the entry for req.
// Returns ErrCacheMiss if nothing is stored under the request key.
func (b *redisBucket) Match(ctx context.Context, req *http.Request) (*Entry, error) {
	field := KeyFor(req).String()

	data, err := b.redis.HGet(ctx, bucketKey(b.name), field).Bytes()
	if err != nil {
		if err == redis.Nil {
			CacheMisses.WithLabelValues(b.name).Inc()
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues("match").Inc()
		return nil, fmt.Errorf("redis hget: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		CacheErrors.WithLabelValues("match").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	CacheHits.WithLabelValues(b.name).Inc()
	return &entry, nil
}

// Put stores entry under req. Entries never expire; they live as long as
// the bucket does.
func (b *redisBucket) Put(ctx context.Context, req *http.Request, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}

	data, err := json.Marshal(entry)
	if err != nil {
		CacheErrors.WithLabelValues("put").Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	_, err = b.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, RedisKeyBuckets, b.name)
		pipe.HSet(ctx, bucketKey(b.name), KeyFor(req).String(), data)
		return nil
	})
	if err != nil {
		CacheErrors.WithLabelValues("put").Inc()
		return fmt.Errorf("redis hset: %w", err)
	}

	CachePuts.WithLabelValues(b.name).Inc()
	return nil
}
