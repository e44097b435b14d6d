package cache

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"testing"
)

func newRequest(t *testing.T, rawURL string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	return req
}

// runStorageContract exercises the behaviour every Storage backend must share.
func runStorageContract(t *testing.T, newStorage func(t *testing.T) Storage) {
	t.Run("open creates bucket lazily", func(t *testing.T) {
		s := newStorage(t)
		ctx := context.Background()

		keys, err := s.Keys(ctx)
		if err != nil {
			t.Fatalf("Keys failed: %v", err)
		}
		if len(keys) != 0 {
			t.Fatalf("expected no buckets, got %v", keys)
		}

		if _, err := s.Open(ctx, "cornella-static-v1"); err != nil {
			t.Fatalf("Open failed: %v", err)
		}

		keys, _ = s.Keys(ctx)
		if !reflect.DeepEqual(keys, []string{"cornella-static-v1"}) {
			t.Errorf("Keys = %v, want [cornella-static-v1]", keys)
		}
	})

	t.Run("put and match", func(t *testing.T) {
		s := newStorage(t)
		ctx := context.Background()
		bucket, _ := s.Open(ctx, "cornella-dynamic-v1")
		req := newRequest(t, "https://cornella.local/api/businesses")

		entry := &Entry{
			Data:       []byte(`[{"name":"Bar Centro"}]`),
			StatusCode: 200,
			Headers:    http.Header{"Content-Type": []string{"application/json"}},
		}
		if err := bucket.Put(ctx, req, entry); err != nil {
			t.Fatalf("Put failed: %v", err)
		}

		got, err := bucket.Match(ctx, req)
		if err != nil {
			t.Fatalf("Match failed: %v", err)
		}
		if string(got.Data) != string(entry.Data) {
			t.Errorf("Data = %s, want %s", got.Data, entry.Data)
		}
		if got.StatusCode != 200 {
			t.Errorf("StatusCode = %d, want 200", got.StatusCode)
		}
		if got.Headers.Get("Content-Type") != "application/json" {
			t.Errorf("Content-Type = %q", got.Headers.Get("Content-Type"))
		}
	})

	t.Run("match miss", func(t *testing.T) {
		s := newStorage(t)
		ctx := context.Background()
		bucket, _ := s.Open(ctx, "cornella-dynamic-v1")

		_, err := bucket.Match(ctx, newRequest(t, "https://cornella.local/nope"))
		if !errors.Is(err, ErrCacheMiss) {
			t.Errorf("Expected ErrCacheMiss, got %v", err)
		}
	})

	t.Run("put replaces entry", func(t *testing.T) {
		s := newStorage(t)
		ctx := context.Background()
		bucket, _ := s.Open(ctx, "cornella-dynamic-v1")
		req := newRequest(t, "https://cornella.local/api/offers")

		_ = bucket.Put(ctx, req, &Entry{Data: []byte("old"), StatusCode: 200})
		_ = bucket.Put(ctx, req, &Entry{Data: []byte("new"), StatusCode: 200})

		got, err := bucket.Match(ctx, req)
		if err != nil {
			t.Fatalf("Match failed: %v", err)
		}
		if string(got.Data) != "new" {
			t.Errorf("Data = %s, want new", got.Data)
		}
	})

	t.Run("put nil entry", func(t *testing.T) {
		s := newStorage(t)
		bucket, _ := s.Open(context.Background(), "cornella-dynamic-v1")
		if err := bucket.Put(context.Background(), newRequest(t, "https://cornella.local/"), nil); err == nil {
			t.Error("Put with nil entry should return error")
		}
	})

	t.Run("delete removes whole bucket", func(t *testing.T) {
		s := newStorage(t)
		ctx := context.Background()
		req := newRequest(t, "https://cornella.local/")

		old, _ := s.Open(ctx, "cornella-static-v0")
		_ = old.Put(ctx, req, &Entry{Data: []byte("v0"), StatusCode: 200})
		current, _ := s.Open(ctx, "cornella-static-v1")
		_ = current.Put(ctx, req, &Entry{Data: []byte("v1"), StatusCode: 200})

		existed, err := s.Delete(ctx, "cornella-static-v0")
		if err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if !existed {
			t.Error("Delete should report the bucket existed")
		}

		keys, _ := s.Keys(ctx)
		if !reflect.DeepEqual(keys, []string{"cornella-static-v1"}) {
			t.Errorf("Keys = %v, want [cornella-static-v1]", keys)
		}

		reopened, _ := s.Open(ctx, "cornella-static-v0")
		if _, err := reopened.Match(ctx, req); !errors.Is(err, ErrCacheMiss) {
			t.Errorf("deleted bucket still holds entries: %v", err)
		}

		got, err := current.Match(ctx, req)
		if err != nil || string(got.Data) != "v1" {
			t.Errorf("current bucket damaged: %v %v", got, err)
		}
	})

	t.Run("delete missing bucket", func(t *testing.T) {
		s := newStorage(t)
		existed, err := s.Delete(context.Background(), "never-opened")
		if err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if existed {
			t.Error("Delete of missing bucket should report false")
		}
	})

	t.Run("match any searches buckets in order", func(t *testing.T) {
		s := newStorage(t)
		ctx := context.Background()
		req := newRequest(t, "https://cornella.local/icons/placeholder.svg")

		dynamic, _ := s.Open(ctx, "cornella-dynamic-v1")
		_ = dynamic.Put(ctx, req, &Entry{Data: []byte("dynamic"), StatusCode: 200})

		got, err := MatchAny(ctx, s, req, "cornella-static-v1", "cornella-dynamic-v1")
		if err != nil {
			t.Fatalf("MatchAny failed: %v", err)
		}
		if string(got.Data) != "dynamic" {
			t.Errorf("Data = %s, want dynamic", got.Data)
		}

		keys, _ := s.Keys(ctx)
		if !reflect.DeepEqual(keys, []string{"cornella-dynamic-v1"}) {
			t.Errorf("MatchAny created buckets: %v", keys)
		}

		_, err = MatchAny(ctx, s, newRequest(t, "https://cornella.local/missing"), "cornella-dynamic-v1")
		if !errors.Is(err, ErrCacheMiss) {
			t.Errorf("Expected ErrCacheMiss, got %v", err)
		}
	})
}
