package cache

import (
	"context"
	"testing"
)

func TestMemoryStorage(t *testing.T) {
	runStorageContract(t, func(t *testing.T) Storage {
		return NewMemoryStorage()
	})
}

func TestMemoryStorage_OpenEmptyName(t *testing.T) {
	if _, err := NewMemoryStorage().Open(context.Background(), ""); err == nil {
		t.Error("Open with empty name should return error")
	}
}

func TestMemoryBucket_MatchReturnsCopy(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()
	bucket, _ := s.Open(ctx, "cornella-static-v1")
	req := newRequest(t, "https://cornella.local/assets/app.css")

	_ = bucket.Put(ctx, req, &Entry{Data: []byte("body{}"), StatusCode: 200})

	first, _ := bucket.Match(ctx, req)
	first.Data[0] = 'X'

	second, _ := bucket.Match(ctx, req)
	if string(second.Data) != "body{}" {
		t.Errorf("stored entry mutated through Match result: %s", second.Data)
	}

	if n := bucket.(*memoryBucket).Len(); n != 1 {
		t.Errorf("Len = %d, want 1", n)
	}
}
