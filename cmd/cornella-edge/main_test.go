package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/cornella-local/cornella-edge/pkg/cache"
	"github.com/cornella-local/cornella-edge/pkg/config"
	"github.com/cornella-local/cornella-edge/pkg/seed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs(append(args, "--env-file", ""))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestOpenStorage_Memory(t *testing.T) {
	storage, closeFn, err := openStorage(context.Background(), config.CacheConfig{Backend: config.BackendMemory})
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &cache.MemoryStorage{}, storage)
}

func TestOpenStorage_RedisUnreachable(t *testing.T) {
	_, _, err := openStorage(context.Background(), config.CacheConfig{
		Backend:   config.BackendRedis,
		RedisAddr: "127.0.0.1:1",
	})
	assert.Error(t, err)
}

func TestInvalidConfigRejected(t *testing.T) {
	t.Setenv("CORNELLA_CACHE_BACKEND", "disk")

	_, err := run(t, "probe")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache.backend")
}

func TestProbeCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("apikey") != "anon" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	t.Setenv("CORNELLA_SUPABASE_URL", server.URL)
	t.Setenv("CORNELLA_SUPABASE_ANON_KEY", "anon")

	out, err := run(t, "probe")
	require.NoError(t, err)
	assert.Contains(t, out, "rest")
	assert.Contains(t, out, "auth")
	assert.NotContains(t, out, "FAILED")
}

func TestProbeCommand_RequiresBackend(t *testing.T) {
	_, err := run(t, "probe")
	assert.Error(t, err)
}

func TestMigrateCommand_RequiresServiceRoleKey(t *testing.T) {
	t.Setenv("CORNELLA_SUPABASE_URL", "https://abc.supabase.co")
	t.Setenv("CORNELLA_SUPABASE_ANON_KEY", "anon")

	_, err := run(t, "migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "service role key")
}

// fakePostgREST answers inserts with the stored row and accepts updates.
type fakePostgREST struct {
	mu      sync.Mutex
	nextID  atomic.Int64
	inserts []map[string]any
	patches []string
}

func (f *fakePostgREST) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.URL.Path, "/rest/v1/"+seed.BusinessesTable) {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodPost:
		var row map[string]any
		if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		row["id"] = f.nextID.Add(1)
		f.mu.Lock()
		f.inserts = append(f.inserts, row)
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode([]map[string]any{row})
	case http.MethodPatch:
		f.mu.Lock()
		f.patches = append(f.patches, r.URL.RawQuery)
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestSeedCommand(t *testing.T) {
	fake := &fakePostgREST{}
	server := httptest.NewServer(fake)
	defer server.Close()

	t.Setenv("CORNELLA_SUPABASE_URL", server.URL)
	t.Setenv("CORNELLA_SUPABASE_ANON_KEY", "anon")

	out, err := run(t, "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "inserted")

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Len(t, fake.inserts, len(seed.SampleBusinesses))

	featured := 0
	for _, b := range seed.SampleBusinesses {
		if b.Featured {
			featured++
		}
	}
	assert.Len(t, fake.patches, featured)
	for _, row := range fake.inserts {
		assert.NotContains(t, row, "featured")
	}
}
