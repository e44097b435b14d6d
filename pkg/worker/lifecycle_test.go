package worker

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/cornella-local/cornella-edge/internal/testutil"
	"github.com/cornella-local/cornella-edge/pkg/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstall_PopulatesShell(t *testing.T) {
	h := newHarness(t, "v1")
	ctx := context.Background()

	require.NoError(t, h.worker.Install(ctx))
	assert.Equal(t, StateInstalled, h.worker.State())

	for _, asset := range DefaultShellAssets {
		req, _ := http.NewRequest(http.MethodGet, testOrigin+asset, nil)
		entry, err := cache.MatchAny(ctx, h.storage, req, h.worker.StaticCache())
		require.NoError(t, err, asset)
		assert.Equal(t, testutil.ShellAssets[asset].Body, string(entry.Data), asset)
	}
	assert.Equal(t, len(DefaultShellAssets), h.fetcher.Calls())
}

func TestInstall_FailureIsAllOrNothing(t *testing.T) {
	h := newHarness(t, "v1")
	ctx := context.Background()
	h.fetcher.Fail(testOrigin + "/manifest.json")

	err := h.worker.Install(ctx)
	require.Error(t, err)

	var installErr *InstallError
	require.True(t, errors.As(err, &installErr))
	assert.Equal(t, "/manifest.json", installErr.Asset)
	assert.ErrorIs(t, err, testutil.ErrNetworkDown)

	assert.Equal(t, StateInstalled, h.worker.State(), "install failure is not fatal")

	req, _ := http.NewRequest(http.MethodGet, testOrigin+"/", nil)
	_, err = cache.MatchAny(ctx, h.storage, req, h.worker.StaticCache())
	assert.ErrorIs(t, err, cache.ErrCacheMiss, "nothing stored when any asset fails")
}

func TestInstall_NonOKStatusFails(t *testing.T) {
	h := newHarness(t, "v1")
	h.fetcher.SetResponse(testOrigin+"/offline.html", testutil.MockResponse{StatusCode: http.StatusNotFound})

	err := h.worker.Install(context.Background())
	var installErr *InstallError
	require.ErrorAs(t, err, &installErr)
	assert.Equal(t, "/offline.html", installErr.Asset)
}

func TestActivate_RequiresInstall(t *testing.T) {
	h := newHarness(t, "v1")

	_, err := h.worker.Activate(context.Background())
	assert.ErrorIs(t, err, ErrNotInstalled)
	assert.Equal(t, StateNew, h.worker.State())
}

func TestActivate_AfterFailedInstall(t *testing.T) {
	h := newHarness(t, "v1")
	h.fetcher.SetOffline(true)
	ctx := context.Background()

	require.Error(t, h.worker.Install(ctx))
	_, err := h.worker.Activate(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateActivated, h.worker.State())
}

func TestActivate_DeletesStaleBuckets(t *testing.T) {
	ctx := context.Background()
	storage := cache.NewMemoryStorage()
	fetcher := testutil.NewFakeFetcher()
	for path, resp := range testutil.ShellAssets {
		fetcher.SetResponse(testOrigin+path, resp)
	}

	old := newHarnessWith(t, "v1", storage, fetcher)
	old.start(t)
	_, err := storage.Open(ctx, old.worker.DynamicCache())
	require.NoError(t, err)
	_, err = storage.Open(ctx, "unrelated")
	require.NoError(t, err)

	next := newHarnessWith(t, "v2", storage, fetcher)
	require.NoError(t, next.worker.Install(ctx))
	deleted, err := next.worker.Activate(ctx)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"cornella-static-v1", "cornella-dynamic-v1", "unrelated"}, deleted)

	keys, err := storage.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"cornella-static-v2"}, keys)
}

func TestActivate_KeepsCurrentBuckets(t *testing.T) {
	h := newHarness(t, "v1")
	ctx := context.Background()
	require.NoError(t, h.worker.Install(ctx))
	_, err := h.storage.Open(ctx, h.worker.DynamicCache())
	require.NoError(t, err)

	deleted, err := h.worker.Activate(ctx)
	require.NoError(t, err)
	assert.Empty(t, deleted)

	keys, _ := h.storage.Keys(ctx)
	assert.Equal(t, []string{"cornella-dynamic-v1", "cornella-static-v1"}, keys)
}

func TestSync(t *testing.T) {
	h := newHarness(t, "v1")
	before := h.fetcher.Calls()

	h.worker.Sync(context.Background(), SyncTag)
	h.worker.Sync(context.Background(), "something-else")

	assert.Equal(t, before, h.fetcher.Calls(), "sync performs no network work")
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "new", StateNew.String())
	assert.Equal(t, "installed", StateInstalled.String())
	assert.Equal(t, "activated", StateActivated.String())
}
