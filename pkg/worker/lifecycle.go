package worker

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/cornella-local/cornella-edge/pkg/cache"
	"golang.org/x/sync/errgroup"
)

// InstallError reports that the shell could not be populated. It is not
// fatal: the worker still moves to StateInstalled.
type InstallError struct {
	Asset string
	Err   error
}

func (e *InstallError) Error() string {
	return fmt.Sprintf("install shell asset %s: %v", e.Asset, e.Err)
}

func (e *InstallError) Unwrap() error {
	return e.Err
}

// Install populates the static bucket with the shell assets. Population is
// all-or-nothing: if any asset fails nothing is stored and an
// *InstallError is returned. Either way the worker is marked installed so
// activation can follow immediately.
func (w *Worker) Install(ctx context.Context) error {
	w.logger.Info().Strs("assets", w.config.ShellAssets).Msg("Installing")

	err := w.populateShell(ctx)
	if err != nil {
		installFailuresTotal.Inc()
		w.logger.Error().Err(err).Msg("Shell population failed, continuing install")
	} else {
		w.logger.Info().Str("bucket", w.StaticCache()).Msg("Shell cached")
	}

	w.mu.Lock()
	if w.state == StateNew {
		w.state = StateInstalled
	}
	w.mu.Unlock()

	return err
}

func (w *Worker) populateShell(ctx context.Context) error {
	reqs := make([]*http.Request, len(w.config.ShellAssets))
	for i, asset := range w.config.ShellAssets {
		req, err := w.assetRequest(ctx, asset)
		if err != nil {
			return &InstallError{Asset: asset, Err: err}
		}
		reqs[i] = req
	}

	entries := make([]*cache.Entry, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	for i, req := range reqs {
		asset := w.config.ShellAssets[i]
		g.Go(func() error {
			resp, err := w.fetcher.Do(req.WithContext(gctx))
			if err != nil {
				return &InstallError{Asset: asset, Err: err}
			}
			if !cache.Cacheable(resp.StatusCode) {
				resp.Body.Close()
				return &InstallError{Asset: asset, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
			}
			entry, err := cache.ResponseToEntry(resp)
			if err != nil {
				return &InstallError{Asset: asset, Err: err}
			}
			entries[i] = entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	bucket, err := w.storage.Open(ctx, w.StaticCache())
	if err != nil {
		return &InstallError{Asset: w.StaticCache(), Err: err}
	}
	for i, req := range reqs {
		if entries[i].URL == "" {
			entries[i].URL = req.URL.String()
		}
		if err := bucket.Put(ctx, req, entries[i]); err != nil {
			return &InstallError{Asset: w.config.ShellAssets[i], Err: err}
		}
	}
	return nil
}

func (w *Worker) assetRequest(ctx context.Context, asset string) (*http.Request, error) {
	if w.config.Origin == nil {
		return nil, fmt.Errorf("origin is required")
	}
	ref, err := url.Parse(asset)
	if err != nil {
		return nil, fmt.Errorf("parse asset path: %w", err)
	}
	return http.NewRequestWithContext(ctx, http.MethodGet, w.config.Origin.ResolveReference(ref).String(), nil)
}

// Activate deletes every bucket that belongs to another version and takes
// control of fetches. It returns the deleted bucket names.
func (w *Worker) Activate(ctx context.Context) ([]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state == StateNew {
		return nil, ErrNotInstalled
	}

	names, err := w.storage.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list buckets: %w", err)
	}

	current := map[string]bool{
		w.StaticCache():  true,
		w.DynamicCache(): true,
	}

	var deleted []string
	for _, name := range names {
		if current[name] {
			continue
		}
		existed, err := w.storage.Delete(ctx, name)
		if err != nil {
			return deleted, fmt.Errorf("delete bucket %s: %w", name, err)
		}
		if existed {
			deleted = append(deleted, name)
			w.logger.Info().Str("bucket", name).Msg("Deleted stale cache bucket")
		}
	}

	w.state = StateActivated
	w.logger.Info().
		Str("deleted", strings.Join(deleted, ",")).
		Msg("Activated, claiming clients")

	return deleted, nil
}

// SyncTag is the background sync tag the worker recognises.
const SyncTag = "sync-data"

// Sync handles a background sync event. No synchronisation is defined for
// any tag; sync-data is acknowledged in the log only.
func (w *Worker) Sync(ctx context.Context, tag string) {
	if tag != SyncTag {
		w.logger.Debug().Str("tag", tag).Msg("Ignoring unknown sync tag")
		return
	}
	syncEventsTotal.Inc()
	w.logger.Info().Str("tag", tag).Msg("Background sync requested")
}
