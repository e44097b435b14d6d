package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cornella-local/cornella-edge/pkg/backend"
	"github.com/cornella-local/cornella-edge/pkg/cache"
	"github.com/cornella-local/cornella-edge/pkg/client"
	"github.com/cornella-local/cornella-edge/pkg/config"
	"github.com/cornella-local/cornella-edge/pkg/edge"
	"github.com/cornella-local/cornella-edge/pkg/logging"
	"github.com/cornella-local/cornella-edge/pkg/push"
	"github.com/cornella-local/cornella-edge/pkg/worker"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Install, activate and serve the edge",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, a.config)
		},
	}

	flags := cmd.Flags()
	flags.String("listen", ":8080", "address to listen on")
	flags.String("origin", "", "app origin to front")
	flags.String("cache-version", "", "cache version suffix")
	flags.String("cache-backend", "", "bucket storage (memory or redis)")
	flags.String("redis-addr", "", "redis address for the redis backend")
	mustBind(a.viper, "server.listen", flags, "listen")
	mustBind(a.viper, "upstream.origin", flags, "origin")
	mustBind(a.viper, "cache.version", flags, "cache-version")
	mustBind(a.viper, "cache.backend", flags, "cache-backend")
	mustBind(a.viper, "cache.redis_addr", flags, "redis-addr")

	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger := logging.NewLogger("serve")
	logger.Info().Msgf("Configuration:%s", cfg)

	origin, err := cfg.OriginURL()
	if err != nil {
		return err
	}

	storage, closeStorage, err := openStorage(ctx, cfg.Cache)
	if err != nil {
		return err
	}
	defer closeStorage()

	clientCfg := client.DefaultConfig(cfg.Upstream.UserAgent)
	clientCfg.Timeout = cfg.Upstream.Timeout
	fetcher, err := client.New(clientCfg)
	if err != nil {
		return fmt.Errorf("create upstream client: %w", err)
	}

	if cfg.Supabase.URL != "" {
		go probeBackend(ctx, cfg.Supabase)
	}

	w, err := worker.New(worker.DefaultConfig(cfg.Cache.Version, origin, cfg.BackendHost()), storage, fetcher)
	if err != nil {
		return fmt.Errorf("create worker: %w", err)
	}
	if err := w.Install(ctx); err != nil {
		logger.Warn().Err(err).Msg("Install incomplete, activating anyway")
	}
	if _, err := w.Activate(ctx); err != nil {
		return fmt.Errorf("activate worker: %w", err)
	}

	var notifier edge.Deliverer
	if len(cfg.Push.URLs) > 0 {
		n, err := push.NewNotifier(cfg.Push.URLs)
		if err != nil {
			return err
		}
		notifier = n
	}

	srv, err := edge.New(w, origin, notifier)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Server.Listen).Str("origin", origin.String()).Msg("Edge listening")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// openStorage returns the configured bucket storage and its cleanup.
func openStorage(ctx context.Context, cfg config.CacheConfig) (cache.Storage, func(), error) {
	switch cfg.Backend {
	case config.BackendRedis:
		redisClient := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			redisClient.Close()
			return nil, nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		logger := logging.NewLogger("serve")
		logger.Info().Str("addr", cfg.RedisAddr).Msg("Connected to Redis")
		return cache.NewRedisStorage(redisClient), func() { redisClient.Close() }, nil
	default:
		return cache.NewMemoryStorage(), func() {}, nil
	}
}

func probeBackend(ctx context.Context, cfg config.SupabaseConfig) {
	b, err := backend.New(backendConfig(cfg))
	if err != nil {
		logger := logging.NewLogger("serve")
		logger.Warn().Err(err).Msg("Backend not configured, skipping probe")
		return
	}
	b.Probe(ctx, client.DefaultRetryConfig())
}

func backendConfig(cfg config.SupabaseConfig) backend.Config {
	return backend.Config{
		URL:            cfg.URL,
		AnonKey:        cfg.AnonKey,
		ServiceRoleKey: cfg.ServiceRoleKey,
		Schema:         cfg.Schema,
	}
}
