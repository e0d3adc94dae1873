package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/walfie-raid/petronel/internal/api"
	"github.com/walfie-raid/petronel/internal/config"
	"github.com/walfie-raid/petronel/internal/imagehash"
	"github.com/walfie-raid/petronel/internal/metrics"
	"github.com/walfie-raid/petronel/internal/model"
	"github.com/walfie-raid/petronel/internal/periodic"
	"github.com/walfie-raid/petronel/internal/persistence"
	"github.com/walfie-raid/petronel/internal/raidhandler"
	"github.com/walfie-raid/petronel/internal/upstream"
)

func main() {
	cfg := config.ConfigFromEnv()

	registry := prometheus.NewRegistry()
	metricsFactory := metrics.NewFactory(registry)

	raids := raidhandler.NewHandler(cfg, metricsFactory)

	store, err := persistence.NewFileStore(storagePath())
	if err != nil {
		slog.Error("[MAIN] failed to build persistence store", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	if bosses, err := store.GetBosses(ctx); err != nil {
		slog.Warn("[MAIN] failed to load persisted boss list, starting empty", "error", err)
	} else if len(bosses) > 0 {
		raids.SeedBosses(bosses)
		slog.Info("[MAIN] restored boss list from persistence", "count", len(bosses))
	}

	hasher := imagehash.NewHTTPImageHasher(cfg.ConnectionTimeout, 3)
	hashWorker := imagehash.NewWorker(hasher, cfg.ImageHashConcurrency, slog.Default())

	upstreamURL := os.Getenv("UPSTREAM_STREAM_URL")
	upstreamAuth := os.Getenv("UPSTREAM_AUTH_HEADER")
	upstreamClient := upstream.NewClient(upstreamURL, upstreamAuth, cfg.ConnectionRetryDelay, cfg.ConnectionTimeout, slog.Default())

	router := chi.NewRouter()
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(chiMiddleware.RequestID)

	apiHandler := api.NewHandler(raids)
	apiHandler.SetMetrics(metricsFactory)
	apiHandler.Mount(router)

	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Warn("[MAIN] failed to write health check response", "error", err)
		}
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	httpServer := &http.Server{Addr: ":" + port, Handler: router}

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(runCtx)

	group.Go(func() error {
		return runUpstream(groupCtx, upstreamClient, raids)
	})

	group.Go(func() error {
		periodic.RunCleanup(groupCtx, raids, cfg.CleanupInterval, cfg.BossTTL, slog.Default())
		return nil
	})

	group.Go(func() error {
		periodic.RunImageHashBackfill(groupCtx, raids, hashWorker, cfg.CleanupInterval, slog.Default())
		return nil
	})

	group.Go(func() error {
		periodic.RunPersistenceFlush(groupCtx, raids, store, cfg.StorageFileFlushInterval, slog.Default())
		return nil
	})

	group.Go(func() error {
		slog.Info("[MAIN] http server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		slog.Error("[MAIN] exiting", "error", err)
		hashWorker.Close()
		os.Exit(1)
	}
	hashWorker.Close()
}

// runUpstream feeds every Raid the streaming client produces into the
// handler until ctx is done or the client reports a permanent failure
// (§6's "only non-retryable HTTP status on the first connection...
// causes process-level shutdown").
func runUpstream(ctx context.Context, client *upstream.Client, raids *raidhandler.Handler) error {
	out := make(chan model.Raid, 64)

	errCh := make(chan error, 1)
	go func() { errCh <- client.Run(ctx, out) }()

	for {
		select {
		case raid := <-out:
			raids.Push(raid)
		case err := <-errCh:
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		case <-ctx.Done():
			return nil
		}
	}
}

func storagePath() string {
	if p := os.Getenv("STORAGE_FILE_PATH"); p != "" {
		return p
	}
	return "petronel-bosses.json"
}
