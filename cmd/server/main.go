package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/driftboard/driftboard/backend-go/internal/api"
	"github.com/driftboard/driftboard/backend-go/internal/auth"
	"github.com/driftboard/driftboard/backend-go/internal/board"
	"github.com/driftboard/driftboard/backend-go/internal/config"
	"github.com/driftboard/driftboard/backend-go/internal/db"
	"github.com/driftboard/driftboard/backend-go/internal/discovery"
	"github.com/driftboard/driftboard/backend-go/internal/engine"
	"github.com/driftboard/driftboard/backend-go/internal/export"
	"github.com/driftboard/driftboard/backend-go/internal/live"
	mw "github.com/driftboard/driftboard/backend-go/internal/middleware"
	"github.com/driftboard/driftboard/backend-go/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var boardStore store.Store
	if cfg.DatabaseURL == "" {
		slog.Warn("DATABASE_URL not set, boards are kept in memory")
		boardStore = store.NewMemoryStore()
	} else {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		pg := store.NewPostgresStore(pool)
		if err := pg.Migrate(ctx); err != nil {
			slog.Error("migrate database", "error", err)
			os.Exit(1)
		}
		boardStore = pg
	}

	registry := board.NewRegistry(boardStore, board.Options{
		Logger:   logger,
		Viewport: engine.Size{Width: cfg.ViewportWidth, Height: cfg.ViewportHeight},
	})
	go registry.Run(ctx, cfg.AutosaveInterval)

	authService := auth.NewService(cfg.JWTSecret)
	authHandler := auth.NewHandler(authService, registry, func(err error) bool {
		return errors.Is(err, store.ErrNotFound)
	})

	exports := export.NewDir(cfg.ExportDir)
	hub := live.NewHub(logger)

	r := api.NewRouter(api.Routes{
		API:     api.NewHandler(registry, authService, exports, hub, logger),
		Auth:    authService,
		Tokens:  authHandler,
		Live:    live.NewHandler(hub, authService, registry, cfg.OriginHosts()),
		Exports: exports.Serve(),
	})

	// Global middleware, outside route matching
	handler := mw.Recovery(mw.Logger(mw.CORS(cfg.Origins())(r)))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var advertiser *discovery.Advertiser
	if cfg.MDNSEnabled {
		advertiser, err = discovery.Advertise(cfg.MDNSInstance, cfg.Port)
		if err != nil {
			slog.Warn("mdns advertise failed", "error", err)
		} else {
			slog.Info("advertising on mdns", "service", discovery.ServiceType, "instance", cfg.MDNSInstance)
		}
	}

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")
		cancel()

		if advertiser != nil {
			advertiser.Shutdown()
		}
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)

		// Save after the server stops taking input
		slog.Info("saving all boards...")
		if err := registry.Flush(shutdownCtx); err != nil {
			slog.Error("flush boards", "error", err)
		}
	}()

	slog.Info("server starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	<-done
}
