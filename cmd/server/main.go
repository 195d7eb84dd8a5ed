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

	"github.com/joho/godotenv"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mertab/minibank/internal/auth"
	"github.com/mertab/minibank/internal/config"
	"github.com/mertab/minibank/internal/ledger"
	"github.com/mertab/minibank/internal/metrics"
	"github.com/mertab/minibank/internal/provision"
	"github.com/mertab/minibank/internal/server"
	"github.com/mertab/minibank/internal/storage"
	"github.com/mertab/minibank/internal/storage/snapshotfile"
	"github.com/mertab/minibank/internal/storage/sqlite"
	"github.com/mertab/minibank/pkg/logging"
)

func main() {
	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("MINIBANK_CONFIG"))
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.SetupWithLevel(cfg.LogLevel)

	snap, err := newSnapshotStore(cfg.Snapshot)
	if err != nil {
		slog.Error("Failed to initialize snapshot store", "error", err)
		os.Exit(1)
	}
	defer snap.Close()
	slog.Info("Snapshot store initialized", "backend", cfg.Snapshot.Backend, "path", cfg.Snapshot.Path)

	template, err := snapshotfile.Template()
	if err != nil {
		slog.Error("Failed to parse seed snapshot", "error", err)
		os.Exit(1)
	}

	store := ledger.NewStore(snap, template)
	if err := store.Load(context.Background()); err != nil {
		slog.Error("Failed to load ledger", "error", err)
		os.Exit(1)
	}
	slog.Info("Ledger loaded", "holders", len(store.All()))

	jwtManager := auth.NewJWTManager(cfg.Auth.Secret, cfg.Auth.TokenTTL)
	srv := server.New(
		store,
		ledger.NewExecutor(store),
		auth.NewAuthenticator(store),
		jwtManager,
		provision.NewService(store),
	)

	mux := http.NewServeMux()
	mux.Handle("/", srv.Handler())
	mux.Handle("/metrics", metrics.Handler())

	// h2c allows HTTP/2 without TLS for local and proxied deployments.
	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: h2c.NewHandler(mux, &http2.Server{}),
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "address", cfg.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	case sig := <-stop:
		slog.Info("Shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			slog.Error("Graceful shutdown failed", "error", err)
			os.Exit(1)
		}
	}
	slog.Info("Server stopped")
}

func newSnapshotStore(cfg config.SnapshotConfig) (storage.SnapshotStore, error) {
	switch cfg.Backend {
	case "sqlite":
		return sqlite.New(cfg.Path)
	default:
		return snapshotfile.New(cfg.Path)
	}
}
