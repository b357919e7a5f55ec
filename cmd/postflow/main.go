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

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	airtableadapter "github.com/postflowhq/postflow/internal/adapter/driven/airtable"
	sqliteadapter "github.com/postflowhq/postflow/internal/adapter/driven/sqlite"
	httphandler "github.com/postflowhq/postflow/internal/adapter/driving/http"
	"github.com/postflowhq/postflow/internal/application"
	"github.com/postflowhq/postflow/internal/config"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on missing required env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"queues", cfg.QueueNames(),
		"timezone", cfg.Timezone.String(),
		"warmup_configured", cfg.HasWarmup(),
		"account_pool_configured", cfg.HasAccountPool(),
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open the dispatch journal (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing journal database", "error", closeErr)
		}
	}()
	slog.Info("journal database opened", "path", cfg.DBPath)

	// 4. Run migrations on the writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 5. Wire adapters.
	dispatchStore := sqliteadapter.NewDispatchRepo(db)
	records := airtableadapter.NewClient(cfg.AirtableToken, cfg.AirtableRPS)
	slog.Info("airtable client created", "rps", cfg.AirtableRPS)

	// 6. Create application services.
	queueSvc := application.NewQueueService(records, dispatchStore, cfg.Queues, cfg.Timezone)
	accountSvc := application.NewAccountService(records, dispatchStore, cfg.AccountPool)
	warmupSvc := application.NewWarmupService(records, dispatchStore, cfg.Warmup)

	// 7. Create the HTTP handler and server.
	apiHandler := httphandler.NewHandler(queueSvc, accountSvc, warmupSvc, dispatchStore, cfg.QueueNames(), slog.Default())
	handler := httphandler.NewServeMux(apiHandler, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	slog.Info("postflow started", "listen_addr", cfg.ListenAddr)

	// 8. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 9. Graceful shutdown with 10s timeout to drain the HTTP server.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
