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

	"github.com/MrJamesThe3rd/backoffice/internal/auth"
	"github.com/MrJamesThe3rd/backoffice/internal/config"
	"github.com/MrJamesThe3rd/backoffice/internal/database"
	backofficeHttp "github.com/MrJamesThe3rd/backoffice/internal/http"
	authHandler "github.com/MrJamesThe3rd/backoffice/internal/http/auth"
	recordHandler "github.com/MrJamesThe3rd/backoffice/internal/http/record"
	"github.com/MrJamesThe3rd/backoffice/internal/importer"
	"github.com/MrJamesThe3rd/backoffice/internal/logging"
	"github.com/MrJamesThe3rd/backoffice/internal/record"
	recordStore "github.com/MrJamesThe3rd/backoffice/internal/record/store"
	"github.com/MrJamesThe3rd/backoffice/internal/schema"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	closeLog, err := logging.Setup(cfg.Logging())
	if err != nil {
		slog.Error("failed to set up logging", "error", err)
		os.Exit(1)
	}
	defer closeLog()

	if err := run(cfg); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry, err := schema.Load(cfg.Modules.Path)
	if err != nil {
		return err
	}

	db, err := database.New(ctx, cfg.Database())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		return err
	}

	var (
		recordService = record.NewService(recordStore.New(db), registry)
		importService = importer.NewService()
		authService   = auth.NewService(cfg.Auth.Secret, cfg.Auth.Username, cfg.Auth.PasswordHash, cfg.Auth.TokenTTL)
	)

	if !authService.Enabled() {
		slog.Warn("AUTH_SECRET is empty, the records API is open")
	}

	var (
		authH    = authHandler.NewHandler(authService)
		recordsH = recordHandler.NewHandler(recordService, importService)
	)

	router := backofficeHttp.New(authH, recordsH, cfg.Server.CORSOrigins)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           http.TimeoutHandler(router, cfg.Server.Timeout, "request timed out"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		slog.Info("starting server", "port", srv.Addr, "modules", len(registry.Modules()))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
