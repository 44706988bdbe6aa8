// Command server runs the task tracker HTTP API.
//
//	@title			Task Tracker API
//	@version		1.0
//	@description	CRUD API for tasks. Legacy un-versioned routes are deprecated.
//	@BasePath		/api/v1
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-task-backend/internal/config"
	httpapi "github.com/tbourn/go-task-backend/internal/http"
	"github.com/tbourn/go-task-backend/internal/observability"
	"github.com/tbourn/go-task-backend/internal/repo"
	"github.com/tbourn/go-task-backend/internal/sysutil"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	sysutil.SetupLogger(os.Stdout, cfg.LogLevel, cfg.LogPretty, cfg.OTEL.ServiceName)
	if envErr != nil {
		log.Debug().Msg("no .env file found")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

// run wires tracing, storage and routes, serves until ctx is done, then
// shuts down gracefully.
func run(ctx context.Context, cfg config.Config) error {
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := repo.Open(dbOptions(cfg))
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := repo.AutoMigrate(db); err != nil {
		return err
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, db, cfg)

	srv := newHTTPServer(cfg, r)
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("driver", cfg.DB.Driver).Str("version", version).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(sctx)
}

// dbOptions maps configuration onto repository open options.
func dbOptions(cfg config.Config) repo.Options {
	opts := repo.Options{
		Driver:  cfg.DB.Driver,
		Path:    cfg.DB.Path,
		Tracing: cfg.OTEL.Enabled,
		Verbose: cfg.LogLevel == "debug",
	}
	if cfg.DB.Driver == config.DriverPostgres {
		opts.DSN = cfg.DSN()
	}
	return opts
}

// newHTTPServer builds the listener with the configured timeouts.
func newHTTPServer(cfg config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}
}
