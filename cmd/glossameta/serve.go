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

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/glossameta/internal/config"
	"github.com/kailas-cloud/glossameta/internal/db"
	"github.com/kailas-cloud/glossameta/internal/db/memory"
	dbRedis "github.com/kailas-cloud/glossameta/internal/db/redis"
	logpkg "github.com/kailas-cloud/glossameta/internal/logger"
	"github.com/kailas-cloud/glossameta/internal/metrics"
	datasetrepo "github.com/kailas-cloud/glossameta/internal/repository/dataset"
	sessionrepo "github.com/kailas-cloud/glossameta/internal/repository/session"
	chiTransport "github.com/kailas-cloud/glossameta/internal/transport/chi"
	filteruc "github.com/kailas-cloud/glossameta/internal/usecase/filter"
	healthuc "github.com/kailas-cloud/glossameta/internal/usecase/health"
	"github.com/kailas-cloud/glossameta/internal/version"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func runServe(ctx context.Context, opts *rootOptions) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}

	logger, err := logpkg.NewLogger(opts.env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting glossameta API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", opts.env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("dataset", cfg.Dataset.Path),
	)

	schema, err := cfg.Schema.Build()
	if err != nil {
		return err
	}

	store, err := newStore(cfg.Database)
	if err != nil {
		return fmt.Errorf("create database store: %w", err)
	}
	defer store.Close()

	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		return fmt.Errorf("database not ready: %w", err)
	}
	logger.Info("Connected to database")

	// Register filter metrics explicitly (no init())
	metrics.RegisterFilterMetrics()

	sessions := sessionrepo.New(store, cfg.Session.KeyPrefix, time.Duration(cfg.Session.TTLMinutes)*time.Minute)
	filterSvc := filteruc.New(schema, sessions, logger, filteruc.WithNullToken(cfg.Dataset.NullToken))

	reload := func(ctx context.Context) error {
		ds, coords, err := loadInputs(ctx, cfg.Dataset, cfg.Schema.IDColumn)
		if err != nil {
			return err
		}
		return filterSvc.Load(ds, coords)
	}
	if err := reload(ctx); err != nil {
		return err
	}

	healthSvc := healthuc.New(store, filterSvc)
	server := chiTransport.NewServer(filterSvc, healthSvc, cfg.Map, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	watcher, err := newDatasetWatcher(cfg.Dataset, func(ctx context.Context) {
		if err := reload(ctx); err != nil {
			logger.Error("Dataset reload failed, keeping previous index", zap.Error(err))
		}
	}, logger)
	if err != nil {
		return err
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if watcher != nil {
		g.Go(func() error { return watcher.Run(gctx) })
	}

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}

// newStore creates the session store for the configured driver.
func newStore(cfg config.DatabaseConfig) (db.Store, error) {
	switch cfg.Driver {
	case "memory":
		return memory.NewStore(), nil
	case "redis", "valkey":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Username: cfg.Username,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// newDatasetWatcher returns nil when watching is disabled.
func newDatasetWatcher(cfg config.DatasetConfig, reload func(context.Context), logger *zap.Logger) (*datasetrepo.Watcher, error) {
	if !cfg.Watch {
		return nil, nil
	}
	w, err := datasetrepo.NewWatcher(
		[]string{cfg.Path, cfg.CoordsPath},
		time.Duration(cfg.DebounceMS)*time.Millisecond,
		reload,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("dataset watcher: %w", err)
	}
	return w, nil
}
