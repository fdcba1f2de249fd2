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

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/eigencurve/internal/config"
	dbRedis "github.com/kailas-cloud/eigencurve/internal/db/redis"
	"github.com/kailas-cloud/eigencurve/internal/domain"
	logpkg "github.com/kailas-cloud/eigencurve/internal/logger"
	artifactrepo "github.com/kailas-cloud/eigencurve/internal/repository/artifact"
	chiTransport "github.com/kailas-cloud/eigencurve/internal/transport/chi"
	codecuc "github.com/kailas-cloud/eigencurve/internal/usecase/codec"
	healthuc "github.com/kailas-cloud/eigencurve/internal/usecase/health"
	"github.com/kailas-cloud/eigencurve/internal/version"
)

func newServeCmd(a *app) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the codec over HTTP",
		Long: `Loads the model named by storage.model_key from Redis when the database is
enabled, or the artifact at storage.artifact_path otherwise, and serves the
encode/decode API until SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if port > 0 {
				a.cfg.HTTP.Port = port
			}
			return runServe(cmd.Context(), a)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "HTTP port (default from config)")
	return cmd
}

func runServe(ctx context.Context, a *app) error {
	cfg := a.cfg
	logger, err := logpkg.NewLogger(a.env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting eigencurve API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", a.env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Bool("db_enabled", cfg.Database.Enabled),
	)

	// Pass nil interfaces (not typed nil pointers!) when the database is disabled.
	var (
		models codecuc.ModelStore
		pinger healthuc.DBPinger
	)
	if cfg.Database.Enabled {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Username: cfg.Database.Username,
			Password: cfg.Database.Password,
			DB:       cfg.Database.DB,
		})
		if err != nil {
			return fmt.Errorf("create database store: %w", err)
		}
		defer store.Close()

		if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
			return fmt.Errorf("database not ready: %w", err)
		}
		logger.Info("Connected to database", zap.Strings("addrs", cfg.Database.Addrs))

		models = artifactrepo.New(store, cfg.Storage.KeyPrefix)
		pinger = store
	}

	codecSvc := codecuc.New(models, logger).WithMaxBatchSize(cfg.HTTP.MaxBatchSize)
	loadInitialModel(ctx, codecSvc, cfg, logger)

	healthSvc := healthuc.New(pinger, codecSvc)
	server := chiTransport.NewServer(codecSvc, healthSvc, logger)
	handler := chiTransport.NewRouter(server, logger, cfg.Auth.APIKeys)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	case <-quit:
		logger.Info("Received shutdown signal")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}

// loadInitialModel activates the configured model. A missing model is logged
// and the server starts unhealthy until PUT /v1/model succeeds.
func loadInitialModel(ctx context.Context, svc *codecuc.Service, cfg config.Config, logger *zap.Logger) {
	name := cfg.Storage.ModelKey

	if cfg.Database.Enabled {
		if err := svc.Activate(ctx, name); err != nil {
			logger.Warn("Model not activated", zap.String("model", name), zap.Error(err))
			return
		}
		logger.Info("Model activated", zap.String("model", name))
		return
	}

	if cfg.Storage.ArtifactPath == "" {
		logger.Warn("No model source configured")
		return
	}
	d, err := artifactrepo.NewFileStore().Load(cfg.Storage.ArtifactPath)
	if err == nil {
		err = svc.Use(name, d)
	}
	if err != nil {
		level := zap.WarnLevel
		if errors.Is(err, domain.ErrMalformedArtifact) {
			level = zap.ErrorLevel
		}
		logger.Log(level, "Model not loaded", zap.String("path", cfg.Storage.ArtifactPath), zap.Error(err))
		return
	}
	logger.Info("Model loaded", zap.String("model", name), zap.String("path", cfg.Storage.ArtifactPath))
}
