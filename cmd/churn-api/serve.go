package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"telcochurn/churn"
	qhttp "telcochurn/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load artifacts and serve the prediction API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, artifacts, err := setup()
	if logger != nil {
		defer logger.Sync()
	}
	if err != nil {
		if logger != nil {
			logger.Error("cannot start", zap.Error(err))
		}
		return err
	}

	predictor, err := churn.NewPredictor(artifacts, churn.WithCache(cfg.Predict.CacheSize))
	if err != nil {
		return fmt.Errorf("failed to create predictor: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.WatchArtifacts() {
		go func() {
			if err := churn.WatchArtifacts(ctx, artifacts.Info.Files, logger); err != nil {
				logger.Warn("artifact watcher disabled", zap.Error(err))
			}
		}()
	}

	server := qhttp.NewServer(qhttp.ServerConfig{
		Addr:           cfg.Http.Addr,
		ReadTimeout:    cfg.Http.ReadTimeout,
		WriteTimeout:   cfg.Http.WriteTimeout,
		IdleTimeout:    cfg.Http.IdleTimeout,
		AllowedOrigins: cfg.Http.AllowedOrigins,
	}, predictor, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Http.ShutdownTimeout)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
