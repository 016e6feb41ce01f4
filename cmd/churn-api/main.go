package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"telcochurn/churn"
	"telcochurn/config"
	"telcochurn/logging"
)

var Version = "dev"

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:          "churn-api",
		Short:        "Telco churn prediction API",
		Version:      Version,
		SilenceUsage: true,
		RunE:         runServe,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(predictCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads configuration, builds the logger and loads artifacts.
func setup() (*config.Config, *zap.Logger, *churn.Artifacts, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := logging.New(logging.Options{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, logger, nil, err
	}

	artifacts, err := churn.NewFileLoader(cfg.ArtifactPaths()).Load()
	if err != nil {
		return nil, logger, nil, err
	}
	logger.Info("artifacts loaded",
		zap.String("model_type", artifacts.Info.ModelType),
		zap.Int("features", artifacts.Info.NumFeatures),
		zap.String("scaler", artifacts.Info.ScalerKind),
		zap.Strings("files", artifacts.Info.Files),
	)
	return cfg, logger, artifacts, nil
}
