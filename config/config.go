// Package config loads service settings from an optional YAML file, a .env
// file and the process environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"telcochurn/churn"
)

type Config struct {
	Http struct {
		Addr            string        `yaml:"addr"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		IdleTimeout     time.Duration `yaml:"idle_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		AllowedOrigins  []string      `yaml:"allowed_origins"`
	} `yaml:"http"`
	Artifacts struct {
		ModelPath    string `yaml:"model_path"`
		ScalerPath   string `yaml:"scaler_path"`
		EncodersPath string `yaml:"encoders_path"`
		Charset      string `yaml:"charset"`
		Watch        *bool  `yaml:"watch"`
	} `yaml:"artifacts"`
	Predict struct {
		CacheSize int `yaml:"cache_size"`
	} `yaml:"predict"`
	Log struct {
		Level      string `yaml:"level"`
		Format     string `yaml:"format"`
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
		Compress   bool   `yaml:"compress"`
	} `yaml:"log"`
}

func Default() *Config {
	var c Config
	c.Http.Addr = ":8000"
	c.Http.ReadTimeout = 30 * time.Second
	c.Http.WriteTimeout = 30 * time.Second
	c.Http.IdleTimeout = 120 * time.Second
	c.Http.ShutdownTimeout = 10 * time.Second
	c.Http.AllowedOrigins = []string{"*"}
	c.Log.Level = "info"
	c.Log.Format = "json"
	c.Log.MaxSizeMB = 100
	c.Log.MaxBackups = 5
	c.Log.MaxAgeDays = 30
	return &c
}

// Load builds the configuration. path may be empty; a named file that does
// not exist is an error, while a missing .env file is not.
func Load(path string) (*Config, error) {
	config := Default()
	if path != "" {
		if err := loadFile(path, config); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := config.applyEnv(); err != nil {
		return nil, err
	}
	return config, nil
}

func loadFile(path string, config *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Artifacts.ModelPath, "MODEL_PATH")
	setString(&c.Artifacts.ScalerPath, "SCALER_PATH")
	setString(&c.Artifacts.EncodersPath, "ENCODERS_PATH")
	setString(&c.Artifacts.Charset, "ARTIFACT_CHARSET")
	setString(&c.Http.Addr, "HTTP_ADDR")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.File, "LOG_FILE")

	if v := os.Getenv("PREDICT_CACHE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PREDICT_CACHE_SIZE: %w", err)
		}
		c.Predict.CacheSize = n
	}
	if v := os.Getenv("ARTIFACT_WATCH"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("ARTIFACT_WATCH: %w", err)
		}
		c.Artifacts.Watch = &b
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate checks the settings needed to start serving.
func (c *Config) Validate() error {
	var missing []string
	if c.Artifacts.ModelPath == "" {
		missing = append(missing, "MODEL_PATH")
	}
	if c.Artifacts.ScalerPath == "" {
		missing = append(missing, "SCALER_PATH")
	}
	if c.Artifacts.EncodersPath == "" {
		missing = append(missing, "ENCODERS_PATH")
	}
	if len(missing) > 0 {
		return fmt.Errorf("artifact paths not configured: %v", missing)
	}
	if c.Predict.CacheSize < 0 {
		return errors.New("predict.cache_size must not be negative")
	}
	return nil
}

func (c *Config) ArtifactPaths() churn.ArtifactPaths {
	return churn.ArtifactPaths{
		ModelPath:   c.Artifacts.ModelPath,
		ScalerPath:  c.Artifacts.ScalerPath,
		EncodersDir: c.Artifacts.EncodersPath,
		Charset:     c.Artifacts.Charset,
	}
}

// WatchArtifacts defaults to true when unset.
func (c *Config) WatchArtifacts() bool {
	return c.Artifacts.Watch == nil || *c.Artifacts.Watch
}
