// Package config loads the service configuration from config.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = "config.yaml"

// Config holds the application configuration.
type Config struct {
	Http struct {
		Port           int           `yaml:"port" validate:"min=1,max=65535"`
		Timeout        time.Duration `yaml:"timeout" validate:"gt=0"`
		AllowedOrigins []string      `yaml:"allowed_origins"`
		RateLimit      struct {
			RPS   float64 `yaml:"rps" validate:"gte=0"`
			Burst int     `yaml:"burst" validate:"gte=0"`
		} `yaml:"rate_limit"`
	} `yaml:"http"`
	Log      Log `yaml:"log"`
	ML       ML  `yaml:"ml"`
	Decision struct {
		DefaultThreshold float64 `yaml:"default_threshold" validate:"gte=0,lte=1"`
	} `yaml:"decision"`
}

// Log configures the zap logger and its rotating file sink.
type Log struct {
	Level       string `yaml:"level" validate:"oneof=debug info warn error"`
	Development bool   `yaml:"development"`
	File        string `yaml:"file"`
	MaxSizeMB   int    `yaml:"max_size_mb" validate:"gte=0"`
	MaxBackups  int    `yaml:"max_backups" validate:"gte=0"`
	MaxAgeDays  int    `yaml:"max_age_days" validate:"gte=0"`
}

// ML points at the serialized classifier.
type ML struct {
	ModelType string `yaml:"model_type" validate:"omitempty,oneof=random_forest decision_tree logistic_regression"`
	ModelPath string `yaml:"model_path" validate:"required"`
	Watch     bool   `yaml:"watch"`
	CacheSize int    `yaml:"cache_size" validate:"gte=0"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	var cfg Config
	cfg.Http.Port = 8501
	cfg.Http.Timeout = 30 * time.Second
	cfg.Http.AllowedOrigins = []string{"*"}
	cfg.Http.RateLimit.RPS = 20
	cfg.Http.RateLimit.Burst = 40
	cfg.Log = Log{
		Level:      "info",
		MaxSizeMB:  100,
		MaxBackups: 3,
		MaxAgeDays: 28,
	}
	cfg.ML = ML{
		ModelType: "random_forest",
		ModelPath: filepath.Join("models", "fraud_detection_rf.json"),
		CacheSize: 1024,
	}
	cfg.Decision.DefaultThreshold = 0.27
	return &cfg
}

// Load decodes the file at path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	cfg := Default()
	if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Resolve finds config.yaml in the working directory or its parent (when run
// from cmd/) and loads it. A missing file yields the defaults; relative paths
// inside a parent config are rebased onto the parent directory.
func Resolve() (*Config, string, error) {
	candidates := []string{DefaultPath, filepath.Join("..", DefaultPath)}
	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, "", err
		}
		cfg, err := Load(path)
		if err != nil {
			return nil, path, err
		}
		cfg.rebase(filepath.Dir(path))
		return cfg, path, nil
	}
	return Default(), "", nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *Config) rebase(dir string) {
	if dir == "." || dir == "" {
		return
	}
	if c.ML.ModelPath != "" && !filepath.IsAbs(c.ML.ModelPath) {
		c.ML.ModelPath = filepath.Join(dir, c.ML.ModelPath)
	}
	if c.Log.File != "" && !filepath.IsAbs(c.Log.File) {
		c.Log.File = filepath.Join(dir, c.Log.File)
	}
}
