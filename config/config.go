// Package config loads gridtap settings from an optional YAML file in the
// data directory.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	dataDirEnv  = "GRIDTAP_HOME"
	dataDirName = ".gridtap"
	fileName    = "config.yaml"
)

type Config struct {
	Policy        string        `yaml:"policy"`
	Delta         float64       `yaml:"delta"`
	Feedback      string        `yaml:"feedback"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	EnableTimeout time.Duration `yaml:"enable_timeout"`
	LogLevel      string        `yaml:"log_level"`
	LiveBuffer    int           `yaml:"live_buffer"`
}

func DefaultConfig() *Config {
	return &Config{
		Policy:        "distance",
		Delta:         30,
		Feedback:      "haptic",
		FlushInterval: time.Second,
		EnableTimeout: 250 * time.Millisecond,
		LogLevel:      "info",
		LiveBuffer:    256,
	}
}

var (
	policies  = []string{"distance", "grid"}
	feedbacks = []string{"haptic", "bell", "log", "none"}
)

func (c *Config) Validate() error {
	var errs []error
	if !contains(policies, c.Policy) {
		errs = append(errs, fmt.Errorf("policy must be one of %s, got %q", strings.Join(policies, "|"), c.Policy))
	}
	if c.Delta <= 0 {
		errs = append(errs, fmt.Errorf("delta must be positive, got %v", c.Delta))
	}
	if !contains(feedbacks, c.Feedback) {
		errs = append(errs, fmt.Errorf("feedback must be one of %s, got %q", strings.Join(feedbacks, "|"), c.Feedback))
	}
	if c.FlushInterval <= 0 {
		errs = append(errs, fmt.Errorf("flush_interval must be positive, got %s", c.FlushInterval))
	}
	if c.EnableTimeout <= 0 {
		errs = append(errs, fmt.Errorf("enable_timeout must be positive, got %s", c.EnableTimeout))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	if c.LiveBuffer <= 0 {
		errs = append(errs, fmt.Errorf("live_buffer must be positive, got %d", c.LiveBuffer))
	}
	return errors.Join(errs...)
}

// Level parses LogLevel as a slog level name.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// LoadFromPath reads path over the defaults. A missing file yields the
// defaults unchanged.
func LoadFromPath(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	} else if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// ResolveDir returns the data directory, creating it if needed.
func ResolveDir() (string, error) {
	dir := os.Getenv(dataDirEnv)
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		dir = filepath.Join(home, dataDirName)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// DefaultPath is config.yaml inside the data directory.
func DefaultPath() (string, error) {
	dir, err := ResolveDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}
