// Package config loads application configuration from a YAML file with
// environment variable overrides. Environment always wins so deployments can
// tune a shared file per instance.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Address         string        `yaml:"address"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// CanvasConfig holds the default drawing surface size for new sessions
type CanvasConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// LayoutConfig holds the fixed box geometry used by the layout engine
type LayoutConfig struct {
	BoxWidth     float64 `yaml:"box_width"`
	HeaderHeight float64 `yaml:"header_height"`
	RowHeight    float64 `yaml:"row_height"`
}

// AnalysisConfig holds the analysis backend endpoint and breaker tuning
type AnalysisConfig struct {
	BaseURL          string        `yaml:"base_url"`
	Timeout          time.Duration `yaml:"timeout"`
	BreakerInterval  time.Duration `yaml:"breaker_interval"`
	BreakerTimeout   time.Duration `yaml:"breaker_timeout"`
	FailureThreshold float64       `yaml:"failure_threshold"`
	MinRequests      uint32        `yaml:"min_requests"`
}

// Config holds all application configuration
type Config struct {
	Environment string         `yaml:"environment"`
	Server      ServerConfig   `yaml:"server"`
	Canvas      CanvasConfig   `yaml:"canvas"`
	Layout      LayoutConfig   `yaml:"layout"`
	Analysis    AnalysisConfig `yaml:"analysis"`
	LogLevel    string         `yaml:"log_level"`
	MetricsNS   string         `yaml:"metrics_namespace"`
}

// Default returns the built-in configuration used when no file is present
func Default() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Address:         ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Canvas: CanvasConfig{
			Width:  1600,
			Height: 900,
		},
		Layout: LayoutConfig{
			BoxWidth:     220,
			HeaderHeight: 36,
			RowHeight:    24,
		},
		Analysis: AnalysisConfig{
			BaseURL:          "http://localhost:8000",
			Timeout:          30 * time.Second,
			BreakerInterval:  30 * time.Second,
			BreakerTimeout:   60 * time.Second,
			FailureThreshold: 0.8,
			MinRequests:      5,
		},
		LogLevel:  "info",
		MetricsNS: "relate",
	}
}

// Load reads configuration from the given YAML file, then applies
// environment variable overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.Server.Address = getEnv("SERVER_ADDRESS", c.Server.Address)
	c.Analysis.BaseURL = getEnv("ANALYSIS_BASE_URL", c.Analysis.BaseURL)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.Canvas.Width = getEnvFloat("CANVAS_WIDTH", c.Canvas.Width)
	c.Canvas.Height = getEnvFloat("CANVAS_HEIGHT", c.Canvas.Height)
}

// Validate checks that required configuration is present and sane
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return fmt.Errorf("server address is required")
	}
	if c.Analysis.BaseURL == "" {
		return fmt.Errorf("analysis base_url is required")
	}
	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		return fmt.Errorf("canvas dimensions must be positive")
	}
	if c.Layout.BoxWidth <= 0 || c.Layout.HeaderHeight <= 0 || c.Layout.RowHeight <= 0 {
		return fmt.Errorf("layout geometry must be positive")
	}
	if c.Analysis.FailureThreshold <= 0 || c.Analysis.FailureThreshold > 1 {
		return fmt.Errorf("analysis failure_threshold must be in (0, 1]")
	}
	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvFloat gets a float environment variable with a default value
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
