package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/goccy/go-yaml"
)

// ConfigFileEnv names the optional YAML file read before the environment.
const ConfigFileEnv = "OFFICEMATH_CONFIG"

type Config struct {
	Port string `yaml:"port"`

	// Auth
	APIKey string `yaml:"api_key"`

	// Remote math rendering. Empty URL means the offline renderers.
	MathRenderURL      string        `yaml:"math_render_url"`
	MathRenderAPIKey   string        `yaml:"math_render_api_key"`
	MathRenderAttempts int           `yaml:"math_render_attempts"`
	MathRenderDelay    time.Duration `yaml:"math_render_delay"`
	MathConcurrency    int           `yaml:"math_concurrency"`
	MathStatsWindow    time.Duration `yaml:"math_stats_window"`

	// Worker pool
	WorkerCount  int `yaml:"worker_count"`
	MaxQueueSize int `yaml:"max_queue_size"`

	// Upload limits
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	// Job state
	JobTTL time.Duration `yaml:"job_ttl"`

	// PDF
	PDFFallbackPdftotext bool `yaml:"pdf_fallback_pdftotext"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Port:                 "8090",
		MathRenderAttempts:   3,
		MathRenderDelay:      500 * time.Millisecond,
		MathConcurrency:      4,
		MathStatsWindow:      1 * time.Hour,
		WorkerCount:          4,
		MaxQueueSize:         100,
		MaxUploadBytes:       52428800, // 50MB
		JobTTL:               1 * time.Hour,
		PDFFallbackPdftotext: true,
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// OFFICEMATH_CONFIG if any, then environment variables.
func Load() (Config, error) {
	cfg := Defaults()
	if path := os.Getenv(ConfigFileEnv); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return cfg, err
		}
	}

	cfg.Port = envOr("PORT", cfg.Port)
	cfg.APIKey = envOr("API_KEY", cfg.APIKey)

	cfg.MathRenderURL = envOr("MATH_RENDER_URL", cfg.MathRenderURL)
	cfg.MathRenderAPIKey = envOr("MATH_RENDER_API_KEY", cfg.MathRenderAPIKey)
	cfg.MathRenderAttempts = envInt("MATH_RENDER_ATTEMPTS", cfg.MathRenderAttempts)
	cfg.MathRenderDelay = envDuration("MATH_RENDER_DELAY", cfg.MathRenderDelay)
	cfg.MathConcurrency = envInt("MATH_CONCURRENCY", cfg.MathConcurrency)
	cfg.MathStatsWindow = envDuration("MATH_STATS_WINDOW", cfg.MathStatsWindow)

	cfg.WorkerCount = envInt("WORKER_COUNT", cfg.WorkerCount)
	cfg.MaxQueueSize = envInt("MAX_QUEUE_SIZE", cfg.MaxQueueSize)
	cfg.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)
	cfg.JobTTL = envDuration("JOB_TTL", cfg.JobTTL)
	cfg.PDFFallbackPdftotext = envBool("PDF_FALLBACK_PDFTOTEXT", cfg.PDFFallbackPdftotext)

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.UnmarshalWithOptions(data, c, yaml.Strict()); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// applyDefaults re-applies defaults for non-positive values.
func (c *Config) applyDefaults() {
	d := Defaults()
	if c.Port == "" {
		c.Port = d.Port
	}
	if c.MathRenderAttempts <= 0 {
		c.MathRenderAttempts = d.MathRenderAttempts
	}
	if c.MathRenderDelay <= 0 {
		c.MathRenderDelay = d.MathRenderDelay
	}
	if c.MathConcurrency <= 0 {
		c.MathConcurrency = d.MathConcurrency
	}
	if c.MathStatsWindow <= 0 {
		c.MathStatsWindow = d.MathStatsWindow
	}
	if c.WorkerCount <= 0 {
		c.WorkerCount = d.WorkerCount
	}
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = d.MaxQueueSize
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = d.MaxUploadBytes
	}
	if c.JobTTL <= 0 {
		c.JobTTL = d.JobTTL
	}
}

func (c Config) Validate() error {
	if c.MathRenderURL != "" {
		u, err := url.Parse(c.MathRenderURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("MATH_RENDER_URL must be an http(s) URL, got %q", c.MathRenderURL)
		}
	}
	if c.MathRenderAPIKey != "" && c.MathRenderURL == "" {
		return fmt.Errorf("MATH_RENDER_API_KEY is set but MATH_RENDER_URL is empty")
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("PORT must be numeric, got %q", c.Port)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
