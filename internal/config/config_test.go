package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		ConfigFileEnv, "PORT", "API_KEY", "MATH_RENDER_URL", "MATH_RENDER_API_KEY",
		"MATH_RENDER_ATTEMPTS", "MATH_RENDER_DELAY", "MATH_CONCURRENCY", "MATH_STATS_WINDOW",
		"WORKER_COUNT", "MAX_QUEUE_SIZE", "MAX_UPLOAD_BYTES", "JOB_TTL", "PDF_FALLBACK_PDFTOTEXT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Defaults() {
		t.Errorf("expected defaults, got %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("API_KEY", "secret")
	t.Setenv("MATH_CONCURRENCY", "8")
	t.Setenv("JOB_TTL", "10m")
	t.Setenv("PDF_FALLBACK_PDFTOTEXT", "false")
	t.Setenv("WORKER_COUNT", "-1")
	t.Setenv("MAX_QUEUE_SIZE", "many")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9000" || cfg.APIKey != "secret" || cfg.MathConcurrency != 8 {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.JobTTL != 10*time.Minute || cfg.PDFFallbackPdftotext {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.WorkerCount != 4 {
		t.Errorf("non-positive worker count should fall back to 4, got %d", cfg.WorkerCount)
	}
	if cfg.MaxQueueSize != 100 {
		t.Errorf("unparseable queue size should fall back to 100, got %d", cfg.MaxQueueSize)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "officemath.yaml")
	data := "port: \"7000\"\nmath_render_url: https://render.example.com/tex\nworker_count: 2\njob_ttl: 30m\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigFileEnv, path)
	t.Setenv("WORKER_COUNT", "6")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "7000" || cfg.MathRenderURL != "https://render.example.com/tex" || cfg.JobTTL != 30*time.Minute {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.WorkerCount != 6 {
		t.Errorf("env should win over file, got %d", cfg.WorkerCount)
	}
}

func TestLoad_FileErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"unknown field", "prot: 1\n", "parse config"},
		{"bad type", "worker_count: lots\n", "parse config"},
		{"missing", "", "read config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			path := filepath.Join(t.TempDir(), "c.yaml")
			if tt.data != "" {
				if err := os.WriteFile(path, []byte(tt.data), 0o600); err != nil {
					t.Fatal(err)
				}
			}
			t.Setenv(ConfigFileEnv, path)
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected %q error, got %v", tt.want, err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"remote renderer", func(c *Config) { c.MathRenderURL = "http://localhost:3000/render" }, false},
		{"bad scheme", func(c *Config) { c.MathRenderURL = "ftp://x/render" }, true},
		{"no host", func(c *Config) { c.MathRenderURL = "https://" }, true},
		{"key without url", func(c *Config) { c.MathRenderAPIKey = "k" }, true},
		{"bad port", func(c *Config) { c.Port = "http" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
