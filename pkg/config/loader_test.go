package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/eventual-app/eventual/pkg/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.NewViperLoader("").Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.HTTP.Port != 8000 {
		t.Errorf("http port = %d, want 8000", cfg.HTTP.Port)
	}
	if cfg.Management.Port != 9090 {
		t.Errorf("management port = %d, want 9090", cfg.Management.Port)
	}
	if cfg.Database.URL != "mongodb://localhost:27017" {
		t.Errorf("database url = %q", cfg.Database.URL)
	}
	if cfg.Database.Database != "eventual" {
		t.Errorf("database name = %q", cfg.Database.Database)
	}
	if cfg.Media.Enabled {
		t.Error("media should be disabled by default")
	}
	if cfg.Observability.LogLevel != "info" || cfg.Observability.LogFormat != "json" {
		t.Errorf("observability defaults = %q/%q", cfg.Observability.LogLevel, cfg.Observability.LogFormat)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("EVENTUAL_HTTP_PORT", "8080")
	t.Setenv("EVENTUAL_MONGODB_URL", "mongodb://db.internal:27017")
	t.Setenv("EVENTUAL_DATABASE_NAME", "staging")
	t.Setenv("EVENTUAL_LOG_LEVEL", "debug")

	cfg, err := config.NewViperLoader("").Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.HTTP.Port != 8080 {
		t.Errorf("http port = %d, want 8080", cfg.HTTP.Port)
	}
	if cfg.Database.URL != "mongodb://db.internal:27017" {
		t.Errorf("database url = %q", cfg.Database.URL)
	}
	if cfg.Database.Database != "staging" {
		t.Errorf("database name = %q", cfg.Database.Database)
	}
	if cfg.Observability.LogLevel != "debug" {
		t.Errorf("log level = %q", cfg.Observability.LogLevel)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := strings.Join([]string{
		"http:",
		"  port: 8123",
		"database:",
		"  url: mongodb://file-host:27017",
		"  database: fromfile",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, err := config.NewViperLoader(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Port != 8123 {
		t.Errorf("http port = %d, want 8123", cfg.HTTP.Port)
	}
	if cfg.Database.Database != "fromfile" {
		t.Errorf("database name = %q", cfg.Database.Database)
	}
	// Keys absent from the file keep their defaults.
	if cfg.Management.Port != 9090 {
		t.Errorf("management port = %d, want 9090", cfg.Management.Port)
	}
}

func TestLoadEnvBeatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("http:\n  port: 8123\n"), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("EVENTUAL_HTTP_PORT", "8999")

	cfg, err := config.NewViperLoader(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Port != 8999 {
		t.Errorf("http port = %d, want 8999", cfg.HTTP.Port)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.NewViperLoader(filepath.Join(t.TempDir(), "absent.yaml")).Load()
	if err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}

func TestValidate(t *testing.T) {
	loader := config.NewViperLoader("")

	cases := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{
			name:    "bad http port",
			mutate:  func(c *config.Config) { c.HTTP.Port = 0 },
			wantErr: "http.port",
		},
		{
			name: "management port collides",
			mutate: func(c *config.Config) {
				c.Management.Enabled = true
				c.Management.Port = c.HTTP.Port
			},
			wantErr: "management.port must differ",
		},
		{
			name:    "empty database url",
			mutate:  func(c *config.Config) { c.Database.URL = "  " },
			wantErr: "database.url",
		},
		{
			name:    "media enabled without bucket",
			mutate:  func(c *config.Config) { c.Media.Enabled = true; c.Media.Bucket = "" },
			wantErr: "media.bucket",
		},
		{
			name: "rate limit without budget",
			mutate: func(c *config.Config) {
				c.RateLimit.Enabled = true
				c.RateLimit.RequestsPerSecond = 0
			},
			wantErr: "rate_limit.requests_per_second",
		},
		{
			name:    "unknown log level",
			mutate:  func(c *config.Config) { c.Observability.LogLevel = "verbose" },
			wantErr: "log_level",
		},
		{
			name:    "unknown log format",
			mutate:  func(c *config.Config) { c.Observability.LogFormat = "xml" },
			wantErr: "log_format",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tc.mutate(cfg)
			err := loader.Validate(cfg)
			if err == nil {
				t.Fatal("expected a validation error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}

	if err := loader.Validate(config.DefaultConfig()); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}
