package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Suite.Name != "storebench" {
		t.Errorf("Expected default suite name to be storebench, got %s", config.Suite.Name)
	}

	if config.Suite.DataScale != "small" {
		t.Errorf("Expected default data scale to be small, got %s", config.Suite.DataScale)
	}

	if len(config.Suite.ConcurrencyLevels) == 0 {
		t.Error("Expected default concurrency levels to be non-empty")
	}

	if !config.Backends.SimpleStore.Enabled || !config.Backends.LocalMemory.Enabled {
		t.Error("Expected credential-free backends to be enabled by default")
	}

	if config.Backends.Redis.Enabled {
		t.Error("Expected redis backend to be disabled by default")
	}

	if err := config.Validate(); err != nil {
		t.Errorf("Default config should validate, got %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tempDir := t.TempDir()
	configFile := filepath.Join(tempDir, "test-config.yaml")

	configContent := `
suite:
  name: "nightly"
  data_scale: "medium"
  concurrency_levels: [1, 10, 50]
  num_queries: 200
  top_k: 5
  stress_duration: 60s

data:
  seed: 7
  num_users: 25

backends:
  redis:
    enabled: true
    addr: "redis.internal:6379"

logging:
  level: "debug"
  format: "text"
`
	if err := os.WriteFile(configFile, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	config, err := Load(configFile)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if config.Suite.Name != "nightly" {
		t.Errorf("Expected suite name nightly, got %s", config.Suite.Name)
	}
	if config.Suite.DataScale != "medium" {
		t.Errorf("Expected data scale medium, got %s", config.Suite.DataScale)
	}
	if len(config.Suite.ConcurrencyLevels) != 3 || config.Suite.ConcurrencyLevels[2] != 50 {
		t.Errorf("Expected concurrency levels [1 10 50], got %v", config.Suite.ConcurrencyLevels)
	}
	if config.Suite.StressDuration != 60*time.Second {
		t.Errorf("Expected stress duration 60s, got %v", config.Suite.StressDuration)
	}
	if config.Data.Seed != 7 {
		t.Errorf("Expected seed 7, got %d", config.Data.Seed)
	}
	if !config.Backends.Redis.Enabled || config.Backends.Redis.Addr != "redis.internal:6379" {
		t.Errorf("Expected redis backend from file, got %+v", config.Backends.Redis)
	}
	if config.Logging.Level != "debug" {
		t.Errorf("Expected log level debug, got %s", config.Logging.Level)
	}

	// Values the file does not mention keep their defaults.
	if config.Report.OutputDir != "./results" {
		t.Errorf("Expected default output dir, got %s", config.Report.OutputDir)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("Expected error for missing config file")
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	tempDir := t.TempDir()
	configFile := filepath.Join(tempDir, "config.toml")
	if err := os.WriteFile(configFile, []byte("name = 1"), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	if _, err := Load(configFile); err == nil {
		t.Error("Expected error for unsupported config format")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SB_SUITE_DATA_SCALE", "tiny")
	t.Setenv("SB_SUITE_NUM_QUERIES", "5")
	t.Setenv("SB_LIMITS_ENABLED", "false")
	t.Setenv("SB_REDIS_ADDR", "envhost:6379")
	t.Setenv("SB_LOG_LEVEL", "warn")

	config, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if config.Suite.DataScale != "tiny" {
		t.Errorf("Expected data scale tiny from env, got %s", config.Suite.DataScale)
	}
	if config.Suite.NumQueries != 5 {
		t.Errorf("Expected 5 queries from env, got %d", config.Suite.NumQueries)
	}
	if config.Limits.Enabled {
		t.Error("Expected limits disabled from env")
	}
	if config.Backends.Redis.Addr != "envhost:6379" {
		t.Errorf("Expected redis addr from env, got %s", config.Backends.Redis.Addr)
	}
	if config.Logging.Level != "warn" {
		t.Errorf("Expected log level warn from env, got %s", config.Logging.Level)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad scale", func(c *Config) { c.Suite.DataScale = "gigantic" }},
		{"no concurrency levels", func(c *Config) { c.Suite.ConcurrencyLevels = nil }},
		{"negative concurrency", func(c *Config) { c.Suite.ConcurrencyLevels = []int{-1} }},
		{"zero queries", func(c *Config) { c.Suite.NumQueries = 0 }},
		{"zero top_k", func(c *Config) { c.Suite.TopK = 0 }},
		{"zero stress duration", func(c *Config) { c.Suite.StressDuration = 0 }},
		{"zero users", func(c *Config) { c.Data.NumUsers = 0 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"empty output dir", func(c *Config) { c.Report.OutputDir = "" }},
		{"redis without addr", func(c *Config) {
			c.Backends.Redis.Enabled = true
			c.Backends.Redis.Addr = ""
		}},
		{"badger disk without path", func(c *Config) {
			c.Backends.Badger.Enabled = true
			c.Backends.Badger.InMemory = false
			c.Backends.Badger.DataPath = ""
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			if err := config.Validate(); err == nil {
				t.Errorf("Expected validation error for %s", tt.name)
			}
		})
	}
}
