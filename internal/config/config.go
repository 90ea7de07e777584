package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Suite    SuiteConfig    `yaml:"suite" json:"suite"`
	Data     DataConfig     `yaml:"data" json:"data"`
	Limits   LimitsConfig   `yaml:"limits" json:"limits"`
	Backends BackendsConfig `yaml:"backends" json:"backends"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
	Tracing  TracingConfig  `yaml:"tracing" json:"tracing"`
	Report   ReportConfig   `yaml:"report" json:"report"`
}

// SuiteConfig controls which combinations a benchmark suite runs.
type SuiteConfig struct {
	Name              string        `yaml:"name" json:"name"`
	DataScale         string        `yaml:"data_scale" json:"data_scale"`
	ConcurrencyLevels []int         `yaml:"concurrency_levels" json:"concurrency_levels"`
	NumQueries        int           `yaml:"num_queries" json:"num_queries"`
	TopK              int           `yaml:"top_k" json:"top_k"`
	StressDuration    time.Duration `yaml:"stress_duration" json:"stress_duration"`
	StressWarmup      time.Duration `yaml:"stress_warmup" json:"stress_warmup"`
}

// DataConfig holds synthetic data generation settings.
type DataConfig struct {
	Seed          int64 `yaml:"seed" json:"seed"`
	ContentLength int   `yaml:"content_length" json:"content_length"`
	NumUsers      int   `yaml:"num_users" json:"num_users"`
}

// LimitsConfig toggles request rate limiting for cloud-backed services.
type LimitsConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

type BackendsConfig struct {
	SimpleStore SimpleStoreConfig `yaml:"simple_store" json:"simple_store"`
	Badger      BadgerConfig      `yaml:"badger" json:"badger"`
	LocalMemory LocalMemoryConfig `yaml:"local_memory" json:"local_memory"`
	Redis       RedisConfig       `yaml:"redis" json:"redis"`
}

type SimpleStoreConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

type BadgerConfig struct {
	Enabled    bool   `yaml:"enabled" json:"enabled"`
	DataPath   string `yaml:"data_path" json:"data_path"`
	InMemory   bool   `yaml:"in_memory" json:"in_memory"`
	SyncWrites bool   `yaml:"sync_writes" json:"sync_writes"`
}

type LocalMemoryConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	Addr     string `yaml:"addr" json:"addr"`
	Password string `yaml:"password" json:"password"`
	DB       int    `yaml:"db" json:"db"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	Output string `yaml:"output" json:"output"`
}

type TracingConfig struct {
	Enabled        bool              `yaml:"enabled" json:"enabled"`
	ServiceName    string            `yaml:"service_name" json:"service_name"`
	ServiceVersion string            `yaml:"service_version" json:"service_version"`
	Environment    string            `yaml:"environment" json:"environment"`
	ExporterType   string            `yaml:"exporter_type" json:"exporter_type"`
	JaegerEndpoint string            `yaml:"jaeger_endpoint" json:"jaeger_endpoint"`
	OTLPEndpoint   string            `yaml:"otlp_endpoint" json:"otlp_endpoint"`
	OTLPHeaders    map[string]string `yaml:"otlp_headers" json:"otlp_headers"`
	SamplingRatio  float64           `yaml:"sampling_ratio" json:"sampling_ratio"`
}

type ReportConfig struct {
	OutputDir    string        `yaml:"output_dir" json:"output_dir"`
	ServeAddr    string        `yaml:"serve_addr" json:"serve_addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" json:"idle_timeout"`
}

func Load(configPath string) (*Config, error) {
	config := DefaultConfig()

	if configPath != "" {
		if err := loadFromFile(config, configPath); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	loadFromEnvironment(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func DefaultConfig() *Config {
	return &Config{
		Suite: SuiteConfig{
			Name:              "storebench",
			DataScale:         "small",
			ConcurrencyLevels: []int{1, 5, 10},
			NumQueries:        50,
			TopK:              10,
			StressDuration:    30 * time.Second,
			StressWarmup:      5 * time.Second,
		},
		Data: DataConfig{
			Seed:          42,
			ContentLength: 400,
			NumUsers:      10,
		},
		Limits: LimitsConfig{
			Enabled: true,
		},
		Backends: BackendsConfig{
			SimpleStore: SimpleStoreConfig{
				Enabled: true,
			},
			Badger: BadgerConfig{
				Enabled:    false,
				DataPath:   "./data/badger",
				InMemory:   true,
				SyncWrites: false,
			},
			LocalMemory: LocalMemoryConfig{
				Enabled: true,
			},
			Redis: RedisConfig{
				Enabled:  false,
				Addr:     "localhost:6379",
				Password: "",
				DB:       0,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Tracing: TracingConfig{
			Enabled:        false,
			ServiceName:    "storebench",
			ServiceVersion: "1.0.0",
			Environment:    "development",
			ExporterType:   "console",
			JaegerEndpoint: "http://localhost:14268/api/traces",
			OTLPEndpoint:   "http://localhost:4318",
			OTLPHeaders:    make(map[string]string),
			SamplingRatio:  1.0,
		},
		Report: ReportConfig{
			OutputDir:    "./results",
			ServeAddr:    "localhost:8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
	}
}

func loadFromFile(config *Config, configPath string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(configPath))

	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, config); err != nil {
			return fmt.Errorf("failed to unmarshal YAML config: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config file format: %s", ext)
	}

	return nil
}

func loadFromEnvironment(config *Config) {
	// Suite configuration
	if name := os.Getenv("SB_SUITE_NAME"); name != "" {
		config.Suite.Name = name
	}
	if scale := os.Getenv("SB_SUITE_DATA_SCALE"); scale != "" {
		config.Suite.DataScale = scale
	}
	if queries := os.Getenv("SB_SUITE_NUM_QUERIES"); queries != "" {
		if n, err := strconv.Atoi(queries); err == nil {
			config.Suite.NumQueries = n
		}
	}
	if topK := os.Getenv("SB_SUITE_TOP_K"); topK != "" {
		if n, err := strconv.Atoi(topK); err == nil {
			config.Suite.TopK = n
		}
	}

	// Data configuration
	if seed := os.Getenv("SB_DATA_SEED"); seed != "" {
		if n, err := strconv.ParseInt(seed, 10, 64); err == nil {
			config.Data.Seed = n
		}
	}
	if users := os.Getenv("SB_DATA_NUM_USERS"); users != "" {
		if n, err := strconv.Atoi(users); err == nil {
			config.Data.NumUsers = n
		}
	}

	// Limits configuration
	if enabled := os.Getenv("SB_LIMITS_ENABLED"); enabled != "" {
		if b, err := strconv.ParseBool(enabled); err == nil {
			config.Limits.Enabled = b
		}
	}

	// Backend configuration
	if enabled := os.Getenv("SB_BADGER_ENABLED"); enabled != "" {
		if b, err := strconv.ParseBool(enabled); err == nil {
			config.Backends.Badger.Enabled = b
		}
	}
	if dataPath := os.Getenv("SB_BADGER_DATA_PATH"); dataPath != "" {
		config.Backends.Badger.DataPath = dataPath
	}
	if inMemory := os.Getenv("SB_BADGER_IN_MEMORY"); inMemory != "" {
		if b, err := strconv.ParseBool(inMemory); err == nil {
			config.Backends.Badger.InMemory = b
		}
	}
	if enabled := os.Getenv("SB_REDIS_ENABLED"); enabled != "" {
		if b, err := strconv.ParseBool(enabled); err == nil {
			config.Backends.Redis.Enabled = b
		}
	}
	if addr := os.Getenv("SB_REDIS_ADDR"); addr != "" {
		config.Backends.Redis.Addr = addr
	}
	if password := os.Getenv("SB_REDIS_PASSWORD"); password != "" {
		config.Backends.Redis.Password = password
	}

	// Logging configuration
	if level := os.Getenv("SB_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("SB_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}

	// Report configuration
	if dir := os.Getenv("SB_REPORT_OUTPUT_DIR"); dir != "" {
		config.Report.OutputDir = dir
	}
	if addr := os.Getenv("SB_REPORT_SERVE_ADDR"); addr != "" {
		config.Report.ServeAddr = addr
	}
}

func (c *Config) Validate() error {
	// Suite validation
	validScales := map[string]bool{
		"tiny": true, "small": true, "medium": true, "large": true,
	}
	if !validScales[c.Suite.DataScale] {
		return fmt.Errorf("invalid data scale: %s", c.Suite.DataScale)
	}
	if len(c.Suite.ConcurrencyLevels) == 0 {
		return fmt.Errorf("at least one concurrency level is required")
	}
	for _, level := range c.Suite.ConcurrencyLevels {
		if level <= 0 {
			return fmt.Errorf("invalid concurrency level: %d", level)
		}
	}
	if c.Suite.NumQueries <= 0 {
		return fmt.Errorf("number of queries must be positive")
	}
	if c.Suite.TopK <= 0 {
		return fmt.Errorf("top_k must be positive")
	}
	if c.Suite.StressDuration <= 0 {
		return fmt.Errorf("stress duration must be positive")
	}
	if c.Suite.StressWarmup < 0 {
		return fmt.Errorf("stress warmup cannot be negative")
	}

	// Data validation
	if c.Data.ContentLength <= 0 {
		return fmt.Errorf("content length must be positive")
	}
	if c.Data.NumUsers <= 0 {
		return fmt.Errorf("number of users must be positive")
	}

	// Backend validation
	if c.Backends.Badger.Enabled && !c.Backends.Badger.InMemory && c.Backends.Badger.DataPath == "" {
		return fmt.Errorf("badger data path cannot be empty when not using in-memory mode")
	}
	if c.Backends.Redis.Enabled && c.Backends.Redis.Addr == "" {
		return fmt.Errorf("redis address cannot be empty when redis is enabled")
	}

	// Logging validation
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	validFormats := map[string]bool{
		"json": true, "text": true, "console": true,
	}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	// Report validation
	if c.Report.OutputDir == "" {
		return fmt.Errorf("report output directory cannot be empty")
	}
	if c.Report.ReadTimeout <= 0 || c.Report.WriteTimeout <= 0 {
		return fmt.Errorf("report server timeouts must be positive")
	}

	return nil
}

func (c *Config) String() string {
	data, _ := yaml.Marshal(c)
	return string(data)
}
