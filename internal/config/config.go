// Package config loads application configuration from environment variables
// and an optional YAML file. Environment variables take precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Security SecurityConfig `yaml:"security" envconfig:"SECURITY"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
	Pipeline PipelineConfig `yaml:"pipeline" envconfig:"PIPELINE"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080" validate:"gt=0,lte=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s" validate:"gt=0"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s" validate:"gt=0"`
	// TrainTimeout bounds a single train-and-evaluate request.
	TrainTimeout time.Duration `yaml:"train_timeout" envconfig:"TRAIN_TIMEOUT" default:"10m" validate:"gt=0"`
}

// SecurityConfig contains request-limiting configuration
type SecurityConfig struct {
	RateLimit RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"100" validate:"gt=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"50" validate:"gt=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"both" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/app.log"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataFile   string `yaml:"data_file" envconfig:"DATA_FILE" default:"data/stock_indexes.csv"`
	ModelsDir  string `yaml:"models_dir" envconfig:"MODELS_DIR" default:"models"`
	ReportsDir string `yaml:"reports_dir" envconfig:"REPORTS_DIR" default:"reports"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
}

// PipelineConfig contains feature engineering and training tunables
type PipelineConfig struct {
	ShortWindow  int     `yaml:"short_window" envconfig:"SHORT_WINDOW" default:"5" validate:"gt=0"`
	LongWindow   int     `yaml:"long_window" envconfig:"LONG_WINDOW" default:"20" validate:"gt=0,gtefield=ShortWindow"`
	RSIPeriod    int     `yaml:"rsi_period" envconfig:"RSI_PERIOD" default:"14" validate:"gt=0"`
	LagCount     int     `yaml:"lag_count" envconfig:"LAG_COUNT" default:"3" validate:"gt=0"`
	TargetShift  int     `yaml:"target_shift" envconfig:"TARGET_SHIFT" default:"1" validate:"gt=0"`
	TestFraction float64 `yaml:"test_fraction" envconfig:"TEST_FRACTION" default:"0.2" validate:"gt=0,lt=1"`
	Model        string  `yaml:"model" envconfig:"MODEL" default:"logistic" validate:"oneof=logistic knn tree boosted"`
	KNNNeighbors int     `yaml:"knn_neighbors" envconfig:"KNN_NEIGHBORS" default:"5" validate:"gt=0"`
	TreeMaxDepth int     `yaml:"tree_max_depth" envconfig:"TREE_MAX_DEPTH" default:"10" validate:"gt=0"`
}

var validate = validator.New()

// Load loads configuration from environment variables and config file
func Load() (*Config, error) {
	return LoadFrom(findConfigFile())
}

// LoadFrom loads configuration, reading the YAML file at path when it exists.
// Environment variables with the IDXCAST prefix override file values.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			fileCfg, err := loadFromFile(path)
			if err != nil {
				return nil, fmt.Errorf("failed to load config from file: %w", err)
			}
			cfg = fileCfg
		}
	}

	// Environment variables take precedence over file values.
	if err := envconfig.Process("IDXCAST", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFromFile loads configuration from a YAML file over the defaults
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints via struct tags
func (c *Config) Validate() error {
	return validate.Struct(c)
}

// EnsureDirectories creates the output directories the pipeline writes to
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.ModelsDir, c.Paths.ReportsDir, c.Paths.LogsDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// ModelPath returns the path of the persisted model for a pattern and variant
func (c *Config) ModelPath(pattern, model string) string {
	return filepath.Join(c.Paths.ModelsDir, fmt.Sprintf("%s_%s.gob", sanitize(pattern), model))
}

// ReportPath returns the path of the evaluation report for a run
func (c *Config) ReportPath(runID string) string {
	return filepath.Join(c.Paths.ReportsDir, runID+".json")
}

func sanitize(s string) string {
	out := []rune(s)
	for i, r := range out {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			out[i] = '_'
		}
	}
	return string(out)
}

// findConfigFile returns the first config file found in common locations
func findConfigFile() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			TrainTimeout:    10 * time.Minute,
		},
		Security: SecurityConfig{
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "both",
			FilePath: "logs/app.log",
		},
		Paths: PathsConfig{
			DataFile:   "data/stock_indexes.csv",
			ModelsDir:  "models",
			ReportsDir: "reports",
			LogsDir:    "logs",
		},
		Pipeline: PipelineConfig{
			ShortWindow:  5,
			LongWindow:   20,
			RSIPeriod:    14,
			LagCount:     3,
			TargetShift:  1,
			TestFraction: 0.2,
			Model:        "logistic",
			KNNNeighbors: 5,
			TreeMaxDepth: 10,
		},
	}
}
