// Package config loads runtime configuration for the detector in three
// layers — built-in defaults, an optional YAML file, then environment
// variables — matching the layering the rest of the pack uses for
// Koanf-based configuration (spec.md §6).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config is the fully resolved runtime configuration for one process.
type Config struct {
	MaxBacklinks int `koanf:"max_backlinks"`

	HighRiskThreshold   float64 `koanf:"high_risk_threshold"`
	MediumRiskThreshold float64 `koanf:"medium_risk_threshold"`
	MinhashThreshold    float64 `koanf:"minhash_threshold"`

	ClassifierModelPath string `koanf:"classifier_model_path"`

	UseEnsemble           bool `koanf:"use_ensemble"`
	UseEnhancedFeatures   bool `koanf:"use_enhanced_features"`
	UseParallelProcessing bool `koanf:"use_parallel_processing"`

	ParallelWorkers   int `koanf:"parallel_workers"`
	ParallelThreshold int `koanf:"parallel_threshold"`

	// RedisURL chooses where the advisory cache lives; the pack carries
	// no Redis client, so it is repurposed as a Badger working-directory
	// hint rather than a connection string. The cache is opened either
	// way: an empty value gives an in-memory store (see CacheDir).
	RedisURL string `koanf:"redis_url"`

	Port string `koanf:"port"`

	Logging LoggingConfig `koanf:"logging"`
}

// LoggingConfig controls the zerolog bootstrap.
type LoggingConfig struct {
	Level string `koanf:"level"`
	Format string `koanf:"format"`
}

// ConfigPathEnvVar overrides the default config-file search.
const ConfigPathEnvVar = "PBN_CONFIG_PATH"

// DefaultConfigPaths are searched, in order, when ConfigPathEnvVar is unset.
var DefaultConfigPaths = []string{
	"pbn-detector.yaml",
	"pbn-detector.yml",
	"/etc/pbn-detector/config.yaml",
}

func defaults() map[string]any {
	return map[string]any{
		"max_backlinks":           1000,
		"high_risk_threshold":     0.75,
		"medium_risk_threshold":   0.5,
		"minhash_threshold":       0.8,
		"classifier_model_path":   "",
		"use_ensemble":            true,
		"use_enhanced_features":   true,
		"use_parallel_processing": true,
		"parallel_workers":        4,
		"parallel_threshold":      50,
		"redis_url":               "",
		"port":                    "8080",
		"logging.level":           "info",
		"logging.format":          "json",
	}
}

// envMappings maps the literal environment variable names from spec.md §6
// to koanf dotted paths. Anything not listed here is ignored, so stray
// environment variables never leak into the resolved config.
var envMappings = map[string]string{
	"PBN_MAX_BACKLINKS":        "max_backlinks",
	"HIGH_RISK_THRESHOLD":      "high_risk_threshold",
	"MEDIUM_RISK_THRESHOLD":    "medium_risk_threshold",
	"MINHASH_THRESHOLD":        "minhash_threshold",
	"CLASSIFIER_MODEL_PATH":    "classifier_model_path",
	"USE_ENSEMBLE":             "use_ensemble",
	"USE_ENHANCED_FEATURES":    "use_enhanced_features",
	"USE_PARALLEL_PROCESSING":  "use_parallel_processing",
	"PARALLEL_WORKERS":         "parallel_workers",
	"PARALLEL_THRESHOLD":       "parallel_threshold",
	"REDIS_URL":                "redis_url",
	"PORT":                     "port",
	"LOG_LEVEL":                "logging.level",
	"LOG_FORMAT":               "logging.format",
}

func envTransform(key string) string {
	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}

// Load resolves configuration from defaults, an optional YAML file, and
// environment variables, in that precedence order.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("config: load env: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.MaxBacklinks <= 0 {
		return fmt.Errorf("max_backlinks must be positive, got %d", c.MaxBacklinks)
	}
	if c.ParallelWorkers <= 0 {
		return fmt.Errorf("parallel_workers must be positive, got %d", c.ParallelWorkers)
	}
	if c.HighRiskThreshold <= c.MediumRiskThreshold {
		return fmt.Errorf("high_risk_threshold (%v) must exceed medium_risk_threshold (%v)", c.HighRiskThreshold, c.MediumRiskThreshold)
	}
	return nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// CacheDir derives the Badger working directory from RedisURL: an empty
// value returns "" (an in-memory store), a filesystem-looking value is
// used directly, and a URL (a redis:// address) falls back to a
// process-local temp directory since no Redis client exists in this stack
// to honor the URL literally.
func (c *Config) CacheDir() string {
	if c.RedisURL == "" {
		return ""
	}
	if strings.HasPrefix(c.RedisURL, "/") || strings.HasPrefix(c.RedisURL, "./") {
		return c.RedisURL
	}
	if !strings.Contains(c.RedisURL, "://") {
		return c.RedisURL
	}
	return os.TempDir() + "/pbn-detector-cache-" + sanitize(c.RedisURL)
}

func sanitize(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return strconv.Itoa(len(s))
	}
	return b.String()
}
