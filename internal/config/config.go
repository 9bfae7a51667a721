// Package config provides configuration loading and structs for the swaggerbot server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goel7054/swagger-bot/internal/search"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Specs     SpecsConfig     `yaml:"specs"`
	Search    SearchConfig    `yaml:"search"`
	Knowledge KnowledgeConfig `yaml:"knowledge"`
	Storage   StorageConfig   `yaml:"storage"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host              string   `yaml:"host"`
	Port              int      `yaml:"port"`
	CORSOrigins       []string `yaml:"cors_origins"`
	RequestTimeoutSec int      `yaml:"request_timeout_sec"`
}

// SpecsConfig lists the specification files and directories to load.
type SpecsConfig struct {
	Paths        []string `yaml:"paths"`
	Extensions   []string `yaml:"extensions"`
	Recursive    *bool    `yaml:"recursive"`
	Watch        bool     `yaml:"watch"`
	ParseWorkers int      `yaml:"parse_workers"`
	Validate     *bool    `yaml:"validate"`
}

// RecursiveOrDefault returns whether directories are scanned recursively; defaults to true when unset.
func (s *SpecsConfig) RecursiveOrDefault() bool {
	if s.Recursive != nil {
		return *s.Recursive
	}
	return true
}

// ValidateOrDefault returns whether documents get a shape check; defaults to true when unset.
func (s *SpecsConfig) ValidateOrDefault() bool {
	if s.Validate != nil {
		return *s.Validate
	}
	return true
}

// SearchConfig holds fuzzy and keyword search settings.
type SearchConfig struct {
	// Threshold is a pointer because 0 is a valid, strict setting.
	Threshold    *float64            `yaml:"threshold"`
	TopK         int                 `yaml:"top_k"`
	Weights      search.FieldWeights `yaml:"weights"`
	DefaultLimit int                 `yaml:"default_limit"`
	MaxLimit     int                 `yaml:"max_limit"`
}

// ThresholdOrDefault returns the configured threshold or the engine default.
func (s *SearchConfig) ThresholdOrDefault() float64 {
	if s.Threshold != nil {
		return *s.Threshold
	}
	return search.DefaultThreshold
}

// EngineOptions converts the settings to fuzzy engine options.
func (s *SearchConfig) EngineOptions() search.Options {
	return search.Options{
		Threshold: s.ThresholdOrDefault(),
		TopK:      s.TopK,
		Weights:   s.Weights,
	}
}

// KnowledgeConfig points at an optional YAML file replacing the built-in
// greeting, menu and FAQ tables.
type KnowledgeConfig struct {
	Path string `yaml:"path"`
}

// StorageConfig holds the spec catalog database path.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled *bool `yaml:"enabled"`
}

// EnabledOrDefault returns whether /metrics is served; defaults to true when unset.
func (m *MetricsConfig) EnabledOrDefault() bool {
	if m.Enabled != nil {
		return *m.Enabled
	}
	return true
}

// Load reads and parses the config file at path, expands ${VAR} references
// and paths, applies defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	// Weights start at their defaults so a file can override just one.
	cfg := Config{Search: SearchConfig{Weights: search.DefaultFieldWeights()}}
	if err := yaml.Unmarshal(expandEnvVars(data), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	if cfg.Knowledge.Path != "" {
		cfg.Knowledge.Path = expandPath(cfg.Knowledge.Path, configDir)
	}
	for i := range cfg.Specs.Paths {
		cfg.Specs.Paths[i] = expandPath(cfg.Specs.Paths[i], configDir)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Default returns a config with every default applied, for running without a file.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if len(c.Specs.Paths) == 0 {
		return fmt.Errorf("specs.paths is required")
	}
	if c.Specs.ParseWorkers < 1 {
		return fmt.Errorf("specs.parse_workers must be at least 1, got %d", c.Specs.ParseWorkers)
	}
	if th := c.Search.ThresholdOrDefault(); th < 0 || th > 1 {
		return fmt.Errorf("search.threshold must be between 0 and 1, got %g", th)
	}
	if c.Search.TopK < 1 {
		return fmt.Errorf("search.top_k must be at least 1, got %d", c.Search.TopK)
	}
	w := c.Search.Weights
	for name, v := range map[string]float64{
		"summary":      w.Summary,
		"description":  w.Description,
		"path":         w.Path,
		"method":       w.Method,
		"operation_id": w.OperationID,
		"tags":         w.Tags,
		"parameters":   w.Parameters,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("search.weights.%s must be between 0 and 1, got %g", name, v)
		}
	}
	if c.Search.DefaultLimit > c.Search.MaxLimit {
		return fmt.Errorf("search.default_limit (%d) exceeds search.max_limit (%d)", c.Search.DefaultLimit, c.Search.MaxLimit)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if strings.HasPrefix(path, "~/") {
		path = path[2:]
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}

// envVarRegex matches ${VAR} and ${VAR:-default}.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
