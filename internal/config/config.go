package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the voucher search service configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Generator GeneratorConfig `yaml:"generator"`
	Auth      AuthConfig      `yaml:"auth"`
	Search    SearchConfig    `yaml:"search"`
	RAG       RAGConfig       `yaml:"rag"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds Redis connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// EmbeddingConfig holds the single text-embedding provider's settings.
type EmbeddingConfig struct {
	APIKey              string `yaml:"api_key"`
	BaseURL             string `yaml:"base_url"`
	Model               string `yaml:"model"`
	Dimensions          int    `yaml:"dimensions"`
	DocumentInstruction string `yaml:"document_instruction"`
	QueryInstruction    string `yaml:"query_instruction"`
}

// GeneratorConfig holds the RAG chat-completion provider's settings.
type GeneratorConfig struct {
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
}

// AdaptiveDeltas are the query-time weight bumps applied over the index-time
// combined-embedding weights when the corresponding query component is
// present (documentation aid for Step A field selection; see §4.6 Step B).
type AdaptiveDeltas struct {
	Location float64 `yaml:"location"`
	Service  float64 `yaml:"service"`
	Target   float64 `yaml:"target"`
}

// SearchConfig holds retrieval and re-ranking tunables.
type SearchConfig struct {
	EmbeddingDimension  int            `yaml:"embedding_dimension"`
	LexicalSaturation   float64        `yaml:"lexical_saturation"`
	OverFetchMultiplier int            `yaml:"over_fetch_multiplier"`
	HardCap             int            `yaml:"hard_cap"`
	QueryTimeDeltas     AdaptiveDeltas `yaml:"query_time_adaptive_deltas"`
}

// RAGConfig holds RAG composition and backpressure tunables.
type RAGConfig struct {
	MaxContextTokens     int     `yaml:"max_context_tokens"`
	GeneratorTemperature float64 `yaml:"generator_temperature"`
	ConcurrencyLimit     int     `yaml:"rag_concurrency_limit"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "voucherd:"
	}

	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 768
	}
	if c.Embedding.DocumentInstruction == "" {
		c.Embedding.DocumentInstruction = "Represent this Vietnamese voucher description for retrieval:"
	}
	if c.Embedding.QueryInstruction == "" {
		c.Embedding.QueryInstruction = "Represent this Vietnamese search query for retrieving relevant vouchers:"
	}

	if c.Generator.Temperature == 0 {
		c.Generator.Temperature = 0.3
	}

	if c.Search.EmbeddingDimension <= 0 {
		c.Search.EmbeddingDimension = 768
	}
	if c.Search.LexicalSaturation <= 0 {
		c.Search.LexicalSaturation = 20
	}
	if c.Search.OverFetchMultiplier <= 0 {
		c.Search.OverFetchMultiplier = 3
	}
	if c.Search.HardCap <= 0 {
		c.Search.HardCap = 50
	}
	if c.Search.QueryTimeDeltas.Location == 0 {
		c.Search.QueryTimeDeltas.Location = 0.20
	}
	if c.Search.QueryTimeDeltas.Service == 0 {
		c.Search.QueryTimeDeltas.Service = 0.15
	}
	if c.Search.QueryTimeDeltas.Target == 0 {
		c.Search.QueryTimeDeltas.Target = 0.10
	}

	if c.RAG.MaxContextTokens <= 0 {
		c.RAG.MaxContextTokens = 4000
	}
	if c.RAG.GeneratorTemperature == 0 {
		c.RAG.GeneratorTemperature = 0.3
	}
	if c.RAG.ConcurrencyLimit <= 0 {
		c.RAG.ConcurrencyLimit = 8
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Search.HardCap < 1 {
		return fmt.Errorf("search.hard_cap must be positive, got %d", c.Search.HardCap)
	}
	if c.RAG.ConcurrencyLimit < 1 {
		return fmt.Errorf("rag.rag_concurrency_limit must be positive, got %d", c.RAG.ConcurrencyLimit)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
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
