// Package config loads the per-environment YAML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Cache backends.
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// Config holds the flyerdex service configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Auth     AuthConfig     `yaml:"auth"`
	Provider ProviderConfig `yaml:"provider"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Intent   IntentConfig   `yaml:"intent"`
	Search   SearchConfig   `yaml:"search"`
	Cache    CacheConfig    `yaml:"cache"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings. No keys disables auth.
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

// ProviderConfig holds the OpenAI-compatible provider settings.
// An empty APIKey disables the AI relevance filter and query embeddings.
type ProviderConfig struct {
	Name             string   `yaml:"name"`
	APIKey           string   `yaml:"api_key"`
	BaseURL          string   `yaml:"base_url"`
	ChatModel        string   `yaml:"chat_model"`
	FallbackModels   []string `yaml:"fallback_models"`
	MaxAttempts      int      `yaml:"max_attempts"`
	EmbeddingModel   string   `yaml:"embedding_model"`
	Dimensions       int      `yaml:"dimensions"`
	QueryInstruction string   `yaml:"query_instruction"`
	TimeoutSec       int      `yaml:"timeout_sec"`
	MaxTokens        int      `yaml:"max_tokens"`
	IDPrefix         string   `yaml:"id_prefix"`
}

// Enabled reports whether a provider credential is configured.
func (p *ProviderConfig) Enabled() bool { return p.APIKey != "" }

// Timeout returns the completion timeout.
func (p *ProviderConfig) Timeout() time.Duration { return time.Duration(p.TimeoutSec) * time.Second }

// CatalogConfig holds artifact paths. Everything except Items is optional.
type CatalogConfig struct {
	Items           string `yaml:"items"`
	Taxonomy        string `yaml:"taxonomy"`
	IntentRegistry  string `yaml:"intent_registry"`
	DerivedRegistry string `yaml:"derived_registry"`
	OfferEmbeddings string `yaml:"offer_embeddings"`
	Synonyms        string `yaml:"synonyms"`
}

// IntentConfig holds classifier settings.
type IntentConfig struct {
	MinConfidence      float64 `yaml:"min_confidence"`
	DeriveFromTaxonomy bool    `yaml:"derive_from_taxonomy"`
}

// SearchConfig holds retrieval pipeline settings.
type SearchConfig struct {
	AICandidateLimit  int     `yaml:"ai_candidate_limit"`
	DefaultPageSize   int     `yaml:"default_page_size"`
	MaxPageSize       int     `yaml:"max_page_size"`
	SemanticMinScore  float64 `yaml:"semantic_min_score"`
	SemanticTopN      int     `yaml:"semantic_top_n"`
	RecipeConcurrency int     `yaml:"recipe_concurrency"`
	DesperateLimit    int     `yaml:"desperate_limit"`
}

// CacheConfig holds embedding and result cache settings.
type CacheConfig struct {
	Backend       string `yaml:"backend"` // memory, redis (default: memory)
	EmbeddingSize int    `yaml:"embedding_size"`
	ResultSize    int    `yaml:"result_size"`
	ResultTTLSec  int    `yaml:"result_ttl_sec"`
}

// ResultTTL returns the result cache TTL.
func (c *CacheConfig) ResultTTL() time.Duration { return time.Duration(c.ResultTTLSec) * time.Second }

// DatabaseConfig holds shared cache connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
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
		c.HTTP.WriteTimeoutSec = 60 // AI filter may take up to 55s
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}

	if c.Provider.Name == "" {
		c.Provider.Name = "openai"
	}
	if c.Provider.ChatModel == "" {
		c.Provider.ChatModel = "gpt-4o-mini"
	}
	if c.Provider.MaxAttempts <= 0 {
		c.Provider.MaxAttempts = 3
	}
	if c.Provider.TimeoutSec <= 0 {
		c.Provider.TimeoutSec = 25
	}
	if c.Provider.MaxTokens <= 0 {
		c.Provider.MaxTokens = 1024
	}

	if c.Intent.MinConfidence <= 0 {
		c.Intent.MinConfidence = 0.4
	}

	if c.Search.AICandidateLimit <= 0 {
		c.Search.AICandidateLimit = 150
	}
	if c.Search.DefaultPageSize <= 0 {
		c.Search.DefaultPageSize = 20
	}
	if c.Search.MaxPageSize <= 0 {
		c.Search.MaxPageSize = 200
	}
	if c.Search.SemanticTopN <= 0 {
		c.Search.SemanticTopN = 50
	}
	if c.Search.RecipeConcurrency <= 0 {
		c.Search.RecipeConcurrency = 4
	}
	if c.Search.DesperateLimit <= 0 {
		c.Search.DesperateLimit = 10
	}

	if c.Cache.Backend == "" {
		c.Cache.Backend = CacheBackendMemory
	}
	if c.Cache.EmbeddingSize <= 0 {
		c.Cache.EmbeddingSize = 1000
	}
	if c.Cache.ResultSize <= 0 {
		c.Cache.ResultSize = 100
	}
	if c.Cache.ResultTTLSec <= 0 {
		c.Cache.ResultTTLSec = 1800
	}

	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	return c.ValidatePipeline()
}

// ValidatePipeline checks everything but the HTTP section, for embedded use.
func (c *Config) ValidatePipeline() error {
	if c.Catalog.Items == "" {
		return fmt.Errorf("catalog.items is required")
	}
	if c.Intent.MinConfidence > 1 {
		return fmt.Errorf("intent.min_confidence must be in (0, 1], got %v", c.Intent.MinConfidence)
	}
	if c.Provider.TimeoutSec > 55 {
		return fmt.Errorf("provider.timeout_sec must not exceed 55, got %d", c.Provider.TimeoutSec)
	}
	if c.Search.DefaultPageSize > c.Search.MaxPageSize {
		return fmt.Errorf("search.default_page_size (%d) exceeds search.max_page_size (%d)",
			c.Search.DefaultPageSize, c.Search.MaxPageSize)
	}
	switch c.Cache.Backend {
	case CacheBackendMemory:
	case CacheBackendRedis:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for cache.backend %q", CacheBackendRedis)
		}
	default:
		return fmt.Errorf("cache.backend must be %q or %q, got %q",
			CacheBackendMemory, CacheBackendRedis, c.Cache.Backend)
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
