package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Supported drivers and providers.
const (
	DriverValkey = "valkey"
	DriverRedis  = "redis"

	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Config holds the vetsearch API configuration.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Auth        AuthConfig        `yaml:"auth"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	Logging     LoggingConfig     `yaml:"logging"`
	Database    DatabaseConfig    `yaml:"database"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Indexes     IndexesConfig     `yaml:"indexes"`
	Search      SearchConfig      `yaml:"search"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	History     HistoryConfig     `yaml:"history"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// RateLimitConfig holds global request rate limiting. RequestsPerSecond 0 disables it.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds the lexical store (Redis 8 with search) connection.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// VectorStoreConfig holds the KNN store connection. Empty addrs reuse database.
type VectorStoreConfig struct {
	Driver   string   `yaml:"driver"` // valkey, redis (default: redis)
	Addrs    []string `yaml:"addrs"`
	Password string   `yaml:"password"`
}

// IndexesConfig names the search indexes of each backend.
type IndexesConfig struct {
	BM25        string `yaml:"bm25"`
	UniCOIL     string `yaml:"unicoil"`
	Dense       string `yaml:"dense"`
	MultiVector string `yaml:"multi_vector"`
	KeyPrefix   string `yaml:"key_prefix"`
}

// SearchConfig holds query limits and backend deadlines.
type SearchConfig struct {
	DefaultTopK                int `yaml:"default_top_k"`
	MaxTopK                    int `yaml:"max_top_k"`
	BackendTimeoutMs           int `yaml:"backend_timeout_ms"`
	MultiVectorCandidateFactor int `yaml:"multi_vector_candidate_factor"`
}

// BackendTimeout returns the per-backend deadline.
func (s SearchConfig) BackendTimeout() time.Duration {
	return time.Duration(s.BackendTimeoutMs) * time.Millisecond
}

// EmbeddingConfig holds the query embedding provider settings.
type EmbeddingConfig struct {
	Provider         string `yaml:"provider"` // openai, ollama
	BaseURL          string `yaml:"base_url"`
	APIKey           string `yaml:"api_key"`
	Model            string `yaml:"model"`
	Dimensions       int    `yaml:"dimensions"`
	QueryInstruction string `yaml:"query_instruction"`
	CacheEnabled     bool   `yaml:"cache_enabled"`
	CacheTTLHours    int    `yaml:"cache_ttl_hours"`
}

// CacheTTL returns the embedding cache TTL; zero means no expiry.
func (e EmbeddingConfig) CacheTTL() time.Duration {
	return time.Duration(e.CacheTTLHours) * time.Hour
}

// HistoryConfig holds search history recording settings.
type HistoryConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Path           string `yaml:"path"`
	InMemory       bool   `yaml:"in_memory"`
	Workers        int    `yaml:"workers"`
	RetentionHours int    `yaml:"retention_hours"`
}

// Retention returns how long records are kept.
func (h HistoryConfig) Retention() time.Duration {
	return time.Duration(h.RetentionHours) * time.Hour
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

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8000
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.VectorStore.Driver == "" {
		c.VectorStore.Driver = DriverRedis
	}
	if len(c.VectorStore.Addrs) == 0 {
		c.VectorStore.Addrs = c.Database.Addrs
		if c.VectorStore.Password == "" {
			c.VectorStore.Password = c.Database.Password
		}
	}
	c.applyIndexDefaults()
	c.applySearchDefaults()
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = ProviderOpenAI
	}
	if c.RateLimit.RequestsPerSecond > 0 && c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = int(c.RateLimit.RequestsPerSecond)
		if c.RateLimit.Burst < 1 {
			c.RateLimit.Burst = 1
		}
	}
	if c.History.Workers <= 0 {
		c.History.Workers = 4
	}
	if c.History.RetentionHours <= 0 {
		c.History.RetentionHours = 24 * 30
	}
	if c.History.Path == "" {
		c.History.Path = "data/history"
	}
}

func (c *Config) applyIndexDefaults() {
	if c.Indexes.BM25 == "" {
		c.Indexes.BM25 = "idx:bm25"
	}
	if c.Indexes.UniCOIL == "" {
		c.Indexes.UniCOIL = "idx:unicoil"
	}
	if c.Indexes.Dense == "" {
		c.Indexes.Dense = "idx:dense"
	}
	if c.Indexes.MultiVector == "" {
		c.Indexes.MultiVector = "idx:multivector"
	}
	if c.Indexes.KeyPrefix == "" {
		c.Indexes.KeyPrefix = "vetsearch:"
	}
}

func (c *Config) applySearchDefaults() {
	if c.Search.DefaultTopK <= 0 {
		c.Search.DefaultTopK = 10
	}
	if c.Search.MaxTopK <= 0 {
		c.Search.MaxTopK = 100
	}
	if c.Search.BackendTimeoutMs <= 0 {
		c.Search.BackendTimeoutMs = 5000
	}
	if c.Search.MultiVectorCandidateFactor <= 0 {
		c.Search.MultiVectorCandidateFactor = 4
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return errors.New("database.addrs is required")
	}
	switch c.VectorStore.Driver {
	case DriverValkey, DriverRedis:
	default:
		return fmt.Errorf("vector_store.driver must be %q or %q, got %q", DriverValkey, DriverRedis, c.VectorStore.Driver)
	}
	if c.Search.DefaultTopK > c.Search.MaxTopK {
		return fmt.Errorf("search.default_top_k (%d) exceeds search.max_top_k (%d)",
			c.Search.DefaultTopK, c.Search.MaxTopK)
	}
	switch c.Embedding.Provider {
	case ProviderOpenAI, ProviderOllama:
	default:
		return fmt.Errorf("embedding.provider must be %q or %q, got %q",
			ProviderOpenAI, ProviderOllama, c.Embedding.Provider)
	}
	if c.Embedding.Model == "" {
		return errors.New("embedding.model is required")
	}
	if c.Embedding.Provider == ProviderOllama && c.Embedding.BaseURL == "" {
		return errors.New("embedding.base_url is required for the ollama provider")
	}
	if c.RateLimit.RequestsPerSecond < 0 {
		return fmt.Errorf("rate_limit.requests_per_second must not be negative, got %g", c.RateLimit.RequestsPerSecond)
	}
	if c.History.Enabled && !c.History.InMemory && c.History.Path == "" {
		return errors.New("history.path is required unless history.in_memory is set")
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
