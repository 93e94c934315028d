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

// Config holds the vecmatch service configuration.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	Cache       CacheConfig       `yaml:"cache"`
	Auth        AuthConfig        `yaml:"auth"`
	Search      SearchConfig      `yaml:"search"`
	Matcher     MatcherConfig     `yaml:"matcher"`
	Logging     LoggingConfig     `yaml:"logging"`
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

// Vector store drivers.
const (
	DriverQdrant = "qdrant"
	DriverRedis  = "redis"
	DriverMilvus = "milvus"
	DriverMemory = "memory"
)

// VectorStoreConfig holds vector index connection and collection settings.
type VectorStoreConfig struct {
	Driver           string   `yaml:"driver"` // qdrant (default), redis, milvus, memory
	Addrs            []string `yaml:"addrs"`  // redis: cluster/sentinel seeds; qdrant, milvus: first entry
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	APIKey           string   `yaml:"api_key"`
	Database         string   `yaml:"database"`
	TimeoutSec       int      `yaml:"timeout_sec"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`

	Dimension       int      `yaml:"dimension"`
	Distance        string   `yaml:"distance"` // cosine, dot, euclid
	HNSWM           int      `yaml:"hnsw_m"`
	HNSWEFConstruct int      `yaml:"hnsw_ef_construction"`
	FilterFields    []string `yaml:"filter_fields"`

	// RemoteURL forwards /api/embed writes to a separate vector store service instead of the local gateway.
	RemoteURL string `yaml:"remote_url"`
}

// Timeout returns the per-call gateway timeout.
func (c VectorStoreConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// Embedding providers.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderHash   = "hash"
)

// EmbeddingConfig holds embedding settings.
type EmbeddingConfig struct {
	Provider            string `yaml:"provider"` // openai, ollama, hash
	APIKey              string `yaml:"api_key"`
	BaseURL             string `yaml:"base_url"`
	Model               string `yaml:"model"`
	Dimensions          int    `yaml:"dimensions"`
	DocumentInstruction string `yaml:"document_instruction"`
	QueryInstruction    string `yaml:"query_instruction"`
	KeepAliveSec        int    `yaml:"keep_alive_sec"`
	TimeoutSec          int    `yaml:"timeout_sec"`

	BatchSize           int `yaml:"batch_size"`
	MinBatchSize        int `yaml:"min_batch_size"`
	MaxExhaustedRetries int `yaml:"max_exhausted_retries"`
	MaxAPIBatchSize     int `yaml:"max_api_batch_size"`
}

// Timeout returns the per-call encode timeout.
func (c EmbeddingConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// CacheConfig holds the Redis connection used by the embedding cache and the matcher.
type CacheConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Addrs    []string `yaml:"addrs"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	DB       int      `yaml:"db"`
	TTLSec   int      `yaml:"ttl_sec"`
}

// TTL returns the cached embedding lifetime.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSec) * time.Second
}

// SearchConfig holds query defaults.
type SearchConfig struct {
	DefaultTopK    int     `yaml:"default_top_k"`
	FuzzyThreshold float64 `yaml:"fuzzy_threshold"`
	FuzzyOverFetch int     `yaml:"fuzzy_over_fetch"`
}

// MatcherConfig holds the matching worker settings.
type MatcherConfig struct {
	Enabled       bool               `yaml:"enabled"`
	JobChannel    string             `yaml:"job_channel"`
	ResumeChannel string             `yaml:"resume_channel"`
	MatchChannel  string             `yaml:"match_channel"`
	Weights       map[string]float64 `yaml:"weights"`
	Workers       int                `yaml:"workers"`
}

// Load reads configuration from a YAML file by environment name (local, docker, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML, expands ${VAR} references, applies defaults and validates.
func Parse(data []byte) (Config, error) {
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
		c.HTTP.ReadTimeoutSec = 30
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}

	vs := &c.VectorStore
	if vs.Driver == "" {
		vs.Driver = DriverQdrant
	}
	if vs.TimeoutSec <= 0 {
		vs.TimeoutSec = 10
	}
	if vs.ReadinessTimeout <= 0 {
		vs.ReadinessTimeout = 10
	}
	if vs.Dimension <= 0 {
		vs.Dimension = 768
	}
	if vs.Distance == "" {
		vs.Distance = "cosine"
	}
	if vs.HNSWM <= 0 {
		vs.HNSWM = 16
	}
	if vs.HNSWEFConstruct <= 0 {
		vs.HNSWEFConstruct = 200
	}

	e := &c.Embedding
	if e.Provider == "" {
		e.Provider = ProviderOllama
	}
	if e.Dimensions <= 0 {
		e.Dimensions = vs.Dimension
	}
	if e.TimeoutSec <= 0 {
		e.TimeoutSec = 30
	}
	if e.BatchSize <= 0 {
		e.BatchSize = 16
	}
	if e.MinBatchSize <= 0 {
		e.MinBatchSize = 1
	}
	if e.MaxExhaustedRetries <= 0 {
		e.MaxExhaustedRetries = 3
	}
	if e.MaxAPIBatchSize <= 0 {
		e.MaxAPIBatchSize = 256
	}

	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 7 * 24 * 3600
	}

	if c.Search.DefaultTopK <= 0 {
		c.Search.DefaultTopK = 10
	}
	if c.Search.FuzzyThreshold == 0 {
		c.Search.FuzzyThreshold = 0.8
	}
	if c.Search.FuzzyOverFetch <= 0 {
		c.Search.FuzzyOverFetch = 1
	}

	if c.Matcher.JobChannel == "" {
		c.Matcher.JobChannel = "job_channel"
	}
	if c.Matcher.ResumeChannel == "" {
		c.Matcher.ResumeChannel = "resume_channel"
	}
	if c.Matcher.MatchChannel == "" {
		c.Matcher.MatchChannel = "match_channel"
	}
	if c.Matcher.Workers <= 0 {
		c.Matcher.Workers = 8
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.VectorStore.Driver {
	case DriverQdrant, DriverRedis, DriverMilvus:
		if len(c.VectorStore.Addrs) == 0 {
			return fmt.Errorf("vector_store.addrs is required for driver %q", c.VectorStore.Driver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("vector_store.driver must be qdrant, redis, milvus or memory, got %q", c.VectorStore.Driver)
	}
	switch c.VectorStore.Distance {
	case "cosine", "dot", "euclid":
	default:
		return fmt.Errorf("vector_store.distance must be cosine, dot or euclid, got %q", c.VectorStore.Distance)
	}

	switch c.Embedding.Provider {
	case ProviderOpenAI, ProviderOllama:
		if c.Embedding.Model == "" {
			return fmt.Errorf("embedding.model is required for provider %q", c.Embedding.Provider)
		}
	case ProviderHash:
	default:
		return fmt.Errorf("embedding.provider must be openai, ollama or hash, got %q", c.Embedding.Provider)
	}
	if c.Embedding.Dimensions != c.VectorStore.Dimension {
		return fmt.Errorf("embedding.dimensions (%d) must match vector_store.dimension (%d)",
			c.Embedding.Dimensions, c.VectorStore.Dimension)
	}
	if c.Embedding.MinBatchSize > c.Embedding.BatchSize {
		return fmt.Errorf("embedding.min_batch_size (%d) exceeds batch_size (%d)",
			c.Embedding.MinBatchSize, c.Embedding.BatchSize)
	}

	if c.Cache.Enabled && len(c.Cache.Addrs) == 0 {
		return fmt.Errorf("cache.addrs is required when cache is enabled")
	}
	if c.Matcher.Enabled && len(c.Cache.Addrs) == 0 {
		return fmt.Errorf("cache.addrs is required when matcher is enabled")
	}
	for section, w := range c.Matcher.Weights {
		if w < 0 {
			return fmt.Errorf("matcher.weights.%s must not be negative", section)
		}
	}

	if c.Search.FuzzyThreshold < -1 || c.Search.FuzzyThreshold > 1 {
		return fmt.Errorf("search.fuzzy_threshold must be within [-1, 1], got %v", c.Search.FuzzyThreshold)
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
