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

// Config holds the creatormatch service configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Completion CompletionConfig `yaml:"completion"`
	Auth       AuthConfig       `yaml:"auth"`
	Vector     VectorConfig     `yaml:"vector"`
	Match      MatchConfig      `yaml:"match"`
	Catalog    CatalogConfig    `yaml:"catalog"`
	Resilience ResilienceConfig `yaml:"resilience"`
	Persist    PersistConfig    `yaml:"persist"`
	Logging    LoggingConfig    `yaml:"logging"`
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

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// VectorConfig holds vector index settings (§6: VECTOR_INDEX_NAME, VECTOR_QUERY_TOP_K).
type VectorConfig struct {
	IndexName       string `yaml:"index_name"`
	Dimension       int    `yaml:"dimension"`
	HNSWM           int    `yaml:"hnsw_m"`
	HNSWEFConstruct int    `yaml:"hnsw_ef_construction"`
	QueryTopK       int    `yaml:"query_top_k"`
	MaxBatchSize    int    `yaml:"max_batch_size"`
	KeyPrefix       string `yaml:"key_prefix"`
}

// MatchConfig holds match orchestrator tunables (§6: MATCH_TOP_K, REQUEST_DEADLINE_MS).
// The four scoring weights are the §9 composite-score profile; they need not
// sum to 1, but ApplyDefaults fills the 0.7/0.2/0.05/0.05 default profile when
// left unset. Set them to 0.6/0.2/0.1/0.1 for the alternate profile §9 names.
type MatchConfig struct {
	TopK              int `yaml:"top_k"`
	RequestDeadlineMs int `yaml:"request_deadline_ms"`
	ScoringFanout     int `yaml:"scoring_fanout"` // P, default min(8, candidates)

	WeightSemantic float64 `yaml:"weight_semantic"`
	WeightNiche    float64 `yaml:"weight_niche"`
	WeightAudience float64 `yaml:"weight_audience"`
	WeightValue    float64 `yaml:"weight_value"`
}

// CatalogConfig holds catalog cache settings (§6: CATALOG_REFRESH_TTL_MS).
type CatalogConfig struct {
	RefreshTTLMs int    `yaml:"refresh_ttl_ms"`
	SourceKind   string `yaml:"source_kind"` // "redis-json" | "static-file"
	StaticPath   string `yaml:"static_path"`
	KeyPrefix    string `yaml:"key_prefix"` // RedisJSON creator document key prefix
}

// ResilienceConfig holds breaker/retry tunables (§6).
type ResilienceConfig struct {
	BreakerFailureThreshold int `yaml:"breaker_failure_threshold"`
	BreakerResetMs          int `yaml:"breaker_reset_ms"`
	RetryMaxAttempts        int `yaml:"retry_max_attempts"`
	RetryBaseDelayMs        int `yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs         int `yaml:"retry_max_delay_ms"`
}

// PersistConfig holds the optional results-persistence collaborator settings (§6).
type PersistConfig struct {
	BaseURL       string `yaml:"base_url"` // empty disables persistence
	DeadlineMs    int    `yaml:"deadline_ms"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	DeadlineMs int    `yaml:"deadline_ms"`
	Concurrency int   `yaml:"concurrency"` // C, default 3
}

// CompletionConfig holds completion provider settings.
type CompletionConfig struct {
	Provider    string `yaml:"provider"`
	APIKey      string `yaml:"api_key"`
	BaseURL     string `yaml:"base_url"`
	Model       string `yaml:"model"`
	DeadlineMs  int    `yaml:"deadline_ms"`
	MaxTokens   int    `yaml:"max_tokens"`
	Temperature float32 `yaml:"temperature"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod),
// then overlays the §6 environment variables.
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
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

// applyEnvOverrides reads the §6 recognized environment variables, taking precedence
// over the YAML file when present.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("VECTOR_INDEX_NAME"); v != "" {
		c.Vector.IndexName = v
	}
	if v := os.Getenv("EMBEDDING_MODEL"); v != "" {
		c.Embedding.Model = v
	}
	if v := os.Getenv("COMPLETION_MODEL"); v != "" {
		c.Completion.Model = v
	}
	if v := os.Getenv("AI_PROVIDER"); v != "" {
		c.Embedding.Provider = v
		c.Completion.Provider = v
	}
	envInt("MATCH_TOP_K", &c.Match.TopK)
	envInt("VECTOR_QUERY_TOP_K", &c.Vector.QueryTopK)
	envInt("CATALOG_REFRESH_TTL_MS", &c.Catalog.RefreshTTLMs)
	envInt("BREAKER_FAILURE_THRESHOLD", &c.Resilience.BreakerFailureThreshold)
	envInt("BREAKER_RESET_MS", &c.Resilience.BreakerResetMs)
	envInt("RETRY_MAX_ATTEMPTS", &c.Resilience.RetryMaxAttempts)
	envInt("RETRY_BASE_DELAY_MS", &c.Resilience.RetryBaseDelayMs)
	envInt("RETRY_MAX_DELAY_MS", &c.Resilience.RetryMaxDelayMs)
	envInt("REQUEST_DEADLINE_MS", &c.Match.RequestDeadlineMs)
}

func envInt(name string, dst *int) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
		*dst = n
	}
}

// ApplyDefaults fills empty fields with the §4/§6 default values.
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

	if c.Vector.IndexName == "" {
		c.Vector.IndexName = "creator-embeddings"
	}
	if c.Vector.HNSWM <= 0 {
		c.Vector.HNSWM = 32
	}
	if c.Vector.HNSWEFConstruct <= 0 {
		c.Vector.HNSWEFConstruct = 400
	}
	if c.Vector.QueryTopK <= 0 {
		c.Vector.QueryTopK = 15
	}
	if c.Vector.MaxBatchSize <= 0 {
		c.Vector.MaxBatchSize = 100
	}
	if c.Vector.KeyPrefix == "" {
		c.Vector.KeyPrefix = "creatormatch:"
	}

	if c.Match.TopK <= 0 {
		c.Match.TopK = 3
	}
	if c.Match.RequestDeadlineMs <= 0 {
		c.Match.RequestDeadlineMs = 15000
	}
	if c.Match.ScoringFanout <= 0 {
		c.Match.ScoringFanout = 8
	}
	if c.Match.WeightSemantic == 0 && c.Match.WeightNiche == 0 &&
		c.Match.WeightAudience == 0 && c.Match.WeightValue == 0 {
		c.Match.WeightSemantic = 0.7
		c.Match.WeightNiche = 0.2
		c.Match.WeightAudience = 0.05
		c.Match.WeightValue = 0.05
	}

	if c.Catalog.RefreshTTLMs <= 0 {
		c.Catalog.RefreshTTLMs = 300000
	}
	if c.Catalog.SourceKind == "" {
		c.Catalog.SourceKind = "redis-json"
	}
	if c.Catalog.KeyPrefix == "" {
		c.Catalog.KeyPrefix = "creator:"
	}

	if c.Resilience.BreakerFailureThreshold <= 0 {
		c.Resilience.BreakerFailureThreshold = 5
	}
	if c.Resilience.BreakerResetMs <= 0 {
		c.Resilience.BreakerResetMs = 30000
	}
	if c.Resilience.RetryMaxAttempts <= 0 {
		c.Resilience.RetryMaxAttempts = 3
	}
	if c.Resilience.RetryBaseDelayMs <= 0 {
		c.Resilience.RetryBaseDelayMs = 250
	}
	if c.Resilience.RetryMaxDelayMs <= 0 {
		c.Resilience.RetryMaxDelayMs = 5000
	}

	if c.Persist.DeadlineMs <= 0 {
		c.Persist.DeadlineMs = 2000
	}

	if c.Embedding.DeadlineMs <= 0 {
		c.Embedding.DeadlineMs = 5000
	}
	if c.Embedding.Concurrency <= 0 {
		c.Embedding.Concurrency = 3
	}

	if c.Completion.DeadlineMs <= 0 {
		c.Completion.DeadlineMs = 10000
	}
	if c.Completion.MaxTokens <= 0 {
		c.Completion.MaxTokens = 200
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
	if c.Vector.Dimension <= 0 {
		return fmt.Errorf("vector.dimension must be positive, got %d", c.Vector.Dimension)
	}
	if c.Embedding.Dimensions > 0 && c.Embedding.Dimensions != c.Vector.Dimension {
		return fmt.Errorf("embedding.dimensions (%d) must match vector.dimension (%d)",
			c.Embedding.Dimensions, c.Vector.Dimension)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

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
