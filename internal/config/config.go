package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// weightTolerance bounds how far a weight set may drift from summing to 1.
const weightTolerance = 1e-9

// Config holds the riskdex configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Data       DataConfig       `yaml:"data"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Auth       AuthConfig       `yaml:"auth"`
	Index      IndexConfig      `yaml:"index"`
	Scoring    ScoringConfig    `yaml:"scoring"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
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

// DatabaseConfig holds redis connection settings. Only needed by the redis
// index store and the embedding cache.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// DataConfig locates the snapshot files loaded at startup.
type DataConfig struct {
	Dir        string `yaml:"dir"`
	Tracts     string `yaml:"tracts"`
	FVI        string `yaml:"fvi"`
	Complaints string `yaml:"complaints"` // .parquet or .csv; empty disables the crime engine
	PLUTO      string `yaml:"pluto"`
	Addresses  string `yaml:"addresses"`
}

// Path joins a data file name onto the data directory. Empty names stay empty.
func (d DataConfig) Path(name string) string {
	if name == "" {
		return ""
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(d.Dir, name)
}

// EmbeddingConfig selects and tunes the embedder.
type EmbeddingConfig struct {
	Provider   string  `yaml:"provider"` // hashing, openai
	APIKey     string  `yaml:"api_key"`
	BaseURL    string  `yaml:"base_url"`
	Model      string  `yaml:"model"`
	Dimensions int     `yaml:"dimensions"`
	BatchSize  int     `yaml:"batch_size"`
	RateLimit  float64 `yaml:"rate_limit_rps"` // 0 = unlimited
	Cache      bool    `yaml:"cache"`          // redis-backed embedding cache
	CacheTTL   int     `yaml:"cache_ttl_sec"`  // 0 = cached vectors never expire
}

// GenerationConfig configures the optional narrative generator.
type GenerationConfig struct {
	Enabled    bool   `yaml:"enabled"`
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// IndexConfig holds document index persistence settings.
type IndexConfig struct {
	Store     string `yaml:"store"` // file, redis
	Path      string `yaml:"path"`  // file store location
	KeyPrefix string `yaml:"key_prefix"`
	Horizon   string `yaml:"horizon"` // horizon stamped on built documents
	// ServeStale keeps a persisted index built with another embedder instead
	// of rebuilding it at startup. Retrieval then fails with a stale index error.
	ServeStale bool `yaml:"serve_stale"`
}

// FloodWeights are the flood sub-score component weights.
type FloodWeights struct {
	StormSurge float64 `yaml:"storm_surge"`
	Tidal      float64 `yaml:"tidal"`
	FSHRI      float64 `yaml:"fshri"`
}

// Sum returns the total weight.
func (w FloodWeights) Sum() float64 { return w.StormSurge + w.Tidal + w.FSHRI }

// SeverityWeights weight complaints by offense level.
type SeverityWeights struct {
	Felony      float64 `yaml:"felony"`
	Misdemeanor float64 `yaml:"misdemeanor"`
	Violation   float64 `yaml:"violation"`
}

// PropertyWeights are the property sub-score component weights.
type PropertyWeights struct {
	Age        float64 `yaml:"age"`
	ClassTier  float64 `yaml:"class_tier"`
	ValueRatio float64 `yaml:"value_ratio"`
}

// Sum returns the total weight.
func (w PropertyWeights) Sum() float64 { return w.Age + w.ClassTier + w.ValueRatio }

// OverallWeights blend sub-scores into the overall score.
type OverallWeights struct {
	Flood    float64 `yaml:"flood"`
	Crime    float64 `yaml:"crime"`
	Property float64 `yaml:"property"`
}

// Sum returns the total weight.
func (w OverallWeights) Sum() float64 { return w.Flood + w.Crime + w.Property }

// ScoringConfig holds the sub-score engine constants.
type ScoringConfig struct {
	Horizon           string          `yaml:"horizon"`
	FloodWeights      FloodWeights    `yaml:"flood_weights"`
	CrimeRadiusMeters float64         `yaml:"crime_radius_m"`
	SeverityWeights   SeverityWeights `yaml:"severity_weights"`
	GridSpacingMeters float64         `yaml:"grid_spacing_m"`
	ScaleFactor       float64         `yaml:"scale_factor"`
	PropertyWeights   PropertyWeights `yaml:"property_weights"`
	ReferenceYear     int             `yaml:"reference_year"`
	EngineTimeoutMS   int             `yaml:"engine_timeout_ms"`
	OverallWeights    OverallWeights  `yaml:"overall_weights"`
}

// RetrievalConfig holds retriever settings.
type RetrievalConfig struct {
	K int `yaml:"k"`
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
	return Parse(data)
}

// Parse expands env variables, decodes YAML, applies defaults and validates.
func Parse(data []byte) (Config, error) {
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

// ApplyDefaults fills empty fields with default values. Weight sets are
// defaulted only when every weight in the set is zero.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
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
	c.applyDataDefaults()
	c.applyEmbeddingDefaults()
	if c.Generation.Model == "" {
		c.Generation.Model = "gpt-4o-mini"
	}
	if c.Generation.TimeoutSec <= 0 {
		c.Generation.TimeoutSec = 30
	}
	if c.Index.Store == "" {
		c.Index.Store = "file"
	}
	if c.Index.Path == "" {
		c.Index.Path = c.Data.Path("index.parquet")
	}
	if c.Index.KeyPrefix == "" {
		c.Index.KeyPrefix = "riskdex:index:"
	}
	if c.Index.Horizon == "" {
		c.Index.Horizon = "present"
	}
	c.applyScoringDefaults()
	if c.Retrieval.K <= 0 {
		c.Retrieval.K = 5
	}
}

func (c *Config) applyDataDefaults() {
	if c.Data.Dir == "" {
		c.Data.Dir = "data"
	}
	if c.Data.Tracts == "" {
		c.Data.Tracts = "tracts.geojson"
	}
	if c.Data.FVI == "" {
		c.Data.FVI = "fvi.csv"
	}
	if c.Data.PLUTO == "" {
		c.Data.PLUTO = "pluto.csv"
	}
	if c.Data.Addresses == "" {
		c.Data.Addresses = "addresses.csv"
	}
}

func (c *Config) applyEmbeddingDefaults() {
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "hashing"
	}
	if c.Embedding.Model == "" {
		if c.Embedding.Provider == "openai" {
			c.Embedding.Model = "text-embedding-3-small"
		} else {
			c.Embedding.Model = "xxhash-bigram"
		}
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 256
	}
	if c.Embedding.BatchSize <= 0 {
		c.Embedding.BatchSize = 200
	}
}

func (c *Config) applyScoringDefaults() {
	s := &c.Scoring
	if s.Horizon == "" {
		s.Horizon = "present"
	}
	if s.FloodWeights == (FloodWeights{}) {
		s.FloodWeights = FloodWeights{StormSurge: 0.4, Tidal: 0.3, FSHRI: 0.3}
	}
	if s.CrimeRadiusMeters == 0 {
		s.CrimeRadiusMeters = 402.336 // 0.25 mi
	}
	if s.SeverityWeights == (SeverityWeights{}) {
		s.SeverityWeights = SeverityWeights{Felony: 3, Misdemeanor: 2, Violation: 1}
	}
	if s.GridSpacingMeters == 0 {
		s.GridSpacingMeters = 1000
	}
	if s.ScaleFactor == 0 {
		s.ScaleFactor = 2.0
	}
	if s.PropertyWeights == (PropertyWeights{}) {
		s.PropertyWeights = PropertyWeights{Age: 0.4, ClassTier: 0.3, ValueRatio: 0.3}
	}
	if s.ReferenceYear == 0 {
		s.ReferenceYear = 2025
	}
	if s.EngineTimeoutMS <= 0 {
		s.EngineTimeoutMS = 2000
	}
	if s.OverallWeights == (OverallWeights{}) {
		s.OverallWeights = OverallWeights{Flood: 0.40, Crime: 0.35, Property: 0.25}
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Index.Store {
	case "file":
	case "redis":
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for index.store=redis")
		}
	default:
		return fmt.Errorf("index.store must be \"file\" or \"redis\", got %q", c.Index.Store)
	}
	switch c.Embedding.Provider {
	case "hashing":
	case "openai":
		if c.Embedding.APIKey == "" {
			return fmt.Errorf("embedding.api_key is required for provider openai")
		}
	default:
		return fmt.Errorf("embedding.provider must be \"hashing\" or \"openai\", got %q", c.Embedding.Provider)
	}
	if c.Embedding.Cache && len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required for embedding.cache")
	}
	if c.Embedding.RateLimit < 0 {
		return fmt.Errorf("embedding.rate_limit_rps must be >= 0, got %g", c.Embedding.RateLimit)
	}
	if c.Embedding.CacheTTL < 0 {
		return fmt.Errorf("embedding.cache_ttl_sec must be >= 0, got %d", c.Embedding.CacheTTL)
	}
	if c.Generation.Enabled && c.Generation.APIKey == "" {
		return fmt.Errorf("generation.api_key is required when generation is enabled")
	}
	if c.Retrieval.K < 0 {
		return fmt.Errorf("retrieval.k must be >= 0, got %d", c.Retrieval.K)
	}
	return c.Scoring.Validate()
}

// Validate checks engine constants: every weight set sums to 1 and all
// distances and factors are positive.
func (s *ScoringConfig) Validate() error {
	switch s.Horizon {
	case "present", "2020s", "2050s", "2080s":
	default:
		return fmt.Errorf("scoring.horizon must be present, 2050s or 2080s, got %q", s.Horizon)
	}
	if err := checkWeights("scoring.flood_weights", s.FloodWeights.Sum(),
		s.FloodWeights.StormSurge, s.FloodWeights.Tidal, s.FloodWeights.FSHRI); err != nil {
		return err
	}
	if err := checkWeights("scoring.property_weights", s.PropertyWeights.Sum(),
		s.PropertyWeights.Age, s.PropertyWeights.ClassTier, s.PropertyWeights.ValueRatio); err != nil {
		return err
	}
	if err := checkWeights("scoring.overall_weights", s.OverallWeights.Sum(),
		s.OverallWeights.Flood, s.OverallWeights.Crime, s.OverallWeights.Property); err != nil {
		return err
	}
	sw := s.SeverityWeights
	if sw.Felony < 0 || sw.Misdemeanor < 0 || sw.Violation < 0 {
		return fmt.Errorf("scoring.severity_weights must be non-negative")
	}
	if s.CrimeRadiusMeters <= 0 {
		return fmt.Errorf("scoring.crime_radius_m must be > 0, got %g", s.CrimeRadiusMeters)
	}
	if s.GridSpacingMeters <= 0 {
		return fmt.Errorf("scoring.grid_spacing_m must be > 0, got %g", s.GridSpacingMeters)
	}
	if s.ScaleFactor <= 0 {
		return fmt.Errorf("scoring.scale_factor must be > 0, got %g", s.ScaleFactor)
	}
	return nil
}

func checkWeights(name string, sum float64, ws ...float64) error {
	for _, w := range ws {
		if w < 0 || math.IsNaN(w) {
			return fmt.Errorf("%s must be non-negative", name)
		}
	}
	if math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("%s must sum to 1, got %g", name, sum)
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
