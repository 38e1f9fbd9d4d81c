package riskdex

import (
	"log/slog"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/riskdex/internal/repository/dataset"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

// Paths locates the open-data snapshot. Tracts and FVI are required.
type Paths struct {
	Tracts     string // census tract GeoJSON
	FVI        string // flood vulnerability index CSV
	Complaints string // NYPD complaints CSV or Parquet; empty disables crime scoring
	PLUTO      string // tax lot CSV
	Addresses  string // address directory CSV
}

type clientConfig struct {
	paths    Paths
	snapshot *dataset.Snapshot

	redisAddr     string
	redisPassword string
	indexPath     string
	serveStale    bool

	embedder   Embedder
	dimensions int
	horizon    string
	k          int
	scoring    ScoringConfig

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithDataDir reads the snapshot from dir using the default file names
// (tracts.geojson, fvi.csv, pluto.csv, addresses.csv).
func WithDataDir(dir string) Option {
	return optionFunc(func(c *clientConfig) {
		c.paths.Tracts = filepath.Join(dir, "tracts.geojson")
		c.paths.FVI = filepath.Join(dir, "fvi.csv")
		c.paths.PLUTO = filepath.Join(dir, "pluto.csv")
		c.paths.Addresses = filepath.Join(dir, "addresses.csv")
	})
}

// WithPaths sets every snapshot file explicitly.
func WithPaths(p Paths) Option {
	return optionFunc(func(c *clientConfig) {
		c.paths = p
	})
}

// WithComplaints enables crime scoring from a complaints extract.
func WithComplaints(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.paths.Complaints = path
	})
}

// WithRedis persists the document index in Redis and caches embeddings there.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.redisAddr = addr
		c.redisPassword = password
	})
}

// WithIndexFile persists the document index to a Parquet file.
// Ignored when WithRedis is set.
func WithIndexFile(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.indexPath = path
	})
}

// WithServeStaleIndex keeps a persisted index built by another embedder
// instead of rebuilding it. Scoring then fails with ErrStaleIndex.
func WithServeStaleIndex() Option {
	return optionFunc(func(c *clientConfig) {
		c.serveStale = true
	})
}

// WithScoringConfig overrides the scoring constants. Zero fields keep defaults.
func WithScoringConfig(sc ScoringConfig) Option {
	return optionFunc(func(c *clientConfig) {
		c.scoring = sc
	})
}

// WithEmbedder replaces the built-in hashing embedder.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithDimensions sets the built-in hashing embedder dimension. Default: 256.
func WithDimensions(dim int) Option {
	return optionFunc(func(c *clientConfig) {
		c.dimensions = dim
	})
}

// WithDefaultHorizon sets the flood horizon used when a call does not pick one.
func WithDefaultHorizon(h string) Option {
	return optionFunc(func(c *clientConfig) {
		c.horizon = h
	})
}

// WithDefaultK sets the number of similar tracts returned by default. Default: 5.
func WithDefaultK(k int) Option {
	return optionFunc(func(c *clientConfig) {
		c.k = k
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

// withSnapshot injects an already loaded snapshot.
func withSnapshot(s dataset.Snapshot) Option {
	return optionFunc(func(c *clientConfig) {
		c.snapshot = &s
	})
}

// ScoreOption tunes a single ScoreAddress call.
type ScoreOption func(*scoreConfig)

type scoreConfig struct {
	horizon string
	k       *int
}

// Horizon picks the flood projection: "present", "2050s" or "2080s".
func Horizon(h string) ScoreOption {
	return func(c *scoreConfig) { c.horizon = h }
}

// TopK sets how many similar tracts to return. Zero returns none.
func TopK(k int) ScoreOption {
	return func(c *scoreConfig) { c.k = &k }
}
