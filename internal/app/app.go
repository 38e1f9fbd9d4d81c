// Package app is the composition root shared by the riskdex binaries: it
// turns a config.Config into loaded data, an embedder chain and an index.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/riskdex/internal/config"
	"github.com/kailas-cloud/riskdex/internal/db"
	dbRedis "github.com/kailas-cloud/riskdex/internal/db/redis"
	"github.com/kailas-cloud/riskdex/internal/domain"
	"github.com/kailas-cloud/riskdex/internal/domain/complaint"
	"github.com/kailas-cloud/riskdex/internal/domain/geo"
	"github.com/kailas-cloud/riskdex/internal/domain/score"
	"github.com/kailas-cloud/riskdex/internal/domain/tract"
	"github.com/kailas-cloud/riskdex/internal/domain/vectorindex"
	"github.com/kailas-cloud/riskdex/internal/embedding/hashing"
	"github.com/kailas-cloud/riskdex/internal/metrics"
	"github.com/kailas-cloud/riskdex/internal/repository/dataset"
	"github.com/kailas-cloud/riskdex/internal/repository/embcache"
	"github.com/kailas-cloud/riskdex/internal/repository/indexstore"
	openaiTransport "github.com/kailas-cloud/riskdex/internal/transport/openai"
	"github.com/kailas-cloud/riskdex/internal/usecase/assemble"
	embeddinguc "github.com/kailas-cloud/riskdex/internal/usecase/embedding"
	"github.com/kailas-cloud/riskdex/internal/usecase/featurestore"
	indexuc "github.com/kailas-cloud/riskdex/internal/usecase/index"
	"github.com/kailas-cloud/riskdex/internal/usecase/scoring"
)

// OpenStore connects to redis when the index store or the embedding cache
// needs it. It returns a nil interface otherwise.
func OpenStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (db.Store, error) {
	if cfg.Index.Store != "redis" && !cfg.Embedding.Cache {
		return nil, nil
	}
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create redis store: %w", err)
	}
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("redis not ready: %w", err)
	}
	logger.Info("Connected to database", zap.Strings("addrs", cfg.Database.Addrs))
	return store, nil
}

// LoadSnapshot reads the configured open-data files.
func LoadSnapshot(cfg *config.Config, logger *zap.Logger) (dataset.Snapshot, error) {
	start := time.Now()
	d := cfg.Data
	snap, err := dataset.Load(dataset.Paths{
		Tracts:     d.Path(d.Tracts),
		FVI:        d.Path(d.FVI),
		Complaints: d.Path(d.Complaints),
		PLUTO:      d.Path(d.PLUTO),
		Addresses:  d.Path(d.Addresses),
	}, geo.Planar{})
	if err != nil {
		return dataset.Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}
	logger.Info("Snapshot loaded",
		zap.Int("tracts", len(snap.Tracts)),
		zap.Int("parcels", len(snap.Parcels)),
		zap.Int("complaints", len(snap.Complaints)),
		zap.Int("addresses", len(snap.Addresses)),
		zap.Duration("duration", time.Since(start)),
	)
	return snap, nil
}

// FeatureOptions maps scoring config onto the feature store baseline options.
func FeatureOptions(s *config.ScoringConfig) featurestore.Options {
	return featurestore.Options{
		BaselineRadiusMeters: s.CrimeRadiusMeters,
		GridSpacingMeters:    s.GridSpacingMeters,
		SeverityWeights:      severity(s.SeverityWeights),
	}
}

// ScoringConfig maps the YAML scoring section onto engine constants.
func ScoringConfig(s *config.ScoringConfig) (scoring.Config, error) {
	h, err := tract.ParseHorizon(s.Horizon)
	if err != nil {
		return scoring.Config{}, err
	}
	out := scoring.Config{
		Horizon: h,
		Flood: scoring.FloodWeights{
			StormSurge: s.FloodWeights.StormSurge,
			Tidal:      s.FloodWeights.Tidal,
			FSHRI:      s.FloodWeights.FSHRI,
		},
		CrimeRadiusMeters: s.CrimeRadiusMeters,
		Severity:          severity(s.SeverityWeights),
		ScaleFactor:       s.ScaleFactor,
		Property: scoring.PropertyWeights{
			Age:        s.PropertyWeights.Age,
			ClassTier:  s.PropertyWeights.ClassTier,
			ValueRatio: s.PropertyWeights.ValueRatio,
		},
		ReferenceYear: s.ReferenceYear,
		EngineTimeout: time.Duration(s.EngineTimeoutMS) * time.Millisecond,
	}
	if err := out.Validate(); err != nil {
		return scoring.Config{}, err
	}
	return out, nil
}

// OverallWeights maps the overall blend weights.
func OverallWeights(s *config.ScoringConfig) assemble.Weights {
	return assemble.Weights{
		score.Flood:    s.OverallWeights.Flood,
		score.Crime:    s.OverallWeights.Crime,
		score.Property: s.OverallWeights.Property,
	}
}

func severity(w config.SeverityWeights) complaint.Weights {
	return complaint.Weights{Felony: w.Felony, Misdemeanor: w.Misdemeanor, Violation: w.Violation}
}

// BuildEmbedder assembles the decorator chain: provider -> cached -> instrumented.
// store may be nil, which disables caching.
func BuildEmbedder(cfg *config.Config, store db.Store, logger *zap.Logger) (domain.Embedder, error) {
	e := cfg.Embedding
	var base domain.Embedder
	switch e.Provider {
	case hashing.Provider:
		h, err := hashing.New(e.Dimensions)
		if err != nil {
			return nil, err
		}
		base = h
	case openaiTransport.Provider:
		base = openaiTransport.NewEmbedder(&openaiTransport.Config{
			APIKey:     e.APIKey,
			BaseURL:    e.BaseURL,
			Model:      e.Model,
			Dimensions: e.Dimensions,
			Logger:     logger,
		})
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", e.Provider)
	}

	embedder := base
	if e.Cache && store != nil {
		metrics.RegisterEmbeddingMetrics()
		embedder = embcache.New(base, store, metrics.EmbeddingCacheTotal, logger).
			WithTTL(time.Duration(e.CacheTTL) * time.Second)
	}

	return embeddinguc.NewInstrumentedEmbedder(embedder, embeddinguc.Options{
		RatePerSecond: e.RateLimit,
		BatchSize:     e.BatchSize,
	}, logger), nil
}

// BuildGenerator returns the narrative generator, or nil when disabled.
func BuildGenerator(cfg *config.Config, logger *zap.Logger) domain.Generator {
	g := cfg.Generation
	if !g.Enabled {
		return nil
	}
	return openaiTransport.NewGenerator(&openaiTransport.Config{
		APIKey:  g.APIKey,
		BaseURL: g.BaseURL,
		Model:   g.Model,
		Timeout: time.Duration(g.TimeoutSec) * time.Second,
		Logger:  logger,
	})
}

// IndexStore returns the configured index persistence.
func IndexStore(cfg *config.Config, store db.Store) (indexuc.Store, error) {
	switch cfg.Index.Store {
	case "file":
		return indexstore.NewFile(cfg.Index.Path), nil
	case "redis":
		if store == nil {
			return nil, fmt.Errorf("index.store=redis needs a database connection")
		}
		return indexstore.NewRedis(store, cfg.Index.KeyPrefix), nil
	}
	return nil, fmt.Errorf("unknown index store %q", cfg.Index.Store)
}

// BuildFeatures builds the feature store for a snapshot. Its tracts carry
// the attributed complaint counts, so they are the only tract source the
// index may be built from.
func BuildFeatures(cfg *config.Config, snap dataset.Snapshot) (*featurestore.Store, error) {
	features, err := featurestore.New(snap, geo.Planar{}, FeatureOptions(&cfg.Scoring))
	if err != nil {
		return nil, fmt.Errorf("build feature store: %w", err)
	}
	return features, nil
}

// LoadOrBuildIndex loads the persisted index, building and saving it when
// none exists yet. An index built with another embedder is rebuilt and saved
// unless serveStale is set, in which case retrieval reports it as stale.
func LoadOrBuildIndex(
	ctx context.Context,
	store indexuc.Store,
	indexer *indexuc.Service,
	tracts []tract.Tract,
	serveStale bool,
	logger *zap.Logger,
) (*vectorindex.Index, error) {
	ix, err := store.Load(ctx)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrIndexNotFound):
		logger.Info("No persisted index, building")
		return indexer.Rebuild(ctx, tracts)
	default:
		return nil, fmt.Errorf("load index: %w", err)
	}

	if want := indexer.EmbeddingVersion(); ix.Version() != want {
		if serveStale {
			logger.Warn("Serving a stale index; rebuild it with riskdex-index",
				zap.String("index_version", ix.Version()),
				zap.String("embedder_version", want),
			)
			return ix, nil
		}
		logger.Warn("Persisted index is stale, rebuilding",
			zap.String("index_version", ix.Version()),
			zap.String("embedder_version", want),
		)
		return indexer.Rebuild(ctx, tracts)
	}

	metrics.IndexDocuments.Set(float64(ix.Len()))
	logger.Info("Index loaded",
		zap.String("version", ix.Version()),
		zap.Int("documents", ix.Len()),
		zap.String("checksum", ix.Checksum()),
	)
	if missing := indexuc.Missing(ix, tracts); len(missing) > 0 {
		logger.Warn("Index does not cover every loaded tract", zap.Int("missing", len(missing)))
	}
	return ix, nil
}
