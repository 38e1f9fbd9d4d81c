package riskdex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/riskdex/internal/app"
	"github.com/kailas-cloud/riskdex/internal/db"
	dbRedis "github.com/kailas-cloud/riskdex/internal/db/redis"
	"github.com/kailas-cloud/riskdex/internal/domain"
	"github.com/kailas-cloud/riskdex/internal/domain/geo"
	"github.com/kailas-cloud/riskdex/internal/domain/riskctx"
	"github.com/kailas-cloud/riskdex/internal/domain/tract"
	"github.com/kailas-cloud/riskdex/internal/domain/vectorindex"
	"github.com/kailas-cloud/riskdex/internal/embedding/hashing"
	"github.com/kailas-cloud/riskdex/internal/repository/dataset"
	"github.com/kailas-cloud/riskdex/internal/repository/embcache"
	"github.com/kailas-cloud/riskdex/internal/repository/indexstore"
	"github.com/kailas-cloud/riskdex/internal/usecase/assemble"
	"github.com/kailas-cloud/riskdex/internal/usecase/featurestore"
	healthuc "github.com/kailas-cloud/riskdex/internal/usecase/health"
	indexuc "github.com/kailas-cloud/riskdex/internal/usecase/index"
	"github.com/kailas-cloud/riskdex/internal/usecase/pipeline"
	"github.com/kailas-cloud/riskdex/internal/usecase/retrieval"
	"github.com/kailas-cloud/riskdex/internal/usecase/scoring"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultDimensions       = 256
	indexKeyPrefix          = "riskdex:index:"
)

// scorer is the internal pipeline surface, swappable in tests.
type scorer interface {
	ScoreAddress(ctx context.Context, raw string, opts pipeline.Options) (riskctx.RiskContext, error)
}

// Client is the riskdex SDK entry point.
type Client struct {
	store     db.Store
	scorer    scorer
	index     *vectorindex.Index
	healthSvc healthUseCase
	obs       *observer
}

// New loads the snapshot, prepares the document index and returns a ready client.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{dimensions: defaultDimensions, k: retrieval.DefaultK}
	for _, o := range opts {
		o.apply(cfg)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	snap, err := loadSnapshot(cfg)
	if err != nil {
		return nil, err
	}

	var store db.Store
	if cfg.redisAddr != "" {
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    []string{cfg.redisAddr},
			Password: cfg.redisPassword,
		})
		if err != nil {
			return nil, fmt.Errorf("riskdex: create redis store: %w", err)
		}
		if err := s.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			s.Close()
			return nil, fmt.Errorf("riskdex: database not ready: %w", err)
		}
		store = s
	}

	c, err := wireClient(ctx, cfg, snap, store, obs)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, err
	}
	return c, nil
}

func loadSnapshot(cfg *clientConfig) (dataset.Snapshot, error) {
	if cfg.snapshot != nil {
		return *cfg.snapshot, nil
	}
	if cfg.paths.Tracts == "" || cfg.paths.FVI == "" {
		return dataset.Snapshot{}, errors.New("riskdex: tract and FVI paths required (use WithDataDir or WithPaths)")
	}
	snap, err := dataset.Load(dataset.Paths(cfg.paths), geo.Planar{})
	if err != nil {
		return dataset.Snapshot{}, fmt.Errorf("riskdex: %w", err)
	}
	return snap, nil
}

func buildEmbedder(cfg *clientConfig, store db.Store) (domain.Embedder, error) {
	var e domain.Embedder
	if cfg.embedder != nil {
		e = &embedderAdapter{inner: cfg.embedder}
	} else {
		h, err := hashing.New(cfg.dimensions)
		if err != nil {
			return nil, fmt.Errorf("riskdex: %w", err)
		}
		e = h
	}
	if store != nil {
		// nil counter: the SDK reports through its own observer
		e = embcache.New(e, store, nil, zap.NewNop())
	}
	return e, nil
}

func wireClient(ctx context.Context, cfg *clientConfig, snap dataset.Snapshot, store db.Store, obs *observer) (*Client, error) {
	sc, err := cfg.scoring.resolve()
	if err != nil {
		return nil, err
	}
	features, err := featurestore.New(snap, geo.Planar{}, sc.features)
	if err != nil {
		return nil, fmt.Errorf("riskdex: %w", err)
	}
	horizon, err := tract.ParseHorizon(cfg.horizon)
	if err != nil {
		return nil, fmt.Errorf("riskdex: %w", err)
	}
	embedder, err := buildEmbedder(cfg, store)
	if err != nil {
		return nil, err
	}

	var ixStore indexuc.Store
	switch {
	case store != nil:
		ixStore = indexstore.NewRedis(store, indexKeyPrefix)
	case cfg.indexPath != "":
		ixStore = indexstore.NewFile(cfg.indexPath)
	}

	start := time.Now()
	indexer := indexuc.New(embedder, ixStore, tract.Present, zap.NewNop())
	ix, err := prepareIndex(ctx, ixStore, indexer, features.Tracts(), cfg.serveStale)
	obs.observe("prepare_index", start, err)
	if err != nil {
		return nil, err
	}

	retriever := retrieval.New(ix, embedder)
	svc := pipeline.New(
		featurestore.NewGeocoder(snap.Addresses),
		features,
		scoring.NewDefaultRunner(features, sc.engines),
		retriever,
		assemble.New(sc.overall),
		nil,
		pipeline.Defaults{Horizon: horizon, K: cfg.k},
	)

	var pinger healthuc.DBPinger
	if store != nil {
		pinger = store
	}

	return &Client{
		store:     store,
		scorer:    svc,
		index:     ix,
		healthSvc: healthuc.New(pinger, nil, retriever),
		obs:       obs,
	}, nil
}

// prepareIndex loads the persisted index or builds one, rebuilding a stale
// one unless serveStale is set. Without a store the index lives only in memory.
func prepareIndex(
	ctx context.Context,
	store indexuc.Store,
	indexer *indexuc.Service,
	tracts []tract.Tract,
	serveStale bool,
) (*vectorindex.Index, error) {
	if store == nil {
		ix, err := indexer.Build(ctx, tracts)
		if err != nil {
			return nil, fmt.Errorf("riskdex: build index: %w", err)
		}
		return ix, nil
	}
	ix, err := app.LoadOrBuildIndex(ctx, store, indexer, tracts, serveStale, zap.NewNop())
	if err != nil {
		return nil, fmt.Errorf("riskdex: prepare index: %w", err)
	}
	return ix, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// IndexChecksum identifies the served document index.
func (c *Client) IndexChecksum() string { return c.index.Checksum() }

// ScoreAddress geocodes, scores and compares one address.
func (c *Client) ScoreAddress(ctx context.Context, address string, opts ...ScoreOption) (report RiskReport, err error) {
	start := time.Now()
	defer func() { c.obs.observe("score_address", start, err, "tract", report.TractID) }()

	var sc scoreConfig
	for _, o := range opts {
		o(&sc)
	}
	rc, err := c.scorer.ScoreAddress(ctx, address, pipeline.Options{Horizon: sc.horizon, K: sc.k})
	if err != nil {
		return RiskReport{}, fmt.Errorf("score address: %w", err)
	}
	return reportFromContext(&rc), nil
}
