// Command riskdex-index builds the tract document index and persists it to the
// configured index store. With -append it embeds only tracts missing from the
// persisted index.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kailas-cloud/riskdex/internal/app"
	"github.com/kailas-cloud/riskdex/internal/config"
	"github.com/kailas-cloud/riskdex/internal/domain"
	"github.com/kailas-cloud/riskdex/internal/domain/tract"
	logpkg "github.com/kailas-cloud/riskdex/internal/logger"
	"github.com/kailas-cloud/riskdex/internal/metrics"
	indexuc "github.com/kailas-cloud/riskdex/internal/usecase/index"
	"github.com/kailas-cloud/riskdex/internal/version"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "", "config file (default: config/<ENV>.yaml)")
	appendOnly := flag.Bool("append", false, "embed only tracts missing from the persisted index")
	flag.Parse()

	env := config.GetEnv()
	var (
		cfg config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, &cfg, *appendOnly, logger); err != nil {
		logger.Error("Index build failed", zap.Error(err))
		stop()
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, appendOnly bool, logger *zap.Logger) error {
	start := time.Now()
	logger.Info("Building riskdex index",
		zap.String("version", version.Version),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("index_store", cfg.Index.Store),
		zap.Bool("append", appendOnly),
	)
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterScoringMetrics()

	store, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	snap, err := app.LoadSnapshot(cfg, logger)
	if err != nil {
		return err
	}
	features, err := app.BuildFeatures(cfg, snap)
	if err != nil {
		return err
	}
	tracts := features.Tracts()
	embedder, err := app.BuildEmbedder(cfg, store, logger)
	if err != nil {
		return err
	}
	horizon, err := tract.ParseHorizon(cfg.Index.Horizon)
	if err != nil {
		return err
	}
	ixStore, err := app.IndexStore(cfg, store)
	if err != nil {
		return err
	}
	indexer := indexuc.New(embedder, ixStore, horizon, logger).WithBatchSize(cfg.Embedding.BatchSize)

	// Usage collected across the whole build.
	ctx, usage := domain.NewContextWithUsage(ctx)

	if appendOnly {
		base, err := ixStore.Load(ctx)
		switch {
		case errors.Is(err, domain.ErrIndexNotFound):
			logger.Info("No persisted index, building from scratch")
		case err != nil:
			return err
		default:
			missing := indexuc.Missing(base, tracts)
			if len(missing) == 0 {
				logger.Info("Index already covers every tract", zap.String("checksum", base.Checksum()))
				return nil
			}
			ix, err := indexer.Append(ctx, base, missing)
			if err != nil {
				return err
			}
			logger.Info("Index appended",
				zap.Int("added", len(missing)),
				zap.Int("documents", ix.Len()),
				zap.String("checksum", ix.Checksum()),
				zap.Int("tokens", usage.TotalTokens),
				zap.Duration("duration", time.Since(start)),
			)
			return nil
		}
	}

	ix, err := indexer.Rebuild(ctx, tracts)
	if err != nil {
		return err
	}
	logger.Info("Index rebuilt",
		zap.Int("documents", ix.Len()),
		zap.String("checksum", ix.Checksum()),
		zap.Int("tokens", usage.TotalTokens),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}
