package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/riskdex/internal/app"
	"github.com/kailas-cloud/riskdex/internal/config"
	"github.com/kailas-cloud/riskdex/internal/domain"
	"github.com/kailas-cloud/riskdex/internal/domain/tract"
	logpkg "github.com/kailas-cloud/riskdex/internal/logger"
	"github.com/kailas-cloud/riskdex/internal/metrics"
	"github.com/kailas-cloud/riskdex/internal/observability"
	chiTransport "github.com/kailas-cloud/riskdex/internal/transport/chi"
	"github.com/kailas-cloud/riskdex/internal/usecase/assemble"
	"github.com/kailas-cloud/riskdex/internal/usecase/featurestore"
	healthuc "github.com/kailas-cloud/riskdex/internal/usecase/health"
	indexuc "github.com/kailas-cloud/riskdex/internal/usecase/index"
	"github.com/kailas-cloud/riskdex/internal/usecase/pipeline"
	"github.com/kailas-cloud/riskdex/internal/usecase/retrieval"
	"github.com/kailas-cloud/riskdex/internal/usecase/scoring"
	"github.com/kailas-cloud/riskdex/internal/version"
)

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting riskdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("index_store", cfg.Index.Store),
	)

	ctx := context.Background()
	shutdownTracing := observability.InitTracing(ctx, logger, observability.Config{
		ServiceName: "riskdex",
		Environment: env,
		Version:     version.Version,
	})
	defer func() { _ = shutdownTracing(context.Background()) }()

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterScoringMetrics()

	store, err := app.OpenStore(ctx, &cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	if store != nil {
		defer store.Close()
	}

	snap, err := app.LoadSnapshot(&cfg, logger)
	if err != nil {
		logger.Fatal("Failed to load snapshot", zap.Error(err))
	}
	features, err := app.BuildFeatures(&cfg, snap)
	if err != nil {
		logger.Fatal("Failed to build feature store", zap.Error(err))
	}

	scoringCfg, err := app.ScoringConfig(&cfg.Scoring)
	if err != nil {
		logger.Fatal("Invalid scoring config", zap.Error(err))
	}

	embedder, err := app.BuildEmbedder(&cfg, store, logger)
	if err != nil {
		logger.Fatal("Failed to create embedder", zap.Error(err))
	}
	logger.Info("Embedder created", zap.String("version", embedder.Version()))

	indexHorizon, err := tract.ParseHorizon(cfg.Index.Horizon)
	if err != nil {
		logger.Fatal("Invalid index horizon", zap.Error(err))
	}
	ixStore, err := app.IndexStore(&cfg, store)
	if err != nil {
		logger.Fatal("Invalid index store", zap.Error(err))
	}
	indexer := indexuc.New(embedder, ixStore, indexHorizon, logger).WithBatchSize(cfg.Embedding.BatchSize)
	ix, err := app.LoadOrBuildIndex(ctx, ixStore, indexer, features.Tracts(), cfg.Index.ServeStale, logger)
	if err != nil {
		logger.Fatal("Failed to prepare index", zap.Error(err))
	}

	retriever := retrieval.New(ix, embedder)

	svc := pipeline.New(
		featurestore.NewGeocoder(snap.Addresses),
		features,
		scoring.NewDefaultRunner(features, scoringCfg),
		retriever,
		assemble.New(app.OverallWeights(&cfg.Scoring)),
		app.BuildGenerator(&cfg, logger),
		pipeline.Defaults{Horizon: scoringCfg.Horizon, K: cfg.Retrieval.K},
	)

	// Pass nil interface (not typed nil pointer!) when redis is not used.
	var pinger healthuc.DBPinger
	if store != nil {
		pinger = store
	}
	healthSvc := healthuc.New(pinger, embeddingHealthChecker{embedder}, retriever)

	server := chiTransport.NewServer(svc, healthSvc)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      otelhttp.NewHandler(r, "riskdex"),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func (h embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
						Code:    chiTransport.CodeInternalError,
						Message: "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("address", r.URL.Query().Get("address")),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
