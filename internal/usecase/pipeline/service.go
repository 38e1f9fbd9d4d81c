// Package pipeline is the query entrypoint: geocode, locate, score, retrieve
// and assemble one address into a RiskContext.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/kailas-cloud/riskdex/internal/domain"
	"github.com/kailas-cloud/riskdex/internal/domain/geo"
	"github.com/kailas-cloud/riskdex/internal/domain/riskctx"
	"github.com/kailas-cloud/riskdex/internal/domain/score"
	"github.com/kailas-cloud/riskdex/internal/domain/search/result"
	"github.com/kailas-cloud/riskdex/internal/domain/tract"
	"github.com/kailas-cloud/riskdex/internal/logger"
	"github.com/kailas-cloud/riskdex/internal/metrics"
	"github.com/kailas-cloud/riskdex/internal/usecase/retrieval"
	"github.com/kailas-cloud/riskdex/internal/usecase/scoring"
)

const tracerName = "riskdex/pipeline"

// Options are the per-call knobs of ScoreAddress.
type Options struct {
	// Horizon selects the flood projection; empty uses the configured default.
	Horizon string
	// K is the number of documents to retrieve; nil uses the configured default.
	K *int
}

// Defaults hold the fallbacks for unset Options.
type Defaults struct {
	Horizon tract.Horizon
	K       int
}

// Service runs the scoring pipeline.
type Service struct {
	geocoder  Geocoder
	locator   Locator
	runner    Runner
	retriever Retriever
	assembler Assembler
	generator domain.Generator
	defaults  Defaults
	tracer    trace.Tracer
	newID     func() string
}

// New creates the pipeline. generator may be nil, which disables Explain.
func New(
	geocoder Geocoder,
	locator Locator,
	runner Runner,
	retriever Retriever,
	assembler Assembler,
	generator domain.Generator,
	defaults Defaults,
) *Service {
	if defaults.Horizon == "" {
		defaults.Horizon = tract.Present
	}
	if defaults.K <= 0 {
		defaults.K = retrieval.DefaultK
	}
	return &Service{
		geocoder:  geocoder,
		locator:   locator,
		runner:    runner,
		retriever: retriever,
		assembler: assembler,
		generator: generator,
		defaults:  defaults,
		tracer:    otel.Tracer(tracerName),
		newID:     uuid.NewString,
	}
}

// ScoreAddress scores one address. Unknown addresses, locations outside
// coverage and a stale index abort the call; any other retrieval failure
// degrades to zero hits.
func (s *Service) ScoreAddress(ctx context.Context, raw string, opts Options) (rc riskctx.RiskContext, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "pipeline.ScoreAddress", trace.WithAttributes(attribute.String("address", raw)))
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = outcomeOf(err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		metrics.ScoreRequestsTotal.WithLabelValues(outcome).Inc()
		span.End()
	}()

	horizon, k, err := s.resolve(opts)
	if err != nil {
		return riskctx.RiskContext{}, err
	}

	q, err := s.geocoder.Geocode(ctx, raw)
	if err != nil {
		return riskctx.RiskContext{}, fmt.Errorf("geocode: %w", err)
	}

	t, err := s.locate(ctx, q.Location)
	if err != nil {
		return riskctx.RiskContext{}, err
	}
	q = q.WithTract(t.ID())
	ctx = logger.With(ctx, zap.String("tract", t.ID()), zap.String("horizon", string(horizon)))
	span.SetAttributes(attribute.String("tract", t.ID()), attribute.String("horizon", string(horizon)))

	subScores := s.score(ctx, scoring.Input{Query: q, Tract: t, Horizon: horizon})

	ret, err := s.retrieve(ctx, retrieval.QueryText(&t, horizon), k)
	if err != nil {
		return riskctx.RiskContext{}, err
	}

	rc, err = s.assembler.Assemble(q, subScores, ret)
	if err != nil {
		return riskctx.RiskContext{}, fmt.Errorf("assemble: %w", err)
	}
	rc.ID = s.newID()
	rc.Horizon = string(horizon)
	rc.TractSummary = t.Summary()

	logger.FromContext(ctx).Info("Address scored",
		zap.String("id", rc.ID),
		zap.Float64("overall", rc.Overall.Value),
		zap.Int("computed", rc.Computed()),
		zap.Int("hits", rc.Retrieval.Len()),
		zap.Duration("duration", time.Since(start)),
	)
	return rc, nil
}

func (s *Service) resolve(opts Options) (tract.Horizon, int, error) {
	horizon := s.defaults.Horizon
	if opts.Horizon != "" {
		h, err := tract.ParseHorizon(opts.Horizon)
		if err != nil {
			return "", 0, err
		}
		horizon = h
	}
	k := s.defaults.K
	if opts.K != nil {
		k = *opts.K
	}
	if k < 0 {
		return "", 0, fmt.Errorf("%w: %d", domain.ErrInvalidK, k)
	}
	return horizon, k, nil
}

func (s *Service) locate(ctx context.Context, p geo.Point) (tract.Tract, error) {
	ctx, span := s.tracer.Start(ctx, "pipeline.Locate")
	defer span.End()
	t, err := s.locator.Locate(ctx, p)
	if err != nil {
		span.RecordError(err)
		return tract.Tract{}, fmt.Errorf("locate: %w", err)
	}
	return t, nil
}

func (s *Service) score(ctx context.Context, in scoring.Input) []score.SubScore {
	ctx, span := s.tracer.Start(ctx, "pipeline.Score")
	defer span.End()
	return s.runner.Run(ctx, in)
}

func (s *Service) retrieve(ctx context.Context, query string, k int) (result.Retrieval, error) {
	ctx, span := s.tracer.Start(ctx, "pipeline.Retrieve", trace.WithAttributes(attribute.Int("k", k)))
	defer span.End()

	ret, err := s.retriever.Retrieve(ctx, query, k)
	if err == nil {
		span.SetAttributes(attribute.Int("hits", ret.Len()))
		return ret, nil
	}
	span.RecordError(err)
	if errors.Is(err, domain.ErrStaleIndex) || errors.Is(err, domain.ErrInvalidK) {
		return result.Retrieval{}, fmt.Errorf("retrieve: %w", err)
	}
	logger.FromContext(ctx).Warn("Retrieval failed, continuing without documents", zap.Error(err))
	return result.Empty(query, k), nil
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, domain.ErrAddressNotFound):
		return "address_not_found"
	case errors.Is(err, domain.ErrOutOfCoverage):
		return "out_of_coverage"
	case errors.Is(err, domain.ErrStaleIndex):
		return "stale_index"
	case errors.Is(err, domain.ErrInvalidK), errors.Is(err, domain.ErrInvalidHorizon):
		return "invalid_input"
	case errors.Is(err, domain.ErrIncompleteContext):
		return "incomplete"
	default:
		return "error"
	}
}
