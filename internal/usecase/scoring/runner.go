// Package scoring holds the flood, crime and property sub-score engines and
// the runner that fans them out per request.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/riskdex/internal/domain/score"
	"github.com/kailas-cloud/riskdex/internal/logger"
	"github.com/kailas-cloud/riskdex/internal/metrics"
)

// Runner runs engines concurrently, each under its own deadline. An engine
// that errors, panics or times out yields an insufficient_data sub-score;
// Run itself never fails.
type Runner struct {
	engines []Engine
	timeout time.Duration
}

// NewRunner creates a runner. Results keep the order of engines.
func NewRunner(timeout time.Duration, engines ...Engine) *Runner {
	return &Runner{engines: engines, timeout: timeout}
}

// Run scores the input with every engine.
func (r *Runner) Run(ctx context.Context, in Input) []score.SubScore {
	out := make([]score.SubScore, len(r.engines))
	g, gctx := errgroup.WithContext(ctx)
	for i, e := range r.engines {
		g.Go(func() error {
			out[i] = r.runOne(gctx, e, in)
			return nil
		})
	}
	_ = g.Wait() // engines never return errors to the group
	return out
}

type engineResult struct {
	sub score.SubScore
	err error
}

func (r *Runner) runOne(ctx context.Context, e Engine, in Input) score.SubScore {
	kind := e.Kind()
	start := time.Now()
	ectx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	done := make(chan engineResult, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- engineResult{err: fmt.Errorf("engine panic: %v", rec)}
			}
		}()
		sub, err := e.Score(ectx, in)
		done <- engineResult{sub: sub, err: err}
	}()

	var res engineResult
	select {
	case res = <-done:
	case <-ectx.Done():
		res = engineResult{err: ectx.Err()}
	}

	sub := res.sub
	if res.err != nil {
		reason := "engine failed"
		if errors.Is(res.err, context.DeadlineExceeded) {
			reason = "engine timed out"
		}
		logger.FromContext(ctx).Warn("engine degraded to insufficient data",
			zap.String("engine", string(kind)), zap.Error(res.err))
		sub = score.Insufficient(kind, reason)
	}
	sub.Kind = kind

	metrics.EngineDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
	metrics.EngineResultsTotal.WithLabelValues(string(kind), string(sub.Status)).Inc()
	return sub
}

// Features is the full read surface the default engines need.
type Features interface {
	StatsReader
	ParcelReader
	CrimeReader
}

// NewDefaultRunner wires the flood, crime and property engines from cfg.
func NewDefaultRunner(f Features, cfg Config) *Runner {
	return NewRunner(cfg.EngineTimeout,
		NewFloodEngine(f, cfg.Flood),
		NewCrimeEngine(f, cfg.CrimeRadiusMeters, cfg.Severity, cfg.ScaleFactor),
		NewPropertyEngine(f, f, cfg.Property, cfg.ReferenceYear),
	)
}
