// Package assemble joins sub-scores and retrieval hits into a RiskContext.
// Assembly has no side effects.
package assemble

import (
	"fmt"

	"github.com/kailas-cloud/riskdex/internal/domain"
	"github.com/kailas-cloud/riskdex/internal/domain/address"
	"github.com/kailas-cloud/riskdex/internal/domain/riskctx"
	"github.com/kailas-cloud/riskdex/internal/domain/score"
	"github.com/kailas-cloud/riskdex/internal/domain/search/result"
)

// Weights blend computed sub-scores into the overall score.
type Weights map[score.Kind]float64

// DefaultWeights are the overall blend weights.
func DefaultWeights() Weights {
	return Weights{score.Flood: 0.40, score.Crime: 0.35, score.Property: 0.25}
}

// Service assembles risk contexts.
type Service struct {
	weights Weights
}

// New creates an assembler. Nil or empty weights use DefaultWeights.
func New(w Weights) *Service {
	if len(w) == 0 {
		w = DefaultWeights()
	}
	return &Service{weights: w}
}

// Assemble builds the context. Zero sub-scores fail with
// domain.ErrIncompleteContext; zero retrieval hits are fine.
func (s *Service) Assemble(q address.Query, subScores []score.SubScore, r result.Retrieval) (riskctx.RiskContext, error) {
	if len(subScores) == 0 {
		return riskctx.RiskContext{}, fmt.Errorf("assemble %q: %w", q.Raw, domain.ErrIncompleteContext)
	}

	scores := make([]score.SubScore, len(subScores))
	copy(scores, subScores)
	if r.Hits == nil {
		r.Hits = []result.Result{}
	}

	return riskctx.RiskContext{
		Query:         q,
		SubScores:     scores,
		Retrieval:     r,
		Overall:       s.overall(scores),
		IndexChecksum: r.IndexChecksum,
	}, nil
}

// overall is the weighted mean of computed sub-scores, with weights
// renormalized over the kinds actually computed.
func (s *Service) overall(scores []score.SubScore) riskctx.Overall {
	var total, sum float64
	used := map[score.Kind]float64{}
	for _, sc := range scores {
		w := s.weights[sc.Kind]
		if !sc.IsComputed() || w <= 0 {
			continue
		}
		used[sc.Kind] = w
		total += w
		sum += w * sc.Value
	}
	if total == 0 {
		return riskctx.Overall{Status: score.InsufficientData}
	}
	for k, w := range used {
		used[k] = w / total
	}
	return riskctx.Overall{
		Value:   score.Clamp(sum / total),
		Status:  score.Computed,
		Weights: used,
	}
}
