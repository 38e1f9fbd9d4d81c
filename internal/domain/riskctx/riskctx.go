// Package riskctx defines the assembled risk context handed to generation and reporting.
package riskctx

import (
	"github.com/kailas-cloud/riskdex/internal/domain/address"
	"github.com/kailas-cloud/riskdex/internal/domain/score"
	"github.com/kailas-cloud/riskdex/internal/domain/search/result"
)

// Overall is the weighted blend of computed sub-scores.
type Overall struct {
	Value  float64      `json:"value"`
	Status score.Status `json:"status"`
	// Weights are the renormalized weights actually applied, keyed by sub-score kind.
	Weights map[score.Kind]float64 `json:"weights,omitempty"`
}

// RiskContext is everything known about one address before any free text is generated.
// It always carries at least one sub-score; it may carry zero retrieval hits.
type RiskContext struct {
	ID            string
	Query         address.Query
	Horizon       string
	TractSummary  string
	SubScores     []score.SubScore
	Retrieval     result.Retrieval
	Overall       Overall
	IndexChecksum string
}

// SubScore returns the sub-score of the given kind.
func (rc *RiskContext) SubScore(kind score.Kind) (score.SubScore, bool) {
	for _, s := range rc.SubScores {
		if s.Kind == kind {
			return s, true
		}
	}
	return score.SubScore{}, false
}

// Computed returns the number of sub-scores with status computed.
func (rc *RiskContext) Computed() int {
	n := 0
	for _, s := range rc.SubScores {
		if s.IsComputed() {
			n++
		}
	}
	return n
}
