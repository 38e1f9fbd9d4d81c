package scoring

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/riskdex/internal/domain/complaint"
	"github.com/kailas-cloud/riskdex/internal/domain/score"
	"github.com/kailas-cloud/riskdex/internal/usecase/featurestore"
)

// Crime component names.
const (
	ComponentLocalWeighted = "local_weighted_count"
	ComponentBaselineMean  = "baseline_mean"
	ComponentBaselineStd   = "baseline_std"
	ComponentZScore        = "z_score"
)

// Crime tiers relative to the borough distribution.
const (
	TierLow      = "Low"
	TierModerate = "Moderate"
	TierHigh     = "High"
)

// CrimeTier buckets a z-score: above 1 is High, above -0.5 Moderate, else Low.
func CrimeTier(z float64) string {
	switch {
	case z > 1:
		return TierHigh
	case z > -0.5:
		return TierModerate
	default:
		return TierLow
	}
}

// CrimeScore scales a local weighted complaint count against the borough
// baseline: 100·min(1, local/(mean·scale)). Negative counts clamp to 0.
// The baseline spread and the local z-score are carried as unweighted components.
func CrimeScore(local float64, b featurestore.Baseline, scale float64) score.SubScore {
	if !finite(local) || local < 0 {
		local = 0
	}
	if b.Points == 0 {
		return score.Insufficient(score.Crime, "no baseline grid points inside borough")
	}
	if !finite(b.Mean) || b.Mean <= 0 || scale <= 0 {
		return score.Insufficient(score.Crime, "borough baseline mean is zero")
	}
	ratio := score.Clamp01(local / (b.Mean * scale))
	v := 100 * ratio
	return score.New(score.Crime, v, map[string]score.Component{
		ComponentLocalWeighted: {Raw: local, Normalized: v, Weight: 1},
		ComponentBaselineMean:  {Raw: b.Mean},
		ComponentBaselineStd:   {Raw: b.StdDev},
		ComponentZScore:        {Raw: b.ZScore(local)},
	})
}

// CrimeEngine scores complaint density around the query point.
type CrimeEngine struct {
	crimes   CrimeReader
	radius   float64
	severity complaint.Weights
	scale    float64
}

// NewCrimeEngine creates a crime engine.
func NewCrimeEngine(crimes CrimeReader, radiusMeters float64, severity complaint.Weights, scale float64) *CrimeEngine {
	return &CrimeEngine{crimes: crimes, radius: radiusMeters, severity: severity, scale: scale}
}

// Kind implements Engine.
func (e *CrimeEngine) Kind() score.Kind { return score.Crime }

// Score implements Engine. The borough baseline is the only blocking step.
func (e *CrimeEngine) Score(ctx context.Context, in Input) (score.SubScore, error) {
	if !e.crimes.HasComplaints() {
		return score.Insufficient(score.Crime, "no complaints dataset loaded"), nil
	}
	b, err := e.crimes.Baseline(ctx, in.Tract.Borough())
	if err != nil {
		return score.SubScore{}, fmt.Errorf("crime baseline: %w", err)
	}
	local := e.crimes.WeightedComplaints(in.Query.Location, e.radius, e.severity)
	return CrimeScore(local, b, e.scale), nil
}
