package riskdex

import (
	"fmt"
	"math"
	"time"

	"github.com/kailas-cloud/riskdex/internal/domain/complaint"
	"github.com/kailas-cloud/riskdex/internal/domain/score"
	"github.com/kailas-cloud/riskdex/internal/usecase/assemble"
	"github.com/kailas-cloud/riskdex/internal/usecase/featurestore"
	"github.com/kailas-cloud/riskdex/internal/usecase/scoring"
)

// WeightSet holds three component weights that must sum to 1.
type WeightSet [3]float64

func (w WeightSet) zero() bool { return w == WeightSet{} }

func (w WeightSet) check(name string) error {
	if s := w[0] + w[1] + w[2]; math.Abs(s-1) > 1e-9 {
		return fmt.Errorf("riskdex: %s weights must sum to 1, got %g", name, s)
	}
	return nil
}

// ScoringConfig tunes the scoring engines and the overall blend.
// Zero fields and all-zero weight sets keep the defaults.
type ScoringConfig struct {
	// Flood weights: storm surge, tidal, FSHRI.
	Flood WeightSet
	// Property weights: building age, class tier, value per lot area.
	Property WeightSet
	// Overall weights: flood, crime, property.
	Overall WeightSet

	CrimeRadiusMeters float64
	GridSpacingMeters float64
	ScaleFactor       float64

	SeverityFelony      float64
	SeverityMisdemeanor float64
	SeverityViolation   float64

	ReferenceYear int
	EngineTimeout time.Duration
}

type resolvedScoring struct {
	engines  scoring.Config
	features featurestore.Options
	overall  assemble.Weights
}

func (c ScoringConfig) resolve() (resolvedScoring, error) {
	engines := scoring.DefaultConfig()
	features := featurestore.DefaultOptions()
	overall := assemble.DefaultWeights()

	if !c.Flood.zero() {
		if err := c.Flood.check("flood"); err != nil {
			return resolvedScoring{}, err
		}
		engines.Flood = scoring.FloodWeights{StormSurge: c.Flood[0], Tidal: c.Flood[1], FSHRI: c.Flood[2]}
	}
	if !c.Property.zero() {
		if err := c.Property.check("property"); err != nil {
			return resolvedScoring{}, err
		}
		engines.Property = scoring.PropertyWeights{Age: c.Property[0], ClassTier: c.Property[1], ValueRatio: c.Property[2]}
	}
	if !c.Overall.zero() {
		if err := c.Overall.check("overall"); err != nil {
			return resolvedScoring{}, err
		}
		overall = assemble.Weights{score.Flood: c.Overall[0], score.Crime: c.Overall[1], score.Property: c.Overall[2]}
	}
	if c.CrimeRadiusMeters > 0 {
		engines.CrimeRadiusMeters = c.CrimeRadiusMeters
	}
	if c.ScaleFactor > 0 {
		engines.ScaleFactor = c.ScaleFactor
	}
	if c.SeverityFelony > 0 || c.SeverityMisdemeanor > 0 || c.SeverityViolation > 0 {
		engines.Severity = complaint.Weights{
			Felony:      c.SeverityFelony,
			Misdemeanor: c.SeverityMisdemeanor,
			Violation:   c.SeverityViolation,
		}
	}
	if c.ReferenceYear > 0 {
		engines.ReferenceYear = c.ReferenceYear
	}
	if c.EngineTimeout > 0 {
		engines.EngineTimeout = c.EngineTimeout
	}
	if err := engines.Validate(); err != nil {
		return resolvedScoring{}, fmt.Errorf("riskdex: %w", err)
	}

	features.BaselineRadiusMeters = engines.CrimeRadiusMeters
	features.SeverityWeights = engines.Severity
	if c.GridSpacingMeters > 0 {
		features.GridSpacingMeters = c.GridSpacingMeters
	}
	return resolvedScoring{engines: engines, features: features, overall: overall}, nil
}
