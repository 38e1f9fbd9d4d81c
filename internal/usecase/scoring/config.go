package scoring

import (
	"fmt"
	"math"
	"time"

	"github.com/kailas-cloud/riskdex/internal/domain/complaint"
	"github.com/kailas-cloud/riskdex/internal/domain/geo"
	"github.com/kailas-cloud/riskdex/internal/domain/tract"
)

const weightTolerance = 1e-9

// FloodWeights weight the flood components.
type FloodWeights struct {
	StormSurge float64
	Tidal      float64
	FSHRI      float64
}

// PropertyWeights weight the property components.
type PropertyWeights struct {
	Age        float64
	ClassTier  float64
	ValueRatio float64
}

// Config holds engine constants.
type Config struct {
	Horizon           tract.Horizon
	Flood             FloodWeights
	CrimeRadiusMeters float64
	Severity          complaint.Weights
	ScaleFactor       float64
	Property          PropertyWeights
	ReferenceYear     int
	EngineTimeout     time.Duration
}

// DefaultConfig returns the default engine constants.
func DefaultConfig() Config {
	return Config{
		Horizon:           tract.Present,
		Flood:             FloodWeights{StormSurge: 0.4, Tidal: 0.3, FSHRI: 0.3},
		CrimeRadiusMeters: 0.25 * geo.MetersPerMile,
		Severity:          complaint.DefaultWeights,
		ScaleFactor:       2.0,
		Property:          PropertyWeights{Age: 0.4, ClassTier: 0.3, ValueRatio: 0.3},
		ReferenceYear:     2025,
		EngineTimeout:     2 * time.Second,
	}
}

// Validate checks weight sums and positive constants.
func (c Config) Validate() error {
	if s := c.Flood.StormSurge + c.Flood.Tidal + c.Flood.FSHRI; math.Abs(s-1) > weightTolerance {
		return fmt.Errorf("flood weights must sum to 1, got %g", s)
	}
	if s := c.Property.Age + c.Property.ClassTier + c.Property.ValueRatio; math.Abs(s-1) > weightTolerance {
		return fmt.Errorf("property weights must sum to 1, got %g", s)
	}
	if c.CrimeRadiusMeters <= 0 {
		return fmt.Errorf("crime radius must be positive")
	}
	if c.ScaleFactor <= 0 {
		return fmt.Errorf("scale factor must be positive")
	}
	if c.EngineTimeout <= 0 {
		return fmt.Errorf("engine timeout must be positive")
	}
	return nil
}
