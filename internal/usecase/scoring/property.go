package scoring

import (
	"context"
	"math"

	"github.com/kailas-cloud/riskdex/internal/domain/parcel"
	"github.com/kailas-cloud/riskdex/internal/domain/score"
	"github.com/kailas-cloud/riskdex/internal/usecase/featurestore"
)

// Property component names.
const (
	ComponentAge        = "building_age"
	ComponentClassTier  = "class_tier"
	ComponentValueRatio = "value_land_ratio"
)

// maxBuildingAge is the age at which the age component saturates.
const maxBuildingAge = 150.0

// PropertyScore blends building age, class tier and assessed value to land
// ratio. p and stats may each be nil; missing parcel fields use the borough
// median and never zero.
func PropertyScore(p *parcel.Parcel, stats *featurestore.BoroughStats, w PropertyWeights, refYear int) score.SubScore {
	if p == nil && stats == nil {
		return score.Insufficient(score.Property, "no parcel record and no borough statistics")
	}
	nan := math.NaN()
	medYear, medTier, medRatio := nan, nan, nan
	if stats != nil {
		medYear, medTier, medRatio = stats.YearBuilt, stats.ClassTier, stats.ValueLandRatio
	}
	ownYear, ownTier, ownRatio := nan, nan, nan
	if p != nil {
		if parcel.Known(p.YearBuilt) {
			ownYear = p.YearBuilt
		}
		if t := parcel.ClassTier(p.BuildingClass); t > 0 {
			ownTier = float64(t)
		}
		ownRatio = p.ValueToLandRatio()
	}

	comps := make(map[string]score.Component, 3)
	var sum, wsum float64
	add := func(name string, weight, own, median float64, normalize func(float64) float64) {
		raw, defaulted := own, false
		if !finite(raw) {
			raw, defaulted = median, true
		}
		if !finite(raw) || weight <= 0 {
			return
		}
		n := normalize(raw)
		if !finite(n) {
			return
		}
		n = score.Clamp(n)
		comps[name] = score.Component{Raw: raw, Normalized: n, Weight: weight, Defaulted: defaulted}
		sum += weight * n
		wsum += weight
	}

	add(ComponentAge, w.Age, ownYear, medYear, func(year float64) float64 {
		age := math.Max(0, float64(refYear)-year)
		return 100 * math.Min(1, age/maxBuildingAge)
	})
	add(ComponentClassTier, w.ClassTier, ownTier, medTier, func(tier float64) float64 {
		return (tier - 1) / 4 * 100
	})
	add(ComponentValueRatio, w.ValueRatio, ownRatio, medRatio, func(ratio float64) float64 {
		if !finite(medRatio) || medRatio <= 0 {
			return nan
		}
		return 100 * math.Min(1, ratio/(2*medRatio))
	})

	if wsum == 0 {
		return score.Insufficient(score.Property, "no usable property attributes")
	}
	return score.New(score.Property, sum/wsum, comps)
}

// PropertyEngine scores the tax lot at the query address.
type PropertyEngine struct {
	parcels       ParcelReader
	stats         StatsReader
	weights       PropertyWeights
	referenceYear int
}

// NewPropertyEngine creates a property engine.
func NewPropertyEngine(parcels ParcelReader, stats StatsReader, w PropertyWeights, referenceYear int) *PropertyEngine {
	return &PropertyEngine{parcels: parcels, stats: stats, weights: w, referenceYear: referenceYear}
}

// Kind implements Engine.
func (e *PropertyEngine) Kind() score.Kind { return score.Property }

// Score implements Engine.
func (e *PropertyEngine) Score(_ context.Context, in Input) (score.SubScore, error) {
	var p *parcel.Parcel
	if in.Query.BBL != "" {
		if got, ok := e.parcels.Parcel(in.Query.BBL); ok {
			p = &got
		}
	}
	var stats *featurestore.BoroughStats
	if st, ok := e.stats.BoroughStats(in.Tract.Borough()); ok {
		stats = &st
	}
	return PropertyScore(p, stats, e.weights, e.referenceYear), nil
}
