package scoring

import (
	"context"
	"math"

	"github.com/kailas-cloud/riskdex/internal/domain/score"
	"github.com/kailas-cloud/riskdex/internal/domain/tract"
)

// Flood component names.
const (
	ComponentStormSurge = "storm_surge"
	ComponentTidal      = "tidal"
	ComponentFSHRI      = "fshri"
)

// FVIToScore maps an FVI value on the 1..5 scale to 0..100.
func FVIToScore(v float64) float64 {
	return score.Clamp((v - 1) / 4 * 100)
}

// FloodScore blends storm surge, tidal and FSHRI indicators for a horizon.
// Missing tract values fall back to the borough median (medians may be nil);
// components with neither are dropped and the remaining weights renormalized.
func FloodScore(f tract.Flood, medians *tract.Flood, h tract.Horizon, w FloodWeights) score.SubScore {
	type part struct {
		name   string
		weight float64
		own    float64
		median float64
	}
	nan := math.NaN()
	med := func(get func(tract.Flood) float64) float64 {
		if medians == nil {
			return nan
		}
		return get(*medians)
	}
	parts := []part{
		{ComponentStormSurge, w.StormSurge, f.StormSurge(h), med(func(m tract.Flood) float64 { return m.StormSurge(h) })},
		{ComponentTidal, w.Tidal, f.Tidal(h), med(func(m tract.Flood) float64 { return m.Tidal(h) })},
		{ComponentFSHRI, w.FSHRI, f.FSHRI, med(func(m tract.Flood) float64 { return m.FSHRI })},
	}

	comps := make(map[string]score.Component, len(parts))
	var sum, wsum float64
	for _, p := range parts {
		raw, defaulted := p.own, false
		if !finite(raw) {
			raw, defaulted = p.median, true
		}
		if !finite(raw) || p.weight <= 0 {
			continue
		}
		n := FVIToScore(raw)
		comps[p.name] = score.Component{Raw: raw, Normalized: n, Weight: p.weight, Defaulted: defaulted}
		sum += p.weight * n
		wsum += p.weight
	}
	if wsum == 0 {
		return score.Insufficient(score.Flood, "no flood indicators for tract or borough")
	}
	return score.New(score.Flood, sum/wsum, comps)
}

// FloodEngine scores flood exposure of the located tract.
type FloodEngine struct {
	stats   StatsReader
	weights FloodWeights
}

// NewFloodEngine creates a flood engine.
func NewFloodEngine(stats StatsReader, w FloodWeights) *FloodEngine {
	return &FloodEngine{stats: stats, weights: w}
}

// Kind implements Engine.
func (e *FloodEngine) Kind() score.Kind { return score.Flood }

// Score implements Engine.
func (e *FloodEngine) Score(_ context.Context, in Input) (score.SubScore, error) {
	var medians *tract.Flood
	if st, ok := e.stats.BoroughStats(in.Tract.Borough()); ok {
		m := st.Flood
		medians = &m
	}
	return FloodScore(in.Tract.Flood(), medians, in.Horizon, e.weights), nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
