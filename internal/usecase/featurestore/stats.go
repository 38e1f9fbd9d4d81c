package featurestore

import (
	"math"
	"sort"

	"github.com/kailas-cloud/riskdex/internal/domain/borough"
	"github.com/kailas-cloud/riskdex/internal/domain/parcel"
	"github.com/kailas-cloud/riskdex/internal/domain/tract"
)

// BoroughStats holds borough medians used to fill missing engine inputs.
// A NaN median means no tract or parcel in the borough had the value.
type BoroughStats struct {
	Borough        borough.Borough
	Flood          tract.Flood
	YearBuilt      float64
	ValueLandRatio float64
	ClassTier      float64
	Tracts         int
	Parcels        int
}

func computeStats(tracts []tract.Tract, parcels map[string]parcel.Parcel) map[borough.Borough]BoroughStats {
	type acc struct {
		surgeP, surge50, surge80, tidal20, tidal50, tidal80, fshri []float64
		year, ratio, tier                                          []float64
		tracts, parcels                                            int
	}
	accs := make(map[borough.Borough]*acc)
	get := func(b borough.Borough) *acc {
		a, ok := accs[b]
		if !ok {
			a = &acc{}
			accs[b] = a
		}
		return a
	}

	for i := range tracts {
		t := &tracts[i]
		a := get(t.Borough())
		a.tracts++
		f := t.Flood()
		a.surgeP = appendKnown(a.surgeP, f.StormSurgePresent)
		a.surge50 = appendKnown(a.surge50, f.StormSurge2050s)
		a.surge80 = appendKnown(a.surge80, f.StormSurge2080s)
		a.tidal20 = appendKnown(a.tidal20, f.Tidal2020s)
		a.tidal50 = appendKnown(a.tidal50, f.Tidal2050s)
		a.tidal80 = appendKnown(a.tidal80, f.Tidal2080s)
		a.fshri = appendKnown(a.fshri, f.FSHRI)
	}
	for _, p := range parcels {
		if !p.Borough.Valid() {
			continue
		}
		a := get(p.Borough)
		a.parcels++
		a.year = appendKnown(a.year, p.YearBuilt)
		a.ratio = appendKnown(a.ratio, p.ValueToLandRatio())
		if tier := parcel.ClassTier(p.BuildingClass); tier > 0 {
			a.tier = append(a.tier, float64(tier))
		}
	}

	out := make(map[borough.Borough]BoroughStats, len(accs))
	for b, a := range accs {
		out[b] = BoroughStats{
			Borough: b,
			Flood: tract.Flood{
				StormSurgePresent: median(a.surgeP),
				StormSurge2050s:   median(a.surge50),
				StormSurge2080s:   median(a.surge80),
				Tidal2020s:        median(a.tidal20),
				Tidal2050s:        median(a.tidal50),
				Tidal2080s:        median(a.tidal80),
				FSHRI:             median(a.fshri),
			},
			YearBuilt:      median(a.year),
			ValueLandRatio: median(a.ratio),
			ClassTier:      median(a.tier),
			Tracts:         a.tracts,
			Parcels:        a.parcels,
		}
	}
	return out
}

func appendKnown(vs []float64, v float64) []float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return vs
	}
	return append(vs, v)
}

// median returns the middle value (mean of the two middle values for even
// lengths), NaN for an empty slice. vs is sorted in place.
func median(vs []float64) float64 {
	n := len(vs)
	if n == 0 {
		return math.NaN()
	}
	sort.Float64s(vs)
	if n%2 == 1 {
		return vs[n/2]
	}
	return (vs[n/2-1] + vs[n/2]) / 2
}
