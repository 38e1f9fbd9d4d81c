package tract

import (
	"fmt"
	"math"
	"strings"
)

// Weights of the combined flood index written into tract summaries.
// Summaries feed the embedding, so these stay fixed regardless of scoring config.
const (
	summarySurgeWeight = 0.4
	summaryTidalWeight = 0.3
	summaryFSHRIWeight = 0.3
)

var riskLevels = map[int]string{1: "very low", 2: "low", 3: "moderate", 4: "high", 5: "very high"}

// RiskLevel maps an FVI value to its 1..5 label.
func RiskLevel(v float64) string {
	if math.IsNaN(v) {
		return "unknown"
	}
	if l, ok := riskLevels[int(math.Round(v))]; ok {
		return l
	}
	return "unknown"
}

// CompositeStormSurge is the mean of the available storm surge horizons.
func (f Flood) CompositeStormSurge() float64 {
	return nanMean(f.StormSurgePresent, f.StormSurge2050s, f.StormSurge2080s)
}

// CompositeTidal is the mean of the available tidal horizons.
func (f Flood) CompositeTidal() float64 {
	return nanMean(f.Tidal2020s, f.Tidal2050s, f.Tidal2080s)
}

// CombinedIndex weights composite surge, composite tidal and FSHRI, renormalized
// over whichever of the three are present. NaN when none are.
func (f Flood) CombinedIndex() float64 {
	parts := [][2]float64{
		{f.CompositeStormSurge(), summarySurgeWeight},
		{f.CompositeTidal(), summaryTidalWeight},
		{f.FSHRI, summaryFSHRIWeight},
	}
	var sum, weight float64
	for _, p := range parts {
		if math.IsNaN(p[0]) {
			continue
		}
		sum += p[0] * p[1]
		weight += p[1]
	}
	if weight == 0 {
		return math.NaN()
	}
	return sum / weight
}

// Summary renders the deterministic natural-language profile that is embedded
// into the document index. Identical tracts always produce identical text.
func (t *Tract) Summary() string {
	f := t.flood
	var b strings.Builder

	fmt.Fprintf(&b, "NYC census tract %s in %s flood and safety profile. ", t.id, t.borough)
	fmt.Fprintf(&b, "Socioeconomic flood vulnerability (FSHRI): %s / 5, %s capacity to recover from floods. ",
		fmtFVI(f.FSHRI), RiskLevel(f.FSHRI))
	fmt.Fprintf(&b, "Storm surge flood vulnerability: present=%s, 2050s=%s (%s), 2080s=%s. ",
		fmtFVI(f.StormSurgePresent), fmtFVI(f.StormSurge2050s), RiskLevel(f.StormSurge2050s), fmtFVI(f.StormSurge2080s))
	fmt.Fprintf(&b, "Tidal flood vulnerability: 2020s=%s, 2050s=%s, 2080s=%s. ",
		fmtFVI(f.Tidal2020s), fmtFVI(f.Tidal2050s), fmtFVI(f.Tidal2080s))

	if c := f.CombinedIndex(); !math.IsNaN(c) {
		fmt.Fprintf(&b, "Combined flood risk index: %.2f / 5, %s overall flood exposure. ", c, RiskLevel(c))
	}

	switch ss := f.StormSurge2050s; {
	case math.IsNaN(ss):
	case ss >= 4:
		b.WriteString("HIGH storm surge risk projected by 2050 as sea levels rise; " +
			"elevated flood insurance costs and displacement pressure are likely. ")
	case ss >= 3:
		b.WriteString("MODERATE storm surge vulnerability by 2050; " +
			"flood insurance requirements and basement flooding events are likely to increase. ")
	default:
		b.WriteString("LOW storm surge risk projected through the 2050s. ")
	}

	switch fs := f.FSHRI; {
	case math.IsNaN(fs):
	case fs >= 4:
		b.WriteString("Highly vulnerable community with limited resources for flood recovery, insurance or relocation. ")
	case fs >= 3:
		b.WriteString("Moderate socioeconomic vulnerability; disaster recovery capacity may be constrained. ")
	}

	c := t.crime
	fmt.Fprintf(&b, "Recorded complaints inside the tract: %d felonies, %d misdemeanors, %d violations.",
		c.Felonies, c.Misdemeanors, c.Violations)

	return b.String()
}

// ProfileQuery renders the retrieval query for a location in this tract: engineered
// risk labels rather than coordinates, so retrieval matches tracts with similar
// exposure instead of merely nearby ones.
func (t *Tract) ProfileQuery(h Horizon) string {
	f := t.flood
	ss := f.StormSurge(h)
	return fmt.Sprintf(
		"NYC census tract in %s with %s socioeconomic vulnerability and %s storm surge flood risk (%s horizon), "+
			"%s tidal flood risk. FSHRI=%s, storm surge=%s, tidal=%s.",
		t.borough, RiskLevel(f.FSHRI), RiskLevel(ss), h, RiskLevel(f.Tidal(h)),
		fmtFVI(f.FSHRI), fmtFVI(ss), fmtFVI(f.Tidal(h)),
	)
}

func fmtFVI(v float64) string {
	if math.IsNaN(v) {
		return "N/A"
	}
	return fmt.Sprintf("%.1f", v)
}

func nanMean(vals ...float64) float64 {
	var sum float64
	var n int
	for _, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}
