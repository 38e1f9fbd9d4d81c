package scoring_test

import (
	"context"
	"math"
	"testing"

	"github.com/kailas-cloud/riskdex/internal/domain/score"
	"github.com/kailas-cloud/riskdex/internal/domain/tract"
	"github.com/kailas-cloud/riskdex/internal/usecase/featurestore/fixture"
	"github.com/kailas-cloud/riskdex/internal/usecase/scoring"
)

func TestEngines_MorganAve(t *testing.T) {
	store := fixture.Store()
	q, err := fixture.Geocoder().Geocode(context.Background(), fixture.MorganAddress)
	if err != nil {
		t.Fatalf("geocode: %v", err)
	}
	tr, err := store.Locate(context.Background(), q.Location)
	if err != nil {
		t.Fatalf("locate: %v", err)
	}

	cfg := scoring.DefaultConfig()
	r := scoring.NewRunner(cfg.EngineTimeout,
		scoring.NewFloodEngine(store, cfg.Flood),
		scoring.NewCrimeEngine(store, cfg.CrimeRadiusMeters, cfg.Severity, cfg.ScaleFactor),
		scoring.NewPropertyEngine(store, store, cfg.Property, cfg.ReferenceYear),
	)
	out := r.Run(context.Background(), scoring.Input{Query: q, Tract: tr, Horizon: tract.Present})

	for _, s := range out {
		if !s.IsComputed() {
			t.Errorf("%s not computed: %s", s.Kind, s.Reason)
		}
		if s.Value < 0 || s.Value > 100 {
			t.Errorf("%s out of range: %v", s.Kind, s.Value)
		}
	}
	// storm surge 3 -> 50, tidal 2 -> 25, fshri 4 -> 75
	if want := 0.4*50 + 0.3*25 + 0.3*75; math.Abs(out[0].Value-want) > 1e-9 {
		t.Errorf("flood = %v, want %v", out[0].Value, want)
	}
	if out[2].Confidence != 1 {
		t.Errorf("Morgan parcel has every attribute, confidence = %v", out[2].Confidence)
	}
	if out[0].Kind != score.Flood || out[1].Kind != score.Crime || out[2].Kind != score.Property {
		t.Error("runner must keep engine order")
	}

	b, err := store.Baseline(context.Background(), tr.Borough())
	if err != nil {
		t.Fatalf("baseline: %v", err)
	}
	crime := out[1].Components
	if got := crime[scoring.ComponentBaselineStd].Raw; got != b.StdDev {
		t.Errorf("baseline_std = %v, want %v", got, b.StdDev)
	}
	local := crime[scoring.ComponentLocalWeighted].Raw
	if got := crime[scoring.ComponentZScore].Raw; math.Abs(got-b.ZScore(local)) > 1e-9 {
		t.Errorf("z_score = %v, want %v", got, b.ZScore(local))
	}
	if out[1].Confidence != 1 {
		t.Errorf("dispersion components must not lower crime confidence, got %v", out[1].Confidence)
	}
}
