package riskctx

import (
	"testing"

	"github.com/kailas-cloud/riskdex/internal/domain/score"
)

func TestSubScoreLookup(t *testing.T) {
	rc := RiskContext{SubScores: []score.SubScore{
		score.New(score.Flood, 40, nil),
		score.Insufficient(score.Crime, "no complaints dataset"),
	}}

	f, ok := rc.SubScore(score.Flood)
	if !ok || f.Value != 40 {
		t.Errorf("flood lookup = %+v, %v", f, ok)
	}
	if _, ok := rc.SubScore(score.Property); ok {
		t.Error("property must be absent")
	}
	if rc.Computed() != 1 {
		t.Errorf("Computed() = %d, want 1", rc.Computed())
	}
}
