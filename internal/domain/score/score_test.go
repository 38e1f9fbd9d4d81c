package score

import (
	"encoding/json"
	"math"
	"testing"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-5, 0},
		{0, 0},
		{42.5, 42.5},
		{100, 100},
		{1e9, 100},
		{math.NaN(), 0},
		{math.Inf(1), 100},
		{math.Inf(-1), 0},
	}
	for _, tc := range tests {
		if got := Clamp(tc.in); got != tc.want {
			t.Errorf("Clamp(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestClamp01(t *testing.T) {
	if Clamp01(math.NaN()) != 0 || Clamp01(2) != 1 || Clamp01(-1) != 0 || Clamp01(0.3) != 0.3 {
		t.Error("Clamp01 out of bounds")
	}
}

func TestNew_ClampsAndConfidence(t *testing.T) {
	s := New(Flood, 250, map[string]Component{
		"storm_surge": {Raw: 4, Normalized: 75},
		"tidal":       {Raw: 2, Normalized: 25, Defaulted: true},
	})
	if s.Value != 100 {
		t.Errorf("want clamped 100, got %v", s.Value)
	}
	if s.Confidence != 0.5 {
		t.Errorf("want confidence 0.5, got %v", s.Confidence)
	}
	if !s.IsComputed() {
		t.Error("expected computed status")
	}
}

func TestNew_SanitizesComponents(t *testing.T) {
	s := New(Property, math.NaN(), map[string]Component{
		"ratio": {Raw: math.NaN(), Normalized: math.Inf(1)},
	})
	if s.Value != 0 {
		t.Errorf("NaN value must clamp to 0, got %v", s.Value)
	}
	if _, err := json.Marshal(s); err != nil {
		t.Fatalf("sub-score must always serialize: %v", err)
	}
	if c := s.Components["ratio"]; c.Raw != 0 || c.Normalized != 100 {
		t.Errorf("unexpected sanitized component %+v", c)
	}
}

func TestInsufficient(t *testing.T) {
	s := Insufficient(Crime, "no complaints dataset")
	if s.IsComputed() || s.Value != 0 || s.Confidence != 0 || s.Reason == "" {
		t.Errorf("unexpected insufficient sub-score %+v", s)
	}
}

func TestComponentNames_Sorted(t *testing.T) {
	s := New(Flood, 10, map[string]Component{"b": {}, "a": {}, "c": {}})
	names := s.ComponentNames()
	if len(names) != 3 || names[0] != "a" || names[2] != "c" {
		t.Errorf("unexpected order %v", names)
	}
}
