// Package score defines the normalized 0..100 sub-score produced by each risk engine.
package score

import (
	"math"
	"sort"
)

// Kind names the engine that produced a sub-score.
type Kind string

// Sub-score kinds.
const (
	Flood    Kind = "flood"
	Crime    Kind = "crime"
	Property Kind = "property"
)

// Kinds lists every engine in presentation order.
var Kinds = []Kind{Flood, Crime, Property}

// Status tells callers how far to trust a sub-score.
type Status string

const (
	// Computed means the engine had usable data for the location.
	Computed Status = "computed"
	// InsufficientData means the engine could not score the location; Value is 0 and Confidence is 0.
	InsufficientData Status = "insufficient_data"
)

// MinValue and MaxValue bound every sub-score.
const (
	MinValue = 0.0
	MaxValue = 100.0
)

// Component is one named contributing factor.
type Component struct {
	Raw        float64 `json:"raw"`
	Normalized float64 `json:"normalized"`
	Weight     float64 `json:"weight"`
	// Defaulted marks a raw value replaced by the borough median.
	Defaulted bool `json:"defaulted,omitempty"`
}

// SubScore is the output of one engine.
type SubScore struct {
	Kind       Kind                 `json:"kind"`
	Value      float64              `json:"value"`
	Status     Status               `json:"status"`
	Confidence float64              `json:"confidence"`
	Reason     string               `json:"reason,omitempty"`
	Components map[string]Component `json:"components,omitempty"`
}

// Clamp bounds v to [0,100]. NaN maps to 0.
func Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return MinValue
	}
	return math.Max(MinValue, math.Min(MaxValue, v))
}

// Clamp01 bounds v to [0,1]. NaN maps to 0.
func Clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

// New builds a computed sub-score. Value is clamped; confidence is the share of
// components that were not defaulted.
func New(kind Kind, value float64, components map[string]Component) SubScore {
	conf := 1.0
	if len(components) > 0 {
		var own int
		for _, c := range components {
			if !c.Defaulted {
				own++
			}
		}
		conf = float64(own) / float64(len(components))
	}
	return SubScore{
		Kind:       kind,
		Value:      Clamp(value),
		Status:     Computed,
		Confidence: conf,
		Components: sanitize(components),
	}
}

// Insufficient builds a zero-confidence sub-score carrying the reason.
func Insufficient(kind Kind, reason string) SubScore {
	return SubScore{
		Kind:       kind,
		Value:      MinValue,
		Status:     InsufficientData,
		Confidence: 0,
		Reason:     reason,
	}
}

// IsComputed reports whether the sub-score may be presented as fully computed.
func (s SubScore) IsComputed() bool { return s.Status == Computed }

// ComponentNames returns component names in sorted order.
func (s SubScore) ComponentNames() []string {
	names := make([]string, 0, len(s.Components))
	for n := range s.Components {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// sanitize replaces non-finite numbers so components always serialize.
func sanitize(in map[string]Component) map[string]Component {
	if in == nil {
		return nil
	}
	out := make(map[string]Component, len(in))
	for k, c := range in {
		if math.IsNaN(c.Raw) || math.IsInf(c.Raw, 0) {
			c.Raw = 0
		}
		c.Normalized = Clamp(c.Normalized)
		out[k] = c
	}
	return out
}
