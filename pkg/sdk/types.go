package riskdex

import (
	"github.com/kailas-cloud/riskdex/internal/domain/riskctx"
	"github.com/kailas-cloud/riskdex/internal/domain/score"
)

// Sub-score kinds.
const (
	KindFlood    = string(score.Flood)
	KindCrime    = string(score.Crime)
	KindProperty = string(score.Property)
)

// Sub-score statuses.
const (
	StatusComputed         = string(score.Computed)
	StatusInsufficientData = string(score.InsufficientData)
)

// Component is one named contributing factor of a sub-score.
type Component struct {
	Raw        float64
	Normalized float64
	Weight     float64
	Defaulted  bool // raw value replaced by the borough median
}

// SubScore is one 0..100 engine result.
type SubScore struct {
	Kind       string
	Value      float64
	Status     string
	Confidence float64
	Reason     string
	Components map[string]Component
}

// SimilarTract is a tract with a comparable risk profile.
type SimilarTract struct {
	TractID    string
	Similarity float64
	Borough    string
	Summary    string
}

// RiskReport is the scored view of one address.
type RiskReport struct {
	ID             string
	Address        string
	MatchedAddress string
	Lat, Lon       float64
	TractID        string
	BBL            string
	Horizon        string
	Overall        float64
	OverallStatus  string
	SubScores      []SubScore
	Similar        []SimilarTract
	TractSummary   string
	IndexChecksum  string
}

// SubScore returns the sub-score of the given kind.
func (r *RiskReport) SubScore(kind string) (SubScore, bool) {
	for _, s := range r.SubScores {
		if s.Kind == kind {
			return s, true
		}
	}
	return SubScore{}, false
}

func reportFromContext(rc *riskctx.RiskContext) RiskReport {
	subs := make([]SubScore, len(rc.SubScores))
	for i, s := range rc.SubScores {
		var comps map[string]Component
		if len(s.Components) > 0 {
			comps = make(map[string]Component, len(s.Components))
			for name, c := range s.Components {
				comps[name] = Component(c)
			}
		}
		subs[i] = SubScore{
			Kind:       string(s.Kind),
			Value:      s.Value,
			Status:     string(s.Status),
			Confidence: s.Confidence,
			Reason:     s.Reason,
			Components: comps,
		}
	}
	similar := make([]SimilarTract, len(rc.Retrieval.Hits))
	for i := range rc.Retrieval.Hits {
		h := &rc.Retrieval.Hits[i]
		similar[i] = SimilarTract{
			TractID:    h.TractID(),
			Similarity: h.Similarity(),
			Borough:    h.Metadata().Borough,
			Summary:    h.Text(),
		}
	}
	return RiskReport{
		ID:             rc.ID,
		Address:        rc.Query.Raw,
		MatchedAddress: rc.Query.Matched,
		Lat:            rc.Query.Location.Lat,
		Lon:            rc.Query.Location.Lon,
		TractID:        rc.Query.TractID,
		BBL:            rc.Query.BBL,
		Horizon:        rc.Horizon,
		Overall:        rc.Overall.Value,
		OverallStatus:  string(rc.Overall.Status),
		SubScores:      subs,
		Similar:        similar,
		TractSummary:   rc.TractSummary,
		IndexChecksum:  rc.IndexChecksum,
	}
}
