package chi

import (
	"github.com/kailas-cloud/riskdex/internal/domain/riskctx"
	"github.com/kailas-cloud/riskdex/internal/domain/score"
)

// RiskRequest is the JSON body of POST /v1/risk and POST /v1/risk/explain.
type RiskRequest struct {
	Address string `json:"address"`
	Horizon string `json:"horizon,omitempty"`
	K       *int   `json:"k,omitempty"`
}

// Location is a WGS84 coordinate.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// SimilarTract is one retrieval hit.
type SimilarTract struct {
	TractID            string  `json:"tract_id"`
	Similarity         float64 `json:"similarity"`
	Borough            string  `json:"borough,omitempty"`
	CombinedFloodIndex float64 `json:"combined_flood_index"`
	Summary            string  `json:"summary"`
}

// RiskResponse is the JSON rendering of a risk context.
type RiskResponse struct {
	ID               string           `json:"id"`
	Address          string           `json:"address"`
	MatchedAddress   string           `json:"matched_address,omitempty"`
	Location         Location         `json:"location"`
	TractID          string           `json:"tract_id"`
	BBL              string           `json:"bbl,omitempty"`
	Horizon          string           `json:"horizon"`
	Overall          riskctx.Overall  `json:"overall"`
	SubScores        []score.SubScore `json:"sub_scores"`
	SimilarTracts    []SimilarTract   `json:"similar_tracts"`
	TractSummary     string           `json:"tract_summary"`
	EmbeddingVersion string           `json:"embedding_version,omitempty"`
	IndexChecksum    string           `json:"index_checksum,omitempty"`
	Explanation      string           `json:"explanation,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func riskToResponse(rc *riskctx.RiskContext) RiskResponse {
	similar := make([]SimilarTract, 0, rc.Retrieval.Len())
	for i := range rc.Retrieval.Hits {
		h := &rc.Retrieval.Hits[i]
		md := h.Metadata()
		similar = append(similar, SimilarTract{
			TractID:            h.TractID(),
			Similarity:         h.Similarity(),
			Borough:            md.Borough,
			CombinedFloodIndex: md.CombinedFloodIndex,
			Summary:            h.Text(),
		})
	}
	subScores := rc.SubScores
	if subScores == nil {
		subScores = []score.SubScore{}
	}
	return RiskResponse{
		ID:               rc.ID,
		Address:          rc.Query.Raw,
		MatchedAddress:   rc.Query.Matched,
		Location:         Location{Lat: rc.Query.Location.Lat, Lon: rc.Query.Location.Lon},
		TractID:          rc.Query.TractID,
		BBL:              rc.Query.BBL,
		Horizon:          rc.Horizon,
		Overall:          rc.Overall,
		SubScores:        subScores,
		SimilarTracts:    similar,
		TractSummary:     rc.TractSummary,
		EmbeddingVersion: rc.Retrieval.EmbeddingVersion,
		IndexChecksum:    rc.IndexChecksum,
	}
}
