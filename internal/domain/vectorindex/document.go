package vectorindex

import (
	"fmt"
	"math"
)

// Metadata is the filterable context stored next to each vector.
type Metadata struct {
	Horizon string `json:"horizon"`
	Borough string `json:"borough"`
	// CombinedFloodIndex is 0 when the tract has no flood indicators.
	CombinedFloodIndex float64 `json:"combined_flood_index"`
	Lat                float64 `json:"lat"`
	Lon                float64 `json:"lon"`
}

// Document is one indexed tract (immutable value object).
type Document struct {
	tractID  string
	vector   []float32
	text     string
	metadata Metadata
	norm     float64
}

// NewDocument validates and creates a Document. The vector is copied.
func NewDocument(tractID string, vector []float32, text string, md Metadata) (Document, error) {
	if tractID == "" {
		return Document{}, fmt.Errorf("tract ID is required")
	}
	if len(vector) == 0 {
		return Document{}, fmt.Errorf("document %s: empty vector", tractID)
	}
	for i, v := range vector {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return Document{}, fmt.Errorf("document %s: non-finite vector component %d", tractID, i)
		}
	}
	if text == "" {
		return Document{}, fmt.Errorf("document %s: text is required", tractID)
	}
	v := make([]float32, len(vector))
	copy(v, vector)
	return Document{tractID: tractID, vector: v, text: text, metadata: md, norm: l2(v)}, nil
}

// TractID returns the census GEOID the document describes.
func (d *Document) TractID() string { return d.tractID }

// Vector returns the embedding vector. Callers must not modify it.
func (d *Document) Vector() []float32 { return d.vector }

// Text returns the embedded source text.
func (d *Document) Text() string { return d.text }

// Metadata returns the document metadata.
func (d *Document) Metadata() Metadata { return d.metadata }

func l2(v []float32) float64 {
	var s float64
	for _, x := range v {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s)
}
