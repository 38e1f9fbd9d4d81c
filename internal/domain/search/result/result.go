package result

import "github.com/kailas-cloud/riskdex/internal/domain/vectorindex"

// Result is a single retrieval hit.
type Result struct {
	tractID    string
	similarity float64
	text       string
	metadata   vectorindex.Metadata
}

// New creates a retrieval hit.
func New(tractID string, similarity float64, text string, md vectorindex.Metadata) Result {
	return Result{tractID: tractID, similarity: similarity, text: text, metadata: md}
}

// FromHit converts an index hit.
func FromHit(h vectorindex.Hit) Result {
	return New(h.Document.TractID(), h.Similarity, h.Document.Text(), h.Document.Metadata())
}

// TractID returns the census tract identifier of the hit.
func (r *Result) TractID() string { return r.tractID }

// Similarity returns the cosine similarity to the query.
func (r *Result) Similarity() float64 { return r.similarity }

// Text returns the indexed document text.
func (r *Result) Text() string { return r.text }

// Metadata returns the indexed document metadata.
func (r *Result) Metadata() vectorindex.Metadata { return r.metadata }

// Retrieval is an ordered top-k answer from the document index.
// Hits are sorted by descending similarity, ties by tract ID.
type Retrieval struct {
	Query            string
	K                int
	Hits             []Result
	EmbeddingVersion string
	IndexChecksum    string
}

// Empty returns a retrieval with no hits for the given query.
func Empty(query string, k int) Retrieval {
	return Retrieval{Query: query, K: k, Hits: []Result{}}
}

// Len returns the number of hits.
func (r Retrieval) Len() int { return len(r.Hits) }

// TractIDs returns hit tract IDs in rank order.
func (r Retrieval) TractIDs() []string {
	ids := make([]string, len(r.Hits))
	for i := range r.Hits {
		ids[i] = r.Hits[i].tractID
	}
	return ids
}
