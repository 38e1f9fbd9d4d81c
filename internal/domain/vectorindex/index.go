// Package vectorindex is the immutable in-memory vector index over tract documents.
// An Index is never mutated after construction, so concurrent Search calls need no locking.
package vectorindex

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"sort"

	"github.com/kailas-cloud/riskdex/internal/domain"
)

// Hit is a document with its cosine similarity to the query.
type Hit struct {
	Document   Document
	Similarity float64
}

// Index holds documents sorted by tract ID plus the embedding version they were built with.
type Index struct {
	version  string
	dims     int
	docs     []Document
	byID     map[string]int
	checksum string
}

// New validates documents and builds an index. Documents are sorted by tract ID,
// so the checksum depends only on content, not on input order.
func New(version string, docs []Document) (*Index, error) {
	if version == "" {
		return nil, fmt.Errorf("embedding version is required")
	}
	sorted := make([]Document, len(docs))
	copy(sorted, docs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].tractID < sorted[j].tractID })

	ix := &Index{version: version, docs: sorted, byID: make(map[string]int, len(sorted))}
	for i := range sorted {
		d := &sorted[i]
		if _, dup := ix.byID[d.tractID]; dup {
			return nil, fmt.Errorf("%w: %s", domain.ErrDocumentExists, d.tractID)
		}
		if ix.dims == 0 {
			ix.dims = len(d.vector)
		} else if len(d.vector) != ix.dims {
			return nil, fmt.Errorf("%w: document %s has %d dims, index has %d",
				domain.ErrVectorDimMismatch, d.tractID, len(d.vector), ix.dims)
		}
		ix.byID[d.tractID] = i
	}
	ix.checksum = checksum(version, sorted)
	return ix, nil
}

// Version returns the embedding version the index was built with.
func (ix *Index) Version() string { return ix.version }

// Dimensions returns the vector dimension, 0 for an empty index.
func (ix *Index) Dimensions() int { return ix.dims }

// Len returns the number of documents.
func (ix *Index) Len() int { return len(ix.docs) }

// Checksum returns the hex SHA-256 over version and all document contents.
func (ix *Index) Checksum() string { return ix.checksum }

// Documents returns the documents in tract ID order.
func (ix *Index) Documents() []Document {
	out := make([]Document, len(ix.docs))
	copy(out, ix.docs)
	return out
}

// Get returns the document for a tract.
func (ix *Index) Get(tractID string) (Document, bool) {
	i, ok := ix.byID[tractID]
	if !ok {
		return Document{}, false
	}
	return ix.docs[i], true
}

// Append returns a new index with additional documents. Existing tracts cannot be replaced.
func (ix *Index) Append(docs []Document) (*Index, error) {
	for i := range docs {
		if _, ok := ix.byID[docs[i].tractID]; ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrDocumentExists, docs[i].tractID)
		}
	}
	merged := make([]Document, 0, len(ix.docs)+len(docs))
	merged = append(merged, ix.docs...)
	merged = append(merged, docs...)
	return New(ix.version, merged)
}

// Search returns the k documents most cosine-similar to query, by descending
// similarity and ascending tract ID on ties. k larger than the index returns everything;
// k <= 0 returns nothing.
func (ix *Index) Search(query []float32, k int) ([]Hit, error) {
	if k <= 0 || len(ix.docs) == 0 {
		return []Hit{}, nil
	}
	if len(query) != ix.dims {
		return nil, fmt.Errorf("%w: query has %d dims, index has %d", domain.ErrVectorDimMismatch, len(query), ix.dims)
	}
	qn := l2(query)

	hits := make([]Hit, len(ix.docs))
	for i := range ix.docs {
		hits[i] = Hit{Document: ix.docs[i], Similarity: cosine(query, qn, &ix.docs[i])}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].Document.tractID < hits[j].Document.tractID
	})
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

func cosine(q []float32, qn float64, d *Document) float64 {
	if qn == 0 || d.norm == 0 {
		return 0
	}
	var dot float64
	for i, x := range q {
		dot += float64(x) * float64(d.vector[i])
	}
	return dot / (qn * d.norm)
}

func checksum(version string, docs []Document) string {
	h := sha256.New()
	var buf [8]byte
	writeStr := func(s string) {
		binary.LittleEndian.PutUint64(buf[:], uint64(len(s)))
		h.Write(buf[:])
		h.Write([]byte(s))
	}
	writeF64 := func(f float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
		h.Write(buf[:])
	}

	writeStr(version)
	for i := range docs {
		d := &docs[i]
		writeStr(d.tractID)
		binary.LittleEndian.PutUint64(buf[:], uint64(len(d.vector)))
		h.Write(buf[:])
		for _, x := range d.vector {
			binary.LittleEndian.PutUint32(buf[:4], math.Float32bits(x))
			h.Write(buf[:4])
		}
		writeStr(d.text)
		writeStr(d.metadata.Horizon)
		writeStr(d.metadata.Borough)
		writeF64(d.metadata.CombinedFloodIndex)
		writeF64(d.metadata.Lat)
		writeF64(d.metadata.Lon)
	}
	return hex.EncodeToString(h.Sum(nil))
}
