package vectorindex

import (
	"errors"
	"math"
	"testing"

	"github.com/kailas-cloud/riskdex/internal/domain"
)

func mustDoc(t *testing.T, id string, v ...float32) Document {
	t.Helper()
	d, err := NewDocument(id, v, "tract "+id, Metadata{Horizon: "present", Borough: "Brooklyn"})
	if err != nil {
		t.Fatalf("NewDocument(%s): %v", id, err)
	}
	return d
}

func TestNewDocument_Validation(t *testing.T) {
	if _, err := NewDocument("", []float32{1}, "x", Metadata{}); err == nil {
		t.Error("expected error for empty id")
	}
	if _, err := NewDocument("a", nil, "x", Metadata{}); err == nil {
		t.Error("expected error for empty vector")
	}
	if _, err := NewDocument("a", []float32{float32(math.NaN())}, "x", Metadata{}); err == nil {
		t.Error("expected error for NaN component")
	}
	if _, err := NewDocument("a", []float32{1}, "", Metadata{}); err == nil {
		t.Error("expected error for empty text")
	}
}

func TestNewDocument_CopiesVector(t *testing.T) {
	v := []float32{1, 2}
	d, _ := NewDocument("a", v, "x", Metadata{})
	v[0] = 99
	if d.Vector()[0] != 1 {
		t.Fatal("document must not alias the caller's vector")
	}
}

func TestNew_SortsAndRejectsDuplicates(t *testing.T) {
	ix, err := New("stub/v1/2", []Document{mustDoc(t, "b", 1, 0), mustDoc(t, "a", 0, 1)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	docs := ix.Documents()
	if docs[0].TractID() != "a" || docs[1].TractID() != "b" {
		t.Errorf("documents not sorted: %s, %s", docs[0].TractID(), docs[1].TractID())
	}
	if ix.Dimensions() != 2 || ix.Len() != 2 {
		t.Errorf("unexpected shape dims=%d len=%d", ix.Dimensions(), ix.Len())
	}

	_, err = New("stub/v1/2", []Document{mustDoc(t, "a", 1, 0), mustDoc(t, "a", 0, 1)})
	if !errors.Is(err, domain.ErrDocumentExists) {
		t.Errorf("expected ErrDocumentExists, got %v", err)
	}
	_, err = New("stub/v1/2", []Document{mustDoc(t, "a", 1, 0), mustDoc(t, "b", 0, 1, 0)})
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Errorf("expected ErrVectorDimMismatch, got %v", err)
	}
	if _, err := New("", nil); err == nil {
		t.Error("expected error for empty version")
	}
}

func TestChecksum_OrderIndependentAndContentSensitive(t *testing.T) {
	a, _ := New("v", []Document{mustDoc(t, "a", 1, 0), mustDoc(t, "b", 0, 1)})
	b, _ := New("v", []Document{mustDoc(t, "b", 0, 1), mustDoc(t, "a", 1, 0)})
	if a.Checksum() != b.Checksum() {
		t.Fatal("checksum must not depend on input order")
	}
	c, _ := New("v", []Document{mustDoc(t, "a", 1, 0), mustDoc(t, "b", 0, 0.5)})
	if a.Checksum() == c.Checksum() {
		t.Fatal("checksum must change with vector contents")
	}
	d, _ := New("w", []Document{mustDoc(t, "a", 1, 0), mustDoc(t, "b", 0, 1)})
	if a.Checksum() == d.Checksum() {
		t.Fatal("checksum must change with embedding version")
	}
}

func TestSearch_RanksByCosine(t *testing.T) {
	ix, _ := New("v", []Document{
		mustDoc(t, "far", -1, 0),
		mustDoc(t, "near", 1, 0.1),
		mustDoc(t, "mid", 1, 1),
	})
	hits, err := ix.Search([]float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 3 {
		t.Fatalf("k > size must return all documents, got %d", len(hits))
	}
	want := []string{"near", "mid", "far"}
	for i, h := range hits {
		if h.Document.TractID() != want[i] {
			t.Errorf("rank %d: want %s, got %s", i, want[i], h.Document.TractID())
		}
		if i > 0 && hits[i-1].Similarity < h.Similarity {
			t.Errorf("similarities not descending at %d", i)
		}
	}
	if math.Abs(hits[2].Similarity+1) > 1e-9 {
		t.Errorf("opposite vector must score -1, got %f", hits[2].Similarity)
	}
}

func TestSearch_TiesBrokenByTractID(t *testing.T) {
	ix, _ := New("v", []Document{mustDoc(t, "c", 2, 0), mustDoc(t, "a", 1, 0), mustDoc(t, "b", 3, 0)})
	hits, _ := ix.Search([]float32{1, 0}, 2)
	if len(hits) != 2 || hits[0].Document.TractID() != "a" || hits[1].Document.TractID() != "b" {
		t.Fatalf("unexpected tie-break order: %v", hits)
	}
}

func TestSearch_ZeroK(t *testing.T) {
	ix, _ := New("v", []Document{mustDoc(t, "a", 1, 0)})
	hits, err := ix.Search([]float32{1, 0}, 0)
	if err != nil || len(hits) != 0 {
		t.Fatalf("k=0 must return empty without error, got %v, %v", hits, err)
	}
}

func TestSearch_DimensionMismatch(t *testing.T) {
	ix, _ := New("v", []Document{mustDoc(t, "a", 1, 0)})
	if _, err := ix.Search([]float32{1, 0, 0}, 1); !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Fatalf("expected ErrVectorDimMismatch, got %v", err)
	}
}

func TestSearch_ZeroQueryVector(t *testing.T) {
	ix, _ := New("v", []Document{mustDoc(t, "a", 1, 0)})
	hits, err := ix.Search([]float32{0, 0}, 1)
	if err != nil || len(hits) != 1 || hits[0].Similarity != 0 {
		t.Fatalf("zero query must score 0, got %v, %v", hits, err)
	}
}

func TestAppend(t *testing.T) {
	ix, _ := New("v", []Document{mustDoc(t, "a", 1, 0)})
	grown, err := ix.Append([]Document{mustDoc(t, "b", 0, 1)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if grown.Len() != 2 || ix.Len() != 1 {
		t.Fatalf("append must not mutate the original: %d/%d", grown.Len(), ix.Len())
	}
	if _, err := grown.Append([]Document{mustDoc(t, "a", 1, 0)}); !errors.Is(err, domain.ErrDocumentExists) {
		t.Fatalf("expected ErrDocumentExists, got %v", err)
	}
	if _, ok := grown.Get("b"); !ok {
		t.Fatal("expected appended document to be retrievable")
	}
}
