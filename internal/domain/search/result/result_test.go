package result

import (
	"testing"

	"github.com/kailas-cloud/riskdex/internal/domain/vectorindex"
)

func TestNew(t *testing.T) {
	md := vectorindex.Metadata{Horizon: "present", Borough: "Brooklyn", CombinedFloodIndex: 3.2}
	r := New("36047044900", 0.95, "tract text", md)

	if r.TractID() != "36047044900" {
		t.Errorf("TractID() = %q", r.TractID())
	}
	if r.Similarity() != 0.95 {
		t.Errorf("Similarity() = %f", r.Similarity())
	}
	if r.Text() != "tract text" {
		t.Errorf("Text() = %q", r.Text())
	}
	if r.Metadata().Borough != "Brooklyn" {
		t.Errorf("Metadata() = %+v", r.Metadata())
	}
}

func TestFromHit(t *testing.T) {
	d, err := vectorindex.NewDocument("a", []float32{1, 0}, "text a", vectorindex.Metadata{Horizon: "2050s"})
	if err != nil {
		t.Fatalf("NewDocument: %v", err)
	}
	r := FromHit(vectorindex.Hit{Document: d, Similarity: 0.5})
	if r.TractID() != "a" || r.Similarity() != 0.5 || r.Metadata().Horizon != "2050s" {
		t.Errorf("unexpected result %+v", r)
	}
}

func TestEmpty(t *testing.T) {
	r := Empty("q", 0)
	if r.Hits == nil || r.Len() != 0 {
		t.Errorf("Empty() must have a non-nil zero-length hit list, got %v", r.Hits)
	}
	if len(r.TractIDs()) != 0 {
		t.Errorf("TractIDs() = %v", r.TractIDs())
	}
}

func TestTractIDs(t *testing.T) {
	r := Retrieval{Hits: []Result{New("b", 0.9, "x", vectorindex.Metadata{}), New("a", 0.8, "y", vectorindex.Metadata{})}}
	ids := r.TractIDs()
	if len(ids) != 2 || ids[0] != "b" || ids[1] != "a" {
		t.Errorf("TractIDs() = %v", ids)
	}
}
