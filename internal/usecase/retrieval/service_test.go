package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/riskdex/internal/domain"
	"github.com/kailas-cloud/riskdex/internal/domain/tract"
	"github.com/kailas-cloud/riskdex/internal/domain/vectorindex"
	"github.com/kailas-cloud/riskdex/internal/usecase/featurestore/fixture"
)

type stubEmbedder struct {
	version string
	vec     []float32
	err     error
	calls   int
}

func (s *stubEmbedder) Embed(context.Context, string) (domain.EmbeddingResult, error) {
	s.calls++
	if s.err != nil {
		return domain.EmbeddingResult{}, s.err
	}
	return domain.EmbeddingResult{Embedding: s.vec}, nil
}

func (s *stubEmbedder) Version() string { return s.version }

const version = "stub/v1/2"

func threeDocIndex(t *testing.T) *vectorindex.Index {
	t.Helper()
	mk := func(id string, v ...float32) vectorindex.Document {
		d, err := vectorindex.NewDocument(id, v, "doc "+id, vectorindex.Metadata{Horizon: "present"})
		if err != nil {
			t.Fatalf("NewDocument: %v", err)
		}
		return d
	}
	ix, err := vectorindex.New(version, []vectorindex.Document{
		mk("c", 0, 1),
		mk("a", 1, 0),
		mk("b", 1, 1),
	})
	if err != nil {
		t.Fatalf("vectorindex.New: %v", err)
	}
	return ix
}

func TestRetrieve_KLargerThanIndex(t *testing.T) {
	emb := &stubEmbedder{version: version, vec: []float32{1, 0}}
	svc := New(threeDocIndex(t), emb)

	got, err := svc.Retrieve(context.Background(), "q", 5)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if got.Len() != 3 {
		t.Fatalf("expected 3 hits, got %d", got.Len())
	}
	ids := strings.Join(got.TractIDs(), ",")
	if ids != "a,b,c" {
		t.Errorf("unexpected ranking %s", ids)
	}
	for i := 1; i < got.Len(); i++ {
		if got.Hits[i].Similarity() > got.Hits[i-1].Similarity() {
			t.Errorf("hits not sorted by descending similarity: %v", got.Hits)
		}
	}
	if got.EmbeddingVersion != version || got.IndexChecksum != svc.Index().Checksum() || got.K != 5 {
		t.Errorf("unexpected retrieval metadata %+v", got)
	}
}

func TestRetrieve_TiesByTractID(t *testing.T) {
	emb := &stubEmbedder{version: version, vec: []float32{1, 1}}
	got, err := New(threeDocIndex(t), emb).Retrieve(context.Background(), "q", 3)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	// a and c are equally similar to (1,1)
	if ids := strings.Join(got.TractIDs(), ","); ids != "b,a,c" {
		t.Errorf("unexpected ranking %s", ids)
	}
}

func TestRetrieve_ZeroK(t *testing.T) {
	emb := &stubEmbedder{version: version, vec: []float32{1, 0}}
	got, err := New(threeDocIndex(t), emb).Retrieve(context.Background(), "q", 0)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if got.Len() != 0 || got.Hits == nil {
		t.Errorf("expected empty non-nil hits, got %+v", got.Hits)
	}
	if emb.calls != 0 {
		t.Error("k=0 must not embed the query")
	}
}

func TestRetrieve_NegativeK(t *testing.T) {
	emb := &stubEmbedder{version: version, vec: []float32{1, 0}}
	_, err := New(threeDocIndex(t), emb).Retrieve(context.Background(), "q", -1)
	if !errors.Is(err, domain.ErrInvalidK) {
		t.Fatalf("expected ErrInvalidK, got %v", err)
	}
}

func TestRetrieve_StaleVersion(t *testing.T) {
	emb := &stubEmbedder{version: "stub/v2/2", vec: []float32{1, 0}}
	_, err := New(threeDocIndex(t), emb).Retrieve(context.Background(), "q", 0)
	var se *domain.StaleIndexError
	if !errors.As(err, &se) {
		t.Fatalf("expected StaleIndexError, got %v", err)
	}
	if se.IndexVersion != version || se.QueryVersion != "stub/v2/2" {
		t.Errorf("unexpected versions %+v", se)
	}
}

func TestRetrieve_DimensionMismatchIsStale(t *testing.T) {
	emb := &stubEmbedder{version: version, vec: []float32{1, 0, 0}}
	_, err := New(threeDocIndex(t), emb).Retrieve(context.Background(), "q", 2)
	if !errors.Is(err, domain.ErrStaleIndex) {
		t.Fatalf("expected ErrStaleIndex, got %v", err)
	}
}

func TestRetrieve_EmbedError(t *testing.T) {
	emb := &stubEmbedder{version: version, err: domain.ErrEmbeddingProviderError}
	_, err := New(threeDocIndex(t), emb).Retrieve(context.Background(), "q", 2)
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestRetrieve_EmptyIndex(t *testing.T) {
	ix, _ := vectorindex.New(version, nil)
	emb := &stubEmbedder{version: version, vec: []float32{1, 0}}
	got, err := New(ix, emb).Retrieve(context.Background(), "q", 5)
	if err != nil || got.Len() != 0 {
		t.Fatalf("expected empty retrieval, got %+v, %v", got, err)
	}
}

func TestQueryText(t *testing.T) {
	tr := fixture.Tracts()[0]
	q := QueryText(&tr, tract.H2050s)
	if q != tr.ProfileQuery(tract.H2050s) {
		t.Error("query text must be the tract risk profile")
	}
	if !strings.Contains(q, "Brooklyn") || !strings.Contains(q, "2050s") {
		t.Errorf("unexpected query %q", q)
	}
}
