// Package retrieval runs cosine top-k search of a risk-profile query over the
// tract document index.
package retrieval

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/riskdex/internal/domain"
	"github.com/kailas-cloud/riskdex/internal/domain/search/result"
	"github.com/kailas-cloud/riskdex/internal/domain/tract"
	"github.com/kailas-cloud/riskdex/internal/domain/vectorindex"
	"github.com/kailas-cloud/riskdex/internal/logger"
	"github.com/kailas-cloud/riskdex/internal/metrics"
)

// DefaultK is the number of documents retrieved when the caller does not choose.
const DefaultK = 5

// Service retrieves similar tract documents.
type Service struct {
	index    *vectorindex.Index
	embedder Embedder
}

// New creates a retriever over an immutable index.
func New(ix *vectorindex.Index, embedder Embedder) *Service {
	return &Service{index: ix, embedder: embedder}
}

// Index returns the served index.
func (s *Service) Index() *vectorindex.Index { return s.index }

// CheckVersion fails with *domain.StaleIndexError when the embedder cannot
// produce vectors comparable to the index.
func (s *Service) CheckVersion() error {
	if s.index.Version() != s.embedder.Version() {
		return domain.NewStaleIndex(s.index.Version(), s.embedder.Version(), "version mismatch")
	}
	return nil
}

// QueryText builds the retrieval query for a location in t.
func QueryText(t *tract.Tract, h tract.Horizon) string {
	return t.ProfileQuery(h)
}

// Retrieve returns the k documents most similar to queryText, by descending
// similarity with ties broken by ascending tract ID. k=0 returns no hits and
// k larger than the index returns every document.
func (s *Service) Retrieve(ctx context.Context, queryText string, k int) (result.Retrieval, error) {
	if k < 0 {
		metrics.RetrievalErrorsTotal.WithLabelValues("invalid_k").Inc()
		return result.Retrieval{}, fmt.Errorf("%w: %d", domain.ErrInvalidK, k)
	}
	if err := s.CheckVersion(); err != nil {
		metrics.RetrievalErrorsTotal.WithLabelValues("stale_index").Inc()
		return result.Retrieval{}, err
	}

	out := result.Empty(queryText, k)
	out.EmbeddingVersion = s.index.Version()
	out.IndexChecksum = s.index.Checksum()
	if k == 0 || s.index.Len() == 0 {
		metrics.RetrievalHits.Observe(0)
		return out, nil
	}

	emb, err := s.embedder.Embed(ctx, queryText)
	if err != nil {
		metrics.RetrievalErrorsTotal.WithLabelValues("embedding").Inc()
		return result.Retrieval{}, fmt.Errorf("embed query: %w", err)
	}

	hits, err := s.index.Search(emb.Embedding, k)
	if err != nil {
		if errors.Is(err, domain.ErrVectorDimMismatch) {
			metrics.RetrievalErrorsTotal.WithLabelValues("stale_index").Inc()
			return result.Retrieval{}, domain.NewStaleIndex(s.index.Version(), s.embedder.Version(), err.Error())
		}
		metrics.RetrievalErrorsTotal.WithLabelValues("search").Inc()
		return result.Retrieval{}, fmt.Errorf("search: %w", err)
	}

	for _, h := range hits {
		out.Hits = append(out.Hits, result.FromHit(h))
	}
	metrics.RetrievalHits.Observe(float64(len(out.Hits)))
	logger.FromContext(ctx).Debug("Retrieved documents",
		zap.Int("k", k),
		zap.Int("hits", len(out.Hits)),
		zap.Strings("tracts", out.TractIDs()),
	)
	return out, nil
}
