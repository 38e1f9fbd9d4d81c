// Package index builds the tract document index: deterministic text per tract,
// embedded in batches and stamped with the embedder version.
package index

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/riskdex/internal/domain"
	"github.com/kailas-cloud/riskdex/internal/domain/tract"
	"github.com/kailas-cloud/riskdex/internal/domain/vectorindex"
	"github.com/kailas-cloud/riskdex/internal/metrics"
)

// DefaultBatchSize is the number of documents embedded per call.
const DefaultBatchSize = 200

// Service builds and persists document indexes.
type Service struct {
	embedder  domain.Embedder
	store     Store
	horizon   tract.Horizon
	batchSize int
	logger    *zap.Logger
}

// New creates an index builder. store may be nil when only Build is used.
func New(embedder domain.Embedder, store Store, horizon tract.Horizon, logger *zap.Logger) *Service {
	if horizon == "" {
		horizon = tract.Present
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		embedder:  embedder,
		store:     store,
		horizon:   horizon,
		batchSize: DefaultBatchSize,
		logger:    logger,
	}
}

// WithBatchSize overrides the embedding batch size.
func (s *Service) WithBatchSize(n int) *Service {
	if n > 0 {
		s.batchSize = n
	}
	return s
}

// EmbeddingVersion is the version stamped on indexes this service builds.
func (s *Service) EmbeddingVersion() string { return s.embedder.Version() }

// Build embeds every tract and returns a new index. The result depends only on
// the tract contents and the embedder, never on input order.
func (s *Service) Build(ctx context.Context, tracts []tract.Tract) (*vectorindex.Index, error) {
	docs, err := s.documents(ctx, tracts)
	if err != nil {
		return nil, err
	}
	ix, err := vectorindex.New(s.embedder.Version(), docs)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	metrics.IndexDocuments.Set(float64(ix.Len()))
	s.logger.Info("Index built",
		zap.String("version", ix.Version()),
		zap.Int("documents", ix.Len()),
		zap.String("checksum", ix.Checksum()),
	)
	return ix, nil
}

// Rebuild builds the index from scratch and persists it.
func (s *Service) Rebuild(ctx context.Context, tracts []tract.Tract) (*vectorindex.Index, error) {
	ix, err := s.Build(ctx, tracts)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, ix); err != nil {
		return nil, err
	}
	return ix, nil
}

// Append embeds tracts missing from base and persists the combined index.
// Tracts already indexed fail with domain.ErrDocumentExists; base must share
// the embedder version.
func (s *Service) Append(ctx context.Context, base *vectorindex.Index, tracts []tract.Tract) (*vectorindex.Index, error) {
	if base.Version() != s.embedder.Version() {
		return nil, domain.NewStaleIndex(base.Version(), s.embedder.Version(), "append")
	}
	for i := range tracts {
		if _, ok := base.Get(tracts[i].ID()); ok {
			return nil, fmt.Errorf("append: %w: %s", domain.ErrDocumentExists, tracts[i].ID())
		}
	}
	docs, err := s.documents(ctx, tracts)
	if err != nil {
		return nil, err
	}
	ix, err := base.Append(docs)
	if err != nil {
		return nil, fmt.Errorf("append: %w", err)
	}
	if err := s.save(ctx, ix); err != nil {
		return nil, err
	}
	metrics.IndexDocuments.Set(float64(ix.Len()))
	s.logger.Info("Index appended", zap.Int("added", len(docs)), zap.Int("documents", ix.Len()))
	return ix, nil
}

// Missing returns the tracts not yet present in ix.
func Missing(ix *vectorindex.Index, tracts []tract.Tract) []tract.Tract {
	var out []tract.Tract
	for i := range tracts {
		if _, ok := ix.Get(tracts[i].ID()); !ok {
			out = append(out, tracts[i])
		}
	}
	return out
}

func (s *Service) save(ctx context.Context, ix *vectorindex.Index) error {
	if s.store == nil {
		return fmt.Errorf("save index: no store configured")
	}
	if err := s.store.Save(ctx, ix); err != nil {
		return fmt.Errorf("save index: %w", err)
	}
	return nil
}

func (s *Service) documents(ctx context.Context, tracts []tract.Tract) ([]vectorindex.Document, error) {
	sorted := make([]tract.Tract, len(tracts))
	copy(sorted, tracts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID() < sorted[j].ID() })

	texts := make([]string, len(sorted))
	for i := range sorted {
		texts[i] = sorted[i].Summary()
	}

	docs := make([]vectorindex.Document, 0, len(sorted))
	start := time.Now()
	for offset := 0; offset < len(sorted); offset += s.batchSize {
		end := min(offset+s.batchSize, len(sorted))

		res, err := domain.EmbedAll(ctx, s.embedder, texts[offset:end])
		if err != nil {
			return nil, fmt.Errorf("embed batch at %d: %w", offset, err)
		}
		if len(res.Embeddings) != end-offset {
			return nil, fmt.Errorf("embed batch at %d: got %d vectors for %d texts: %w",
				offset, len(res.Embeddings), end-offset, domain.ErrEmbeddingProviderError)
		}

		for j, vec := range res.Embeddings {
			t := &sorted[offset+j]
			doc, err := vectorindex.NewDocument(t.ID(), vec, texts[offset+j], s.metadata(t))
			if err != nil {
				return nil, fmt.Errorf("document %s: %w", t.ID(), err)
			}
			docs = append(docs, doc)
		}

		s.logger.Debug("Embedded batch",
			zap.Int("offset", offset),
			zap.Int("size", end-offset),
			zap.Int("total", len(sorted)),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
	return docs, nil
}

func (s *Service) metadata(t *tract.Tract) vectorindex.Metadata {
	combined := t.Flood().CombinedIndex()
	if math.IsNaN(combined) {
		combined = 0
	}
	c := t.Centroid()
	return vectorindex.Metadata{
		Horizon:            string(s.horizon),
		Borough:            t.Borough().String(),
		CombinedFloodIndex: combined,
		Lat:                c.Lat,
		Lon:                c.Lon,
	}
}
