package riskdex

import (
	"context"

	"github.com/kailas-cloud/riskdex/internal/domain"
)

// Embedder converts text to vector embeddings. Version must change whenever
// the vectors it produces stop being comparable (model, dimensions).
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Version() string
}

// BatchEmbedder vectorizes multiple texts in a single call.
// Optional: index builds use it when the Embedder also implements it.
type BatchEmbedder interface {
	BatchEmbed(ctx context.Context, texts []string) ([][]float32, error)
}

type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Version() string { return a.inner.Version() }

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	v, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{Embedding: v}, nil
}

func (a *embedderAdapter) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	be, ok := a.inner.(BatchEmbedder)
	if !ok {
		return domain.BatchFallback(ctx, a, texts)
	}
	vs, err := be.BatchEmbed(ctx, texts)
	if err != nil {
		return domain.BatchEmbeddingResult{}, err
	}
	return domain.BatchEmbeddingResult{Embeddings: vs}, nil
}
