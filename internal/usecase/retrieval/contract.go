package retrieval

import (
	"context"

	"github.com/kailas-cloud/riskdex/internal/domain"
)

// Embedder vectorizes the query text. Version must match the index.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
	Version() string
}
