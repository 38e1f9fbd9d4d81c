package index

import (
	"context"

	"github.com/kailas-cloud/riskdex/internal/domain/vectorindex"
)

// Store persists built indexes.
type Store interface {
	Save(ctx context.Context, ix *vectorindex.Index) error
	Load(ctx context.Context) (*vectorindex.Index, error)
}
