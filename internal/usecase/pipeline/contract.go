package pipeline

import (
	"context"

	"github.com/kailas-cloud/riskdex/internal/domain/address"
	"github.com/kailas-cloud/riskdex/internal/domain/geo"
	"github.com/kailas-cloud/riskdex/internal/domain/riskctx"
	"github.com/kailas-cloud/riskdex/internal/domain/score"
	"github.com/kailas-cloud/riskdex/internal/domain/search/result"
	"github.com/kailas-cloud/riskdex/internal/domain/tract"
	"github.com/kailas-cloud/riskdex/internal/usecase/scoring"
)

// Geocoder resolves a free-form address to a location.
type Geocoder interface {
	Geocode(ctx context.Context, raw string) (address.Query, error)
}

// Locator maps a location to its tract.
type Locator interface {
	Locate(ctx context.Context, p geo.Point) (tract.Tract, error)
}

// Runner fans out the sub-score engines.
type Runner interface {
	Run(ctx context.Context, in scoring.Input) []score.SubScore
}

// Retriever finds similar tract documents.
type Retriever interface {
	Retrieve(ctx context.Context, queryText string, k int) (result.Retrieval, error)
}

// Assembler joins sub-scores and retrieval hits.
type Assembler interface {
	Assemble(q address.Query, subScores []score.SubScore, r result.Retrieval) (riskctx.RiskContext, error)
}
