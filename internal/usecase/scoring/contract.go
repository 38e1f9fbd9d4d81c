package scoring

import (
	"context"

	"github.com/kailas-cloud/riskdex/internal/domain/address"
	"github.com/kailas-cloud/riskdex/internal/domain/borough"
	"github.com/kailas-cloud/riskdex/internal/domain/complaint"
	"github.com/kailas-cloud/riskdex/internal/domain/geo"
	"github.com/kailas-cloud/riskdex/internal/domain/parcel"
	"github.com/kailas-cloud/riskdex/internal/domain/score"
	"github.com/kailas-cloud/riskdex/internal/domain/tract"
	"github.com/kailas-cloud/riskdex/internal/usecase/featurestore"
)

// StatsReader serves borough medians.
type StatsReader interface {
	BoroughStats(b borough.Borough) (featurestore.BoroughStats, bool)
}

// ParcelReader serves tax lots by BBL.
type ParcelReader interface {
	Parcel(bbl string) (parcel.Parcel, bool)
}

// CrimeReader serves complaint densities and the cached borough baseline.
type CrimeReader interface {
	HasComplaints() bool
	WeightedComplaints(p geo.Point, radius float64, w complaint.Weights) float64
	Baseline(ctx context.Context, b borough.Borough) (featurestore.Baseline, error)
}

// Input is everything an engine may look at for one request.
type Input struct {
	Query   address.Query
	Tract   tract.Tract
	Horizon tract.Horizon
}

// Engine produces one sub-score. An error is reported as insufficient data by the Runner.
type Engine interface {
	Kind() score.Kind
	Score(ctx context.Context, in Input) (score.SubScore, error)
}
