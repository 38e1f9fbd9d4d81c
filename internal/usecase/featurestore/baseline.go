package featurestore

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/riskdex/internal/domain/borough"
	"github.com/kailas-cloud/riskdex/internal/domain/geo"
	"github.com/kailas-cloud/riskdex/internal/logger"
	"github.com/kailas-cloud/riskdex/internal/metrics"
)

// Baseline summarizes weighted complaint counts around the grid points of a
// borough. StdDev is the population standard deviation of those samples.
type Baseline struct {
	Borough borough.Borough
	Mean    float64
	StdDev  float64
	Points  int
}

// ZScore places a local weighted count against the baseline distribution.
// A zero spread yields 0.
func (b Baseline) ZScore(local float64) float64 {
	if b.StdDev <= 0 || math.IsNaN(b.StdDev) || math.IsInf(b.StdDev, 0) {
		return 0
	}
	return (local - b.Mean) / b.StdDev
}

// BaselineFunc computes the baseline of one borough.
type BaselineFunc func(ctx context.Context, b borough.Borough) (Baseline, error)

// BaselineCache computes each borough baseline at most once. Concurrent
// callers for the same borough share one computation; failures are not cached.
type BaselineCache struct {
	compute BaselineFunc
	group   singleflight.Group
	values  sync.Map // borough.Borough -> Baseline
}

// NewBaselineCache wraps a baseline computation.
func NewBaselineCache(compute BaselineFunc) *BaselineCache {
	return &BaselineCache{compute: compute}
}

// Get returns the cached baseline or computes it. The computation outlives a
// cancelled caller so the result still lands in the cache.
func (c *BaselineCache) Get(ctx context.Context, b borough.Borough) (Baseline, error) {
	if v, ok := c.values.Load(b); ok {
		return v.(Baseline), nil
	}
	ch := c.group.DoChan(b.String(), func() (any, error) {
		if v, ok := c.values.Load(b); ok {
			return v, nil
		}
		bl, err := c.compute(context.WithoutCancel(ctx), b)
		if err != nil {
			return nil, err
		}
		c.values.Store(b, bl)
		return bl, nil
	})
	select {
	case <-ctx.Done():
		return Baseline{}, fmt.Errorf("baseline %s: %w", b, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return Baseline{}, fmt.Errorf("baseline %s: %w", b, res.Err)
		}
		return res.Val.(Baseline), nil
	}
}

// Cached reports whether a borough baseline is already computed.
func (c *BaselineCache) Cached(b borough.Borough) bool {
	_, ok := c.values.Load(b)
	return ok
}

// GridPoints samples a borough on a uniform grid of the given spacing and
// keeps points that fall inside one of its tracts.
func (s *Store) GridPoints(b borough.Borough, spacing float64) []geo.Point {
	idx := s.byBorough[b]
	if len(idx) == 0 || spacing <= 0 {
		return nil
	}
	box := s.tracts[idx[0]].Box()
	for _, i := range idx[1:] {
		box = box.Extend(s.tracts[i].Box())
	}
	dLat := geo.DegreesLat(spacing)
	dLon := geo.DegreesLon(spacing, (box.MinLat+box.MaxLat)/2)

	var pts []geo.Point
	for lat := box.MinLat; lat <= box.MaxLat; lat += dLat {
		for lon := box.MinLon; lon <= box.MaxLon; lon += dLon {
			p := geo.Point{Lat: lat, Lon: lon}
			for _, i := range idx {
				t := &s.tracts[i]
				if t.Box().ContainsPoint(p) && s.pip.Contains(p, t.Geometry()) {
					pts = append(pts, p)
					break
				}
			}
		}
	}
	return pts
}

func (s *Store) computeBaseline(ctx context.Context, b borough.Borough) (Baseline, error) {
	start := time.Now()
	pts := s.GridPoints(b, s.opts.GridSpacingMeters)
	bl := Baseline{Borough: b, Points: len(pts)}
	if len(pts) == 0 {
		return bl, nil
	}
	samples := make([]float64, len(pts))
	for i, p := range pts {
		if i%64 == 0 {
			if err := ctx.Err(); err != nil {
				return Baseline{}, fmt.Errorf("compute baseline: %w", err)
			}
		}
		samples[i] = s.WeightedComplaints(p, s.opts.BaselineRadiusMeters, s.opts.SeverityWeights)
	}
	bl.Mean, bl.StdDev = meanStdDev(samples)

	elapsed := time.Since(start)
	metrics.BaselineDuration.WithLabelValues(b.String()).Observe(elapsed.Seconds())
	logger.FromContext(ctx).Info("crime baseline computed",
		zap.String("borough", b.String()),
		zap.Int("grid_points", bl.Points),
		zap.Float64("mean", bl.Mean),
		zap.Float64("std_dev", bl.StdDev),
		zap.Duration("elapsed", elapsed),
	)
	return bl, nil
}

// meanStdDev returns the mean and population standard deviation of xs.
func meanStdDev(xs []float64) (mean, std float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / float64(len(xs)))
}
