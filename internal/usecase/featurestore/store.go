// Package featurestore joins a coordinate against tract geometries and
// serves the per-tract, per-parcel and per-borough features the engines consume.
// A Store is read-only after New; concurrent reads need no locking.
package featurestore

import (
	"context"
	"fmt"
	"sort"

	"github.com/kailas-cloud/riskdex/internal/domain"
	"github.com/kailas-cloud/riskdex/internal/domain/borough"
	"github.com/kailas-cloud/riskdex/internal/domain/complaint"
	"github.com/kailas-cloud/riskdex/internal/domain/geo"
	"github.com/kailas-cloud/riskdex/internal/domain/parcel"
	"github.com/kailas-cloud/riskdex/internal/domain/tract"
	"github.com/kailas-cloud/riskdex/internal/repository/dataset"
)

// Options tunes the crime baseline owned by the store.
type Options struct {
	BaselineRadiusMeters float64
	GridSpacingMeters    float64
	SeverityWeights      complaint.Weights
}

// DefaultOptions mirrors the default crime engine constants.
func DefaultOptions() Options {
	return Options{
		BaselineRadiusMeters: 0.25 * geo.MetersPerMile,
		GridSpacingMeters:    1000,
		SeverityWeights:      complaint.DefaultWeights,
	}
}

// Store is the in-memory geospatial feature store.
type Store struct {
	pip           geo.PointInPolygon
	opts          Options
	tracts        []tract.Tract
	byID          map[string]int
	byBorough     map[borough.Borough][]int
	parcels       map[string]parcel.Parcel
	hasComplaints bool
	grid          complaintGrid
	stats         map[borough.Borough]BoroughStats
	baselines     *BaselineCache
}

// New builds a store from a loaded snapshot. Complaints are attributed to the
// tract containing them so each tract carries its own crime counts.
func New(snap dataset.Snapshot, pip geo.PointInPolygon, opts Options) (*Store, error) {
	if len(snap.Tracts) == 0 {
		return nil, fmt.Errorf("feature store: no tracts loaded")
	}
	if pip == nil {
		pip = geo.Planar{}
	}
	s := &Store{
		pip:           pip,
		opts:          opts,
		tracts:        make([]tract.Tract, len(snap.Tracts)),
		byID:          make(map[string]int, len(snap.Tracts)),
		byBorough:     make(map[borough.Borough][]int),
		parcels:       snap.Parcels,
		hasComplaints: snap.HasComplaints,
		grid:          newComplaintGrid(snap.Complaints),
	}
	if s.parcels == nil {
		s.parcels = map[string]parcel.Parcel{}
	}
	copy(s.tracts, snap.Tracts)
	sort.SliceStable(s.tracts, func(i, j int) bool { return s.tracts[i].ID() < s.tracts[j].ID() })
	for i := range s.tracts {
		id := s.tracts[i].ID()
		if _, dup := s.byID[id]; dup {
			return nil, fmt.Errorf("feature store: duplicate tract %s", id)
		}
		s.byID[id] = i
		b := s.tracts[i].Borough()
		s.byBorough[b] = append(s.byBorough[b], i)
	}

	s.attributeComplaints(snap.Complaints)
	s.stats = computeStats(s.tracts, s.parcels)
	s.baselines = NewBaselineCache(s.computeBaseline)
	return s, nil
}

func (s *Store) attributeComplaints(cs []complaint.Complaint) {
	counts := make([]tract.Crime, len(s.tracts))
	for _, c := range cs {
		i, ok := s.locate(c.Location)
		if !ok {
			continue
		}
		switch c.Category {
		case complaint.Felony:
			counts[i].Felonies++
		case complaint.Misdemeanor:
			counts[i].Misdemeanors++
		case complaint.Violation:
			counts[i].Violations++
		}
	}
	for i := range s.tracts {
		s.tracts[i] = s.tracts[i].WithCrime(counts[i])
	}
}

// Locate returns the tract containing p. Overlapping tracts resolve to the
// smallest area, then the smallest tract ID. A point outside every tract
// yields a *domain.OutOfCoverageError.
func (s *Store) Locate(ctx context.Context, p geo.Point) (tract.Tract, error) {
	if err := ctx.Err(); err != nil {
		return tract.Tract{}, fmt.Errorf("locate: %w", err)
	}
	if !p.Valid() {
		return tract.Tract{}, domain.NewOutOfCoverage(p.Lat, p.Lon)
	}
	i, ok := s.locate(p)
	if !ok {
		return tract.Tract{}, domain.NewOutOfCoverage(p.Lat, p.Lon)
	}
	return s.tracts[i], nil
}

func (s *Store) locate(p geo.Point) (int, bool) {
	best := -1
	for i := range s.tracts {
		t := &s.tracts[i]
		if !t.Box().ContainsPoint(p) || !s.pip.Contains(p, t.Geometry()) {
			continue
		}
		if best < 0 || t.Area() < s.tracts[best].Area() ||
			(t.Area() == s.tracts[best].Area() && t.ID() < s.tracts[best].ID()) {
			best = i
		}
	}
	return best, best >= 0
}

// Tract returns a tract by GEOID.
func (s *Store) Tract(id string) (tract.Tract, bool) {
	i, ok := s.byID[id]
	if !ok {
		return tract.Tract{}, false
	}
	return s.tracts[i], true
}

// Tracts returns every tract sorted by ID.
func (s *Store) Tracts() []tract.Tract {
	out := make([]tract.Tract, len(s.tracts))
	copy(out, s.tracts)
	return out
}

// Parcel returns the tax lot for a BBL.
func (s *Store) Parcel(bbl string) (parcel.Parcel, bool) {
	p, ok := s.parcels[bbl]
	return p, ok
}

// BoroughStats returns the precomputed medians of a borough.
func (s *Store) BoroughStats(b borough.Borough) (BoroughStats, bool) {
	st, ok := s.stats[b]
	return st, ok
}

// HasComplaints reports whether a complaints dataset was loaded.
func (s *Store) HasComplaints() bool { return s.hasComplaints }

// ComplaintsWithin returns complaints at most radius meters from p.
func (s *Store) ComplaintsWithin(p geo.Point, radius float64) []complaint.Complaint {
	var out []complaint.Complaint
	s.grid.within(p, radius, func(c complaint.Complaint) { out = append(out, c) })
	return out
}

// WeightedComplaints sums severity weights of complaints within radius of p.
func (s *Store) WeightedComplaints(p geo.Point, radius float64, w complaint.Weights) float64 {
	var total float64
	s.grid.within(p, radius, func(c complaint.Complaint) { total += w.Of(c.Category) })
	return total
}

// Baseline returns the cached crime baseline of a borough, computing it on first use.
func (s *Store) Baseline(ctx context.Context, b borough.Borough) (Baseline, error) {
	return s.baselines.Get(ctx, b)
}

// BaselineOptions returns the constants the cached baselines were computed with.
func (s *Store) BaselineOptions() Options { return s.opts }
