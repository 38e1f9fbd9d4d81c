package tract

import (
	"fmt"
	"math"

	"github.com/twpayne/go-geom"

	"github.com/kailas-cloud/riskdex/internal/domain/borough"
	"github.com/kailas-cloud/riskdex/internal/domain/geo"
)

// Flood holds the raw FVI indicators of a tract. Every value is on the 1..5 FVI
// scale; NaN marks a missing value.
type Flood struct {
	StormSurgePresent float64
	StormSurge2050s   float64
	StormSurge2080s   float64
	Tidal2020s        float64
	Tidal2050s        float64
	Tidal2080s        float64
	FSHRI             float64
}

// MissingFlood returns a Flood with every indicator missing.
func MissingFlood() Flood {
	n := math.NaN()
	return Flood{n, n, n, n, n, n, n}
}

// StormSurge returns the storm surge index for a horizon.
func (f Flood) StormSurge(h Horizon) float64 {
	switch h {
	case H2050s:
		return f.StormSurge2050s
	case H2080s:
		return f.StormSurge2080s
	default:
		return f.StormSurgePresent
	}
}

// Tidal returns the tidal index for a horizon.
func (f Flood) Tidal(h Horizon) float64 {
	switch h {
	case H2050s:
		return f.Tidal2050s
	case H2080s:
		return f.Tidal2080s
	default:
		return f.Tidal2020s
	}
}

// Crime holds complaint counts located inside the tract, by severity class.
type Crime struct {
	Felonies     int
	Misdemeanors int
	Violations   int
}

// Total returns the number of complaints of any class.
func (c Crime) Total() int { return c.Felonies + c.Misdemeanors + c.Violations }

// Tract is an immutable census tract record.
type Tract struct {
	id       string
	borough  borough.Borough
	name     string
	geometry *geom.MultiPolygon
	box      geo.Box
	area     float64
	flood    Flood
	crime    Crime
}

// New validates and creates a Tract. Geometry must be non-empty.
func New(id string, b borough.Borough, name string, geometry *geom.MultiPolygon, area float64, flood Flood) (Tract, error) {
	if id == "" {
		return Tract{}, fmt.Errorf("tract ID is required")
	}
	if !b.Valid() {
		return Tract{}, fmt.Errorf("tract %s: invalid borough %d", id, int(b))
	}
	if geo.IsEmpty(geometry) {
		return Tract{}, fmt.Errorf("tract %s: empty geometry", id)
	}
	return Tract{
		id:       id,
		borough:  b,
		name:     name,
		geometry: geometry,
		box:      geo.BoxOf(geometry),
		area:     area,
		flood:    flood,
	}, nil
}

// ID returns the census GEOID.
func (t *Tract) ID() string { return t.id }

// Borough returns the borough the tract belongs to.
func (t *Tract) Borough() borough.Borough { return t.borough }

// Name returns the tract label (e.g. CT2020 code), possibly empty.
func (t *Tract) Name() string { return t.name }

// Geometry returns the tract boundary.
func (t *Tract) Geometry() *geom.MultiPolygon { return t.geometry }

// Box returns the bounding box of the geometry.
func (t *Tract) Box() geo.Box { return t.box }

// Area returns the area as measured by the spatial backend at load time.
func (t *Tract) Area() float64 { return t.area }

// Centroid approximates the tract center by the bounding box midpoint.
func (t *Tract) Centroid() geo.Point { return t.box.Center() }

// Flood returns the raw flood indicators.
func (t *Tract) Flood() Flood { return t.flood }

// Crime returns the complaint counts located inside the tract.
func (t *Tract) Crime() Crime { return t.crime }

// WithCrime returns a copy carrying the given complaint counts.
func (t *Tract) WithCrime(c Crime) Tract {
	cp := *t
	cp.crime = c
	return cp
}
