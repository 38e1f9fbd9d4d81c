package geo

import (
	"fmt"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
)

// PointInPolygon is the spatial capability the feature store joins with.
// Any geometry backend can satisfy it; Planar is the go-geom implementation.
type PointInPolygon interface {
	Contains(p Point, poly *geom.MultiPolygon) bool
	Area(poly *geom.MultiPolygon) float64
}

// Planar evaluates containment and area in planar lon/lat space.
// Areas are in square degrees: comparable between tracts, not meaningful as m².
type Planar struct{}

var _ PointInPolygon = Planar{}

// Contains reports whether p lies inside (or on the boundary of) any member polygon
// and outside all of its holes.
func (Planar) Contains(p Point, poly *geom.MultiPolygon) bool {
	if IsEmpty(poly) {
		return false
	}
	c := geom.Coord{p.Lon, p.Lat}
	for i := 0; i < poly.NumPolygons(); i++ {
		if polygonContains(poly.Polygon(i), c) {
			return true
		}
	}
	return false
}

// Area returns the planar area of the multipolygon.
func (Planar) Area(poly *geom.MultiPolygon) float64 {
	if IsEmpty(poly) {
		return 0
	}
	return poly.Area()
}

func polygonContains(poly *geom.Polygon, c geom.Coord) bool {
	rings := poly.NumLinearRings()
	if rings == 0 {
		return false
	}
	layout := poly.Layout()
	if !xy.IsPointInRing(layout, c, poly.LinearRing(0).FlatCoords()) {
		return false
	}
	for i := 1; i < rings; i++ {
		if xy.IsPointInRing(layout, c, poly.LinearRing(i).FlatCoords()) {
			return false
		}
	}
	return true
}

// IsEmpty reports whether the multipolygon has no coordinates.
func IsEmpty(poly *geom.MultiPolygon) bool {
	return poly == nil || poly.NumPolygons() == 0 || len(poly.FlatCoords()) == 0
}

// Box is an axis-aligned lon/lat bounding box.
type Box struct {
	MinLon, MinLat, MaxLon, MaxLat float64
}

// BoxOf returns the bounding box of the multipolygon.
func BoxOf(poly *geom.MultiPolygon) Box {
	b := poly.Bounds()
	return Box{MinLon: b.Min(0), MinLat: b.Min(1), MaxLon: b.Max(0), MaxLat: b.Max(1)}
}

// ContainsPoint reports whether p lies inside the box, edges included.
func (b Box) ContainsPoint(p Point) bool {
	return p.Lon >= b.MinLon && p.Lon <= b.MaxLon && p.Lat >= b.MinLat && p.Lat <= b.MaxLat
}

// Extend grows the box to cover o.
func (b Box) Extend(o Box) Box {
	return Box{
		MinLon: min(b.MinLon, o.MinLon), MinLat: min(b.MinLat, o.MinLat),
		MaxLon: max(b.MaxLon, o.MaxLon), MaxLat: max(b.MaxLat, o.MaxLat),
	}
}

// Center returns the midpoint of the box.
func (b Box) Center() Point {
	return Point{Lat: (b.MinLat + b.MaxLat) / 2, Lon: (b.MinLon + b.MaxLon) / 2}
}

// ToMultiPolygon normalizes a Polygon or MultiPolygon geometry.
func ToMultiPolygon(g geom.T) (*geom.MultiPolygon, error) {
	switch v := g.(type) {
	case *geom.MultiPolygon:
		return v, nil
	case *geom.Polygon:
		mp := geom.NewMultiPolygon(v.Layout())
		if err := mp.Push(v); err != nil {
			return nil, fmt.Errorf("wrap polygon: %w", err)
		}
		return mp, nil
	case nil:
		return nil, fmt.Errorf("geometry is missing")
	default:
		return nil, fmt.Errorf("unsupported geometry type %T", g)
	}
}

// Rect builds a single-rectangle multipolygon. Used for fixtures and grid tests.
func Rect(minLon, minLat, maxLon, maxLat float64) *geom.MultiPolygon {
	return geom.NewMultiPolygon(geom.XY).MustSetCoords([][][]geom.Coord{{{
		{minLon, minLat}, {maxLon, minLat}, {maxLon, maxLat}, {minLon, maxLat}, {minLon, minLat},
	}}})
}
