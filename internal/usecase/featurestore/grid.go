package featurestore

import (
	"math"

	"github.com/kailas-cloud/riskdex/internal/domain/complaint"
	"github.com/kailas-cloud/riskdex/internal/domain/geo"
)

// gridCellDegrees is the bucket size of the complaint grid (~550 m of latitude).
const gridCellDegrees = 0.005

type cellKey struct{ row, col int32 }

// complaintGrid buckets complaints by lat/lon cell so radius queries only
// visit nearby cells.
type complaintGrid struct {
	cells map[cellKey][]complaint.Complaint
}

func newComplaintGrid(cs []complaint.Complaint) complaintGrid {
	g := complaintGrid{cells: make(map[cellKey][]complaint.Complaint)}
	for _, c := range cs {
		k := keyOf(c.Location.Lat, c.Location.Lon)
		g.cells[k] = append(g.cells[k], c)
	}
	return g
}

func keyOf(lat, lon float64) cellKey {
	return cellKey{
		row: int32(math.Floor(lat / gridCellDegrees)),
		col: int32(math.Floor(lon / gridCellDegrees)),
	}
}

// within visits every complaint at most radius meters (haversine) from p.
func (g complaintGrid) within(p geo.Point, radius float64, visit func(complaint.Complaint)) {
	if radius <= 0 || len(g.cells) == 0 {
		return
	}
	dLat := geo.DegreesLat(radius)
	dLon := geo.DegreesLon(radius, p.Lat)
	lo := keyOf(p.Lat-dLat, p.Lon-dLon)
	hi := keyOf(p.Lat+dLat, p.Lon+dLon)
	for r := lo.row; r <= hi.row; r++ {
		for c := lo.col; c <= hi.col; c++ {
			for _, cp := range g.cells[cellKey{r, c}] {
				if p.Distance(cp.Location) <= radius {
					visit(cp)
				}
			}
		}
	}
}
