// Package fixture is a small synthetic Greenpoint/Lower Manhattan snapshot
// shared by tests across packages.
package fixture

import (
	"math"

	"github.com/twpayne/go-geom"

	"github.com/kailas-cloud/riskdex/internal/domain/borough"
	"github.com/kailas-cloud/riskdex/internal/domain/complaint"
	"github.com/kailas-cloud/riskdex/internal/domain/geo"
	"github.com/kailas-cloud/riskdex/internal/domain/parcel"
	"github.com/kailas-cloud/riskdex/internal/domain/tract"
	"github.com/kailas-cloud/riskdex/internal/repository/dataset"
	"github.com/kailas-cloud/riskdex/internal/usecase/featurestore"
)

// Well-known fixture identifiers.
const (
	MorganAddress = "621 Morgan Ave, Brooklyn, NY"
	MorganBBL     = "3026130001"
	MorganTract   = "36047044900"
	EastTract     = "36047045000"
	FiDiTract     = "36061000100"

	// NoParcelAddress geocodes into EastTract without a BBL.
	NoParcelAddress = "100 Vandervoort Ave, Brooklyn, NY"
	// OffshoreAddress geocodes outside every fixture tract.
	OffshoreAddress = "1 Ambrose Channel, NY"
)

// Morgan is the geocoded location of MorganAddress.
var Morgan = geo.Point{Lat: 40.7223, Lon: -73.9376}

// Tracts returns the three fixture tracts sorted by ID.
func Tracts() []tract.Tract {
	nan := math.NaN()
	return []tract.Tract{
		mustTract(MorganTract, borough.Brooklyn, "East Williamsburg",
			geo.Rect(-73.945, 40.715, -73.930, 40.730),
			tract.Flood{StormSurgePresent: 3, StormSurge2050s: 4, StormSurge2080s: 5,
				Tidal2020s: 2, Tidal2050s: 3, Tidal2080s: 4, FSHRI: 4}),
		mustTract(EastTract, borough.Brooklyn, "Bushwick West",
			geo.Rect(-73.930, 40.715, -73.915, 40.730),
			tract.Flood{StormSurgePresent: 1, StormSurge2050s: 2, StormSurge2080s: 2,
				Tidal2020s: 1, Tidal2050s: 1, Tidal2080s: 2, FSHRI: nan}),
		mustTract(FiDiTract, borough.Manhattan, "Financial District",
			geo.Rect(-74.020, 40.700, -74.000, 40.720),
			tract.Flood{StormSurgePresent: 5, StormSurge2050s: 5, StormSurge2080s: 5,
				Tidal2020s: 1, Tidal2050s: 2, Tidal2080s: 3, FSHRI: 2}),
	}
}

func mustTract(id string, b borough.Borough, name string, mp *geom.MultiPolygon, f tract.Flood) tract.Tract {
	t, err := tract.New(id, b, name, mp, geo.Planar{}.Area(mp), f)
	if err != nil {
		panic(err)
	}
	return t
}

// Parcels returns fixture tax lots keyed by BBL.
func Parcels() map[string]parcel.Parcel {
	nan := math.NaN()
	ps := []parcel.Parcel{
		{BBL: MorganBBL, Borough: borough.Brooklyn, Address: "621 MORGAN AVENUE", BuildingClass: "E1",
			YearBuilt: 1931, AssessedTotal: 1_200_000, LotArea: 25_000, NumFloors: 2, UnitsRes: 0,
			BuildingArea: 30_000, ZoneDist: "M3-1", LandUse: "06"},
		{BBL: "3026140010", Borough: borough.Brooklyn, Address: "40 BEADEL STREET", BuildingClass: "A1",
			YearBuilt: 1901, AssessedTotal: 600_000, LotArea: 2_500, NumFloors: 2, UnitsRes: 1,
			BuildingArea: 1_800, ZoneDist: "R6B", LandUse: "01"},
		{BBL: "3026150020", Borough: borough.Brooklyn, Address: "55 MASPETH AVENUE", BuildingClass: "C0",
			YearBuilt: 1960, AssessedTotal: nan, LotArea: 2_000, NumFloors: 3, UnitsRes: 3,
			BuildingArea: 3_600, ZoneDist: "R6", LandUse: "02"},
		{BBL: "1000010001", Borough: borough.Manhattan, Address: "1 WALL STREET", BuildingClass: "O4",
			YearBuilt: 1931, AssessedTotal: 90_000_000, LotArea: 40_000, NumFloors: 50, UnitsRes: 0,
			BuildingArea: 1_100_000, ZoneDist: "C5-5", LandUse: "05"},
	}
	out := make(map[string]parcel.Parcel, len(ps))
	for _, p := range ps {
		out[p.BBL] = p
	}
	return out
}

// Complaints returns a dense cluster around Morgan plus sparse complaints elsewhere.
func Complaints() []complaint.Complaint {
	var out []complaint.Complaint
	add := func(lat, lon float64, c complaint.Category, n int) {
		for i := 0; i < n; i++ {
			out = append(out, complaint.Complaint{Location: geo.Point{Lat: lat, Lon: lon}, Category: c})
		}
	}
	add(Morgan.Lat+0.0005, Morgan.Lon, complaint.Felony, 6)
	add(Morgan.Lat, Morgan.Lon+0.001, complaint.Misdemeanor, 8)
	add(Morgan.Lat-0.001, Morgan.Lon-0.001, complaint.Violation, 5)
	add(Morgan.Lat, Morgan.Lon, complaint.Unknown, 3)
	add(40.718, -73.920, complaint.Misdemeanor, 2)
	add(40.710, -74.010, complaint.Felony, 4)
	return out
}

// Addresses returns the geocoder snapshot.
func Addresses() []dataset.AddressRecord {
	return []dataset.AddressRecord{
		{Address: MorganAddress, Location: Morgan, BBL: MorganBBL},
		{Address: NoParcelAddress, Location: geo.Point{Lat: 40.7200, Lon: -73.9200}},
		{Address: OffshoreAddress, Location: geo.Point{Lat: 40.5000, Lon: -73.8000}},
		{Address: "1 Wall Street, New York, NY", Location: geo.Point{Lat: 40.7070, Lon: -74.0110}, BBL: "1000010001"},
	}
}

// Snapshot returns the full fixture dataset.
func Snapshot() dataset.Snapshot {
	return dataset.Snapshot{
		Tracts:        Tracts(),
		Parcels:       Parcels(),
		Complaints:    Complaints(),
		HasComplaints: true,
		Addresses:     Addresses(),
	}
}

// Store builds a feature store over the fixture snapshot with default options.
func Store() *featurestore.Store {
	s, err := featurestore.New(Snapshot(), geo.Planar{}, featurestore.DefaultOptions())
	if err != nil {
		panic(err)
	}
	return s
}

// Geocoder returns a geocoder over the fixture addresses.
func Geocoder() *featurestore.Geocoder {
	return featurestore.NewGeocoder(Addresses())
}
