// Package dataset loads the open-data snapshot files the feature store is built from.
package dataset

import (
	"fmt"

	"github.com/kailas-cloud/riskdex/internal/domain/complaint"
	"github.com/kailas-cloud/riskdex/internal/domain/geo"
	"github.com/kailas-cloud/riskdex/internal/domain/parcel"
	"github.com/kailas-cloud/riskdex/internal/domain/tract"
)

// Paths locates the snapshot files. Tracts and FVI are required; an empty
// Complaints or PLUTO path leaves the matching engine without data.
type Paths struct {
	Tracts     string
	FVI        string
	Complaints string
	PLUTO      string
	Addresses  string
}

// Snapshot is the full in-memory dataset.
type Snapshot struct {
	Tracts     []tract.Tract
	Parcels    map[string]parcel.Parcel
	Complaints []complaint.Complaint
	// HasComplaints is false when no complaints extract was configured.
	HasComplaints bool
	Addresses     []AddressRecord
}

// Load reads every configured file.
func Load(p Paths, pip geo.PointInPolygon) (Snapshot, error) {
	if p.Tracts == "" || p.FVI == "" {
		return Snapshot{}, fmt.Errorf("tracts and fvi paths are required")
	}
	fvi, err := LoadFVI(p.FVI)
	if err != nil {
		return Snapshot{}, err
	}
	tracts, err := LoadTracts(p.Tracts, fvi, pip)
	if err != nil {
		return Snapshot{}, err
	}
	s := Snapshot{Tracts: tracts}

	if p.PLUTO != "" {
		if s.Parcels, err = LoadParcels(p.PLUTO); err != nil {
			return Snapshot{}, err
		}
	}
	if p.Complaints != "" {
		if s.Complaints, err = LoadComplaints(p.Complaints); err != nil {
			return Snapshot{}, err
		}
		s.HasComplaints = true
	}
	if p.Addresses != "" {
		if s.Addresses, err = LoadAddresses(p.Addresses); err != nil {
			return Snapshot{}, err
		}
	}
	return s, nil
}
