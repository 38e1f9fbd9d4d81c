package dataset

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/kailas-cloud/riskdex/internal/domain/borough"
	"github.com/kailas-cloud/riskdex/internal/domain/parcel"
)

// LoadParcels reads a MapPLUTO extract keyed by normalized BBL. Rows with an
// invalid BBL are skipped; a duplicated BBL keeps the first row.
func LoadParcels(path string) (map[string]parcel.Parcel, error) {
	t, c, err := openTable(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = c.Close() }()
	return readParcels(t)
}

func readParcels(t *table) (map[string]parcel.Parcel, error) {
	if err := t.require("bbl"); err != nil {
		return nil, fmt.Errorf("pluto: %w", err)
	}
	out := make(map[string]parcel.Parcel)
	for {
		r, err := t.next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("pluto: %w", err)
		}
		bbl, err := parcel.NormalizeBBL(r.str("bbl"))
		if err != nil {
			continue
		}
		if _, dup := out[bbl]; dup {
			continue
		}
		b, err := borough.FromBBL(bbl)
		if err != nil {
			continue
		}
		out[bbl] = parcel.Parcel{
			BBL:           bbl,
			Borough:       b,
			Address:       r.str("address"),
			BuildingClass: r.str("bldgclass"),
			YearBuilt:     positive(r.float("yearbuilt")),
			AssessedTotal: positive(r.float("assesstot")),
			LotArea:       positive(r.float("lotarea")),
			NumFloors:     positive(r.float("numfloors")),
			UnitsRes:      nonNegative(r.float("unitsres")),
			BuildingArea:  positive(r.float("bldgarea")),
			ZoneDist:      r.str("zonedist1"),
			LandUse:       r.str("landuse"),
		}
	}
}

// positive maps zero and negative sentinel values (PLUTO uses 0 for unknown) to NaN.
func positive(v float64) float64 {
	if math.IsNaN(v) || v <= 0 {
		return math.NaN()
	}
	return v
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return math.NaN()
	}
	return v
}
