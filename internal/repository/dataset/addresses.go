package dataset

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/kailas-cloud/riskdex/internal/domain/geo"
	"github.com/kailas-cloud/riskdex/internal/domain/parcel"
)

// AddressRecord is one row of the geocoder snapshot.
type AddressRecord struct {
	Address  string
	Location geo.Point
	BBL      string
}

// LoadAddresses reads the geocoder snapshot. Rows with invalid coordinates are skipped.
func LoadAddresses(path string) ([]AddressRecord, error) {
	t, c, err := openTable(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = c.Close() }()
	return readAddresses(t)
}

func readAddresses(t *table) ([]AddressRecord, error) {
	if err := t.require("address", "latitude", "longitude"); err != nil {
		return nil, fmt.Errorf("addresses: %w", err)
	}
	var out []AddressRecord
	for {
		r, err := t.next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("addresses: %w", err)
		}
		p := geo.Point{Lat: r.float("latitude"), Lon: r.float("longitude")}
		if r.str("address") == "" || math.IsNaN(p.Lat) || !p.Valid() {
			continue
		}
		bbl, _ := parcel.NormalizeBBL(r.str("bbl"))
		out = append(out, AddressRecord{Address: r.str("address"), Location: p, BBL: bbl})
	}
}
