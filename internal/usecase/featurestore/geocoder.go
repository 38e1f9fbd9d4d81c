package featurestore

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/riskdex/internal/domain"
	"github.com/kailas-cloud/riskdex/internal/domain/address"
	"github.com/kailas-cloud/riskdex/internal/domain/borough"
	"github.com/kailas-cloud/riskdex/internal/repository/dataset"
)

type geocodeEntry struct {
	rec     dataset.AddressRecord
	borough borough.Borough
}

// Geocoder resolves addresses against the snapshot address directory.
type Geocoder struct {
	full   map[string]dataset.AddressRecord
	street map[string][]geocodeEntry
}

// NewGeocoder indexes records by the normalized full address and by the
// street part before the first comma. The first record wins on full-address
// collisions; every record is kept per street key with its borough.
func NewGeocoder(records []dataset.AddressRecord) *Geocoder {
	g := &Geocoder{
		full:   make(map[string]dataset.AddressRecord, len(records)),
		street: make(map[string][]geocodeEntry, len(records)),
	}
	for _, r := range records {
		if k := address.Normalize(r.Address); k != "" {
			if _, ok := g.full[k]; !ok {
				g.full[k] = r
			}
		}
		if k := streetKey(r.Address); k != "" {
			g.street[k] = append(g.street[k], geocodeEntry{rec: r, borough: recordBorough(r)})
		}
	}
	return g
}

// Geocode resolves a free-form address. Unknown addresses yield domain.ErrAddressNotFound.
//
// When the full address is not in the directory the street part alone is
// tried. A borough named in the address must match the candidate's borough;
// without one the street must resolve to a single borough.
func (g *Geocoder) Geocode(_ context.Context, raw string) (address.Query, error) {
	if strings.TrimSpace(raw) == "" {
		return address.Query{}, fmt.Errorf("%w: empty address", domain.ErrAddressNotFound)
	}
	rec, ok := g.full[address.Normalize(raw)]
	if !ok {
		rec, ok = g.byStreet(raw)
	}
	if !ok {
		return address.Query{}, fmt.Errorf("%w: %q", domain.ErrAddressNotFound, raw)
	}
	return address.Query{
		Raw:      raw,
		Matched:  rec.Address,
		Location: rec.Location,
		BBL:      rec.BBL,
	}, nil
}

func (g *Geocoder) byStreet(raw string) (dataset.AddressRecord, bool) {
	candidates := g.street[streetKey(raw)]
	if len(candidates) == 0 {
		return dataset.AddressRecord{}, false
	}
	if want, named := boroughHint(raw); named {
		for _, c := range candidates {
			if c.borough == want {
				return c.rec, true
			}
		}
		return dataset.AddressRecord{}, false
	}
	for _, c := range candidates[1:] {
		if c.borough != candidates[0].borough {
			return dataset.AddressRecord{}, false
		}
	}
	return candidates[0].rec, true
}

// Len returns the number of distinct indexed addresses.
func (g *Geocoder) Len() int { return len(g.full) }

func streetKey(s string) string {
	head, _, _ := strings.Cut(s, ",")
	return address.Normalize(head)
}

func recordBorough(r dataset.AddressRecord) borough.Borough {
	if b, err := borough.FromBBL(r.BBL); err == nil {
		return b
	}
	if b, ok := boroughHint(r.Address); ok {
		return b
	}
	return borough.Unknown
}

// boroughHint finds a borough named after the street part of an address.
// A specific borough name wins over "New York", which reads as Manhattan only
// when nothing more specific is present.
func boroughHint(raw string) (borough.Borough, bool) {
	_, tail, found := strings.Cut(raw, ",")
	if !found {
		return borough.Unknown, false
	}
	words := strings.FieldsFunc(strings.ToUpper(tail), func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})

	var (
		hit     = borough.Unknown
		newYork bool
	)
	for i, w := range words {
		var next string
		if i+1 < len(words) {
			next = words[i+1]
		}
		var b borough.Borough
		switch {
		case w == "NEW" && next == "YORK":
			newYork = true
			continue
		case w == "STATEN" && next == "ISLAND":
			b = borough.StatenIsland
		case w == "MANHATTAN", w == "BRONX", w == "BROOKLYN", w == "KINGS", w == "QUEENS", w == "RICHMOND":
			b, _ = borough.Parse(w)
		default:
			continue
		}
		if hit != borough.Unknown && hit != b {
			return borough.Unknown, false
		}
		hit = b
	}
	if hit != borough.Unknown {
		return hit, true
	}
	if newYork {
		return borough.Manhattan, true
	}
	return borough.Unknown, false
}
