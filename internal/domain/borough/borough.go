// Package borough identifies the five NYC boroughs by their BoroCode.
package borough

import (
	"fmt"
	"strconv"
	"strings"
)

// Borough is a NYC BoroCode (1..5).
type Borough int

// Borough codes as used by NYC Planning datasets and the first BBL digit.
const (
	Unknown      Borough = 0
	Manhattan    Borough = 1
	Bronx        Borough = 2
	Brooklyn     Borough = 3
	Queens       Borough = 4
	StatenIsland Borough = 5
)

// All lists the valid boroughs in code order.
var All = []Borough{Manhattan, Bronx, Brooklyn, Queens, StatenIsland}

var names = map[Borough]string{
	Manhattan:    "Manhattan",
	Bronx:        "Bronx",
	Brooklyn:     "Brooklyn",
	Queens:       "Queens",
	StatenIsland: "Staten Island",
}

// county FIPS codes inside the 36 (NY) state prefix of a census GEOID.
var countyFIPS = map[string]Borough{
	"061": Manhattan,
	"005": Bronx,
	"047": Brooklyn,
	"081": Queens,
	"085": StatenIsland,
}

// Valid reports whether b is one of the five boroughs.
func (b Borough) Valid() bool { return b >= Manhattan && b <= StatenIsland }

func (b Borough) String() string {
	if n, ok := names[b]; ok {
		return n
	}
	return "Unknown"
}

// Parse accepts a BoroCode ("3"), a name ("Brooklyn", "STATEN ISLAND") or a common abbreviation.
func Parse(s string) (Borough, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		b := Borough(n)
		if !b.Valid() {
			return Unknown, fmt.Errorf("unknown borough code %d", n)
		}
		return b, nil
	}
	switch strings.ToUpper(s) {
	case "MANHATTAN", "MN", "NEW YORK":
		return Manhattan, nil
	case "BRONX", "BX", "THE BRONX":
		return Bronx, nil
	case "BROOKLYN", "BK", "KINGS":
		return Brooklyn, nil
	case "QUEENS", "QN":
		return Queens, nil
	case "STATEN ISLAND", "SI", "RICHMOND":
		return StatenIsland, nil
	}
	return Unknown, fmt.Errorf("unknown borough %q", s)
}

// FromGEOID derives the borough from an 11-digit census tract GEOID (state+county+tract).
func FromGEOID(geoid string) (Borough, error) {
	if len(geoid) < 5 || geoid[:2] != "36" {
		return Unknown, fmt.Errorf("GEOID %q is not a New York State tract", geoid)
	}
	b, ok := countyFIPS[geoid[2:5]]
	if !ok {
		return Unknown, fmt.Errorf("GEOID %q is outside New York City", geoid)
	}
	return b, nil
}

// FromBBL derives the borough from the first digit of a 10-digit BBL.
func FromBBL(bbl string) (Borough, error) {
	if bbl == "" {
		return Unknown, fmt.Errorf("empty BBL")
	}
	return Parse(bbl[:1])
}
