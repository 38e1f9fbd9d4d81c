// Package parcel models MapPLUTO tax lot attributes keyed by BBL.
package parcel

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/kailas-cloud/riskdex/internal/domain/borough"
)

// Parcel is an immutable tax lot record. Numeric attributes are NaN when missing.
type Parcel struct {
	BBL           string
	Borough       borough.Borough
	Address       string
	BuildingClass string
	YearBuilt     float64
	AssessedTotal float64
	LotArea       float64
	NumFloors     float64
	UnitsRes      float64
	BuildingArea  float64
	ZoneDist      string
	LandUse       string
}

// BuildBBL zero-pads borough, block and lot into the 10-digit BBL form.
func BuildBBL(b borough.Borough, block, lot string) (string, error) {
	if !b.Valid() {
		return "", fmt.Errorf("invalid borough %d", int(b))
	}
	block, lot = strings.TrimSpace(block), strings.TrimSpace(lot)
	if len(block) == 0 || len(block) > 5 || len(lot) == 0 || len(lot) > 4 {
		return "", fmt.Errorf("invalid block/lot %q/%q", block, lot)
	}
	return fmt.Sprintf("%d%s%s", int(b), zfill(block, 5), zfill(lot, 4)), nil
}

func zfill(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

// NormalizeBBL accepts "3026130001", "3-02613-0001" or float renderings like "3026130001.0".
func NormalizeBBL(s string) (string, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ".0")
	s = strings.ReplaceAll(s, "-", "")
	if len(s) != 10 {
		return "", fmt.Errorf("BBL %q must have 10 digits", s)
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return "", fmt.Errorf("BBL %q must be numeric", s)
		}
	}
	if _, err := borough.FromBBL(s); err != nil {
		return "", fmt.Errorf("BBL %q: %w", s, err)
	}
	return s, nil
}

// ValueToLandRatio returns assessed value per square foot of lot, NaN when either is missing.
func (p Parcel) ValueToLandRatio() float64 {
	if !Known(p.AssessedTotal) || !Known(p.LotArea) || p.LotArea <= 0 {
		return math.NaN()
	}
	return p.AssessedTotal / p.LotArea
}

// Known reports whether a numeric attribute carries a usable value.
// PLUTO encodes unknown years and areas as 0, so non-positive counts as missing.
func Known(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}

// ClassTier maps a building class code to a structural risk tier (1 lowest .. 5 highest).
// Zero means the class is missing or not recognized.
func ClassTier(class string) int {
	class = strings.ToUpper(strings.TrimSpace(class))
	if class == "" {
		return 0
	}
	switch class[0] {
	case 'O', 'K', 'Y': // offices, store buildings, government
		return 1
	case 'D', 'R', 'H', 'M', 'P', 'W', 'I', 'J', 'L': // elevator apartments, condos, hotels, institutional
		return 2
	case 'A', 'B', 'C', 'S': // one/two family, walk-ups, mixed residential
		return 3
	case 'E', 'F', 'G', 'T', 'U': // warehouses, factories, garages, transport, utilities
		return 4
	case 'V', 'Z', 'Q', 'N': // vacant land, misc, outdoor recreation
		return 5
	}
	return 0
}
