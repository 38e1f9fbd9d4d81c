// Package complaint models geolocated police complaints by offense level.
package complaint

import (
	"strings"

	"github.com/kailas-cloud/riskdex/internal/domain/geo"
)

// Category is the NYPD law category of a complaint.
type Category uint8

// Law categories. Unknown covers blank and unrecognized codes.
const (
	Unknown Category = iota
	Felony
	Misdemeanor
	Violation
)

// ParseCategory maps a law_cat_cd value to a Category.
func ParseCategory(s string) Category {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "FELONY":
		return Felony
	case "MISDEMEANOR":
		return Misdemeanor
	case "VIOLATION":
		return Violation
	default:
		return Unknown
	}
}

func (c Category) String() string {
	switch c {
	case Felony:
		return "FELONY"
	case Misdemeanor:
		return "MISDEMEANOR"
	case Violation:
		return "VIOLATION"
	default:
		return "UNKNOWN"
	}
}

// Complaint is one geolocated complaint.
type Complaint struct {
	Location geo.Point
	Category Category
}

// Weights assigns a severity weight to each law category. Unknown always weighs 0.
type Weights struct {
	Felony      float64
	Misdemeanor float64
	Violation   float64
}

// DefaultWeights are the 3:2:1 severity weights.
var DefaultWeights = Weights{Felony: 3, Misdemeanor: 2, Violation: 1}

// Of returns the weight of a category.
func (w Weights) Of(c Category) float64 {
	switch c {
	case Felony:
		return w.Felony
	case Misdemeanor:
		return w.Misdemeanor
	case Violation:
		return w.Violation
	default:
		return 0
	}
}
