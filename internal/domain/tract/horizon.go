package tract

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/riskdex/internal/domain"
)

// Horizon is a flood projection time horizon.
type Horizon string

// Supported horizons. Tidal data has no "present" column; Present reads the 2020s tidal value.
const (
	Present Horizon = "present"
	H2050s  Horizon = "2050s"
	H2080s  Horizon = "2080s"
)

// Horizons lists every supported horizon in chronological order.
var Horizons = []Horizon{Present, H2050s, H2080s}

// ParseHorizon validates a horizon name. The empty string means Present.
func ParseHorizon(s string) (Horizon, error) {
	switch Horizon(strings.ToLower(strings.TrimSpace(s))) {
	case "", Present, "2020s":
		return Present, nil
	case H2050s:
		return H2050s, nil
	case H2080s:
		return H2080s, nil
	}
	return "", fmt.Errorf("%w: %q (want present, 2050s or 2080s)", domain.ErrInvalidHorizon, s)
}
