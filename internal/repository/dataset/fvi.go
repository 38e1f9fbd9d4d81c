package dataset

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/kailas-cloud/riskdex/internal/domain/tract"
)

// FVI column names of the NYC Flood Vulnerability Index table.
const (
	colGEOID             = "geoid"
	colStormSurgePresent = "fvi_storm_surge_present"
	colStormSurge2050s   = "fvi_storm_surge_2050s"
	colStormSurge2080s   = "fvi_storm_surge_2080s"
	colTidal2020s        = "fvi_tidal_2020s"
	colTidal2050s        = "fvi_tidal_2050s"
	colTidal2080s        = "fvi_tidal_2080s"
	colFSHRI             = "fshri"
)

// LoadFVI reads flood indicators keyed by GEOID. Values outside 1..5 are treated as missing.
func LoadFVI(path string) (map[string]tract.Flood, error) {
	t, c, err := openTable(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = c.Close() }()
	return readFVI(t)
}

func readFVI(t *table) (map[string]tract.Flood, error) {
	if err := t.require(colGEOID); err != nil {
		return nil, fmt.Errorf("fvi: %w", err)
	}
	out := make(map[string]tract.Flood)
	for {
		r, err := t.next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("fvi: %w", err)
		}
		id := normalizeGEOID(r.str(colGEOID))
		if id == "" {
			continue
		}
		out[id] = tract.Flood{
			StormSurgePresent: fviValue(r.float(colStormSurgePresent)),
			StormSurge2050s:   fviValue(r.float(colStormSurge2050s)),
			StormSurge2080s:   fviValue(r.float(colStormSurge2080s)),
			Tidal2020s:        fviValue(r.float(colTidal2020s)),
			Tidal2050s:        fviValue(r.float(colTidal2050s)),
			Tidal2080s:        fviValue(r.float(colTidal2080s)),
			FSHRI:             fviValue(r.float(colFSHRI)),
		}
	}
}

func fviValue(v float64) float64 {
	if math.IsNaN(v) || v < 1 || v > 5 {
		return math.NaN()
	}
	return v
}
