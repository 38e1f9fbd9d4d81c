package dataset

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/kailas-cloud/riskdex/internal/domain/borough"
	"github.com/kailas-cloud/riskdex/internal/domain/geo"
	"github.com/kailas-cloud/riskdex/internal/domain/tract"
)

// LoadTracts reads a tract FeatureCollection and joins flood indicators by GEOID.
// Tracts without an FVI row keep every flood indicator missing.
// The result is sorted by tract ID.
func LoadTracts(path string, fvi map[string]tract.Flood, pip geo.PointInPolygon) ([]tract.Tract, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read tracts %s: %w", path, err)
	}
	return ParseTracts(data, fvi, pip)
}

// ParseTracts decodes GeoJSON tract features. Features must carry a GEOID
// property; the borough comes from BoroCode, then BoroName, then the GEOID county.
func ParseTracts(data []byte, fvi map[string]tract.Flood, pip geo.PointInPolygon) ([]tract.Tract, error) {
	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("decode tracts geojson: %w", err)
	}

	seen := make(map[string]struct{}, len(fc.Features))
	out := make([]tract.Tract, 0, len(fc.Features))
	for i, f := range fc.Features {
		id := normalizeGEOID(propString(f.Properties, "GEOID"))
		if id == "" {
			id = normalizeGEOID(f.ID)
		}
		if id == "" {
			return nil, fmt.Errorf("tract feature %d: missing GEOID", i)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("tract feature %d: duplicate GEOID %s", i, id)
		}
		seen[id] = struct{}{}

		b, err := featureBorough(f.Properties, id)
		if err != nil {
			return nil, fmt.Errorf("tract %s: %w", id, err)
		}
		mp, err := geo.ToMultiPolygon(f.Geometry)
		if err != nil {
			return nil, fmt.Errorf("tract %s: %w", id, err)
		}
		flood, ok := fvi[id]
		if !ok {
			flood = tract.MissingFlood()
		}
		name := propString(f.Properties, "NTAName")
		if name == "" {
			name = propString(f.Properties, "CTLabel")
		}
		t, err := tract.New(id, b, name, mp, pip.Area(mp), flood)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out, nil
}

func featureBorough(props map[string]any, geoid string) (borough.Borough, error) {
	if s := propString(props, "BoroCode"); s != "" {
		if b, err := borough.Parse(s); err == nil {
			return b, nil
		}
	}
	if s := propString(props, "BoroName"); s != "" {
		if b, err := borough.Parse(s); err == nil {
			return b, nil
		}
	}
	b, err := borough.FromGEOID(geoid)
	if err != nil {
		return 0, fmt.Errorf("resolve borough: %w", err)
	}
	return b, nil
}

// propString reads a property as a string; numeric properties are formatted
// without a fractional part when integral.
func propString(props map[string]any, key string) string {
	v, ok := props[key]
	if !ok || v == nil {
		return ""
	}
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case float64:
		if x == math.Trunc(x) {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

// normalizeGEOID strips whitespace and a trailing ".0" left by spreadsheet exports.
func normalizeGEOID(s string) string {
	s = strings.TrimSpace(s)
	return strings.TrimSuffix(s, ".0")
}
