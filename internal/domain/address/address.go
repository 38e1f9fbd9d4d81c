// Package address holds the per-request geocoded query.
package address

import (
	"regexp"
	"strings"

	"github.com/kailas-cloud/riskdex/internal/domain/geo"
)

// Query is a resolved address. It lives for a single request.
type Query struct {
	Raw      string    `json:"address"`
	Matched  string    `json:"matched_address,omitempty"`
	Location geo.Point `json:"location"`
	TractID  string    `json:"tract_id,omitempty"`
	BBL      string    `json:"bbl,omitempty"`
}

// WithTract returns a copy bound to the resolved tract.
func (q Query) WithTract(id string) Query {
	q.TractID = id
	return q
}

var (
	nonAlnum = regexp.MustCompile(`[^a-z0-9 ]+`)
	spaces   = regexp.MustCompile(`\s+`)
)

var suffixes = map[string]string{
	"avenue":    "ave",
	"av":        "ave",
	"street":    "st",
	"road":      "rd",
	"boulevard": "blvd",
	"place":     "pl",
	"drive":     "dr",
	"parkway":   "pkwy",
	"lane":      "ln",
	"court":     "ct",
	"terrace":   "ter",
	"east":      "e",
	"west":      "w",
	"north":     "n",
	"south":     "s",
}

// Normalize canonicalizes an address for snapshot lookup:
// lowercase, punctuation stripped, common street suffixes abbreviated.
func Normalize(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = nonAlnum.ReplaceAllString(s, " ")
	s = spaces.ReplaceAllString(strings.TrimSpace(s), " ")
	if s == "" {
		return ""
	}
	parts := strings.Split(s, " ")
	for i, p := range parts {
		if abbr, ok := suffixes[p]; ok {
			parts[i] = abbr
		}
	}
	return strings.Join(parts, " ")
}
