package dataset

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/kailas-cloud/riskdex/internal/domain/complaint"
	"github.com/kailas-cloud/riskdex/internal/domain/geo"
)

// complaintRow is the parquet projection of the NYPD complaint extract.
type complaintRow struct {
	LawCategory string  `parquet:"law_cat_cd,optional"`
	Latitude    float64 `parquet:"latitude,optional"`
	Longitude   float64 `parquet:"longitude,optional"`
}

// LoadComplaints reads complaints from a .parquet or .csv extract. Rows without
// a valid coordinate are skipped.
func LoadComplaints(path string) ([]complaint.Complaint, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		rows, err := parquet.ReadFile[complaintRow](filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("read complaints %s: %w", path, err)
		}
		return fromRows(rows), nil
	case ".csv":
		t, c, err := openTable(path)
		if err != nil {
			return nil, err
		}
		defer func() { _ = c.Close() }()
		return readComplaints(t)
	default:
		return nil, fmt.Errorf("complaints %s: unsupported format (want .parquet or .csv)", path)
	}
}

// WriteComplaints writes complaints as a parquet extract.
func WriteComplaints(path string, cs []complaint.Complaint) error {
	rows := make([]complaintRow, len(cs))
	for i, c := range cs {
		rows[i] = complaintRow{LawCategory: c.Category.String(), Latitude: c.Location.Lat, Longitude: c.Location.Lon}
	}
	if err := parquet.WriteFile(filepath.Clean(path), rows); err != nil {
		return fmt.Errorf("write complaints %s: %w", path, err)
	}
	return nil
}

func fromRows(rows []complaintRow) []complaint.Complaint {
	out := make([]complaint.Complaint, 0, len(rows))
	for _, r := range rows {
		p := geo.Point{Lat: r.Latitude, Lon: r.Longitude}
		if !usable(p) {
			continue
		}
		out = append(out, complaint.Complaint{Location: p, Category: complaint.ParseCategory(r.LawCategory)})
	}
	return out
}

func readComplaints(t *table) ([]complaint.Complaint, error) {
	if err := t.require("latitude", "longitude"); err != nil {
		return nil, fmt.Errorf("complaints: %w", err)
	}
	var out []complaint.Complaint
	for {
		r, err := t.next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("complaints: %w", err)
		}
		p := geo.Point{Lat: r.float("latitude"), Lon: r.float("longitude")}
		if !usable(p) {
			continue
		}
		out = append(out, complaint.Complaint{Location: p, Category: complaint.ParseCategory(r.str("law_cat_cd"))})
	}
}

// usable rejects invalid points and the 0,0 placeholder used for unlocated complaints.
func usable(p geo.Point) bool {
	return p.Valid() && !(p.Lat == 0 && p.Lon == 0)
}
