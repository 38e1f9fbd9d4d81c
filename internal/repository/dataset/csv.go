package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// table is a header-indexed CSV reader. Column lookup is case-insensitive.
type table struct {
	r    *csv.Reader
	cols map[string]int
	line int
}

func openTable(path string) (*table, io.Closer, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	t, err := newTable(f)
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, f, nil
}

func newTable(r io.Reader) (*table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		cols[h] = i
	}
	return &table{r: cr, cols: cols, line: 1}, nil
}

func (t *table) require(names ...string) error {
	for _, n := range names {
		if _, ok := t.cols[n]; !ok {
			return fmt.Errorf("missing column %q", n)
		}
	}
	return nil
}

// next returns the next record, or io.EOF.
func (t *table) next() (row, error) {
	rec, err := t.r.Read()
	t.line++
	if errors.Is(err, io.EOF) {
		return row{}, io.EOF
	}
	if err != nil {
		return row{}, fmt.Errorf("line %d: %w", t.line, err)
	}
	return row{rec: rec, cols: t.cols}, nil
}

type row struct {
	rec  []string
	cols map[string]int
}

func (r row) str(name string) string {
	i, ok := r.cols[name]
	if !ok || i >= len(r.rec) {
		return ""
	}
	return strings.TrimSpace(r.rec[i])
}

// float parses a numeric cell. Blank or unparsable cells are NaN.
func (r row) float(name string) float64 {
	s := r.str(name)
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
