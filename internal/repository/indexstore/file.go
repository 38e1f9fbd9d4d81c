// Package indexstore persists document indexes to a parquet file or to redis.
// Both drivers verify the stored checksum on load.
package indexstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"github.com/kailas-cloud/riskdex/internal/domain"
	"github.com/kailas-cloud/riskdex/internal/domain/vectorindex"
)

// docRow is one parquet row. The first row of every file is a manifest row
// with an empty TractID carrying the version and checksum.
type docRow struct {
	TractID            string    `parquet:"tract_id"`
	Vector             []float32 `parquet:"vector"`
	Text               string    `parquet:"text"`
	Horizon            string    `parquet:"horizon"`
	Borough            string    `parquet:"borough"`
	CombinedFloodIndex float64   `parquet:"combined_flood_index"`
	Lat                float64   `parquet:"lat"`
	Lon                float64   `parquet:"lon"`
	Version            string    `parquet:"version"`
	Checksum           string    `parquet:"checksum"`
}

// File stores the index as a single parquet file.
type File struct {
	path string
}

// NewFile creates a parquet file store.
func NewFile(path string) *File {
	return &File{path: filepath.Clean(path)}
}

// Save writes the index atomically (temp file then rename).
func (f *File) Save(_ context.Context, ix *vectorindex.Index) error {
	docs := ix.Documents()
	rows := make([]docRow, 0, len(docs)+1)
	rows = append(rows, docRow{Version: ix.Version(), Checksum: ix.Checksum()})
	for i := range docs {
		d := &docs[i]
		md := d.Metadata()
		rows = append(rows, docRow{
			TractID:            d.TractID(),
			Vector:             d.Vector(),
			Text:               d.Text(),
			Horizon:            md.Horizon,
			Borough:            md.Borough,
			CombinedFloodIndex: md.CombinedFloodIndex,
			Lat:                md.Lat,
			Lon:                md.Lon,
			Version:            ix.Version(),
			Checksum:           ix.Checksum(),
		})
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o750); err != nil {
		return fmt.Errorf("index file: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := parquet.WriteFile(tmp, rows); err != nil {
		return fmt.Errorf("index file write: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("index file rename: %w", err)
	}
	return nil
}

// Load reads and verifies the index. A missing file yields domain.ErrIndexNotFound.
func (f *File) Load(_ context.Context) (*vectorindex.Index, error) {
	rows, err := parquet.ReadFile[docRow](f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("index file %s: %w", f.path, domain.ErrIndexNotFound)
		}
		return nil, fmt.Errorf("index file read: %w", err)
	}
	if len(rows) == 0 || rows[0].TractID != "" {
		return nil, fmt.Errorf("index file %s: missing manifest row: %w", f.path, domain.ErrChecksumMismatch)
	}

	manifest := rows[0]
	docs := make([]vectorindex.Document, 0, len(rows)-1)
	for _, r := range rows[1:] {
		doc, err := vectorindex.NewDocument(r.TractID, r.Vector, r.Text, vectorindex.Metadata{
			Horizon:            r.Horizon,
			Borough:            r.Borough,
			CombinedFloodIndex: r.CombinedFloodIndex,
			Lat:                r.Lat,
			Lon:                r.Lon,
		})
		if err != nil {
			return nil, fmt.Errorf("index file row %s: %w", r.TractID, err)
		}
		docs = append(docs, doc)
	}
	return verify(manifest.Version, manifest.Checksum, docs)
}

func verify(version, checksum string, docs []vectorindex.Document) (*vectorindex.Index, error) {
	ix, err := vectorindex.New(version, docs)
	if err != nil {
		return nil, fmt.Errorf("rebuild stored index: %w", err)
	}
	if ix.Checksum() != checksum {
		return nil, fmt.Errorf("%w: stored %s, computed %s", domain.ErrChecksumMismatch, checksum, ix.Checksum())
	}
	return ix, nil
}
