package indexstore

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"

	"github.com/kailas-cloud/riskdex/internal/db"
	"github.com/kailas-cloud/riskdex/internal/domain"
	"github.com/kailas-cloud/riskdex/internal/domain/vectorindex"
)

const (
	fieldVersion  = "version"
	fieldChecksum = "checksum"
	fieldCount    = "count"
	fieldText     = "text"
	fieldVector   = "vector"
	fieldHorizon  = "horizon"
	fieldBorough  = "borough"
	fieldCFI      = "combined_flood_index"
	fieldLat      = "lat"
	fieldLon      = "lon"

	writeChunk = 500
)

// hashStore is the consumer interface over db.HashStore.
type hashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, keys ...string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Redis stores one hash per document plus a manifest hash.
type Redis struct {
	store  hashStore
	prefix string
}

// NewRedis creates a redis-backed index store under key prefix.
func NewRedis(s hashStore, prefix string) *Redis {
	return &Redis{store: s, prefix: prefix}
}

func (r *Redis) manifestKey() string       { return r.prefix + "manifest" }
func (r *Redis) docKey(id string) string   { return r.prefix + "doc:" + id }
func (r *Redis) docPattern() string        { return r.prefix + "doc:*" }
func (r *Redis) tractID(key string) string { return key[len(r.prefix)+len("doc:"):] }

// Save replaces the stored index. Documents are written before the manifest,
// and stale documents are removed last.
func (r *Redis) Save(ctx context.Context, ix *vectorindex.Index) error {
	existing, err := r.store.Scan(ctx, r.docPattern())
	if err != nil {
		return fmt.Errorf("scan index documents: %w", err)
	}

	docs := ix.Documents()
	items := make([]db.HashSetItem, 0, min(len(docs), writeChunk))
	for i := range docs {
		items = append(items, db.HashSetItem{Key: r.docKey(docs[i].TractID()), Fields: encodeDoc(&docs[i])})
		if len(items) == writeChunk || i == len(docs)-1 {
			if err := r.store.HSetMulti(ctx, items); err != nil {
				return fmt.Errorf("write index documents: %w", err)
			}
			items = items[:0]
		}
	}

	err = r.store.HSet(ctx, r.manifestKey(), map[string]string{
		fieldVersion:  ix.Version(),
		fieldChecksum: ix.Checksum(),
		fieldCount:    strconv.Itoa(ix.Len()),
	})
	if err != nil {
		return fmt.Errorf("write index manifest: %w", err)
	}

	var stale []string
	for _, key := range existing {
		if _, ok := ix.Get(r.tractID(key)); !ok {
			stale = append(stale, key)
		}
	}
	if err := r.store.Del(ctx, stale...); err != nil {
		return fmt.Errorf("delete stale documents: %w", err)
	}
	return nil
}

// Load reads and verifies the stored index. An absent manifest yields domain.ErrIndexNotFound.
func (r *Redis) Load(ctx context.Context) (*vectorindex.Index, error) {
	manifest, err := r.store.HGetAll(ctx, r.manifestKey())
	if err != nil {
		return nil, fmt.Errorf("read index manifest: %w", err)
	}
	if len(manifest) == 0 {
		return nil, fmt.Errorf("redis index %s: %w", r.prefix, domain.ErrIndexNotFound)
	}

	keys, err := r.store.Scan(ctx, r.docPattern())
	if err != nil {
		return nil, fmt.Errorf("scan index documents: %w", err)
	}
	if n, err := strconv.Atoi(manifest[fieldCount]); err != nil || n != len(keys) {
		return nil, fmt.Errorf("%w: manifest count %q, found %d documents",
			domain.ErrChecksumMismatch, manifest[fieldCount], len(keys))
	}

	fields, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("read index documents: %w", err)
	}
	docs := make([]vectorindex.Document, 0, len(keys))
	for i, key := range keys {
		doc, err := decodeDoc(r.tractID(key), fields[i])
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return verify(manifest[fieldVersion], manifest[fieldChecksum], docs)
}

func encodeDoc(d *vectorindex.Document) map[string]string {
	md := d.Metadata()
	return map[string]string{
		fieldText:    d.Text(),
		fieldVector:  string(encodeVector(d.Vector())),
		fieldHorizon: md.Horizon,
		fieldBorough: md.Borough,
		fieldCFI:     strconv.FormatFloat(md.CombinedFloodIndex, 'g', -1, 64),
		fieldLat:     strconv.FormatFloat(md.Lat, 'g', -1, 64),
		fieldLon:     strconv.FormatFloat(md.Lon, 'g', -1, 64),
	}
}

func decodeDoc(id string, f map[string]string) (vectorindex.Document, error) {
	vec, err := decodeVector([]byte(f[fieldVector]))
	if err != nil {
		return vectorindex.Document{}, fmt.Errorf("document %s: %w", id, err)
	}
	var md vectorindex.Metadata
	md.Horizon = f[fieldHorizon]
	md.Borough = f[fieldBorough]
	for name, dst := range map[string]*float64{fieldCFI: &md.CombinedFloodIndex, fieldLat: &md.Lat, fieldLon: &md.Lon} {
		if *dst, err = strconv.ParseFloat(f[name], 64); err != nil {
			return vectorindex.Document{}, fmt.Errorf("document %s field %s: %w", id, name, err)
		}
	}
	doc, err := vectorindex.NewDocument(id, vec, f[fieldText], md)
	if err != nil {
		return vectorindex.Document{}, fmt.Errorf("document %s: %w", id, err)
	}
	return doc, nil
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid vector encoding: len=%d", len(data))
	}
	v := make([]float32, len(data)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return v, nil
}
