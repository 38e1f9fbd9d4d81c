package indexstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/riskdex/internal/db"
	"github.com/kailas-cloud/riskdex/internal/db/redis"
	"github.com/kailas-cloud/riskdex/internal/domain"
	"github.com/kailas-cloud/riskdex/internal/domain/vectorindex"
)

func testIndex(t *testing.T, ids ...string) *vectorindex.Index {
	t.Helper()
	docs := make([]vectorindex.Document, 0, len(ids))
	for i, id := range ids {
		vec := []float32{float32(i + 1), 0.5, -0.25}
		d, err := vectorindex.NewDocument(id, vec, "tract "+id, vectorindex.Metadata{
			Horizon: "present", Borough: "Brooklyn", CombinedFloodIndex: 3.25, Lat: 40.72, Lon: -73.93,
		})
		if err != nil {
			t.Fatalf("NewDocument: %v", err)
		}
		docs = append(docs, d)
	}
	ix, err := vectorindex.New("hashing/xxhash-bigram/3", docs)
	if err != nil {
		t.Fatalf("vectorindex.New: %v", err)
	}
	return ix
}

// --- file driver ---

func TestFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "index.parquet")
	store := NewFile(path)
	want := testIndex(t, "36047044900", "36047045000", "36061000100")

	if err := store.Save(context.Background(), want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Checksum() != want.Checksum() || got.Version() != want.Version() || got.Len() != 3 {
		t.Errorf("round trip mismatch: %s/%s/%d", got.Version(), got.Checksum(), got.Len())
	}
	doc, ok := got.Get("36047045000")
	if !ok || doc.Metadata().CombinedFloodIndex != 3.25 || doc.Vector()[0] != 2 {
		t.Errorf("unexpected document %+v", doc)
	}
}

func TestFile_EmptyIndex(t *testing.T) {
	store := NewFile(filepath.Join(t.TempDir(), "index.parquet"))
	want := testIndex(t)

	if err := store.Save(context.Background(), want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Len() != 0 || got.Version() != want.Version() {
		t.Errorf("unexpected empty index %s/%d", got.Version(), got.Len())
	}
}

func TestFile_NotFound(t *testing.T) {
	_, err := NewFile(filepath.Join(t.TempDir(), "missing.parquet")).Load(context.Background())
	if !errors.Is(err, domain.ErrIndexNotFound) {
		t.Fatalf("expected ErrIndexNotFound, got %v", err)
	}
}

func TestFile_NotParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.parquet")
	if err := os.WriteFile(path, []byte("not parquet"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFile(path).Load(context.Background()); err == nil {
		t.Fatal("expected read error")
	}
}

func TestVerify_ChecksumMismatch(t *testing.T) {
	ix := testIndex(t, "a")
	_, err := verify(ix.Version(), "deadbeef", ix.Documents())
	if !errors.Is(err, domain.ErrChecksumMismatch) {
		t.Fatalf("expected ErrChecksumMismatch, got %v", err)
	}
}

// --- redis driver over an in-memory hash store ---

type memHash struct {
	data map[string]map[string]string
}

func newMemHash() *memHash { return &memHash{data: map[string]map[string]string{}} }

func (m *memHash) HSet(_ context.Context, key string, fields map[string]string) error {
	cp := make(map[string]string, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	m.data[key] = cp
	return nil
}

func (m *memHash) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	for _, it := range items {
		_ = m.HSet(ctx, it.Key, it.Fields)
	}
	return nil
}

func (m *memHash) HGetAll(_ context.Context, key string) (map[string]string, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return map[string]string{}, nil
}

func (m *memHash) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	out := make([]map[string]string, len(keys))
	for i, k := range keys {
		out[i], _ = m.HGetAll(ctx, k)
	}
	return out, nil
}

func (m *memHash) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memHash) Scan(_ context.Context, pattern string) ([]string, error) {
	prefix := strings.TrimSuffix(pattern, "*")
	var out []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out, nil
}

func TestRedis_RoundTripAndReplace(t *testing.T) {
	mem := newMemHash()
	store := NewRedis(mem, "riskdex:index:")
	ctx := context.Background()

	if err := store.Save(ctx, testIndex(t, "a", "b", "c")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	smaller := testIndex(t, "a", "b")
	if err := store.Save(ctx, smaller); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, ok := mem.data["riskdex:index:doc:c"]; ok {
		t.Error("stale document must be removed")
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Checksum() != smaller.Checksum() {
		t.Error("checksum mismatch after round trip")
	}
}

func TestRedis_TamperedDocument(t *testing.T) {
	mem := newMemHash()
	store := NewRedis(mem, "p:")
	ctx := context.Background()

	if err := store.Save(ctx, testIndex(t, "a", "b")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	mem.data["p:doc:a"][fieldText] = "edited"

	if _, err := store.Load(ctx); !errors.Is(err, domain.ErrChecksumMismatch) {
		t.Fatalf("expected ErrChecksumMismatch, got %v", err)
	}

	delete(mem.data, "p:doc:b")
	if _, err := store.Load(ctx); !errors.Is(err, domain.ErrChecksumMismatch) {
		t.Fatalf("expected count mismatch, got %v", err)
	}
}

// --- redis driver over the rueidis mock ---

func TestRedis_LoadNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("HGETALL", "riskdex:index:manifest")).
		Return(mock.Result(mock.RedisMap(map[string]rueidis.RedisMessage{})))

	store := NewRedis(redis.NewStoreForTest(c), "riskdex:index:")
	if _, err := store.Load(context.Background()); !errors.Is(err, domain.ErrIndexNotFound) {
		t.Fatalf("expected ErrIndexNotFound, got %v", err)
	}
}

func TestRedis_LoadFromClient(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)
	ix := testIndex(t, "36047044900")
	doc := ix.Documents()[0]

	docFields := map[string]rueidis.RedisMessage{}
	for k, v := range encodeDoc(&doc) {
		docFields[k] = mock.RedisBlobString(v)
	}

	c.EXPECT().
		Do(gomock.Any(), mock.Match("HGETALL", "riskdex:index:manifest")).
		Return(mock.Result(mock.RedisMap(map[string]rueidis.RedisMessage{
			fieldVersion:  mock.RedisBlobString(ix.Version()),
			fieldChecksum: mock.RedisBlobString(ix.Checksum()),
			fieldCount:    mock.RedisBlobString(strconv.Itoa(ix.Len())),
		})))
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool { return cmd[0] == "SCAN" })).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(0),
			mock.RedisArray(mock.RedisString("riskdex:index:doc:36047044900")),
		)))
	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{mock.Result(mock.RedisMap(docFields))})

	got, err := NewRedis(redis.NewStoreForTest(c), "riskdex:index:").Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Checksum() != ix.Checksum() {
		t.Error("checksum mismatch")
	}
}

func TestVectorCodec_Invalid(t *testing.T) {
	if _, err := decodeVector([]byte{1, 2}); err == nil {
		t.Fatal("expected error")
	}
}
