package parcel

import (
	"math"
	"testing"

	"github.com/kailas-cloud/riskdex/internal/domain/borough"
)

func TestBuildBBL(t *testing.T) {
	got, err := BuildBBL(borough.Brooklyn, "2613", "1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "3026130001" {
		t.Fatalf("want 3026130001, got %s", got)
	}
	if _, err := BuildBBL(borough.Unknown, "1", "1"); err == nil {
		t.Fatal("expected error for invalid borough")
	}
	if _, err := BuildBBL(borough.Bronx, "123456", "1"); err == nil {
		t.Fatal("expected error for oversized block")
	}
}

func TestNormalizeBBL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"3026130001", "3026130001", false},
		{"3-02613-0001", "3026130001", false},
		{"3026130001.0", "3026130001", false},
		{"302613", "", true},
		{"30261300AB", "", true},
		{"9026130001", "", true},
	}
	for _, tc := range tests {
		got, err := NormalizeBBL(tc.in)
		if (err != nil) != tc.wantErr || got != tc.want {
			t.Errorf("NormalizeBBL(%q) = %q, %v; want %q, err=%v", tc.in, got, err, tc.want, tc.wantErr)
		}
	}
}

func TestValueToLandRatio(t *testing.T) {
	p := Parcel{AssessedTotal: 1000, LotArea: 250}
	if got := p.ValueToLandRatio(); got != 4 {
		t.Fatalf("want 4, got %f", got)
	}
	if !math.IsNaN((Parcel{AssessedTotal: 1000, LotArea: 0}).ValueToLandRatio()) {
		t.Fatal("zero lot area must be missing")
	}
	if !math.IsNaN((Parcel{AssessedTotal: math.NaN(), LotArea: 10}).ValueToLandRatio()) {
		t.Fatal("NaN value must be missing")
	}
}

func TestClassTier(t *testing.T) {
	tests := map[string]int{"E1": 4, "a5": 3, "D4": 2, "O6": 1, "V0": 5, "": 0, "#": 0}
	for in, want := range tests {
		if got := ClassTier(in); got != want {
			t.Errorf("ClassTier(%q) = %d, want %d", in, got, want)
		}
	}
}
