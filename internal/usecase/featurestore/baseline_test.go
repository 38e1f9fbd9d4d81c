package featurestore

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kailas-cloud/riskdex/internal/domain/borough"
)

func TestBaselineCache_ComputesOncePerBorough(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	c := NewBaselineCache(func(_ context.Context, b borough.Borough) (Baseline, error) {
		calls.Add(1)
		<-release
		return Baseline{Borough: b, Mean: 2, Points: 10}, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Get(context.Background(), borough.Queens); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if _, err := c.Get(context.Background(), borough.Queens); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("expected one computation, got %d", n)
	}
	if !c.Cached(borough.Queens) || c.Cached(borough.Bronx) {
		t.Error("unexpected cache state")
	}
}

func TestBaselineCache_ErrorsNotCached(t *testing.T) {
	var calls atomic.Int32
	boom := errors.New("boom")
	c := NewBaselineCache(func(_ context.Context, b borough.Borough) (Baseline, error) {
		if calls.Add(1) == 1 {
			return Baseline{}, boom
		}
		return Baseline{Borough: b, Mean: 1, Points: 1}, nil
	})

	if _, err := c.Get(context.Background(), borough.Bronx); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, err := c.Get(context.Background(), borough.Bronx); err != nil {
		t.Fatalf("retry must recompute, got %v", err)
	}
}

func TestBaselineCache_CallerDeadline(t *testing.T) {
	release := make(chan struct{})
	c := NewBaselineCache(func(_ context.Context, b borough.Borough) (Baseline, error) {
		<-release
		return Baseline{Borough: b, Mean: 3, Points: 4}, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := c.Get(ctx, borough.Manhattan); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	close(release)
	got, err := c.Get(context.Background(), borough.Manhattan)
	if err != nil || got.Mean != 3 {
		t.Fatalf("computation must finish for later callers: %+v, %v", got, err)
	}
}

func TestMedian(t *testing.T) {
	if m := median([]float64{3, 1, 2}); m != 2 {
		t.Errorf("odd median = %f", m)
	}
	if m := median([]float64{4, 1, 3, 2}); m != 2.5 {
		t.Errorf("even median = %f", m)
	}
	if m := median(nil); m == m {
		t.Errorf("empty median must be NaN, got %f", m)
	}
}

func TestMeanStdDev_Population(t *testing.T) {
	mean, std := meanStdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if mean != 5 || std != 2 {
		t.Errorf("got mean %f std %f, want 5 and 2", mean, std)
	}
	if m, s := meanStdDev(nil); m != 0 || s != 0 {
		t.Errorf("empty samples: %f %f", m, s)
	}
}

func TestBaseline_ZScore(t *testing.T) {
	b := Baseline{Mean: 10, StdDev: 4, Points: 20}
	tests := []struct {
		local float64
		want  float64
	}{
		{10, 0},
		{18, 2},
		{4, -1.5},
	}
	for _, tt := range tests {
		if got := b.ZScore(tt.local); got != tt.want {
			t.Errorf("ZScore(%v) = %v, want %v", tt.local, got, tt.want)
		}
	}
	if z := (Baseline{Mean: 10}).ZScore(30); z != 0 {
		t.Errorf("zero spread must yield 0, got %v", z)
	}
}
