package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/kailas-cloud/riskdex/internal/domain"
	"github.com/kailas-cloud/riskdex/internal/domain/address"
	"github.com/kailas-cloud/riskdex/internal/domain/geo"
	"github.com/kailas-cloud/riskdex/internal/domain/riskctx"
	"github.com/kailas-cloud/riskdex/internal/domain/score"
	"github.com/kailas-cloud/riskdex/internal/domain/search/result"
	"github.com/kailas-cloud/riskdex/internal/domain/vectorindex"
	healthuc "github.com/kailas-cloud/riskdex/internal/usecase/health"
	"github.com/kailas-cloud/riskdex/internal/usecase/pipeline"
)

type stubScorer struct {
	err        error
	explainErr error
	gotAddress string
	gotOpts    pipeline.Options
}

func (s *stubScorer) ScoreAddress(_ context.Context, raw string, opts pipeline.Options) (riskctx.RiskContext, error) {
	s.gotAddress, s.gotOpts = raw, opts
	if s.err != nil {
		return riskctx.RiskContext{}, s.err
	}
	return riskctx.RiskContext{
		ID:      "req-1",
		Query:   address.Query{Raw: raw, Location: geo.Point{Lat: 40.72, Lon: -73.94}, TractID: "36047044900"},
		Horizon: "present",
		SubScores: []score.SubScore{
			score.New(score.Flood, 60, nil),
			score.Insufficient(score.Crime, "no complaints dataset"),
		},
		Retrieval: result.Retrieval{
			Hits:             []result.Result{result.New("36047045000", 0.9, "similar tract", vectorindex.Metadata{Borough: "Brooklyn"})},
			EmbeddingVersion: "hashing/xxhash-bigram/64",
		},
		Overall:       riskctx.Overall{Value: 60, Status: score.Computed},
		IndexChecksum: "abc",
	}, nil
}

func (s *stubScorer) Explain(context.Context, *riskctx.RiskContext) (string, error) {
	if s.explainErr != nil {
		return "", s.explainErr
	}
	return "moderate risk", nil
}

func newTestRouter(scorer Scorer, health *healthuc.Service) http.Handler {
	r := chi.NewRouter()
	NewServer(scorer, health).Routes(r)
	return r
}

func TestGetRisk_OK(t *testing.T) {
	scorer := &stubScorer{}
	h := newTestRouter(scorer, nil)

	req := httptest.NewRequest("GET", "/v1/risk?address=621+Morgan+Ave&horizon=2050s&k=2", http.NoBody)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rr.Code, rr.Body.String())
	}
	if scorer.gotAddress != "621 Morgan Ave" || scorer.gotOpts.Horizon != "2050s" {
		t.Errorf("unexpected call %q %+v", scorer.gotAddress, scorer.gotOpts)
	}
	if scorer.gotOpts.K == nil || *scorer.gotOpts.K != 2 {
		t.Errorf("expected k=2, got %v", scorer.gotOpts.K)
	}

	var resp RiskResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ID != "req-1" || resp.TractID != "36047044900" || resp.IndexChecksum != "abc" {
		t.Errorf("unexpected response %+v", resp)
	}
	if len(resp.SubScores) != 2 || resp.SubScores[1].Status != score.InsufficientData {
		t.Errorf("unexpected sub-scores %+v", resp.SubScores)
	}
	if len(resp.SimilarTracts) != 1 || resp.SimilarTracts[0].Borough != "Brooklyn" {
		t.Errorf("unexpected similar tracts %+v", resp.SimilarTracts)
	}
	if resp.Explanation != "" {
		t.Error("GET must not explain")
	}
}

func TestGetRisk_KOmitted(t *testing.T) {
	scorer := &stubScorer{}
	h := newTestRouter(scorer, nil)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/v1/risk?address=x", http.NoBody))

	if rr.Code != http.StatusOK {
		t.Fatalf("got %d", rr.Code)
	}
	if scorer.gotOpts.K != nil {
		t.Errorf("omitted k must stay nil, got %d", *scorer.gotOpts.K)
	}
}

func TestGetRisk_BadParams(t *testing.T) {
	h := newTestRouter(&stubScorer{}, nil)

	tests := []struct {
		name string
		url  string
		code ErrorCode
	}{
		{"missing address", "/v1/risk", CodeBadRequest},
		{"non-numeric k", "/v1/risk?address=x&k=abc", CodeInvalidK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest("GET", tt.url, http.NoBody))
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("got %d, want 400", rr.Code)
			}
			var e ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&e); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if e.Code != tt.code {
				t.Errorf("code %s, want %s", e.Code, tt.code)
			}
		})
	}
}

func TestPostRisk_DomainErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   ErrorCode
	}{
		{"address", fmt.Errorf("geocode: %w", domain.ErrAddressNotFound), http.StatusNotFound, CodeAddressNotFound},
		{"coverage", fmt.Errorf("locate: %w", domain.NewOutOfCoverage(40.5, -73.8)), http.StatusNotFound, CodeOutOfCoverage},
		{"stale", domain.NewStaleIndex("a", "b", "version mismatch"), http.StatusServiceUnavailable, CodeStaleIndex},
		{"invalid k", fmt.Errorf("%w: -1", domain.ErrInvalidK), http.StatusBadRequest, CodeInvalidK},
		{"invalid horizon", domain.ErrInvalidHorizon, http.StatusBadRequest, CodeInvalidHorizon},
		{"incomplete", domain.ErrIncompleteContext, http.StatusInternalServerError, CodeIncompleteContext},
		{"provider", domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingProvider},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, CodeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(&stubScorer{err: tt.err}, nil)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest("POST", "/v1/risk", strings.NewReader(`{"address":"x"}`)))

			if rr.Code != tt.status {
				t.Fatalf("got %d, want %d", rr.Code, tt.status)
			}
			var body map[string]any
			if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body["code"] != string(tt.code) {
				t.Errorf("code %v, want %s", body["code"], tt.code)
			}
			if tt.code == CodeInternalError && body["message"] != "internal error" {
				t.Errorf("internal errors must not leak details: %v", body["message"])
			}
			if tt.code == CodeOutOfCoverage && body["lat"] != 40.5 {
				t.Errorf("expected echoed lat, got %v", body["lat"])
			}
		})
	}
}

func TestPostRisk_BadBody(t *testing.T) {
	h := newTestRouter(&stubScorer{}, nil)

	for _, body := range []string{`{`, `{"address":"  "}`} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest("POST", "/v1/risk", strings.NewReader(body)))
		if rr.Code != http.StatusBadRequest {
			t.Errorf("body %q: got %d, want 400", body, rr.Code)
		}
	}
}

func TestExplainRisk(t *testing.T) {
	h := newTestRouter(&stubScorer{}, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("POST", "/v1/risk/explain", strings.NewReader(`{"address":"x","k":0}`)))

	if rr.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rr.Code, rr.Body.String())
	}
	var resp RiskResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Explanation != "moderate risk" {
		t.Errorf("unexpected explanation %q", resp.Explanation)
	}
}

func TestExplainRisk_Disabled(t *testing.T) {
	h := newTestRouter(&stubScorer{explainErr: domain.ErrGenerationDisabled}, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("POST", "/v1/risk/explain", strings.NewReader(`{"address":"x"}`)))

	if rr.Code != http.StatusNotImplemented {
		t.Fatalf("got %d, want 501", rr.Code)
	}
}

type indexChecker struct{ err error }

func (c indexChecker) CheckVersion() error { return c.err }

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name   string
		health *healthuc.Service
		status int
	}{
		{"no checks", nil, http.StatusOK},
		{"fresh index", healthuc.New(nil, nil, indexChecker{}), http.StatusOK},
		{"stale index", healthuc.New(nil, nil, indexChecker{err: domain.ErrStaleIndex}), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(&stubScorer{}, tt.health)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest("GET", "/health", http.NoBody))
			if rr.Code != tt.status {
				t.Errorf("got %d, want %d", rr.Code, tt.status)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestRouter(&stubScorer{}, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", http.NoBody))
	if rr.Code != http.StatusOK {
		t.Errorf("got %d", rr.Code)
	}
}
