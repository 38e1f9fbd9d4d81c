// Package chi is the HTTP transport: risk scoring routes, health and metrics
// on a go-chi router.
package chi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kailas-cloud/riskdex/internal/domain/riskctx"
	healthuc "github.com/kailas-cloud/riskdex/internal/usecase/health"
	"github.com/kailas-cloud/riskdex/internal/usecase/pipeline"
)

// Scorer is the pipeline surface the server calls.
type Scorer interface {
	ScoreAddress(ctx context.Context, raw string, opts pipeline.Options) (riskctx.RiskContext, error)
	Explain(ctx context.Context, rc *riskctx.RiskContext) (string, error)
}

// Server serves the risk API.
type Server struct {
	scorer Scorer
	health *healthuc.Service
}

// NewServer creates an HTTP API server. health may be nil.
func NewServer(scorer Scorer, health *healthuc.Service) *Server {
	return &Server{scorer: scorer, health: health}
}

// Routes registers every handler on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Route("/v1/risk", func(r chi.Router) {
		r.Get("/", s.GetRisk)
		r.Post("/", s.PostRisk)
		r.Post("/explain", s.ExplainRisk)
	})
}

// GetRisk handles GET /v1/risk?address=...&horizon=...&k=...
func (s *Server) GetRisk(w http.ResponseWriter, r *http.Request) {
	var req RiskRequest
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, true, "address", q, &req.Address); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid format for parameter address: "+err.Error())
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "horizon", q, &req.Horizon); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid format for parameter horizon: "+err.Error())
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "k", q, &req.K); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidK, "Invalid format for parameter k: "+err.Error())
		return
	}
	s.score(w, r, req, false)
}

// PostRisk handles POST /v1/risk.
func (s *Server) PostRisk(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRiskRequest(w, r)
	if !ok {
		return
	}
	s.score(w, r, req, false)
}

// ExplainRisk handles POST /v1/risk/explain: scores the address and narrates the result.
func (s *Server) ExplainRisk(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRiskRequest(w, r)
	if !ok {
		return
	}
	s.score(w, r, req, true)
}

func decodeRiskRequest(w http.ResponseWriter, r *http.Request) (RiskRequest, bool) {
	var req RiskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return RiskRequest{}, false
	}
	return req, true
}

func (s *Server) score(w http.ResponseWriter, r *http.Request, req RiskRequest, explain bool) {
	if strings.TrimSpace(req.Address) == "" {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "address is required")
		return
	}

	rc, err := s.scorer.ScoreAddress(r.Context(), req.Address, pipeline.Options{Horizon: req.Horizon, K: req.K})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	resp := riskToResponse(&rc)
	if explain {
		text, err := s.scorer.Explain(r.Context(), &rc)
		if err != nil {
			handleDomainError(w, r, err)
			return
		}
		resp.Explanation = text
	}
	writeJSON(w, http.StatusOK, resp)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeJSON(w, http.StatusOK, HealthResponse{Status: string(healthuc.Healthy), Checks: map[string]string{}})
		return
	}
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{Status: string(report.Status), Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}
