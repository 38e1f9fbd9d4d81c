package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/riskdex/internal/domain"
	"github.com/kailas-cloud/riskdex/internal/logger"
)

// ErrorCode is the machine-readable error code of an API error.
type ErrorCode string

// API error codes.
const (
	CodeBadRequest         ErrorCode = "bad_request"
	CodeUnauthorized       ErrorCode = "unauthorized"
	CodeAddressNotFound    ErrorCode = "address_not_found"
	CodeOutOfCoverage      ErrorCode = "out_of_coverage"
	CodeInvalidK           ErrorCode = "invalid_k"
	CodeInvalidHorizon     ErrorCode = "invalid_horizon"
	CodeStaleIndex         ErrorCode = "stale_index"
	CodeIncompleteContext  ErrorCode = "incomplete_context"
	CodeEmbeddingProvider  ErrorCode = "embedding_provider_error"
	CodeGenerationDisabled ErrorCode = "generation_disabled"
	CodeGenerationFailed   ErrorCode = "generation_failed"
	CodeInternalError      ErrorCode = "internal_error"
)

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

var errorHandlers = []errorHandler{
	outOfCoverageHandler,
	sentinelHandler(domain.ErrAddressNotFound, http.StatusNotFound, CodeAddressNotFound),
	sentinelHandler(domain.ErrInvalidK, http.StatusBadRequest, CodeInvalidK),
	sentinelHandler(domain.ErrInvalidHorizon, http.StatusBadRequest, CodeInvalidHorizon),
	sentinelHandler(domain.ErrStaleIndex, http.StatusServiceUnavailable, CodeStaleIndex),
	sentinelHandler(domain.ErrIncompleteContext, http.StatusInternalServerError, CodeIncompleteContext),
	sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingProvider),
	sentinelHandler(domain.ErrGenerationDisabled, http.StatusNotImplemented, CodeGenerationDisabled),
	sentinelHandler(domain.ErrGenerationFailed, http.StatusBadGateway, CodeGenerationFailed),
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrAddressNotFound,
		domain.ErrOutOfCoverage,
		domain.ErrInvalidK,
		domain.ErrInvalidHorizon,
		domain.ErrStaleIndex,
		domain.ErrIncompleteContext,
		domain.ErrEmbeddingProviderError,
		domain.ErrGenerationDisabled,
		domain.ErrGenerationFailed,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// outOfCoverageHandler echoes the rejected coordinate.
func outOfCoverageHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrOutOfCoverage) {
		return false
	}
	var oce *domain.OutOfCoverageError
	if errors.As(err, &oce) {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"code":    CodeOutOfCoverage,
			"message": msg,
			"lat":     oce.Lat,
			"lon":     oce.Lon,
		})
		return true
	}
	writeError(w, http.StatusNotFound, CodeOutOfCoverage, msg)
	return true
}

func handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	msg := safeDomainMessage(err)
	for _, h := range errorHandlers {
		if h(w, err, msg) {
			log.Warn("domain error", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
