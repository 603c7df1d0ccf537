package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"offnote/internal/contextutil"
	"offnote/internal/domain"
)

// DegradedHeader is set on responses to writes that were stored in the
// database because the file backend failed.
const DegradedHeader = "X-Offnote-Degraded"

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// PartialResponse is returned by bulk operations that failed for some items.
type PartialResponse struct {
	Result any    `json:"result"`
	Error  string `json:"error"`
}

// responder carries the logger and response helpers shared by all handlers.
type responder struct {
	logger *slog.Logger
}

func newResponder() responder {
	return responder{logger: slog.Default()}
}

// getLogger extracts logger from context or returns default logger.
func (h responder) getLogger(ctx context.Context) *slog.Logger {
	return contextutil.LoggerFromContextOr(ctx, h.logger)
}

// writeJSON writes v with the given status code.
func (h responder) writeJSON(ctx context.Context, w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.getLogger(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// writeError writes an error response.
func (h responder) writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error: message,
	})
}

// writeResult writes the outcome of a write operation. A degraded write is
// still a success: the data is durable and the header tells the client.
func (h responder) writeResult(ctx context.Context, w http.ResponseWriter, statusCode int, v any, err error) {
	if err != nil && !domain.IsDegraded(err) {
		h.handleServiceError(w, ctx, err, "Request failed")
		return
	}
	if err != nil {
		h.getLogger(ctx).WarnContext(ctx, "write stored in database", "error", err)
		w.Header().Set(DegradedHeader, "true")
	}
	h.writeJSON(ctx, w, statusCode, v)
}

// writeBulk writes the result of a bulk pass. Partial failures are reported
// with 207 and the per-phase counts.
func (h responder) writeBulk(ctx context.Context, w http.ResponseWriter, result any, err error) {
	var pf *domain.PartialFailure
	if errors.As(err, &pf) {
		h.getLogger(ctx).WarnContext(ctx, "bulk operation partially failed", "error", err)
		h.writeJSON(ctx, w, http.StatusMultiStatus, PartialResponse{Result: result, Error: pf.Error()})
		return
	}
	h.writeResult(ctx, w, http.StatusOK, result, err)
}

// handleServiceError maps service errors to appropriate HTTP status codes and responses.
func (h responder) handleServiceError(w http.ResponseWriter, ctx context.Context, err error, defaultMsg string) {
	logger := h.getLogger(ctx)

	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		logger.WarnContext(ctx, "validation failed", "error", err)
		h.writeError(w, http.StatusBadRequest, validationErr.Error())
		return
	}

	var integrityErr *domain.IntegrityError
	if errors.As(err, &integrityErr) {
		logger.ErrorContext(ctx, "directory left in partial state", "error", err)
		h.writeError(w, http.StatusConflict, integrityErr.Error())
		return
	}

	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrUnsafePattern):
		logger.WarnContext(ctx, "invalid input", "error", err)
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "Resource not found")
	case errors.Is(err, domain.ErrPermissionDenied):
		logger.WarnContext(ctx, "permission denied", "error", err)
		h.writeError(w, http.StatusForbidden, "Directory permission denied")
	case errors.Is(err, domain.ErrSearchTimeout):
		h.writeError(w, http.StatusRequestTimeout, "Search timed out")
	case errors.Is(err, domain.ErrTooManyMatches):
		h.writeError(w, http.StatusUnprocessableEntity, "Too many matches")
	case errors.Is(err, domain.ErrBackendUnavailable):
		logger.ErrorContext(ctx, "backend unavailable", "error", err)
		h.writeError(w, http.StatusServiceUnavailable, "Backend unavailable")
	default:
		logger.ErrorContext(ctx, "service error", "error", err)
		h.writeError(w, http.StatusInternalServerError, defaultMsg)
	}
}
