package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"offnote/internal/contextutil"
	"offnote/internal/domain"
)

// Pinger checks that the database answers. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// StatusReporter reports the backend mode.
type StatusReporter interface {
	Status(ctx context.Context) domain.BackendStatus
}

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	db                 Pinger
	backend            StatusReporter
	healthCheckTimeout time.Duration
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db Pinger, backend StatusReporter) *HealthHandler {
	return &HealthHandler{
		db:                 db,
		backend:            backend,
		healthCheckTimeout: 5 * time.Second,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	// Overall health status: "healthy", "degraded", or "unhealthy"
	Status string `json:"status"`

	// Timestamp of the health check
	Timestamp string `json:"timestamp"`

	// Individual check results
	Checks map[string]string `json:"checks"`

	// Backend mode
	Backend domain.BackendStatus `json:"backend"`

	// List of issues (only present if status is degraded or unhealthy)
	Issues []string `json:"issues,omitempty"`
}

// ServeHTTP handles HTTP requests for health checks.
//
// Returns 200 OK when the database answers, 503 otherwise. A file backend
// that was enabled but is not active (permission pending or declined)
// reports "degraded" with 200, since every operation is still served by
// the database.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	checkCtx, cancel := context.WithTimeout(ctx, h.healthCheckTimeout)
	defer cancel()

	checks := make(map[string]string)
	var issues []string

	if err := h.db.PingContext(checkCtx); err != nil {
		logger.WarnContext(ctx, "database health check failed", "error", err)
		checks["database"] = "error"
		issues = append(issues, "database_unavailable")
	} else {
		checks["database"] = "ok"
	}

	status := h.backend.Status(ctx)
	degraded := false
	switch {
	case status.State == domain.StateFileActive:
		checks["file_backend"] = "ok"
	case status.Enabled:
		checks["file_backend"] = "inactive"
		issues = append(issues, "file_backend_inactive")
		degraded = true
	default:
		checks["file_backend"] = "disabled"
	}

	overall := "healthy"
	httpStatus := http.StatusOK
	if checks["database"] != "ok" {
		overall = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	} else if degraded {
		overall = "degraded"
	}

	response := HealthResponse{
		Status:    overall,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Backend:   status,
		Issues:    issues,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.ErrorContext(ctx, "failed to encode health response", "error", err)
	}
}
