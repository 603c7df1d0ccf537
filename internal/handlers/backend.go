package handlers

import (
	"net/http"
	"path/filepath"

	"offnote/internal/vault"
)

// BackendHandler switches between the database and a notes directory.
type BackendHandler struct {
	responder
	backend BackendService
}

// NewBackendHandler creates a new BackendHandler.
func NewBackendHandler(backend BackendService) *BackendHandler {
	return &BackendHandler{responder: newResponder(), backend: backend}
}

// EnableRequest names the local directory to store notes in.
type EnableRequest struct {
	Path string `json:"path" validate:"required"`
	Name string `json:"name"`
}

// Status reports the current backend mode.
func (h *BackendHandler) Status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.writeJSON(ctx, w, http.StatusOK, h.backend.Status(ctx))
}

// Enable switches to the directory in the body and reconciles both stores.
func (h *BackendHandler) Enable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req EnableRequest
	if err := decode(w, r, &req); err != nil {
		h.handleServiceError(w, ctx, err, "Invalid request body")
		return
	}
	path, err := filepath.Abs(req.Path)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid path")
		return
	}
	name := req.Name
	if name == "" {
		name = filepath.Base(path)
	}
	h.getLogger(ctx).InfoContext(ctx, "enabling file backend", "path", path)
	report, err := h.backend.EnableFileBackendAt(ctx, vault.Descriptor{Kind: vault.KindOS, Path: path, Name: name})
	h.writeBulk(ctx, w, report, err)
}

// Disable backs notes up into the database and leaves file mode.
func (h *BackendHandler) Disable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	report, err := h.backend.DisableFileBackend(ctx)
	h.writeBulk(ctx, w, report, err)
}

// Sync flushes fallback writes to the directory and prunes the index.
func (h *BackendHandler) Sync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	report, err := h.backend.Sync(ctx)
	h.writeBulk(ctx, w, report, err)
}

// Reconnect asks for directory permission again after it was declined.
func (h *BackendHandler) Reconnect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.backend.Reconnect(ctx); err != nil {
		h.handleServiceError(w, ctx, err, "Failed to reconnect")
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, h.backend.Status(ctx))
}
