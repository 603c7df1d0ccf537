package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// HistoryHandler serves note snapshots.
type HistoryHandler struct {
	responder
	history HistoryService
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(history HistoryService) *HistoryHandler {
	return &HistoryHandler{responder: newResponder(), history: history}
}

// CleanupRequest trims every note to its newest Keep snapshots. Zero
// applies the configured retention.
type CleanupRequest struct {
	Keep int `json:"keep" validate:"gte=0"`
}

// CleanupResponse reports how many snapshots were removed.
type CleanupResponse struct {
	Removed int `json:"removed"`
}

// List returns the snapshots of a note, newest first, up to ?limit=.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			h.writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	entries, err := h.history.ListHistory(ctx, chi.URLParam(r, "id"), limit)
	if err != nil {
		h.handleServiceError(w, ctx, err, "Failed to list history")
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, entries)
}

// Record snapshots the current version of a note.
func (h *HistoryHandler) Record(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	note, err := h.history.GetNote(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, ctx, err, "Failed to get note")
		return
	}
	entry, err := h.history.RecordHistory(ctx, note)
	if err != nil {
		h.handleServiceError(w, ctx, err, "Failed to record history")
		return
	}
	h.writeJSON(ctx, w, http.StatusCreated, entry)
}

// Clear removes every snapshot of a note.
func (h *HistoryHandler) Clear(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.history.ClearHistory(ctx, chi.URLParam(r, "id")); err != nil {
		h.handleServiceError(w, ctx, err, "Failed to clear history")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteEntry removes one snapshot.
func (h *HistoryHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.history.DeleteHistoryEntry(ctx, chi.URLParam(r, "entryID")); err != nil {
		h.handleServiceError(w, ctx, err, "Failed to delete history entry")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Cleanup runs the retention pass over all notes.
func (h *HistoryHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req CleanupRequest
	if err := decode(w, r, &req); err != nil {
		h.handleServiceError(w, ctx, err, "Invalid request body")
		return
	}
	removed, err := h.history.CleanupHistory(ctx, req.Keep)
	if err != nil {
		h.handleServiceError(w, ctx, err, "Failed to clean up history")
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, CleanupResponse{Removed: removed})
}
