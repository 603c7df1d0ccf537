package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// DraftHandler feeds editor input to the autosaver.
type DraftHandler struct {
	responder
	drafts Drafts
}

// NewDraftHandler creates a new DraftHandler.
func NewDraftHandler(drafts Drafts) *DraftHandler {
	return &DraftHandler{responder: newResponder(), drafts: drafts}
}

// DraftRequest is the editor's current title and body.
type DraftRequest struct {
	Title   string `json:"title" validate:"max=500"`
	Content string `json:"content"`
}

// Edit records an edit. The save happens after the quiet period.
func (h *DraftHandler) Edit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req DraftRequest
	if err := decode(w, r, &req); err != nil {
		h.handleServiceError(w, ctx, err, "Invalid request body")
		return
	}
	state, err := h.drafts.Edit(ctx, chi.URLParam(r, "id"), req.Title, req.Content)
	if err != nil {
		h.handleServiceError(w, ctx, err, "Failed to record edit")
		return
	}
	h.writeJSON(ctx, w, http.StatusAccepted, state)
}

// State reports the save status of an open note.
func (h *DraftHandler) State(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	state, ok := h.drafts.State(chi.URLParam(r, "id"))
	if !ok {
		h.writeError(w, http.StatusNotFound, "No open edit for note")
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, state)
}

// Flush saves pending edits now.
func (h *DraftHandler) Flush(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	state, err := h.drafts.Flush(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, ctx, err, "Failed to save note")
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, state)
}

// Close saves pending edits and forgets the note.
func (h *DraftHandler) Close(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	state, err := h.drafts.Close(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, ctx, err, "Failed to save note")
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, state)
}
