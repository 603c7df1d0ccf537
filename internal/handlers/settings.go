package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"offnote/internal/domain"
)

// SettingsHandler serves user settings as raw JSON values.
type SettingsHandler struct {
	responder
	settings SettingsService
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(settings SettingsService) *SettingsHandler {
	return &SettingsHandler{responder: newResponder(), settings: settings}
}

// All returns every stored setting.
func (h *SettingsHandler) All(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	all, err := h.settings.Settings(ctx)
	if err != nil {
		h.handleServiceError(w, ctx, err, "Failed to list settings")
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, all)
}

// Get returns one setting. An unset key answers with ?default= when given,
// 404 otherwise.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var value json.RawMessage
	found, err := h.settings.GetSetting(ctx, chi.URLParam(r, "key"), &value)
	if err != nil {
		h.handleServiceError(w, ctx, err, "Failed to get setting")
		return
	}
	if !found {
		def := r.URL.Query().Get("default")
		if def == "" {
			h.writeError(w, http.StatusNotFound, "Setting not found")
			return
		}
		if !json.Valid([]byte(def)) {
			h.writeJSON(ctx, w, http.StatusOK, def)
			return
		}
		value = json.RawMessage(def)
	}
	h.writeJSON(ctx, w, http.StatusOK, value)
}

// Put stores the JSON body under {key}. A null body clears the key.
func (h *SettingsHandler) Put(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}
	if !json.Valid(body) {
		h.handleServiceError(w, ctx, &domain.ValidationError{Field: "body", Message: "invalid JSON"}, "Invalid request body")
		return
	}
	var value any = json.RawMessage(body)
	if string(bytes.TrimSpace(body)) == "null" {
		value = nil
	}
	if err := h.settings.SetSetting(ctx, chi.URLParam(r, "key"), value); err != nil {
		h.handleServiceError(w, ctx, err, "Failed to save setting")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
