package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"offnote/internal/domain"
	"offnote/internal/search"
)

// SearchHandler serves plain and pattern searches over the note listing.
type SearchHandler struct {
	responder
	notes    NoteService
	searcher Searcher
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(notes NoteService, searcher Searcher) *SearchHandler {
	return &SearchHandler{responder: newResponder(), notes: notes, searcher: searcher}
}

// PatternRequest is a bounded pattern search.
type PatternRequest struct {
	Pattern string       `json:"pattern" validate:"required"`
	Flags   search.Flags `json:"flags"`
}

// ReplaceRequest rewrites the content of one note.
type ReplaceRequest struct {
	Pattern     string       `json:"pattern" validate:"required"`
	Replacement string       `json:"replacement"`
	Flags       search.Flags `json:"flags"`
	All         bool         `json:"all"`
}

// ReplaceResponse is the saved note and the number of replacements.
type ReplaceResponse struct {
	Note     domain.Note `json:"note"`
	Replaced int         `json:"replaced"`
}

// Plain returns the notes whose title or content contains ?q=, ignoring case.
func (h *SearchHandler) Plain(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	notes, err := h.notes.ListNotes(ctx, domain.DefaultListOptions())
	if err != nil {
		h.handleServiceError(w, ctx, err, "Failed to list notes")
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, search.Notes(notes, r.URL.Query().Get("q")))
}

// Pattern matches a pattern against every listed note.
func (h *SearchHandler) Pattern(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req PatternRequest
	if err := decode(w, r, &req); err != nil {
		h.handleServiceError(w, ctx, err, "Invalid request body")
		return
	}
	notes, err := h.notes.ListNotes(ctx, domain.DefaultListOptions())
	if err != nil {
		h.handleServiceError(w, ctx, err, "Failed to list notes")
		return
	}
	result, err := h.searcher.MatchNotes(ctx, notes, req.Pattern, req.Flags)
	if err != nil {
		h.handleServiceError(w, ctx, err, "Search failed")
		return
	}
	if result == nil {
		result = []search.NoteMatches{}
	}
	h.writeJSON(ctx, w, http.StatusOK, result)
}

// Find returns the matches of a pattern in one note's content.
func (h *SearchHandler) Find(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req PatternRequest
	if err := decode(w, r, &req); err != nil {
		h.handleServiceError(w, ctx, err, "Invalid request body")
		return
	}
	note, err := h.notes.GetNote(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, ctx, err, "Failed to get note")
		return
	}
	matches, err := h.searcher.Find(ctx, req.Pattern, note.Content, req.Flags)
	if err != nil {
		h.handleServiceError(w, ctx, err, "Search failed")
		return
	}
	if matches == nil {
		matches = []search.Match{}
	}
	h.writeJSON(ctx, w, http.StatusOK, matches)
}

// Replace substitutes matches in one note's content and saves it when
// anything changed.
func (h *SearchHandler) Replace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req ReplaceRequest
	if err := decode(w, r, &req); err != nil {
		h.handleServiceError(w, ctx, err, "Invalid request body")
		return
	}
	note, err := h.notes.GetNote(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, ctx, err, "Failed to get note")
		return
	}
	content, n, err := h.searcher.Replace(ctx, req.Pattern, note.Content, req.Replacement, req.Flags, req.All)
	if err != nil {
		h.handleServiceError(w, ctx, err, "Replace failed")
		return
	}
	if n == 0 || content == note.Content {
		h.writeJSON(ctx, w, http.StatusOK, ReplaceResponse{Note: note, Replaced: n})
		return
	}
	note.Content = content
	note, err = h.notes.SaveNote(ctx, note)
	h.writeResult(ctx, w, http.StatusOK, ReplaceResponse{Note: note, Replaced: n}, err)
}
