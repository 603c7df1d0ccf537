package handlers

import (
	"fmt"
	"mime"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"offnote/internal/backend"
	"offnote/internal/domain"
)

// NoteHandler serves the note operations.
type NoteHandler struct {
	responder
	notes NoteService
}

// NewNoteHandler creates a new NoteHandler.
func NewNoteHandler(notes NoteService) *NoteHandler {
	return &NoteHandler{responder: newResponder(), notes: notes}
}

// CreateNoteRequest is the payload for creating a note. An empty title
// becomes "Untitled".
type CreateNoteRequest struct {
	Title    string `json:"title" validate:"max=500"`
	Content  string `json:"content"`
	FolderID string `json:"folderId"`
}

// UpdateNoteRequest replaces the fields that are present.
type UpdateNoteRequest struct {
	Title      *string   `json:"title" validate:"omitempty,max=500"`
	Content    *string   `json:"content"`
	Tags       *[]string `json:"tags" validate:"omitempty,dive,required,max=100"`
	IsFavorite *bool     `json:"isFavorite"`
}

// MoveNoteRequest names the destination folder. Empty means unfiled.
type MoveNoteRequest struct {
	FolderID string `json:"folderId"`
}

// TagRequest names one tag.
type TagRequest struct {
	Tag string `json:"tag" validate:"required,max=100"`
}

// TextFileRequest is one file of a bulk import.
type TextFileRequest struct {
	Name    string `json:"name" validate:"required,max=255"`
	Content string `json:"content"`
}

// ImportRequest is a bulk text import.
type ImportRequest struct {
	Files    []TextFileRequest `json:"files" validate:"required,min=1,dive"`
	FolderID string            `json:"folderId"`
}

// List returns the non-deleted notes ordered by ?sortBy= and ?order=.
func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	opts := domain.ListOptions{
		SortBy: domain.SortField(q.Get("sortBy")),
		Order:  domain.SortOrder(q.Get("order")),
	}
	notes, err := h.notes.ListNotes(ctx, opts)
	if err != nil {
		h.handleServiceError(w, ctx, err, "Failed to list notes")
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, notes)
}

// Trash returns soft-deleted notes.
func (h *NoteHandler) Trash(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	notes, err := h.notes.ListDeleted(ctx)
	if err != nil {
		h.handleServiceError(w, ctx, err, "Failed to list trash")
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, notes)
}

// Favorites returns favorite notes.
func (h *NoteHandler) Favorites(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	notes, err := h.notes.ListFavorites(ctx)
	if err != nil {
		h.handleServiceError(w, ctx, err, "Failed to list favorites")
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, notes)
}

// Tags returns tags by frequency.
func (h *NoteHandler) Tags(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tags, err := h.notes.ListTags(ctx)
	if err != nil {
		h.handleServiceError(w, ctx, err, "Failed to list tags")
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, tags)
}

// ByTag returns the notes carrying {tag}.
func (h *NoteHandler) ByTag(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tag, err := url.PathUnescape(chi.URLParam(r, "tag"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid tag")
		return
	}
	notes, err := h.notes.ListByTag(ctx, tag)
	if err != nil {
		h.handleServiceError(w, ctx, err, "Failed to list notes by tag")
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, notes)
}

// Create creates a note.
func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req CreateNoteRequest
	if err := decode(w, r, &req); err != nil {
		h.handleServiceError(w, ctx, err, "Invalid request body")
		return
	}
	note, err := h.notes.CreateNote(ctx, req.Title, req.Content, req.FolderID)
	if note.ID != "" {
		w.Header().Set("Location", noteURL(note.ID))
	}
	h.writeResult(ctx, w, http.StatusCreated, note, err)
}

// Get returns one note, including soft-deleted notes.
func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	note, err := h.notes.GetNote(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, ctx, err, "Failed to get note")
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, note)
}

// Update applies the fields present in the body and saves the note.
func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req UpdateNoteRequest
	if err := decode(w, r, &req); err != nil {
		h.handleServiceError(w, ctx, err, "Invalid request body")
		return
	}
	note, err := h.notes.GetNote(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, ctx, err, "Failed to get note")
		return
	}
	if req.Title != nil {
		note.Title = *req.Title
	}
	if req.Content != nil {
		note.Content = *req.Content
	}
	if req.Tags != nil {
		note.Tags = *req.Tags
	}
	if req.IsFavorite != nil {
		note.IsFavorite = *req.IsFavorite
	}
	note, err = h.notes.SaveNote(ctx, note)
	h.writeResult(ctx, w, http.StatusOK, note, err)
}

// Delete moves a note to the trash.
func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	note, err := h.notes.DeleteNote(ctx, chi.URLParam(r, "id"))
	h.writeResult(ctx, w, http.StatusOK, note, err)
}

// Restore takes a note out of the trash.
func (h *NoteHandler) Restore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	note, err := h.notes.RestoreNote(ctx, chi.URLParam(r, "id"))
	h.writeResult(ctx, w, http.StatusOK, note, err)
}

// Purge permanently deletes a note.
func (h *NoteHandler) Purge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.notes.PermanentlyDeleteNote(ctx, chi.URLParam(r, "id")); err != nil {
		h.handleServiceError(w, ctx, err, "Failed to delete note")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// EmptyTrash permanently deletes every soft-deleted note.
func (h *NoteHandler) EmptyTrash(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	counts, err := h.notes.EmptyTrash(ctx)
	h.writeBulk(ctx, w, counts, err)
}

// Move reassigns a note to another folder.
func (h *NoteHandler) Move(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req MoveNoteRequest
	if err := decode(w, r, &req); err != nil {
		h.handleServiceError(w, ctx, err, "Invalid request body")
		return
	}
	note, err := h.notes.MoveNote(ctx, chi.URLParam(r, "id"), req.FolderID)
	h.writeResult(ctx, w, http.StatusOK, note, err)
}

// ToggleFavorite flips the favorite flag.
func (h *NoteHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	note, err := h.notes.ToggleFavorite(ctx, chi.URLParam(r, "id"))
	h.writeResult(ctx, w, http.StatusOK, note, err)
}

// AddTag adds a tag to a note.
func (h *NoteHandler) AddTag(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req TagRequest
	if err := decode(w, r, &req); err != nil {
		h.handleServiceError(w, ctx, err, "Invalid request body")
		return
	}
	note, err := h.notes.AddTag(ctx, chi.URLParam(r, "id"), req.Tag)
	h.writeResult(ctx, w, http.StatusOK, note, err)
}

// RemoveTag removes {tag} from a note.
func (h *NoteHandler) RemoveTag(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tag, err := url.PathUnescape(chi.URLParam(r, "tag"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid tag")
		return
	}
	note, err := h.notes.RemoveTag(ctx, chi.URLParam(r, "id"), tag)
	h.writeResult(ctx, w, http.StatusOK, note, err)
}

// Export downloads a note as a text file.
func (h *NoteHandler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name, body, err := h.notes.ExportNote(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, ctx, err, "Failed to export note")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		h.getLogger(ctx).ErrorContext(ctx, "failed to write export", "error", err)
	}
}

// Import creates one note per text file.
func (h *NoteHandler) Import(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req ImportRequest
	if err := decode(w, r, &req); err != nil {
		h.handleServiceError(w, ctx, err, "Invalid request body")
		return
	}
	files := make([]backend.TextFile, 0, len(req.Files))
	for _, f := range req.Files {
		files = append(files, backend.TextFile{Name: f.Name, Content: f.Content})
	}
	counts, err := h.notes.ImportText(ctx, files, req.FolderID)
	h.getLogger(ctx).InfoContext(ctx, "import request handled", "files", len(files), "imported", counts.Success)
	h.writeBulk(ctx, w, counts, err)
}

func noteURL(id string) string {
	return fmt.Sprintf("/api/notes/%s", url.PathEscape(id))
}
