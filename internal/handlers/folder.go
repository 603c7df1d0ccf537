package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// FolderHandler serves folder operations.
type FolderHandler struct {
	responder
	folders FolderService
}

// NewFolderHandler creates a new FolderHandler.
func NewFolderHandler(folders FolderService) *FolderHandler {
	return &FolderHandler{responder: newResponder(), folders: folders}
}

// FolderRequest creates or updates a folder. An empty color keeps the
// current one on update and takes the default on create.
type FolderRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	ParentID string `json:"parentId"`
	Color    string `json:"color" validate:"omitempty,hexcolor"`
}

// List returns all folders.
func (h *FolderHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	folders, err := h.folders.ListFolders(ctx)
	if err != nil {
		h.handleServiceError(w, ctx, err, "Failed to list folders")
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, folders)
}

// Create creates a folder and, in file mode, its directory.
func (h *FolderHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req FolderRequest
	if err := decode(w, r, &req); err != nil {
		h.handleServiceError(w, ctx, err, "Invalid request body")
		return
	}
	folder, err := h.folders.CreateFolder(ctx, req.Name, req.ParentID, req.Color)
	h.writeResult(ctx, w, http.StatusCreated, folder, err)
}

// Get returns one folder.
func (h *FolderHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	folder, err := h.folders.GetFolder(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, ctx, err, "Failed to get folder")
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, folder)
}

// Update renames, recolors or reparents a folder.
func (h *FolderHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req FolderRequest
	if err := decode(w, r, &req); err != nil {
		h.handleServiceError(w, ctx, err, "Invalid request body")
		return
	}
	folder, err := h.folders.GetFolder(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, ctx, err, "Failed to get folder")
		return
	}
	folder.Name = req.Name
	folder.ParentID = req.ParentID
	folder.Color = req.Color
	folder, err = h.folders.UpdateFolder(ctx, folder)
	h.writeResult(ctx, w, http.StatusOK, folder, err)
}

// Delete removes a folder. Its notes become unfiled.
func (h *FolderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	err := h.folders.DeleteFolder(ctx, chi.URLParam(r, "id"))
	h.writeBulk(ctx, w, struct{}{}, err)
}

// Notes returns the non-deleted notes of a folder.
func (h *FolderHandler) Notes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	notes, err := h.folders.ListByFolder(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, ctx, err, "Failed to list folder notes")
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, notes)
}
