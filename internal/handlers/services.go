package handlers

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_searcher.go -package=mocks offnote/internal/handlers Searcher
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_drafts.go -package=mocks offnote/internal/handlers Drafts

import (
	"context"
	"encoding/json"

	"offnote/internal/autosave"
	"offnote/internal/backend"
	"offnote/internal/domain"
	"offnote/internal/search"
	"offnote/internal/vault"
)

// NoteService is the note facade served over HTTP.
type NoteService interface {
	CreateNote(ctx context.Context, title, content, folderID string) (domain.Note, error)
	GetNote(ctx context.Context, id string) (domain.Note, error)
	SaveNote(ctx context.Context, note domain.Note) (domain.Note, error)
	ListNotes(ctx context.Context, opts domain.ListOptions) ([]domain.Note, error)
	ListDeleted(ctx context.Context) ([]domain.Note, error)
	ListFavorites(ctx context.Context) ([]domain.Note, error)
	ListByFolder(ctx context.Context, folderID string) ([]domain.Note, error)
	ListByTag(ctx context.Context, tag string) ([]domain.Note, error)
	DeleteNote(ctx context.Context, id string) (domain.Note, error)
	RestoreNote(ctx context.Context, id string) (domain.Note, error)
	PermanentlyDeleteNote(ctx context.Context, id string) error
	EmptyTrash(ctx context.Context) (domain.Counts, error)
	MoveNote(ctx context.Context, id, folderID string) (domain.Note, error)
	ToggleFavorite(ctx context.Context, id string) (domain.Note, error)
	AddTag(ctx context.Context, id, tag string) (domain.Note, error)
	RemoveTag(ctx context.Context, id, tag string) (domain.Note, error)
	ListTags(ctx context.Context) ([]domain.TagCount, error)
	ImportText(ctx context.Context, files []backend.TextFile, folderID string) (domain.Counts, error)
	ExportNote(ctx context.Context, id string) (string, []byte, error)
}

// FolderService manages folders.
type FolderService interface {
	CreateFolder(ctx context.Context, name, parentID, color string) (domain.Folder, error)
	GetFolder(ctx context.Context, id string) (domain.Folder, error)
	ListFolders(ctx context.Context) ([]domain.Folder, error)
	UpdateFolder(ctx context.Context, folder domain.Folder) (domain.Folder, error)
	DeleteFolder(ctx context.Context, id string) error
	ListByFolder(ctx context.Context, folderID string) ([]domain.Note, error)
}

// HistoryService manages note snapshots.
type HistoryService interface {
	GetNote(ctx context.Context, id string) (domain.Note, error)
	RecordHistory(ctx context.Context, note domain.Note) (domain.HistoryEntry, error)
	ListHistory(ctx context.Context, noteID string, limit int) ([]domain.HistoryEntry, error)
	DeleteHistoryEntry(ctx context.Context, id string) error
	ClearHistory(ctx context.Context, noteID string) error
	CleanupHistory(ctx context.Context, keep int) (int, error)
}

// SettingsService reads and writes user settings.
type SettingsService interface {
	GetSetting(ctx context.Context, key string, dst any) (bool, error)
	SetSetting(ctx context.Context, key string, value any) error
	Settings(ctx context.Context) (map[string]json.RawMessage, error)
}

// BackendService switches and synchronizes the persistence backend.
type BackendService interface {
	Status(ctx context.Context) domain.BackendStatus
	EnableFileBackendAt(ctx context.Context, desc vault.Descriptor) (domain.SyncReport, error)
	DisableFileBackend(ctx context.Context) (domain.SyncReport, error)
	Sync(ctx context.Context) (domain.SyncReport, error)
	Reconnect(ctx context.Context) error
}

// Searcher runs bounded pattern searches.
type Searcher interface {
	Find(ctx context.Context, pattern, text string, flags search.Flags) ([]search.Match, error)
	Replace(ctx context.Context, pattern, text, replacement string, flags search.Flags, all bool) (string, int, error)
	MatchNotes(ctx context.Context, notes []domain.Note, pattern string, flags search.Flags) ([]search.NoteMatches, error)
}

// Drafts debounces editor input.
type Drafts interface {
	Edit(ctx context.Context, id, title, content string) (autosave.State, error)
	Flush(ctx context.Context, id string) (autosave.State, error)
	Close(ctx context.Context, id string) (autosave.State, error)
	State(id string) (autosave.State, bool)
}
