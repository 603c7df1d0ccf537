package domain

import (
	"slices"
	"time"
)

// DefaultTitle is used when a note is created or saved without a title.
const DefaultTitle = "Untitled"

// Note is a single text note. ID is assigned once at creation and never reused.
type Note struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	Tags       []string   `json:"tags"`
	IsFavorite bool       `json:"isFavorite"`
	FolderID   string     `json:"folderId,omitempty"` // empty = unfiled
	IsDeleted  bool       `json:"isDeleted"`
	DeletedAt  *time.Time `json:"deletedAt,omitempty"`
}

// HasTag reports whether the note carries tag.
func (n Note) HasTag(tag string) bool {
	return slices.Contains(n.Tags, tag)
}

// Folder groups notes. When the file backend is active each folder is
// mirrored by a directory of the same (sanitized) name.
type Folder struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ParentID  string    `json:"parentId,omitempty"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"createdAt"`
}

// DefaultFolderColor is the display color assigned to new folders.
const DefaultFolderColor = "#007bff"

// HistoryEntry is an immutable snapshot of a note taken at save time.
type HistoryEntry struct {
	ID      string    `json:"id"`
	NoteID  string    `json:"noteId"`
	Title   string    `json:"title"`
	Content string    `json:"content"`
	SavedAt time.Time `json:"savedAt"`
}

// TagCount is a tag with the number of non-deleted notes carrying it.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// SortField selects the ordering key for note listings.
type SortField string

const (
	SortByUpdatedAt SortField = "updatedAt"
	SortByCreatedAt SortField = "createdAt"
	SortByTitle     SortField = "title"
)

// SortOrder is ascending or descending.
type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// ListOptions controls note listing order.
type ListOptions struct {
	SortBy SortField
	Order  SortOrder
}

// DefaultListOptions sorts by most recently updated first.
func DefaultListOptions() ListOptions {
	return ListOptions{SortBy: SortByUpdatedAt, Order: Desc}
}

// Normalize fills unset fields with defaults.
func (o ListOptions) Normalize() ListOptions {
	switch o.SortBy {
	case SortByUpdatedAt, SortByCreatedAt, SortByTitle:
	default:
		o.SortBy = SortByUpdatedAt
	}
	if o.Order != Asc {
		o.Order = Desc
	}
	return o
}
