package storage

import "database/sql"

// Store bundles the repositories of the structured store.
type Store struct {
	Notes    *NoteRepo
	Folders  *FolderRepo
	History  *HistoryRepo
	Settings *SettingRepo
}

// NewStore wires all repositories onto one database handle.
func NewStore(db *sql.DB, sorter *Sorter, historyRetention int) *Store {
	return &Store{
		Notes:    NewNoteRepo(db, sorter),
		Folders:  NewFolderRepo(db),
		History:  NewHistoryRepo(db, historyRetention),
		Settings: NewSettingRepo(db),
	}
}
