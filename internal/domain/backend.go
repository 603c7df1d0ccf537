package domain

// BackendState is the session state of the backend selector.
type BackendState string

const (
	StateUninitialized    BackendState = "uninitialized"
	StateRestoringHandle  BackendState = "restoring_handle"
	StateFileActive       BackendState = "file_active"
	StateStructuredActive BackendState = "structured_active"
)

// BackendStatus is what the UI renders for the current backend mode.
type BackendStatus struct {
	Supported     bool         `json:"supported"`
	Enabled       bool         `json:"enabled"`
	DirectoryName string       `json:"directoryName,omitempty"`
	State         BackendState `json:"state"`
	LastError     string       `json:"lastError,omitempty"`
}

// Counts is a success/failure tally for one phase of a bulk pass.
type Counts struct {
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

// SyncReport aggregates the phases of a backend switch or sync pass.
type SyncReport struct {
	Migrated    int    `json:"migrated"`
	Imported    Counts `json:"imported"`
	Exported    Counts `json:"exported"`
	Directories int    `json:"directories"`
	Cleared     int    `json:"cleared"`
	BackedUp    Counts `json:"backedUp"`
	Pruned      int    `json:"pruned"`
}

// Failed is the total number of failed items across all phases.
func (r SyncReport) Failed() int {
	return r.Imported.Failed + r.Exported.Failed + r.BackedUp.Failed
}

// Well-known settings keys.
const (
	SettingFileSystemEnabled    = "fileSystemEnabled"
	SettingDirectoryHandle      = "directoryHandle"
	SettingLastNoteID           = "lastNoteId"
	SettingTheme                = "theme"
	SettingCustomThemes         = "customThemes"
	SettingTagColors            = "tagColors"
	SettingNoteListSize         = "noteListSize"
	SettingFontFamily           = "fontFamily"
	SettingFontSize             = "fontSize"
	SettingLineHeight           = "lineHeight"
	SettingSidebarTheme         = "sidebarTheme"
	SettingSeparateSidebarTheme = "separateSidebarTheme"
)
