package events

// File event names.
const (
	NameFileOpened           = "file.opened"
	NameFileContentChanged   = "file.content.changed"
	NameFileSaved            = "file.saved"
	NameActiveFileChanged    = "file.active.changed"
	NameFileEncodingDetected = "file.encoding.detected"
)

// FileOpened is published when a file is opened.
type FileOpened struct {
	FilePath string `json:"file_path"`
	Content  string `json:"content"`
}

// EventName implements event.Event.
func (FileOpened) EventName() string { return NameFileOpened }

// FileContentChanged is published when the content of an open file changes.
type FileContentChanged struct {
	FileID     string `json:"file_id"`
	NewContent string `json:"new_content"`
}

// EventName implements event.Event.
func (FileContentChanged) EventName() string { return NameFileContentChanged }

// FileSaved is published after a file has been written.
type FileSaved struct {
	FilePath string `json:"file_path"`
}

// EventName implements event.Event.
func (FileSaved) EventName() string { return NameFileSaved }

// ActiveFileChanged is published when a different file becomes active.
type ActiveFileChanged struct {
	FileID string `json:"file_id"`
}

// EventName implements event.Event.
func (ActiveFileChanged) EventName() string { return NameActiveFileChanged }

// FileEncodingDetected is published once the encoding of an opened file is known.
type FileEncodingDetected struct {
	EncodingName string `json:"encoding_name"`
}

// EventName implements event.Event.
func (FileEncodingDetected) EventName() string { return NameFileEncodingDetected }
