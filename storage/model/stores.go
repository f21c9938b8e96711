package model

// EventStore abstracts the abnormal-event metadata store. The canonical
// implementation keeps one directory per event (named by its display id) with
// a meta.json record inside; the interface is the seam where an indexed
// backend could be substituted later without touching callers.
type EventStore interface {
	// Create validates the request, allocates both identifiers, creates
	// the event folder and persists the initial record.
	Create(req CreateEventRequest) (*Event, error)
	// List returns summaries matching the filter, deduplicated by display
	// id, newest first, capped at the 200 most recent.
	List(filter EventFilter) ([]EventSummary, error)
	// Get returns the full record for the event with the given id.
	Get(id string) (*Event, error)
	// GetByDisplayID returns the full record for the given display id.
	GetByDisplayID(displayID string) (*Event, error)
	// UpdateStatus overwrites the status label; blank statuses are
	// rejected with a ValidationError.
	UpdateStatus(id, status string) error
	// PatchFields applies a partial update; only non-empty patch values
	// overwrite (see EventPatch).
	PatchFields(id string, patch EventPatch) error
	// Delete removes the event folder recursively. Irreversible.
	Delete(id string) error
	// AttachFiles records files already placed in the event's folder.
	AttachFiles(displayID string, files []FileAttachment) error
	// DetachFile removes the named file from disk and from the record.
	DetachFile(id, filename string) error
	// ResolveFolder maps an id or display id to the event's folder name.
	ResolveFolder(key string) (string, error)
	// FolderPath returns the absolute path of an event folder, where
	// attachments are placed before AttachFiles records them.
	FolderPath(folder string) string
	// NextSerial returns the next unused zero-padded serial for the
	// (date, buildingCode) pair.
	NextSerial(date, buildingCode string) (string, error)
}

// GalleryStore abstracts the daily compliance-photo folders. A gallery folder
// is just a directory named {building}-{date} holding image files; its only
// derived fact is existence.
type GalleryStore interface {
	// Folders lists folders whose name contains the prefix together with
	// their image files.
	Folders(prefix string) ([]GalleryFolder, error)
	// SaveImage moves an uploaded temp file into the building's folder for
	// today and returns the saved relative path.
	SaveImage(building, note, tmpPath, originalName string) (string, error)
	// DeleteImage deletes one image and prunes the folder when it empties.
	// It reports whether the folder was removed.
	DeleteImage(folder, filename string) (bool, error)
	// HasFolder reports whether a folder exists for (building, date).
	HasFolder(building, date string) bool
	// HasFolderName reports whether the exact folder name exists.
	HasFolderName(folder string) bool
	// FolderPath returns the absolute path of a gallery folder.
	FolderPath(folder string) string
}

// GalleryFolder is one {building}-{date} directory and its images.
type GalleryFolder struct {
	Folder string         `json:"folder"`
	Files  []GalleryImage `json:"files"`
}

// GalleryImage is one image inside a gallery folder.
type GalleryImage struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
}
