package model

// Event is one logged abnormal/incident report. It is the full record
// persisted as meta.json inside the event's folder; json tags are part of the
// on-disk contract and must not change.
type Event struct {
	// ID is the process-generated opaque identifier (v4 UUID). It is
	// immutable and survives folder renames.
	ID string `json:"id"`
	// DisplayID is the human-facing identifier
	// {YYYYMMDD}-{buildingCode}-{serial} and doubles as the folder name.
	DisplayID string `json:"displayId"`

	Building string `json:"building"`
	Type     string `json:"type"`
	Subtype  string `json:"subtype"`

	Description string `json:"description"`
	ReportedBy  string `json:"reportedBy"`
	Location    string `json:"location"`
	OccurTime   string `json:"occurTime"`
	Phenomenon  string `json:"phenomenon"`
	Judgement   string `json:"judgement"`
	Handling    string `json:"handling"`
	Suggestion  string `json:"suggestion"`
	Reason      string `json:"reason"`

	// Status is a free-text lifecycle label; any non-blank string may
	// overwrite it, there is no transition graph.
	Status string `json:"status"`

	Files []FileAttachment `json:"files"`

	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// FileAttachment describes one file attached to an event.
type FileAttachment struct {
	// Filename is the on-disk name inside the event folder,
	// collision-avoided with a unix-millis prefix.
	Filename     string `json:"filename"`
	OriginalName string `json:"originalname"`
	MimeType     string `json:"mimetype"`
	Size         int64  `json:"size"`
	UploadedAt   string `json:"uploadedAt"`
	// Category is a free-text tag such as "initial", "processing" or
	// "resolved".
	Category string `json:"category"`
	URL      string `json:"url"`
}

// EventSummary is the projection returned by listings; detail-only fields
// (location, occurTime, ...) are omitted.
type EventSummary struct {
	ID          string `json:"id"`
	DisplayID   string `json:"displayId"`
	Building    string `json:"building"`
	Type        string `json:"type"`
	Subtype     string `json:"subtype"`
	Description string `json:"description"`
	ReportedBy  string `json:"reportedBy"`
	Status      string `json:"status"`
	CreatedAt   string `json:"createdAt"`
}

// Summary projects the event onto its listing representation.
func (e Event) Summary() EventSummary {
	return EventSummary{
		ID:          e.ID,
		DisplayID:   e.DisplayID,
		Building:    e.Building,
		Type:        e.Type,
		Subtype:     e.Subtype,
		Description: e.Description,
		ReportedBy:  e.ReportedBy,
		Status:      e.Status,
		CreatedAt:   e.CreatedAt,
	}
}

// CreateEventRequest carries the caller-supplied fields for event creation.
// Building, Type and Description are required.
type CreateEventRequest struct {
	Building    string `json:"building" form:"building"`
	Type        string `json:"type" form:"type"`
	Subtype     string `json:"subtype" form:"subtype"`
	Description string `json:"description" form:"description"`
	ReportedBy  string `json:"reportedBy" form:"reportedBy"`
	Location    string `json:"location" form:"location"`
	OccurTime   string `json:"occurTime" form:"occurTime"`
	Phenomenon  string `json:"phenomenon" form:"phenomenon"`
	Judgement   string `json:"judgement" form:"judgement"`
	Handling    string `json:"handling" form:"handling"`
	Suggestion  string `json:"suggestion" form:"suggestion"`
	Reason      string `json:"reason" form:"reason"`
}

// EventFilter narrows event listings. Building, Type and Subtype match
// exactly (Subtype compared with surrounding whitespace trimmed); DisplayID
// matches as a substring. Empty fields are ignored.
type EventFilter struct {
	Building  string `json:"building" query:"building"`
	Type      string `json:"type" query:"type"`
	Subtype   string `json:"subtype" query:"subtype"`
	DisplayID string `json:"displayId" query:"displayId"`
}

// EventPatch carries a partial content update. Only non-empty values are
// applied; an empty string can therefore never clear a field through this
// path. That quirk is inherited from the system this store replaced and is
// kept on purpose.
type EventPatch struct {
	Reason      string `json:"reason"`
	Description string `json:"description"`
	Status      string `json:"status"`
}
