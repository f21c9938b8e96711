package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/guardops/watchpost/storage/model"
)

// MetaFilename is the name of the JSON sidecar inside every event folder.
const MetaFilename = "meta.json"

// FallbackBuildingCode is used in display ids when a building is not in the
// code table.
const FallbackBuildingCode = "XX"

// isoMillis matches the timestamp format of the records this store is
// bit-compatible with (ISO-8601 with milliseconds, UTC).
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// serialDateFormat is the date part of a display id.
const serialDateFormat = "20060102"

// InitialEventStatus is assigned to every newly created event.
const InitialEventStatus = "reported"

const listLimit = 200

// EventDirStorage implements model.EventStore on a flat collection of event
// folders. There is no index: every query re-reads the folder collection and
// the meta.json files. Mutations are whole-file read-modify-write guarded by
// one mutex, so concurrent writers within this process cannot lose updates;
// across processes the contract stays last-write-wins.
type EventDirStorage struct {
	dir           string
	buildingCodes map[string]string
	mutex         sync.Mutex
	now           func() time.Time
}

// NewEventDirStorage creates an EventDirStorage rooted at dir, creating the
// directory if needed.
func NewEventDirStorage(dir string, buildingCodes map[string]string) (*EventDirStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "could not create events dir '%s'", dir)
	}
	return &EventDirStorage{
		dir:           dir,
		buildingCodes: buildingCodes,
		now:           time.Now,
	}, nil
}

// Dir returns the root directory of the event folders.
func (s *EventDirStorage) Dir() string {
	return s.dir
}

// FolderPath returns the absolute path of an event folder.
func (s *EventDirStorage) FolderPath(folder string) string {
	return filepath.Join(s.dir, folder)
}

// BuildingCode resolves a building name to its short code, falling back to
// FallbackBuildingCode for unknown buildings.
func (s *EventDirStorage) BuildingCode(building string) string {
	if code, ok := s.buildingCodes[building]; ok {
		return code
	}
	return FallbackBuildingCode
}

// readMeta reads the meta.json of the given folder. A missing or unparsable
// sidecar yields (nil, nil): such folders exist (partially deleted events,
// stray directories) and are simply skipped by scans.
func (s *EventDirStorage) readMeta(folder string) (*model.Event, error) {
	// folder names never contain separators
	if folder != filepath.Base(folder) {
		return nil, nil
	}
	data, err := os.ReadFile(filepath.Join(s.dir, folder, MetaFilename))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, model.StorageErrorFrom("read meta", err)
	}
	var ev model.Event
	if err = json.Unmarshal(data, &ev); err != nil {
		return nil, nil
	}
	return &ev, nil
}

// writeMeta persists the full record as UTF-8 JSON with 2-space indent; the
// indentation is part of the on-disk contract.
func (s *EventDirStorage) writeMeta(folder string, ev *model.Event) error {
	data, err := json.MarshalIndent(ev, "", "  ")
	if err != nil {
		return model.StorageErrorFrom("encode meta", err)
	}
	if err = os.MkdirAll(filepath.Join(s.dir, folder), 0o755); err != nil {
		return model.StorageErrorFrom("create event folder", err)
	}
	if err = os.WriteFile(filepath.Join(s.dir, folder, MetaFilename), data, 0o644); err != nil {
		return model.StorageErrorFrom("write meta", err)
	}
	return nil
}

// folders lists the event folder names.
func (s *EventDirStorage) folders() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, model.StorageErrorFrom("list events dir", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// findByID scans the collection for the event with the given uuid and
// returns its folder name and record.
func (s *EventDirStorage) findByID(id string) (string, *model.Event, error) {
	folders, err := s.folders()
	if err != nil {
		return "", nil, err
	}
	for _, folder := range folders {
		ev, err := s.readMeta(folder)
		if err != nil {
			return "", nil, err
		}
		if ev != nil && ev.ID == id {
			return folder, ev, nil
		}
	}
	return "", nil, model.NotFoundErrorFmt("event not found: %s", id)
}

// NextSerial returns the next unused zero-padded serial for the
// (date, buildingCode) pair. It scans every record, takes the numeric
// suffixes of display ids starting with {date}-{code}- and returns one more
// than the observed maximum; malformed suffixes do not contribute. An empty
// collection yields "001". Padding is to at least three digits, so the
// thousandth event of a day simply becomes "1000".
func (s *EventDirStorage) NextSerial(date, buildingCode string) (string, error) {
	folders, err := s.folders()
	if err != nil {
		return "", err
	}
	prefix := date + "-" + buildingCode + "-"
	maxSerial := 0
	for _, folder := range folders {
		ev, err := s.readMeta(folder)
		if err != nil {
			return "", err
		}
		if ev == nil || !strings.HasPrefix(ev.DisplayID, prefix) {
			continue
		}
		num, err := strconv.Atoi(strings.TrimPrefix(ev.DisplayID, prefix))
		if err != nil {
			continue
		}
		if num > maxSerial {
			maxSerial = num
		}
	}
	return fmt.Sprintf("%03d", maxSerial+1), nil
}

// Create implements model.EventStore. The serial scan and the folder write
// happen under the store mutex, so two in-process creators cannot allocate
// the same display id.
func (s *EventDirStorage) Create(req model.CreateEventRequest) (*model.Event, error) {
	if req.Building == "" || req.Type == "" || req.Description == "" {
		return nil, model.ValidationErrorFmt("building, type and description are required")
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := s.now()
	date := now.UTC().Format(serialDateFormat)
	code := s.BuildingCode(req.Building)
	serial, err := s.NextSerial(date, code)
	if err != nil {
		return nil, err
	}
	displayID := date + "-" + code + "-" + serial
	ts := now.UTC().Format(isoMillis)

	ev := &model.Event{
		ID:          uuid.NewString(),
		DisplayID:   displayID,
		Building:    req.Building,
		Type:        req.Type,
		Subtype:     req.Subtype,
		Description: req.Description,
		ReportedBy:  req.ReportedBy,
		Location:    req.Location,
		OccurTime:   req.OccurTime,
		Phenomenon:  req.Phenomenon,
		Judgement:   req.Judgement,
		Handling:    req.Handling,
		Suggestion:  req.Suggestion,
		Reason:      req.Reason,
		Status:      InitialEventStatus,
		Files:       []model.FileAttachment{},
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	if err = s.writeMeta(displayID, ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// List implements model.EventStore. Results are deduplicated by display id
// (defensive against duplicate folders carrying the same record), sorted by
// createdAt descending and truncated to the 200 most recent.
func (s *EventDirStorage) List(filter model.EventFilter) ([]model.EventSummary, error) {
	folders, err := s.folders()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	out := make([]model.EventSummary, 0, len(folders))
	for _, folder := range folders {
		ev, err := s.readMeta(folder)
		if err != nil {
			return nil, err
		}
		if ev == nil || ev.DisplayID == "" {
			continue
		}
		if filter.Building != "" && ev.Building != filter.Building {
			continue
		}
		if filter.Type != "" && ev.Type != filter.Type {
			continue
		}
		if filter.Subtype != "" && strings.TrimSpace(ev.Subtype) != strings.TrimSpace(filter.Subtype) {
			continue
		}
		if filter.DisplayID != "" && !strings.Contains(ev.DisplayID, filter.DisplayID) {
			continue
		}
		if seen[ev.DisplayID] {
			continue
		}
		seen[ev.DisplayID] = true
		out = append(out, ev.Summary())
	}
	// ISO-8601 timestamps order lexicographically.
	sort.Slice(
		out, func(i, j int) bool {
			return out[i].CreatedAt > out[j].CreatedAt
		},
	)
	if len(out) > listLimit {
		out = out[:listLimit]
	}
	return out, nil
}

// Get implements model.EventStore.
func (s *EventDirStorage) Get(id string) (*model.Event, error) {
	_, ev, err := s.findByID(id)
	return ev, err
}

// GetByDisplayID implements model.EventStore. Unlike Get it does not scan:
// the display id is the folder name.
func (s *EventDirStorage) GetByDisplayID(displayID string) (*model.Event, error) {
	ev, err := s.readMeta(displayID)
	if err != nil {
		return nil, err
	}
	if ev == nil {
		return nil, model.NotFoundErrorFmt("event not found: %s", displayID)
	}
	return ev, nil
}

// UpdateStatus implements model.EventStore. Any non-blank string is accepted
// as the new status.
func (s *EventDirStorage) UpdateStatus(id, status string) error {
	if status == "" {
		return model.ValidationErrorFmt("status is required")
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	folder, ev, err := s.findByID(id)
	if err != nil {
		return err
	}
	ev.Status = status
	ev.UpdatedAt = s.now().UTC().Format(isoMillis)
	return s.writeMeta(folder, ev)
}

// PatchFields implements model.EventStore. Only non-empty patch values
// overwrite the record, so an empty string cannot clear a field through this
// path; that behavior is contractual (it matches the system this store
// replaced) and deliberately not "fixed".
func (s *EventDirStorage) PatchFields(id string, patch model.EventPatch) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	folder, ev, err := s.findByID(id)
	if err != nil {
		return err
	}
	if patch.Reason != "" {
		ev.Reason = patch.Reason
	}
	if patch.Description != "" {
		ev.Description = patch.Description
	}
	if patch.Status != "" {
		ev.Status = patch.Status
	}
	ev.UpdatedAt = s.now().UTC().Format(isoMillis)
	return s.writeMeta(folder, ev)
}

// Delete implements model.EventStore. The whole folder, attachments
// included, is removed recursively; there is no soft delete.
func (s *EventDirStorage) Delete(id string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	folder, _, err := s.findByID(id)
	if err != nil {
		return err
	}
	if err = os.RemoveAll(filepath.Join(s.dir, folder)); err != nil {
		return model.StorageErrorFrom("delete event folder", err)
	}
	return nil
}

// AttachFiles implements model.EventStore. The files must already be on disk
// inside the event's folder; this call only records them and bumps
// updatedAt.
func (s *EventDirStorage) AttachFiles(displayID string, files []model.FileAttachment) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	ev, err := s.readMeta(displayID)
	if err != nil {
		return err
	}
	if ev == nil {
		return model.NotFoundErrorFmt("event not found: %s", displayID)
	}
	ev.Files = append(ev.Files, files...)
	ev.UpdatedAt = s.now().UTC().Format(isoMillis)
	return s.writeMeta(displayID, ev)
}

// DetachFile implements model.EventStore. The filename must be present in
// the record; removing the disk file itself is best-effort (a file already
// gone does not fail the detach).
func (s *EventDirStorage) DetachFile(id, filename string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	folder, ev, err := s.findByID(id)
	if err != nil {
		return err
	}
	kept := ev.Files[:0]
	found := false
	for _, f := range ev.Files {
		if f.Filename == filename {
			found = true
			continue
		}
		kept = append(kept, f)
	}
	if !found {
		return model.NotFoundErrorFmt("file not found on event %s: %s", id, filename)
	}
	if err = os.Remove(filepath.Join(s.dir, folder, filepath.Base(filename))); err != nil && !errors.Is(err, os.ErrNotExist) {
		return model.StorageErrorFrom("delete attachment", err)
	}
	ev.Files = kept
	ev.UpdatedAt = s.now().UTC().Format(isoMillis)
	return s.writeMeta(folder, ev)
}

// ResolveFolder implements model.EventStore: the key may be an event's uuid
// or its display id.
func (s *EventDirStorage) ResolveFolder(key string) (string, error) {
	folders, err := s.folders()
	if err != nil {
		return "", err
	}
	for _, folder := range folders {
		ev, err := s.readMeta(folder)
		if err != nil {
			return "", err
		}
		if ev != nil && (ev.ID == key || ev.DisplayID == key) {
			return folder, nil
		}
	}
	return "", model.NotFoundErrorFmt("no event matches '%s'", key)
}

var _ model.EventStore = (*EventDirStorage)(nil)
