package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardops/watchpost/storage/model"
)

var testCodes = map[string]string{
	"松山金融": "L391",
	"前瞻金融": "L336",
}

func newTestEventStorage(t *testing.T) *EventDirStorage {
	t.Helper()
	s, err := NewEventDirStorage(filepath.Join(t.TempDir(), "uploads-abnormal"), testCodes)
	if err != nil {
		t.Fatalf("Failed to create event storage: %v", err)
	}
	return s
}

func createTestEvent(t *testing.T, s *EventDirStorage, building string) *model.Event {
	t.Helper()
	ev, err := s.Create(
		model.CreateEventRequest{
			Building:    building,
			Type:        "設備",
			Subtype:     "電梯",
			Description: "電梯故障",
			ReportedBy:  "王小明",
		},
	)
	if err != nil {
		t.Fatalf("Failed to create event: %v", err)
	}
	return ev
}

func TestCreateAssignsIdentifiersAndDefaults(t *testing.T) {
	s := newTestEventStorage(t)
	ev := createTestEvent(t, s, "松山金融")

	if ev.ID == "" {
		t.Fatal("expected a uuid to be assigned")
	}
	date := time.Now().UTC().Format("20060102")
	assert.Equal(t, date+"-L391-001", ev.DisplayID)
	assert.Equal(t, InitialEventStatus, ev.Status)
	assert.NotNil(t, ev.Files)
	assert.Empty(t, ev.Files)

	got, err := s.Get(ev.ID)
	require.NoError(t, err)
	assert.Equal(t, ev.DisplayID, got.DisplayID)
	assert.Equal(t, InitialEventStatus, got.Status)
	assert.Equal(t, []model.FileAttachment{}, got.Files)
}

func TestCreateUnknownBuildingUsesFallbackCode(t *testing.T) {
	s := newTestEventStorage(t)
	ev := createTestEvent(t, s, "不存在大樓")
	date := time.Now().UTC().Format("20060102")
	assert.Equal(t, date+"-XX-001", ev.DisplayID)
}

func TestCreateRequiresMandatoryFields(t *testing.T) {
	s := newTestEventStorage(t)
	_, err := s.Create(model.CreateEventRequest{Building: "松山金融", Type: "設備"})
	if _, ok := err.(model.ValidationError); !ok {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestSerialsIncreasePerDateAndBuilding(t *testing.T) {
	s := newTestEventStorage(t)
	first := createTestEvent(t, s, "松山金融")
	second := createTestEvent(t, s, "松山金融")
	other := createTestEvent(t, s, "前瞻金融")

	date := time.Now().UTC().Format("20060102")
	assert.Equal(t, date+"-L391-001", first.DisplayID)
	assert.Equal(t, date+"-L391-002", second.DisplayID)
	// a different building starts its own sequence
	assert.Equal(t, date+"-L336-001", other.DisplayID)
}

func TestSerialPaddingGrowsPastThreeDigits(t *testing.T) {
	s := newTestEventStorage(t)
	ev := createTestEvent(t, s, "松山金融")

	// Simulate an earlier event holding serial 999.
	date := time.Now().UTC().Format("20060102")
	ev999 := *ev
	ev999.ID = "some-other-id"
	ev999.DisplayID = date + "-L391-999"
	if err := s.writeMeta(ev999.DisplayID, &ev999); err != nil {
		t.Fatalf("Failed to seed event: %v", err)
	}

	serial, err := s.NextSerial(date, "L391")
	require.NoError(t, err)
	assert.Equal(t, "1000", serial)
}

func TestNextSerialIgnoresMalformedSuffixes(t *testing.T) {
	s := newTestEventStorage(t)
	date := time.Now().UTC().Format("20060102")
	bad := &model.Event{ID: "x", DisplayID: date + "-L391-abc"}
	if err := s.writeMeta(bad.DisplayID, bad); err != nil {
		t.Fatalf("Failed to seed event: %v", err)
	}
	serial, err := s.NextSerial(date, "L391")
	require.NoError(t, err)
	assert.Equal(t, "001", serial)
}

func TestListFiltersAndDeduplicates(t *testing.T) {
	s := newTestEventStorage(t)
	ev := createTestEvent(t, s, "松山金融")
	createTestEvent(t, s, "前瞻金融")

	// A stray second folder carrying the same record must not produce a
	// duplicate listing entry.
	if err := s.writeMeta("stray-copy", ev); err != nil {
		t.Fatalf("Failed to seed duplicate folder: %v", err)
	}

	all, err := s.List(model.EventFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byBuilding, err := s.List(model.EventFilter{Building: "松山金融"})
	require.NoError(t, err)
	require.Len(t, byBuilding, 1)
	assert.Equal(t, ev.DisplayID, byBuilding[0].DisplayID)

	bySubstring, err := s.List(model.EventFilter{DisplayID: "L336"})
	require.NoError(t, err)
	assert.Len(t, bySubstring, 1)

	// subtype comparison trims surrounding whitespace on both sides
	bySubtype, err := s.List(model.EventFilter{Subtype: " 電梯 "})
	require.NoError(t, err)
	assert.Len(t, bySubtype, 2)
}

func TestListSkipsFoldersWithoutMeta(t *testing.T) {
	s := newTestEventStorage(t)
	createTestEvent(t, s, "松山金融")
	if err := os.MkdirAll(filepath.Join(s.Dir(), "no-meta-here"), 0o755); err != nil {
		t.Fatalf("Failed to create stray folder: %v", err)
	}
	list, err := s.List(model.EventFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestUpdateStatus(t *testing.T) {
	s := newTestEventStorage(t)
	ev := createTestEvent(t, s, "松山金融")

	require.NoError(t, s.UpdateStatus(ev.ID, "resolved"))
	got, err := s.Get(ev.ID)
	require.NoError(t, err)
	assert.Equal(t, "resolved", got.Status)

	err = s.UpdateStatus(ev.ID, "")
	if _, ok := err.(model.ValidationError); !ok {
		t.Fatalf("expected ValidationError for blank status, got %v", err)
	}

	err = s.UpdateStatus("missing-id", "resolved")
	if _, ok := err.(model.NotFoundError); !ok {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestPatchFieldsSkipsEmptyValues(t *testing.T) {
	s := newTestEventStorage(t)
	ev := createTestEvent(t, s, "松山金融")

	require.NoError(t, s.PatchFields(ev.ID, model.EventPatch{Reason: "短路", Status: "processing"}))
	got, err := s.Get(ev.ID)
	require.NoError(t, err)
	assert.Equal(t, "短路", got.Reason)
	assert.Equal(t, "processing", got.Status)
	assert.Equal(t, "電梯故障", got.Description)

	// empty values leave fields untouched; they cannot clear anything
	require.NoError(t, s.PatchFields(ev.ID, model.EventPatch{Description: "已更換零件"}))
	got, err = s.Get(ev.ID)
	require.NoError(t, err)
	assert.Equal(t, "短路", got.Reason)
	assert.Equal(t, "processing", got.Status)
	assert.Equal(t, "已更換零件", got.Description)
}

func TestDeleteRemovesFolder(t *testing.T) {
	s := newTestEventStorage(t)
	ev := createTestEvent(t, s, "松山金融")
	folder := filepath.Join(s.Dir(), ev.DisplayID)
	if _, err := os.Stat(folder); err != nil {
		t.Fatalf("expected event folder to exist: %v", err)
	}

	require.NoError(t, s.Delete(ev.ID))
	if _, err := os.Stat(folder); !os.IsNotExist(err) {
		t.Fatalf("expected event folder to be gone, stat err = %v", err)
	}

	err := s.Delete(ev.ID)
	if _, ok := err.(model.NotFoundError); !ok {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestAttachAndDetachFiles(t *testing.T) {
	s := newTestEventStorage(t)
	ev := createTestEvent(t, s, "松山金融")

	path := filepath.Join(s.FolderPath(ev.DisplayID), "123_photo.jpg")
	if err := os.WriteFile(path, []byte("jpeg"), 0o644); err != nil {
		t.Fatalf("Failed to write attachment: %v", err)
	}
	att := model.FileAttachment{
		Filename:     "123_photo.jpg",
		OriginalName: "photo.jpg",
		MimeType:     "image/jpeg",
		Size:         4,
		Category:     "general",
	}
	require.NoError(t, s.AttachFiles(ev.DisplayID, []model.FileAttachment{att}))

	got, err := s.Get(ev.ID)
	require.NoError(t, err)
	require.Len(t, got.Files, 1)
	assert.Equal(t, "123_photo.jpg", got.Files[0].Filename)

	require.NoError(t, s.DetachFile(ev.ID, "123_photo.jpg"))
	got, err = s.Get(ev.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Files)
	if _, err = os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected attachment to be deleted, stat err = %v", err)
	}

	err = s.DetachFile(ev.ID, "123_photo.jpg")
	if _, ok := err.(model.NotFoundError); !ok {
		t.Fatalf("expected NotFoundError for unknown filename, got %v", err)
	}
}

func TestResolveFolderAcceptsBothKeys(t *testing.T) {
	s := newTestEventStorage(t)
	ev := createTestEvent(t, s, "松山金融")

	byID, err := s.ResolveFolder(ev.ID)
	require.NoError(t, err)
	byDisplay, err := s.ResolveFolder(ev.DisplayID)
	require.NoError(t, err)
	assert.Equal(t, ev.DisplayID, byID)
	assert.Equal(t, ev.DisplayID, byDisplay)

	_, err = s.ResolveFolder("nothing")
	if _, ok := err.(model.NotFoundError); !ok {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestMetaSidecarFormat(t *testing.T) {
	s := newTestEventStorage(t)
	ev := createTestEvent(t, s, "松山金融")

	data, err := os.ReadFile(filepath.Join(s.FolderPath(ev.DisplayID), MetaFilename))
	require.NoError(t, err)

	// two-space indentation and camelCase keys are part of the contract
	assert.Contains(t, string(data), "\n  \"displayId\": ")
	assert.Contains(t, string(data), "\"createdAt\"")

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{
		"id", "displayId", "building", "type", "subtype", "description",
		"reportedBy", "location", "occurTime", "phenomenon", "judgement",
		"handling", "suggestion", "reason", "status", "files",
		"createdAt", "updatedAt",
	} {
		if _, ok := raw[key]; !ok {
			t.Fatalf("meta.json is missing key %q", key)
		}
	}
}
