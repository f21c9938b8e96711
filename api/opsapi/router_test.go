package opsapi

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardops/watchpost/storage"
)

func newTestApp(t *testing.T) (*fiber.App, Config) {
	t.Helper()
	base := t.TempDir()
	cfg := Config{
		UploadsDir:   filepath.Join(base, "uploads"),
		EventsDir:    filepath.Join(base, "uploads-abnormal"),
		TmpDir:       filepath.Join(base, "tmp"),
		Buildings:    []string{"松山金融"},
		BaseHolidays: []string{"2025-10-06", "114/10/10"},
	}
	backs, err := storage.LoadBackends(storage.Config{
		UploadsDir:    cfg.UploadsDir,
		EventsDir:     cfg.EventsDir,
		TmpDir:        cfg.TmpDir,
		UsersFile:     filepath.Join(base, "users.json"),
		BuildingCodes: map[string]string{"松山金融": "L391"},
	})
	if err != nil {
		t.Fatalf("Failed to load backends: %v", err)
	}
	app := fiber.New()
	require.NoError(t, Register(app, cfg, session.New(), backs))
	return app, cfg
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	if len(data) > 0 && json.Unmarshal(data, &out) != nil {
		out = nil
	}
	return resp.StatusCode, out
}

func TestEventLifecycleOverHTTP(t *testing.T) {
	app, _ := newTestApp(t)

	status, created := doJSON(
		t, app, fiber.MethodPost, "/api/abnormal-events",
		`{"building":"松山金融","type":"設備","description":"電梯故障"}`,
	)
	require.Equal(t, fiber.StatusOK, status)
	id, _ := created["id"].(string)
	displayID, _ := created["displayId"].(string)
	require.NotEmpty(t, id)
	assert.Contains(t, displayID, "-L391-")

	status, _ = doJSON(t, app, fiber.MethodGet, "/api/abnormal-events/"+id, "")
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = doJSON(
		t, app, fiber.MethodPatch, "/api/abnormal-events/"+id+"/status",
		`{"status":"resolved"}`,
	)
	assert.Equal(t, fiber.StatusOK, status)

	status, detail := doJSON(t, app, fiber.MethodGet, "/api/abnormal-events/"+id, "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "resolved", detail["status"])

	status, _ = doJSON(t, app, fiber.MethodDelete, "/api/abnormal-events/"+id, "")
	assert.Equal(t, fiber.StatusOK, status)
	status, _ = doJSON(t, app, fiber.MethodGet, "/api/abnormal-events/"+id, "")
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestCreateEventValidation(t *testing.T) {
	app, _ := newTestApp(t)
	status, body := doJSON(
		t, app, fiber.MethodPost, "/api/abnormal-events",
		`{"building":"松山金融"}`,
	)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.NotEmpty(t, body["error"])
}

func TestGalleryDataRequiresDate(t *testing.T) {
	app, _ := newTestApp(t)
	status, _ := doJSON(t, app, fiber.MethodGet, "/gallery-data", "")
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body := doJSON(t, app, fiber.MethodGet, "/gallery-data?date=2025-10-06", "")
	require.Equal(t, fiber.StatusOK, status)
	folders, ok := body["folders"].([]any)
	require.True(t, ok)
	assert.Empty(t, folders)
}

func TestStatsDataShape(t *testing.T) {
	app, _ := newTestApp(t)
	status, body := doJSON(t, app, fiber.MethodGet, "/stats-data?month=2025-10", "")
	require.Equal(t, fiber.StatusOK, status)

	assert.Equal(t, "2025", body["year"])
	assert.Equal(t, "10", body["month"])

	dates, ok := body["dates"].([]any)
	require.True(t, ok)
	// 23 weekdays minus the two base holidays
	assert.Len(t, dates, 21)

	holidays, ok := body["holidays"].([]any)
	require.True(t, ok)
	assert.ElementsMatch(t, []any{"2025-10-06", "2025-10-10"}, holidays)

	stats, ok := body["buildingStats"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 0, stats["松山金融"])
}

func TestStatsDataExtraHolidays(t *testing.T) {
	app, _ := newTestApp(t)
	status, body := doJSON(
		t, app, fiber.MethodGet,
		"/stats-data?month=2025-10&holidays=2025-10-1,114/10/2,garbage", "",
	)
	require.Equal(t, fiber.StatusOK, status)
	dates, ok := body["dates"].([]any)
	require.True(t, ok)
	// two more weekday holidays excluded, the unparsable entry dropped
	assert.Len(t, dates, 19)
	assert.NotContains(t, dates, "2025-10-01")
	assert.NotContains(t, dates, "2025-10-02")
}

func TestDeleteImageMissingFields(t *testing.T) {
	app, _ := newTestApp(t)
	status, body := doJSON(t, app, fiber.MethodPost, "/delete-image", `{"folder":"x"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, false, body["success"])
}

func TestExportWordMissingDisplayId(t *testing.T) {
	app, _ := newTestApp(t)
	status, _ := doJSON(t, app, fiber.MethodGet, "/api/export-word", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func attachFile(t *testing.T, app *fiber.App, key, filename, category string) (int, map[string]any) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("files", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte("jpeg-bytes"))
	require.NoError(t, err)
	if category != "" {
		require.NoError(t, mw.WriteField("category", category))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(fiber.MethodPost, "/api/abnormal-events/"+key+"/files", &body)
	req.Header.Set(fiber.HeaderContentType, mw.FormDataContentType())
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return resp.StatusCode, out
}

func TestAttachAndDetachFilesOverHTTP(t *testing.T) {
	app, cfg := newTestApp(t)

	_, created := doJSON(
		t, app, fiber.MethodPost, "/api/abnormal-events",
		`{"building":"松山金融","type":"設備","description":"電梯故障"}`,
	)
	id, _ := created["id"].(string)
	displayID, _ := created["displayId"].(string)

	// attach by display id; spaces in the original name collapse to
	// underscores behind the millis prefix
	status, body := attachFile(t, app, displayID, "photo one.jpg", "initial")
	require.Equal(t, fiber.StatusOK, status)
	files, ok := body["files"].([]any)
	require.True(t, ok)
	require.Len(t, files, 1)
	first, ok := files[0].(map[string]any)
	require.True(t, ok)
	storedName, _ := first["filename"].(string)
	assert.Regexp(t, `^\d+_photo_one\.jpg$`, storedName)
	assert.Equal(t, "photo one.jpg", first["originalname"])
	assert.Equal(t, "initial", first["category"])
	if _, err := os.Stat(filepath.Join(cfg.EventsDir, displayID, storedName)); err != nil {
		t.Fatalf("expected attachment on disk: %v", err)
	}

	// the uuid resolves to the same folder; category defaults to "general"
	status, body = attachFile(t, app, id, "followup.jpg", "")
	require.Equal(t, fiber.StatusOK, status)
	files, ok = body["files"].([]any)
	require.True(t, ok)
	require.Len(t, files, 2)
	second, ok := files[1].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "general", second["category"])

	status, _ = attachFile(t, app, "20990101-XX-001", "photo.jpg", "")
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = doJSON(
		t, app, fiber.MethodDelete,
		"/api/abnormal-events/"+id+"/files/"+storedName, "",
	)
	require.Equal(t, fiber.StatusOK, status)
	_, detail := doJSON(t, app, fiber.MethodGet, "/api/abnormal-events/"+id, "")
	files, ok = detail["files"].([]any)
	require.True(t, ok)
	assert.Len(t, files, 1)
	if _, err := os.Stat(filepath.Join(cfg.EventsDir, displayID, storedName)); !os.IsNotExist(err) {
		t.Fatalf("expected detached file to be gone, stat err = %v", err)
	}
}

func TestStorageFailuresAreLogged(t *testing.T) {
	app, cfg := newTestApp(t)

	// replace the events dir with a regular file so every scan fails
	require.NoError(t, os.RemoveAll(cfg.EventsDir))
	require.NoError(t, os.WriteFile(cfg.EventsDir, []byte("not a directory"), 0o644))

	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	status, body := doJSON(t, app, fiber.MethodGet, "/api/abnormal-events", "")
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "server error", body["error"])
	assert.Contains(t, buf.String(), "level=error")
	assert.Contains(t, buf.String(), "event listing failed")
}

func TestDownloadFolderUnknown(t *testing.T) {
	app, _ := newTestApp(t)
	req := httptest.NewRequest(fiber.MethodGet, "/download-folder?folder=nope", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
