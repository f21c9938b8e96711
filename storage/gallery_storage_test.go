package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardops/watchpost/storage/model"
)

func newTestGalleryStorage(t *testing.T) *GalleryDirStorage {
	t.Helper()
	s, err := NewGalleryDirStorage(filepath.Join(t.TempDir(), "uploads"))
	if err != nil {
		t.Fatalf("Failed to create gallery storage: %v", err)
	}
	return s
}

func saveTestImage(t *testing.T, s *GalleryDirStorage, building, note, original string) string {
	t.Helper()
	tmp := filepath.Join(t.TempDir(), "upload.tmp")
	if err := os.WriteFile(tmp, []byte("image-bytes"), 0o644); err != nil {
		t.Fatalf("Failed to write temp upload: %v", err)
	}
	rel, err := s.SaveImage(building, note, tmp, original)
	if err != nil {
		t.Fatalf("Failed to save image: %v", err)
	}
	return rel
}

func TestSaveImagePlacesFileInTodaysFolder(t *testing.T) {
	s := newTestGalleryStorage(t)
	rel := saveTestImage(t, s, "松山金融", "早班 巡檢", "photo one.jpg")

	today := time.Now().Format("2006-01-02")
	folder := "松山金融-" + today
	assert.True(t, s.HasFolder("松山金融", today))

	dir, name := filepath.Split(rel)
	assert.Equal(t, folder+"/", dir)
	// whitespace in the note collapses to underscores, extension comes from
	// the original filename
	assert.Regexp(t, `^\d+-早班_巡檢\.jpg$`, name)

	if _, err := os.Stat(filepath.Join(s.Dir(), folder, name)); err != nil {
		t.Fatalf("expected saved image on disk: %v", err)
	}
}

func TestFoldersMatchesBySubstringAndFiltersImages(t *testing.T) {
	s := newTestGalleryStorage(t)
	saveTestImage(t, s, "松山金融", "巡檢", "a.jpg")
	saveTestImage(t, s, "前瞻金融", "巡檢", "b.png")

	today := time.Now().Format("2006-01-02")
	// a text file in the folder must not show up as an image
	folder := s.FolderPath("松山金融-" + today)
	require.NoError(t, os.WriteFile(filepath.Join(folder, "notes.txt"), []byte("x"), 0o644))

	all, err := s.Folders(today)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	one, err := s.Folders("松山金融-" + today)
	require.NoError(t, err)
	require.Len(t, one, 1)
	require.Len(t, one[0].Files, 1)
	assert.Equal(
		t,
		"/uploads/松山金融-"+today+"/"+one[0].Files[0].Filename,
		one[0].Files[0].URL,
	)
}

func TestDeleteImagePrunesEmptyFolder(t *testing.T) {
	s := newTestGalleryStorage(t)
	rel := saveTestImage(t, s, "松山金融", "巡檢", "a.jpg")
	folder, name := filepath.Split(rel)
	folder = filepath.Clean(folder)

	pruned, err := s.DeleteImage(folder, name)
	require.NoError(t, err)
	assert.True(t, pruned)
	if _, err = os.Stat(s.FolderPath(folder)); !os.IsNotExist(err) {
		t.Fatalf("expected empty folder to be pruned, stat err = %v", err)
	}

	_, err = s.DeleteImage(folder, name)
	if _, ok := err.(model.NotFoundError); !ok {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestDeleteImageKeepsNonEmptyFolder(t *testing.T) {
	s := newTestGalleryStorage(t)
	rel := saveTestImage(t, s, "松山金融", "巡檢", "a.jpg")
	saveTestImage(t, s, "松山金融", "晚班", "b.jpg")
	folder, name := filepath.Split(rel)
	folder = filepath.Clean(folder)

	pruned, err := s.DeleteImage(folder, name)
	require.NoError(t, err)
	assert.False(t, pruned)
	assert.True(t, s.HasFolderName(folder))
}

func TestDeleteImageRejectsTraversal(t *testing.T) {
	s := newTestGalleryStorage(t)
	_, err := s.DeleteImage("..", "secret")
	if _, ok := err.(model.ValidationError); !ok {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "a_b_c.jpg", SanitizeName("a b\tc.jpg"))
	assert.Equal(t, "_leading.jpg", SanitizeName(" leading.jpg"))
	assert.Equal(t, "plain.jpg", SanitizeName("plain.jpg"))
}
