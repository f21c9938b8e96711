package storage

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/guardops/watchpost/storage/model"
)

// galleryDateFormat is the date part of a gallery folder name.
const galleryDateFormat = "2006-01-02"

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

// GalleryDirStorage implements model.GalleryStore on the uploads root. A
// gallery folder is a plain directory named {building}-{date}; the only
// derived fact about it is existence.
type GalleryDirStorage struct {
	dir string
	now func() time.Time
}

// NewGalleryDirStorage creates a GalleryDirStorage rooted at dir, creating
// the directory if needed.
func NewGalleryDirStorage(dir string) (*GalleryDirStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "could not create uploads dir '%s'", dir)
	}
	return &GalleryDirStorage{dir: dir, now: time.Now}, nil
}

// Dir returns the uploads root.
func (s *GalleryDirStorage) Dir() string {
	return s.dir
}

// FolderName returns the gallery folder name for (building, date).
func (s *GalleryDirStorage) FolderName(building, date string) string {
	return building + "-" + date
}

// Folders implements model.GalleryStore. Folder names are matched by
// substring, so a bare date lists every building's folder for that day.
func (s *GalleryDirStorage) Folders(prefix string) ([]model.GalleryFolder, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, model.StorageErrorFrom("list uploads dir", err)
	}
	out := make([]model.GalleryFolder, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() || !strings.Contains(e.Name(), prefix) {
			continue
		}
		files, err := os.ReadDir(filepath.Join(s.dir, e.Name()))
		if err != nil {
			return nil, model.StorageErrorFrom("list gallery folder", err)
		}
		images := make([]model.GalleryImage, 0, len(files))
		for _, f := range files {
			if f.IsDir() || !imageExtensions[strings.ToLower(filepath.Ext(f.Name()))] {
				continue
			}
			images = append(
				images, model.GalleryImage{
					Filename: f.Name(),
					URL:      "/uploads/" + e.Name() + "/" + f.Name(),
				},
			)
		}
		out = append(out, model.GalleryFolder{Folder: e.Name(), Files: images})
	}
	return out, nil
}

// SaveImage implements model.GalleryStore. The uploaded temp file is moved
// into {building}-{today} under the name {unixMillis}-{note}{ext}.
func (s *GalleryDirStorage) SaveImage(building, note, tmpPath, originalName string) (string, error) {
	folder := s.FolderName(building, s.now().Format(galleryDateFormat))
	folderPath := filepath.Join(s.dir, folder)
	if !strings.HasPrefix(folderPath, s.dir+string(os.PathSeparator)) {
		return "", model.ValidationErrorFmt("invalid folder name")
	}
	if err := os.MkdirAll(folderPath, 0o755); err != nil {
		return "", model.StorageErrorFrom("create gallery folder", err)
	}
	name := StoredName(s.now(), "-", SanitizeName(note)+filepath.Ext(originalName))
	if err := os.Rename(tmpPath, filepath.Join(folderPath, name)); err != nil {
		return "", model.StorageErrorFrom("move upload", err)
	}
	return folder + "/" + name, nil
}

// DeleteImage implements model.GalleryStore. The folder is pruned when the
// last image is removed; the returned bool reports that pruning.
func (s *GalleryDirStorage) DeleteImage(folder, filename string) (bool, error) {
	imagePath := filepath.Join(s.dir, folder, filename)
	if rel, err := filepath.Rel(s.dir, imagePath); err != nil || strings.HasPrefix(rel, "..") {
		return false, model.ValidationErrorFmt("invalid path")
	}
	if _, err := os.Stat(imagePath); err != nil {
		return false, model.NotFoundErrorFmt("image not found: %s/%s", folder, filename)
	}
	if err := os.Remove(imagePath); err != nil {
		return false, model.StorageErrorFrom("delete image", err)
	}
	remaining, err := os.ReadDir(filepath.Dir(imagePath))
	if err != nil {
		return false, model.StorageErrorFrom("list gallery folder", err)
	}
	if len(remaining) == 0 {
		// Best effort: a failed prune leaves an empty folder behind,
		// which is harmless.
		_ = os.Remove(filepath.Dir(imagePath))
		return true, nil
	}
	return false, nil
}

// HasFolder implements model.GalleryStore.
func (s *GalleryDirStorage) HasFolder(building, date string) bool {
	return s.HasFolderName(s.FolderName(building, date))
}

// HasFolderName implements model.GalleryStore.
func (s *GalleryDirStorage) HasFolderName(folder string) bool {
	info, err := os.Stat(s.FolderPath(folder))
	return err == nil && info.IsDir()
}

// FolderPath implements model.GalleryStore.
func (s *GalleryDirStorage) FolderPath(folder string) string {
	return filepath.Join(s.dir, folder)
}

// StoredName builds the collision-avoided stored name
// {unixMillis}{sep}{rest}. Gallery images use "-" as separator, event
// attachments "_".
func StoredName(t time.Time, sep, rest string) string {
	return strconv.FormatInt(t.UnixMilli(), 10) + sep + rest
}

var _ model.GalleryStore = (*GalleryDirStorage)(nil)
