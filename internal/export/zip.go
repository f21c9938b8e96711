package export

import (
	"archive/zip"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// ZipFolder streams the regular files of dir into w as a flat ZIP archive.
// Entry names are the paths relative to dir, so unpacking does not introduce
// an extra top-level directory.
func ZipFolder(w io.Writer, dir string) error {
	zw := zip.NewWriter(w)
	err := filepath.WalkDir(
		dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return err
			}
			return addZipEntry(zw, path, filepath.ToSlash(rel))
		},
	)
	if err != nil {
		zw.Close()
		return errors.Wrapf(err, "failed to archive %s", dir)
	}
	return errors.Wrap(zw.Close(), "failed to finalize archive")
}

func addZipEntry(zw *zip.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	entry, err := zw.CreateHeader(
		&zip.FileHeader{
			Name:   name,
			Method: zip.Deflate,
		},
	)
	if err != nil {
		return err
	}
	_, err = io.Copy(entry, f)
	return err
}
