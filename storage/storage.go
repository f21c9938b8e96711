package storage

import (
	"os"
	"regexp"

	"github.com/pkg/errors"

	"github.com/guardops/watchpost/storage/model"
)

// Config holds everything the storage backends need: the data directories,
// the building->code table and the password hashing parameters.
type Config struct {
	// UploadsDir is the root of the gallery folders ({building}-{date}).
	UploadsDir string
	// EventsDir is the root of the abnormal-event folders (one per
	// displayId, each holding meta.json plus attachments).
	EventsDir string
	// TmpDir receives multipart uploads before they are moved into place.
	TmpDir string
	// UsersFile is the path of the users.json file.
	UsersFile string
	// BuildingCodes maps building names to the short codes used in
	// display ids. Unknown buildings fall back to "XX".
	BuildingCodes map[string]string
	// UsersHash configures argon2id password hashing.
	UsersHash Argon2idParams
}

// LoadBackends creates all storage backends for the passed Config.
func LoadBackends(cfg Config) (model.Backends, error) {
	events, err := NewEventDirStorage(cfg.EventsDir, cfg.BuildingCodes)
	if err != nil {
		return model.Backends{}, err
	}
	gallery, err := NewGalleryDirStorage(cfg.UploadsDir)
	if err != nil {
		return model.Backends{}, err
	}
	if cfg.TmpDir != "" {
		if err = os.MkdirAll(cfg.TmpDir, 0o755); err != nil {
			return model.Backends{}, errors.Wrapf(err, "could not create tmp dir '%s'", cfg.TmpDir)
		}
	}
	params := cfg.UsersHash
	if params.Time == 0 {
		params = defaultArgon2idParams()
	}
	users := NewUsersFileStorage(cfg.UsersFile, params)
	return model.Backends{
		Events:  events,
		Gallery: gallery,
		Users:   users,
	}, nil
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// SanitizeName replaces every whitespace run in a filename with a single
// underscore. It mirrors the naming applied to every stored upload.
func SanitizeName(name string) string {
	return whitespaceRun.ReplaceAllString(name, "_")
}
