package config

import (
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/guardops/watchpost/storage"
	"github.com/guardops/watchpost/storage/model"
)

// storageConf configures the on-disk data layout. All paths are created on
// startup if missing, except the users file whose absence means the login
// gate stays open.
type storageConf struct {
	// DataDir is the base for the other paths when they are left relative.
	DataDir string `yaml:"data_dir"`
	// UploadsDir holds the daily compliance-photo folders.
	UploadsDir string `yaml:"uploads_dir"`
	// EventsDir holds one folder per abnormal event.
	EventsDir string `yaml:"events_dir"`
	// TmpDir receives multipart uploads before they are moved into place.
	TmpDir string `yaml:"tmp_dir"`
	// UsersFile is the staff accounts file.
	UsersFile string `yaml:"users_file"`
	// PasswordHashing tunes the argon2id parameters for stored passwords.
	PasswordHashing storage.Argon2idParams `yaml:"password_hashing"`
}

var defaultStorageConf = storageConf{
	DataDir:    "data",
	UploadsDir: "uploads",
	EventsDir:  "uploads-abnormal",
	TmpDir:     "uploads/tmp",
	UsersFile:  "users.json",
	PasswordHashing: storage.Argon2idParams{
		Time:        1,
		MemoryKiB:   64 * 1024,
		Parallelism: 4,
		KeyLen:      64,
		SaltLen:     32,
	},
}

// resolve joins a configured path onto DataDir unless it is absolute.
func (c *storageConf) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.DataDir, p)
}

func (c *storageConf) validate() error {
	if c.DataDir == "" {
		return errors.New("error in storage conf: data_dir must be specified")
	}
	if c.UploadsDir == "" || c.EventsDir == "" || c.TmpDir == "" {
		return errors.New("error in storage conf: uploads_dir, events_dir and tmp_dir must be specified")
	}
	c.UploadsDir = c.resolve(c.UploadsDir)
	c.EventsDir = c.resolve(c.EventsDir)
	c.TmpDir = c.resolve(c.TmpDir)
	c.UsersFile = c.resolve(c.UsersFile)
	return nil
}

// LoadStorageBackends loads and returns the storage backends for the passed Config
func LoadStorageBackends(c storageConf, buildings buildingsConf) (model.Backends, error) {
	cfg := storage.Config{
		UploadsDir:    c.UploadsDir,
		EventsDir:     c.EventsDir,
		TmpDir:        c.TmpDir,
		UsersFile:     c.UsersFile,
		BuildingCodes: buildings.Codes,
		UsersHash:     c.PasswordHashing,
	}
	backs, err := storage.LoadBackends(cfg)
	if err != nil {
		return model.Backends{}, err
	}
	log.Info("Loaded storage backend")
	return backs, nil
}
