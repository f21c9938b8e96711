package config

import (
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/zachmann/go-utils/fileutils"
	"gopkg.in/yaml.v3"

	"github.com/guardops/watchpost"
)

// Config holds the whole configuration of the watchpost server.
type Config struct {
	Server    watchpost.ServerConf `yaml:"server"`
	Logging   loggingConf          `yaml:"logging"`
	Storage   storageConf          `yaml:"storage"`
	Buildings buildingsConf        `yaml:"buildings"`
	Web       webConf              `yaml:"web"`
}

var conf *Config

// Get returns the loaded Config. Load must have been called before.
func Get() *Config {
	return conf
}

var possibleConfigLocations = []string{
	"config.yaml",
	"/etc/watchpost/config.yaml",
}

// Load loads the configuration from the given file, or from the default
// locations when file is empty. It dies on any error.
func Load(file string) {
	if file == "" {
		for _, loc := range possibleConfigLocations {
			if fileutils.FileExists(loc) {
				file = loc
				break
			}
		}
	}
	if file == "" {
		log.Fatal("no config file found")
	}
	data, err := os.ReadFile(file)
	if err != nil {
		log.WithError(err).WithField("file", file).Fatal("could not read config file")
	}
	c := Config{
		Server:    defaultServerConf,
		Logging:   defaultLoggingConf,
		Storage:   defaultStorageConf,
		Buildings: defaultBuildingsConf,
		Web:       defaultWebConf,
	}
	if err = yaml.Unmarshal(data, &c); err != nil {
		log.WithError(err).WithField("file", file).Fatal("could not parse config file")
	}
	if err = validate(&c); err != nil {
		log.WithError(err).Fatal("invalid config")
	}
	conf = &c
}

func validate(c *Config) error {
	if c == nil {
		return errors.New("config not loaded")
	}
	if err := validateServerConf(&c.Server); err != nil {
		return err
	}
	if err := c.Logging.validate(); err != nil {
		return err
	}
	if err := c.Storage.validate(); err != nil {
		return err
	}
	if err := c.Buildings.validate(); err != nil {
		return err
	}
	return c.Web.validate()
}
