package config

import (
	"time"

	"github.com/pkg/errors"
	"github.com/zachmann/go-utils/fileutils"

	"github.com/guardops/watchpost"
)

var defaultServerConf = watchpost.ServerConf{
	Port: 3000,
	Session: watchpost.SessionConf{
		CookieName: "watchpost_session",
		Lifetime:   24 * time.Hour,
	},
}

func validateServerConf(c *watchpost.ServerConf) error {
	if c.Port <= 0 || c.Port > 65535 {
		return errors.Errorf("invalid server port %d", c.Port)
	}
	if c.TLS.Enabled {
		if c.TLS.Cert == "" || c.TLS.Key == "" {
			return errors.New("tls enabled but cert or key not set")
		}
		if !fileutils.FileExists(c.TLS.Cert) || !fileutils.FileExists(c.TLS.Key) {
			return errors.New("tls cert or key file does not exist")
		}
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = defaultServerConf.Session.CookieName
	}
	if c.Session.Lifetime <= 0 {
		c.Session.Lifetime = defaultServerConf.Session.Lifetime
	}
	return nil
}
