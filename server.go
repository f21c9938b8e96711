package watchpost

import (
	"io"
	"time"
)

type ServerConf struct {
	IPListen          string      `yaml:"ip_listen"`
	Port              int         `yaml:"port"`
	TLS               tlsConf     `yaml:"tls"`
	TrustedProxies    []string    `yaml:"trusted_proxies"`
	ForwardedIPHeader string      `yaml:"forwarded_ip_header"`
	Session           SessionConf `yaml:"session"`
	// AccessLog, when set, receives the http access log.
	AccessLog io.Writer `yaml:"-"`
}

// SessionConf configures the login session cookie.
type SessionConf struct {
	CookieName string        `yaml:"cookie_name"`
	Lifetime   time.Duration `yaml:"lifetime"`
}

type tlsConf struct {
	Enabled      bool   `yaml:"enabled"`
	RedirectHTTP bool   `yaml:"redirect_http"`
	Cert         string `yaml:"cert"`
	Key          string `yaml:"key"`
}
