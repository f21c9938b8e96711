// Package logger configures the global logrus logger and the access log
// writer from the loaded configuration.
package logger

import (
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/guardops/watchpost/cmd/watchpost/config"
)

const (
	internalLogFile = "watchpost.log"
	accessLogFile   = "access.log"
)

var accessWriter io.Writer = os.Stdout

// Init configures logrus from config.Get().Logging. Must be called after
// config.Load.
func Init() {
	c := config.Get().Logging

	level, err := log.ParseLevel(c.Internal.Level)
	if err != nil {
		level = log.InfoLevel
		log.WithField("level", c.Internal.Level).Warn("unknown log level, using INFO")
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetOutput(mustWriter(c.Internal.LoggerConf, internalLogFile, os.Stderr))

	accessWriter = mustWriter(c.Access, accessLogFile, os.Stdout)
}

// AccessWriter returns the writer access logs should go to.
func AccessWriter() io.Writer {
	return accessWriter
}

// mustWriter builds the output writer for a logger: the log file in c.Dir if
// set, the fallback stream if stderr is requested or no dir is configured.
func mustWriter(c config.LoggerConf, filename string, fallback io.Writer) io.Writer {
	var writers []io.Writer
	if c.Dir != "" {
		f, err := os.OpenFile(
			filepath.Join(c.Dir, filename),
			os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644,
		)
		if err != nil {
			log.WithError(err).WithField("dir", c.Dir).Fatal("could not open log file")
		}
		writers = append(writers, f)
	}
	if c.StdErr || len(writers) == 0 {
		writers = append(writers, fallback)
	}
	if len(writers) == 1 {
		return writers[0]
	}
	return io.MultiWriter(writers...)
}
