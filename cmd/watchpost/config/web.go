package config

import (
	log "github.com/sirupsen/logrus"
	"github.com/zachmann/go-utils/fileutils"
)

// webConf configures the frontend assets and the Word report template.
type webConf struct {
	// StaticDir holds the static frontend served at /. Optional; when empty
	// only the api surface is served.
	StaticDir string `yaml:"static_dir"`
	// TemplatePath points at the docx template for event reports.
	TemplatePath string `yaml:"template_path"`
}

var defaultWebConf = webConf{
	StaticDir:    "public",
	TemplatePath: "templates/template.docx",
}

func (c *webConf) validate() error {
	if c.StaticDir != "" && !fileutils.FileExists(c.StaticDir) {
		log.WithField("dir", c.StaticDir).Warn("static dir does not exist, serving api only")
		c.StaticDir = ""
	}
	if c.TemplatePath != "" && !fileutils.FileExists(c.TemplatePath) {
		log.WithField("file", c.TemplatePath).Warn("word template not found, export-word will fail")
	}
	return nil
}
