// Package opsapi registers the http surface of the operations server:
// abnormal-event reporting, the compliance photo gallery, the statistics
// endpoints and the session login gate.
package opsapi

import (
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"

	"github.com/guardops/watchpost/storage/model"
)

// Config carries the domain wiring the api handlers need.
type Config struct {
	// UploadsDir is the compliance-photo root, served at /uploads.
	UploadsDir string
	// EventsDir is the abnormal-event root, served at /uploads-abnormal.
	EventsDir string
	// TmpDir receives multipart uploads before they are moved into place.
	TmpDir string
	// TemplatePath points at the Word report template.
	TemplatePath string
	// StaticDir holds the frontend assets served at /.
	StaticDir string
	// Buildings is the statistics roster, in display order.
	Buildings []string
	// BaseHolidays are always excluded from the workday set. Entries may be
	// ISO or Republic-of-China dates.
	BaseHolidays []string
}

// Register mounts all routes on the app. Static assets and the login
// endpoints come first so the session gate does not apply to them.
func Register(
	r *fiber.App, cfg Config, sessions *session.Store, storages model.Backends,
) error {
	r.Static("/uploads", cfg.UploadsDir)
	r.Static("/uploads-abnormal", cfg.EventsDir)
	if cfg.StaticDir != "" {
		r.Static("/", cfg.StaticDir)
		r.Get(
			"/login", func(c *fiber.Ctx) error {
				return c.SendFile(filepath.Join(cfg.StaticDir, "login.html"))
			},
		)
	}
	registerAuth(r, sessions, storages.Users)
	r.Use(sessionGate(sessions, storages.Users))

	registerEvents(r, storages.Events)
	registerFiles(r, storages.Events)
	registerExports(r, cfg, storages)
	registerGallery(r, cfg, storages.Gallery)
	registerStats(r, cfg, storages.Gallery)
	return nil
}
