package opsapi

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/guardops/watchpost/internal/export"
	"github.com/guardops/watchpost/storage/model"
)

const mimeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// registerExports wires the Word report download and the event/gallery folder
// ZIP download.
func registerExports(r fiber.Router, cfg Config, storages model.Backends) {
	r.Get("/api/export-word", func(c *fiber.Ctx) error {
		displayID := c.Query("displayId")
		if displayID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing displayId"})
		}
		ev, err := storages.Events.GetByDisplayID(displayID)
		if err != nil {
			if _, ok := err.(model.NotFoundError); ok {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "event not found"})
			}
			log.WithError(err).WithField("displayId", displayID).Error("event read failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "server error"})
		}
		var buf bytes.Buffer
		if err = export.EventDocx(cfg.TemplatePath, ev, &buf); err != nil {
			log.WithError(err).WithField("displayId", displayID).Error("word export failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "export failed"})
		}
		c.Set(fiber.HeaderContentType, mimeDocx)
		c.Set(
			fiber.HeaderContentDisposition,
			`attachment; filename=`+export.EventDocxFilename(ev),
		)
		return c.Send(buf.Bytes())
	})

	r.Get("/download-folder", func(c *fiber.Ctx) error {
		folderKey := c.Query("folder")
		if folderKey == "" {
			return c.Status(fiber.StatusBadRequest).SendString("missing folder parameter")
		}
		if strings.Contains(folderKey, "..") || strings.ContainsAny(folderKey, `/\`) {
			return c.Status(fiber.StatusBadRequest).SendString("invalid folder parameter")
		}

		// Abnormal events match by uuid or display id; everything else is
		// tried as a compliance-photo folder name.
		var target, name string
		if folder, err := storages.Events.ResolveFolder(folderKey); err == nil {
			name = folder
			target = storages.Events.FolderPath(folder)
		} else if storages.Gallery.HasFolderName(folderKey) {
			name = folderKey
			target = storages.Gallery.FolderPath(folderKey)
		} else {
			return c.Status(fiber.StatusNotFound).SendString("folder not found: " + folderKey)
		}

		c.Set(fiber.HeaderContentType, "application/zip")
		c.Set(
			fiber.HeaderContentDisposition,
			`attachment; filename*=UTF-8''`+url.PathEscape(name+".zip"),
		)
		if err := export.ZipFolder(c.Response().BodyWriter(), target); err != nil {
			log.WithError(err).WithField("folder", name).Error("zip download failed")
			return c.Status(fiber.StatusInternalServerError).SendString("archive failed")
		}
		return nil
	})
}
