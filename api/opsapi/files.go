package opsapi

import (
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
	"github.com/zachmann/go-utils/fileutils"

	"github.com/guardops/watchpost/storage"
	"github.com/guardops/watchpost/storage/model"
)

// maxAttachments caps how many files one attach request may carry.
const maxAttachments = 20

// registerFiles wires the attachment handlers: upload into an event folder,
// serve one attachment, detach one attachment.
func registerFiles(r fiber.Router, events model.EventStore) {
	g := r.Group("/api/abnormal-events")

	// The event key may be either the display id or the uuid.
	g.Post("/:key/files", func(c *fiber.Ctx) error {
		folder, err := events.ResolveFolder(c.Params("key"))
		if err != nil {
			if _, ok := err.(model.NotFoundError); ok {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "event not found"})
			}
			log.WithError(err).WithField("key", c.Params("key")).Error("event lookup failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "server error"})
		}

		form, err := c.MultipartForm()
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid multipart body"})
		}
		uploads := form.File["files"]
		if len(uploads) == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "no files received"})
		}
		if len(uploads) > maxAttachments {
			uploads = uploads[:maxAttachments]
		}
		category := c.FormValue("category", "general")

		now := time.Now()
		attachments := make([]model.FileAttachment, 0, len(uploads))
		for _, fh := range uploads {
			name := storage.StoredName(now, "_", storage.SanitizeName(fh.Filename))
			if err = c.SaveFile(fh, filepath.Join(events.FolderPath(folder), name)); err != nil {
				log.WithError(err).WithField("folder", folder).Error("attachment save failed")
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "upload error"})
			}
			attachments = append(attachments, model.FileAttachment{
				Filename:     name,
				OriginalName: fh.Filename,
				MimeType:     fh.Header.Get(fiber.HeaderContentType),
				Size:         fh.Size,
				UploadedAt:   now.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
				Category:     category,
				URL:          "/api/abnormal-events/" + folder + "/files/" + url.PathEscape(name),
			})
		}

		if err = events.AttachFiles(folder, attachments); err != nil {
			if _, ok := err.(model.NotFoundError); ok {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "event not found"})
			}
			log.WithError(err).WithField("folder", folder).Error("attachment record failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "server error"})
		}
		ev, err := events.GetByDisplayID(folder)
		if err != nil {
			log.WithError(err).WithField("folder", folder).Error("event re-read failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "server error"})
		}
		return c.JSON(fiber.Map{"ok": true, "files": ev.Files})
	})

	g.Get("/:displayId/files/:filename", func(c *fiber.Ctx) error {
		filename, err := url.PathUnescape(c.Params("filename"))
		if err != nil || strings.Contains(filename, "..") {
			return c.Status(fiber.StatusBadRequest).SendString("invalid filename")
		}
		path := filepath.Join(events.FolderPath(c.Params("displayId")), filename)
		if !fileutils.FileExists(path) {
			return c.Status(fiber.StatusNotFound).SendString("File not found")
		}
		return c.SendFile(path)
	})

	g.Delete("/:id/files/:filename", func(c *fiber.Ctx) error {
		filename, err := url.PathUnescape(c.Params("filename"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid filename"})
		}
		if err = events.DetachFile(c.Params("id"), filename); err != nil {
			if _, ok := err.(model.NotFoundError); ok {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "event not found"})
			}
			log.WithError(err).WithField("id", c.Params("id")).Error("attachment delete failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "server error"})
		}
		return c.JSON(fiber.Map{"ok": true})
	})
}
