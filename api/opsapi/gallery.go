package opsapi

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/guardops/watchpost/storage"
	"github.com/guardops/watchpost/storage/model"
)

// maxGalleryUploads caps how many photos one upload request may carry.
const maxGalleryUploads = 10

// Placeholders for uploads that omit the building or note form fields.
const (
	unspecifiedBuilding = "未指定大樓"
	unspecifiedNote     = "未指定備註"
)

// registerGallery wires the compliance photo-wall handlers.
func registerGallery(r fiber.Router, cfg Config, gallery model.GalleryStore) {
	r.Post("/upload-image", func(c *fiber.Ctx) error {
		form, err := c.MultipartForm()
		if err != nil {
			return c.Status(fiber.StatusBadRequest).SendString("invalid multipart body")
		}
		uploads := form.File["files"]
		if len(uploads) == 0 {
			return c.Status(fiber.StatusBadRequest).SendString("no images selected")
		}
		if len(uploads) > maxGalleryUploads {
			uploads = uploads[:maxGalleryUploads]
		}
		building := c.FormValue("building", unspecifiedBuilding)
		note := c.FormValue("note", unspecifiedNote)

		saved := make([]string, 0, len(uploads))
		for _, fh := range uploads {
			tmpPath := filepath.Join(
				cfg.TmpDir,
				storage.StoredName(time.Now(), "-", storage.SanitizeName(fh.Filename)),
			)
			if err = c.SaveFile(fh, tmpPath); err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "upload error"})
			}
			rel, err := gallery.SaveImage(building, note, tmpPath, fh.Filename)
			if err != nil {
				_ = os.Remove(tmpPath)
				log.WithError(err).WithField("building", building).Error("gallery save failed")
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "upload error"})
			}
			saved = append(saved, rel)
		}
		return c.JSON(fiber.Map{
			"message": fmt.Sprintf("uploaded %d images", len(saved)),
			"files":   saved,
		})
	})

	type deleteReq struct {
		Folder   string `json:"folder" form:"folder"`
		Filename string `json:"filename" form:"filename"`
	}
	r.Post("/delete-image", func(c *fiber.Ctx) error {
		var req deleteReq
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "invalid body"})
		}
		if req.Folder == "" || req.Filename == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "missing folder or filename"})
		}
		pruned, err := gallery.DeleteImage(req.Folder, req.Filename)
		if err != nil {
			switch err.(type) {
			case model.NotFoundError:
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "image not found"})
			case model.ValidationError:
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"success": false, "message": "invalid path"})
			}
			log.WithError(err).WithField("folder", req.Folder).Error("image delete failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "server error"})
		}
		msg := "image deleted"
		if pruned {
			msg = "image deleted, empty folder removed"
		}
		return c.JSON(fiber.Map{"success": true, "message": msg})
	})

	r.Get("/gallery-data", func(c *fiber.Ctx) error {
		date := c.Query("date")
		if date == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing date"})
		}
		prefix := date
		if building := c.Query("building"); building != "" {
			prefix = building + "-" + date
		}
		folders, err := gallery.Folders(prefix)
		if err != nil {
			log.WithError(err).WithField("prefix", prefix).Error("gallery listing failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "server error"})
		}
		return c.JSON(fiber.Map{"folders": folders})
	})
}
