package opsapi

import (
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/guardops/watchpost/storage/model"
)

// registerEvents wires the abnormal-event CRUD handlers against an EventStore.
func registerEvents(r fiber.Router, events model.EventStore) {
	g := r.Group("/api/abnormal-events")

	g.Post("/", func(c *fiber.Ctx) error {
		var req model.CreateEventRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
		}
		ev, err := events.Create(req)
		if err != nil {
			if _, ok := err.(model.ValidationError); ok {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
			}
			log.WithError(err).Error("event create failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "server error"})
		}
		return c.JSON(fiber.Map{"id": ev.ID, "displayId": ev.DisplayID})
	})

	g.Get("/", func(c *fiber.Ctx) error {
		var filter model.EventFilter
		if err := c.QueryParser(&filter); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid query"})
		}
		list, err := events.List(filter)
		if err != nil {
			log.WithError(err).Error("event listing failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "server error"})
		}
		return c.JSON(list)
	})

	g.Get("/:id", func(c *fiber.Ctx) error {
		ev, err := events.Get(c.Params("id"))
		if err != nil {
			if _, ok := err.(model.NotFoundError); ok {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "event not found"})
			}
			log.WithError(err).WithField("id", c.Params("id")).Error("event read failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "server error"})
		}
		return c.JSON(ev)
	})

	g.Patch("/:id", func(c *fiber.Ctx) error {
		var patch model.EventPatch
		if err := c.BodyParser(&patch); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
		}
		if err := events.PatchFields(c.Params("id"), patch); err != nil {
			if _, ok := err.(model.NotFoundError); ok {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "event not found"})
			}
			log.WithError(err).WithField("id", c.Params("id")).Error("event patch failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "server error"})
		}
		return c.JSON(fiber.Map{"ok": true})
	})

	type statusReq struct {
		Status string `json:"status" form:"status"`
	}
	g.Patch("/:id/status", func(c *fiber.Ctx) error {
		var req statusReq
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
		}
		if err := events.UpdateStatus(c.Params("id"), req.Status); err != nil {
			switch err.(type) {
			case model.ValidationError:
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
			case model.NotFoundError:
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "event not found"})
			}
			log.WithError(err).WithField("id", c.Params("id")).Error("event status update failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "server error"})
		}
		return c.JSON(fiber.Map{"ok": true})
	})

	g.Delete("/:id", func(c *fiber.Ctx) error {
		if err := events.Delete(c.Params("id")); err != nil {
			if _, ok := err.(model.NotFoundError); ok {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "event not found"})
			}
			log.WithError(err).WithField("id", c.Params("id")).Error("event delete failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "server error"})
		}
		return c.JSON(fiber.Map{"ok": true})
	})
}
