package opsapi

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	log "github.com/sirupsen/logrus"

	"github.com/guardops/watchpost/storage/model"
)

const (
	sessionKeyUsername = "username"
	sessionKeyName     = "name"
)

type loginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

func registerAuth(r fiber.Router, sessions *session.Store, users model.UsersStore) {
	r.Post(
		"/login", func(c *fiber.Ctx) error {
			var req loginRequest
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
			}
			u, err := users.Authenticate(req.Username, req.Password)
			if err != nil {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid credentials"})
			}
			sess, err := sessions.Get(c)
			if err != nil {
				return err
			}
			sess.Set(sessionKeyUsername, u.Username)
			sess.Set(sessionKeyName, u.DisplayName)
			if err = sess.Save(); err != nil {
				return err
			}
			return c.Redirect("/", fiber.StatusSeeOther)
		},
	)

	r.Get(
		"/logout", func(c *fiber.Ctx) error {
			sess, err := sessions.Get(c)
			if err == nil {
				if err = sess.Destroy(); err != nil {
					log.WithError(err).Warn("could not destroy session")
				}
			}
			return c.Redirect("/login", fiber.StatusSeeOther)
		},
	)

	r.Get(
		"/api/me", func(c *fiber.Ctx) error {
			sess, err := sessions.Get(c)
			if err != nil {
				return err
			}
			username, _ := sess.Get(sessionKeyUsername).(string)
			if username == "" {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "not logged in"})
			}
			name, _ := sess.Get(sessionKeyName).(string)
			return c.JSON(fiber.Map{"username": username, "name": name})
		},
	)
}

// sessionGate enforces optional authentication. If there are no users in
// storage, all requests are allowed. Otherwise a logged-in session is
// required; api requests get a 401, page requests are sent to the login page.
func sessionGate(sessions *session.Store, users model.UsersStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		count, err := users.Count()
		if err != nil {
			return err
		}
		if count == 0 {
			return c.Next()
		}
		sess, err := sessions.Get(c)
		if err != nil {
			return err
		}
		if username, _ := sess.Get(sessionKeyUsername).(string); username != "" {
			return c.Next()
		}
		if strings.HasPrefix(c.Path(), "/api/") || c.Accepts("html", "json") == "json" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "not logged in"})
		}
		return c.Redirect("/login", fiber.StatusSeeOther)
	}
}
