package watchpost

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/guardops/watchpost/api/opsapi"
	"github.com/guardops/watchpost/storage/model"
)

// FiberServerConfig is the fiber.Config that is used to init the http fiber.App
var FiberServerConfig = fiber.Config{
	ReadTimeout:  10 * time.Second,
	WriteTimeout: 60 * time.Second,
	IdleTimeout:  150 * time.Second,
	// photo uploads go through multipart bodies
	BodyLimit:      64 * 1024 * 1024,
	ReadBufferSize: 8192,
	ErrorHandler:   handleError,
	Network:        "tcp",
}

// Watchpost is the facility-operations server: compliance photo uploads,
// abnormal-event reports and the statistics surface.
type Watchpost struct {
	server     *fiber.App
	serverConf ServerConf
	sessions   *session.Store
}

// NewWatchpost creates a new Watchpost server for the passed storage backends.
func NewWatchpost(
	serverConf ServerConf,
	apiConf opsapi.Config,
	storages model.Backends,
) (*Watchpost, error) {
	if tps := serverConf.TrustedProxies; len(tps) > 0 {
		FiberServerConfig.TrustedProxies = serverConf.TrustedProxies
		FiberServerConfig.EnableTrustedProxyCheck = true
	}
	FiberServerConfig.ProxyHeader = serverConf.ForwardedIPHeader
	server := fiber.New(FiberServerConfig)
	server.Use(recover.New())
	server.Use(compress.New())
	if serverConf.AccessLog != nil {
		server.Use(logger.New(logger.Config{Output: serverConf.AccessLog}))
	} else {
		server.Use(logger.New())
	}
	server.Use(requestid.New())
	server.Use(cors.New())

	sessions := session.New(
		session.Config{
			KeyLookup:      "cookie:" + serverConf.Session.CookieName,
			Expiration:     serverConf.Session.Lifetime,
			CookieHTTPOnly: true,
		},
	)

	wp := &Watchpost{
		server:     server,
		serverConf: serverConf,
		sessions:   sessions,
	}
	if err := opsapi.Register(server, apiConf, sessions, storages); err != nil {
		return nil, errors.Wrap(err, "failed to register api routes")
	}
	return wp, nil
}

// handleError is the fiber ErrorHandler; it maps storage error kinds to the
// http error taxonomy and logs everything else as a server error.
func handleError(ctx *fiber.Ctx, err error) error {
	var notFound model.NotFoundError
	if errors.As(err, &notFound) {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": notFound.Error()})
	}
	var invalid model.ValidationError
	if errors.As(err, &invalid) {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": invalid.Error()})
	}
	var exists model.AlreadyExistsError
	if errors.As(err, &exists) {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": exists.Error()})
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return ctx.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
	}
	log.WithError(err).WithField("path", ctx.Path()).Error("unhandled error")
	return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "server error"})
}

// HttpHandlerFunc returns an http.HandlerFunc for serving all the necessary
// endpoints
func (wp Watchpost) HttpHandlerFunc() http.HandlerFunc {
	return adaptor.FiberApp(wp.server)
}

// Listen starts an http server at the specific address for serving all the
// necessary endpoints
func (wp Watchpost) Listen(addr string) error {
	return wp.server.Listen(addr)
}

func (wp Watchpost) Start() {
	conf := wp.serverConf
	if !conf.TLS.Enabled {
		log.WithField("port", conf.Port).Info("TLS is disabled starting http server")
		log.WithError(wp.server.Listen(fmt.Sprintf("%s:%d", conf.IPListen, conf.Port))).Fatal()
	}
	// TLS enabled
	if conf.TLS.RedirectHTTP {
		httpServer := fiber.New(FiberServerConfig)
		httpServer.All(
			"*", func(ctx *fiber.Ctx) error {
				//goland:noinspection HttpUrlsUsage
				return ctx.Redirect(
					strings.Replace(ctx.Request().URI().String(), "http://", "https://", 1),
					fiber.StatusPermanentRedirect,
				)
			},
		)
		log.Info("TLS and http redirect enabled, starting redirect server on port 80")
		go func() {
			log.WithError(httpServer.Listen(":80")).Fatal()
		}()
	}
	time.Sleep(time.Millisecond) // This is just for a more pretty output with the tls header printed after the http one
	log.Info("TLS enabled, starting https server on port 443")
	log.WithError(wp.server.ListenTLS(":443", conf.TLS.Cert, conf.TLS.Key)).Fatal()
}
