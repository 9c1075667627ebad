// Package callback runs the loopback HTTP listener that receives control
// back from the OAuth provider redirect and hands the delivered credential
// material to session bootstrap.
package callback

import (
	"errors"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/care-session/pkg/util"
)

// Server wraps the fiber app serving the redirect entry points.
type Server struct {
	app     *fiber.App
	handler *Handler
	logger  *zap.Logger
}

// NewServer builds the listener and wires routes.
func NewServer(handler *Handler, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(errorHandlingMiddleware(logger))
	app.Use(requestLogger(logger))

	app.Get("/health/live", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/auth/:provider/authorize", handler.Authorize)
	app.Get("/auth/:provider/callback", handler.Callback)

	return &Server{app: app, handler: handler, logger: logger}
}

// Listen blocks serving on addr.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown stops the listener.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the fiber app for in-process tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func errorHandlingMiddleware(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = util.NewInternalError(nil)
			}
			if err != nil {
				var fiberErr *fiber.Error
				if errors.As(err, &fiberErr) {
					// Framework-level errors keep their own status.
					return
				}
				clientErr := util.ToClientError(err)
				status := http.StatusBadGateway
				if clientErr.Code == util.CodeInternalError {
					status = http.StatusInternalServerError
					logger.Error("request failed", zap.Error(clientErr))
				}
				c.Status(status)
				_ = c.JSON(fiber.Map{"error": fiber.Map{
					"code":    clientErr.Code,
					"message": clientErr.Message,
				}})
				err = nil
			}
		}()
		return c.Next()
	}
}

func requestLogger(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		logger.Info("request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("duration", time.Since(start)))
		return err
	}
}
