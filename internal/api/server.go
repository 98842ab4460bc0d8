// Package api exposes the task service over HTTP.
package api

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"task-manager/internal/service"
)

// Options tune the HTTP layer.
type Options struct {
	// AllowedOrigins lists the client origins CORS lets through. "*"
	// allows any origin but disables credentials.
	AllowedOrigins []string
	// Development adds the underlying cause to 500 responses.
	Development bool
	// Now is the clock used for day-relative filters and stats.
	Now func() time.Time
}

// Server owns the fiber application serving /api/tasks.
type Server struct {
	app   *fiber.App
	tasks *service.TaskService
	log   *logrus.Logger
	dev   bool
	now   func() time.Time
}

func New(tasks *service.TaskService, log *logrus.Logger, opts Options) *Server {
	s := &Server{
		tasks: tasks,
		log:   log,
		dev:   opts.Development,
		now:   opts.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "task-manager",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})

	s.app.Use(recover.New())
	s.app.Use(requestid.New())
	s.app.Use(requestLogger(log))
	s.app.Use(metricsMiddleware())
	s.app.Use(cors.New(corsConfig(opts.AllowedOrigins)))

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.app.Get("/health", s.health)
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	tasks := s.app.Group("/api/tasks")
	tasks.Get("/", s.listTasks)
	tasks.Get("/stats", s.taskStats)
	tasks.Post("/", s.createTask)
	// Registered before /:id so "reorder" is never read as an id.
	tasks.Put("/reorder", s.reorderTasks)
	tasks.Put("/:id", s.updateTask)
	tasks.Delete("/:id", s.deleteTask)
}

// App exposes the fiber application, mainly for app.Test in tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen(addr string) error {
	s.log.WithField("addr", addr).Info("http server listening")
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// handleError renders errors no handler turned into a response, such as
// unknown routes or recovered panics.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}
	if code >= fiber.StatusInternalServerError {
		s.log.WithError(err).WithField("request_id", requestID(c)).Error("unhandled error")
	}
	resp := errorResponse{Message: message}
	if s.dev && code >= fiber.StatusInternalServerError {
		resp.Error = err.Error()
	}
	return c.Status(code).JSON(resp)
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowOrigins:     strings.Join(origins, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Content-Type,Authorization",
		AllowCredentials: true,
	}
	for _, origin := range origins {
		if origin == "*" {
			cfg.AllowOrigins = "*"
			cfg.AllowCredentials = false
			break
		}
	}
	if cfg.AllowOrigins == "" {
		cfg.AllowOrigins = "*"
		cfg.AllowCredentials = false
	}
	return cfg
}
