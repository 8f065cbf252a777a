package server

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/dshills/redline/internal/providers"
	"github.com/dshills/redline/internal/session"
)

// DefaultBodyLimit leaves room for base64 overhead on a full 6 MiB batch.
const DefaultBodyLimit = 16 << 20

// Options configures New.
type Options struct {
	// Defaults apply to analyze requests that leave a field unset.
	Defaults  session.Options
	BodyLimit int
	Version   string
	Logger    *zap.Logger
}

// Server is the HTTP front end for a session store.
type Server struct {
	app      *fiber.App
	store    *session.Store
	defaults session.Options
	version  string
	logger   *zap.Logger
}

// New builds the Fiber app and registers every route.
func New(store *session.Store, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := opts.BodyLimit
	if limit <= 0 {
		limit = DefaultBodyLimit
	}

	s := &Server{
		store:    store,
		defaults: opts.Defaults,
		version:  opts.Version,
		logger:   logger.Named("server"),
	}
	s.app = fiber.New(fiber.Config{
		AppName:               "redline",
		BodyLimit:             limit,
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	s.app.Use(recover.New())
	s.app.Use(s.requestLogger)
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	api := s.app.Group("/api")
	api.Get("/health", s.health)

	h := api.Group("/sessions")
	h.Post("", s.createSession)
	h.Get("/:id", s.showSession)
	h.Delete("/:id", s.deleteSession)
	h.Post("/:id/files", s.stageFiles)
	h.Delete("/:id/files", s.removeFiles)
	h.Post("/:id/analyze", s.analyze)
}

// App returns the underlying Fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run listens on addr until Shutdown is called.
func (s *Server) Run(addr string) error {
	s.logger.Info("listening", zap.String("addr", addr))
	return s.app.Listen(addr)
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	status := c.Response().StatusCode()
	if err != nil {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}
	}
	s.logger.Debug("request",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", status),
		zap.Duration("elapsed", time.Since(start)),
	)
	return err
}

// handleError maps domain errors onto status codes.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var (
		fe *fiber.Error
		ve validator.ValidationErrors
	)
	switch {
	case errors.As(err, &fe):
		code = fe.Code
	case errors.As(err, &ve), errors.Is(err, errNoBody), errors.Is(err, errBadRequest):
		code = fiber.StatusBadRequest
	case errors.Is(err, session.ErrSessionNotFound):
		code = fiber.StatusNotFound
	case errors.Is(err, session.ErrAnalysisInFlight):
		code = fiber.StatusConflict
	case providers.IsAuthError(err):
		code = fiber.StatusBadGateway
	}
	if code >= fiber.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
	}
	return c.Status(code).JSON(ErrorResponse{Error: err.Error()})
}
