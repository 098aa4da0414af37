// Package api exposes the HTTP surface: the ask pipeline, the voice and
// image adapters, and session CRUD.
package api

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/insightx/server/internal/core/errx"
	"github.com/insightx/server/internal/insight/graph"
	"github.com/insightx/server/internal/session"
	logx "github.com/insightx/server/pkg/logger"
)

// ServiceName shows up in the health payload and the Fiber banner.
const ServiceName = "InsightX Agentic API"

// Config holds HTTP server settings.
type Config struct {
	Addr        string `envconfig:"HTTP_ADDR" default:":8000"`
	BodyLimitMB int    `envconfig:"HTTP_BODY_LIMIT_MB" default:"25"`
}

// MediaProcessor adapts audio and image uploads into text.
type MediaProcessor interface {
	Transcribe(ctx context.Context, data []byte, mimeType string) (string, error)
	ExtractText(ctx context.Context, data []byte, mimeType string) (string, error)
	FormulateQuestion(ctx context.Context, extracted, note string) (string, error)
}

// SessionStore is the slice of the session store the handlers use.
type SessionStore interface {
	Create(ctx context.Context, title string) (*session.Session, error)
	List(ctx context.Context, limit int) ([]*session.Session, error)
	Delete(ctx context.Context, id string) (bool, error)
	AddMessage(ctx context.Context, id string, msg session.Message) error
	Messages(ctx context.Context, id string) ([]session.Message, error)
	MessageCount(ctx context.Context, id string) (int, error)
	AutoTitle(ctx context.Context, id, firstQuestion string) error
}

// Server wires the Fiber app to the pipeline, media, and session services.
type Server struct {
	app      *fiber.App
	runner   graph.Runner
	sessions SessionStore
	media    MediaProcessor
}

// New builds the server with all routes registered.
func New(cfg Config, runner graph.Runner, sessions SessionStore, media MediaProcessor) *Server {
	app := fiber.New(fiber.Config{
		AppName:      ServiceName,
		BodyLimit:    cfg.BodyLimitMB * 1024 * 1024,
		ErrorHandler: errorHandler,
	})
	app.Use(cors.New())

	s := &Server{app: app, runner: runner, sessions: sessions, media: media}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Get("/", s.handleHealth)
	s.app.Post("/api/ask", s.handleAsk)
	s.app.Post("/api/transcribe", s.handleTranscribe)
	s.app.Post("/api/voice-ask", s.handleVoiceAsk)
	s.app.Post("/api/ocr-ask", s.handleOCRAsk)
	s.app.Get("/api/sessions", s.handleListSessions)
	s.app.Post("/api/sessions", s.handleCreateSession)
	s.app.Get("/api/sessions/:id/messages", s.handleSessionMessages)
	s.app.Delete("/api/sessions/:id", s.handleDeleteSession)
}

// Listen blocks serving HTTP until Shutdown is called.
func (s *Server) Listen(addr string) error {
	logx.Info().Str("addr", addr).Msg("HTTP server listening")
	return s.app.Listen(addr)
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the underlying Fiber app for in-process testing.
func (s *Server) App() *fiber.App {
	return s.app
}

// errorHandler renders every error as {"detail": message} with the carried
// status code.
func errorHandler(c *fiber.Ctx, err error) error {
	status := errx.StatusOf(err)
	detail := errx.MessageOf(err)

	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
		detail = fe.Message
	}

	if status >= 500 {
		logx.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}
	return c.Status(status).JSON(fiber.Map{"detail": detail})
}
