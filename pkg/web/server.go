// Package web serves the therapy session UI: a small REST surface for
// driving turns, a websocket status feed, and the synthesized audio files.
package web

import (
	"context"
	"log/slog"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/sakina-labs/sakina/pkg/hub"
	"github.com/sakina-labs/sakina/pkg/session"
)

// maxHistoryTurns caps the in-memory conversation buffer.
const maxHistoryTurns = 100

// maxContextTurns is how many recent turns feed the generation prompt.
// The full buffer stays available to GET /api/conversation.
const maxContextTurns = 20

// Server owns the status state machine and the conversation history.
// The orchestrator stays stateless; everything session-scoped lives here.
type Server struct {
	app    *fiber.App
	addr   string
	logger *slog.Logger

	orchestrator *session.Orchestrator
	statusHub    *hub.Hub

	mu      sync.Mutex
	status  session.Status
	history session.History
	cancel  context.CancelFunc

	outputDir string
	staticDir string
}

// Option configures the Server.
type Option func(*Server)

// WithAddr sets the listen address. Default ":8080".
func WithAddr(addr string) Option {
	return func(s *Server) { s.addr = addr }
}

// WithOutputDir sets where synthesized audio is served from.
// Must match the orchestrator's output directory. Default "outputs".
func WithOutputDir(dir string) Option {
	return func(s *Server) { s.outputDir = dir }
}

// WithStaticDir sets the UI static files directory. Default "./web".
func WithStaticDir(dir string) Option {
	return func(s *Server) { s.staticDir = dir }
}

// WithServerLogger sets the structured logger.
func WithServerLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l.With("component", "web") }
}

// NewServer builds the fiber app around an orchestrator.
func NewServer(orchestrator *session.Orchestrator, opts ...Option) *Server {
	s := &Server{
		addr:         ":8080",
		logger:       slog.Default().With("component", "web"),
		orchestrator: orchestrator,
		status:       session.StatusReady,
		outputDir:    "outputs",
		staticDir:    "./web",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.statusHub = hub.New(s.logger)

	app := fiber.New(fiber.Config{
		AppName:               "Sakina",
		DisableStartupMessage: true,
		BodyLimit:             16 * 1024 * 1024, // WAV uploads
	})

	app.Use(cors.New())
	app.Static("/", s.staticDir)
	app.Static("/audio", s.outputDir)

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/conversation", s.handleConversation)
	api.Post("/turn", s.handleTurn)
	api.Post("/stop", s.handleStop)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/status", websocket.New(s.handleStatusWS))

	s.app = app
	return s
}

// Start runs the hub and listens. Blocks until Shutdown.
func (s *Server) Start() error {
	go s.statusHub.Run()

	s.logger.Info("web server listening", "addr", s.addr)
	return s.app.Listen(s.addr)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Status returns the current state machine position.
func (s *Server) Status() session.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// History returns a copy of the conversation so far.
func (s *Server) History() session.History {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(session.History, len(s.history))
	copy(out, s.history)
	return out
}

// appendTurn records a completed exchange, trimming the buffer.
func (s *Server) appendTurn(turn session.Turn) {
	s.mu.Lock()
	s.history = append(s.history, turn).Tail(maxHistoryTurns)
	s.mu.Unlock()
}
