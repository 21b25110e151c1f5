// Package web provides the real-time analysis dashboard: REST
// endpoints for orchestrator actions plus websocket streams for state
// changes and camera preview frames.
package web

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-spotter/internal/log"
	"github.com/teslashibe/go-spotter/pkg/hub"
	"github.com/teslashibe/go-spotter/pkg/orchestrator"
)

// LogEntry represents a log line for the dashboard
type LogEntry struct {
	Time    string `json:"time"`
	Type    string `json:"type"` // info, analysis, error
	Message string `json:"message"`
}

// maxLogEntries bounds the in-memory log buffer.
const maxLogEntries = 500

// Server is the dashboard server
type Server struct {
	app  *fiber.App
	port string
	orch *orchestrator.Orchestrator

	// Log buffer (last 500 entries)
	logs   []LogEntry
	logsMu sync.RWMutex

	// Hubs for websocket broadcast (thread-safe!)
	stateHub  *hub.Hub
	logHub    *hub.Hub
	cameraHub *hub.Hub
}

// NewServer creates a dashboard server around an orchestrator and
// wires the orchestrator's callbacks:
//   - every state change is broadcast to /ws/state clients
//   - the live detection visibility gate is "at least one state
//     client connected", so an unwatched page costs no backend calls
func NewServer(port string, orch *orchestrator.Orchestrator) *Server {
	s := &Server{
		port:      port,
		orch:      orch,
		logs:      make([]LogEntry, 0, maxLogEntries),
		stateHub:  hub.New("state"),
		logHub:    hub.New("logs"),
		cameraHub: hub.New("camera"),
	}

	orch.OnChange = func(st orchestrator.State) {
		s.stateHub.BroadcastJSON(toStateDTO(st))
	}
	orch.Visible = func() bool {
		return s.stateHub.ClientCount() > 0
	}

	app := fiber.New(fiber.Config{
		AppName:               "Spotter Dashboard",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	// Static files
	app.Static("/", "./web")

	// API routes
	api := app.Group("/api")
	api.Get("/health", s.handleHealth)
	api.Get("/state", s.handleState)
	api.Post("/session/start", s.handleStartSession)
	api.Post("/session/stop", s.handleStopSession)
	api.Post("/mode/:mode", s.handleSetMode)
	api.Post("/analyze", s.handleAnalyze)
	api.Post("/live/toggle", s.handleToggleLive)
	api.Get("/logs", s.handleGetLogs)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket routes
	app.Get("/ws/state", websocket.New(s.handleStateWS))
	app.Get("/ws/logs", websocket.New(s.handleLogsWS))
	app.Get("/ws/camera", websocket.New(s.handleCameraWS))

	s.app = app
	return s
}

// App exposes the fiber app for testing.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start starts the web server and its broadcast hubs.
func (s *Server) Start() error {
	log.Info("dashboard listening", "url", "http://localhost:"+s.port)

	go s.stateHub.Run()
	go s.logHub.Run()
	go s.cameraHub.Run()

	return s.app.Listen(":" + s.port)
}

// StartAsync starts the web server in a goroutine
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			log.Error("web server error", "error", err)
		}
	}()
}

// AddLog adds a log entry and broadcasts to clients
func (s *Server) AddLog(logType, message string) {
	entry := LogEntry{
		Time:    time.Now().Format("15:04:05"),
		Type:    logType,
		Message: message,
	}

	s.logsMu.Lock()
	s.logs = append(s.logs, entry)
	if len(s.logs) > maxLogEntries {
		s.logs = s.logs[1:]
	}
	s.logsMu.Unlock()

	s.logHub.BroadcastJSON(entry)
}

// SendCameraFrame broadcasts a preview frame to all connected clients
func (s *Server) SendCameraFrame(jpegData []byte) {
	s.cameraHub.BroadcastBinary(jpegData)
}

// PreviewViewerCount returns how many clients watch the camera stream.
func (s *Server) PreviewViewerCount() int {
	return s.cameraHub.ClientCount()
}

// Shutdown gracefully stops the web server
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
