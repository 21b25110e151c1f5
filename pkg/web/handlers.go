package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-spotter/pkg/hub"
	"github.com/teslashibe/go-spotter/pkg/orchestrator"
)

// handleHealth is a liveness probe.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// handleState returns the current orchestrator state
func (s *Server) handleState(c *fiber.Ctx) error {
	return c.JSON(toStateDTO(s.orch.Snapshot()))
}

// handleStartSession opens the camera session
func (s *Server) handleStartSession(c *fiber.Ctx) error {
	if err := s.orch.StartSession(); err != nil {
		s.AddLog("error", "camera start failed: "+err.Error())
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "camera unavailable: " + err.Error() + " (grant camera access and retry)",
		})
	}
	s.AddLog("info", "camera session started")
	return c.JSON(toStateDTO(s.orch.Snapshot()))
}

// handleStopSession releases the camera session
func (s *Server) handleStopSession(c *fiber.Ctx) error {
	if err := s.orch.StopSession(); err != nil {
		s.AddLog("error", "camera stop failed: "+err.Error())
	} else {
		s.AddLog("info", "camera session stopped")
	}
	return c.JSON(toStateDTO(s.orch.Snapshot()))
}

// handleSetMode switches between motion and live detection
func (s *Server) handleSetMode(c *fiber.Ctx) error {
	switch c.Params("mode") {
	case string(orchestrator.ModeMotion):
		s.orch.SetMode(orchestrator.ModeMotion)
	case string(orchestrator.ModeLive):
		s.orch.SetMode(orchestrator.ModeLive)
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unknown mode: " + c.Params("mode"),
		})
	}
	return c.JSON(toStateDTO(s.orch.Snapshot()))
}

// handleAnalyze runs a one-shot motion analysis. Blocks for the
// capture-delay-capture-analyze round trip.
func (s *Server) handleAnalyze(c *fiber.Ctx) error {
	err := s.orch.AnalyzeMotionOnce(c.Context())
	switch {
	case err == nil:
		st := s.orch.Snapshot()
		if st.LastResult != nil {
			s.AddLog("analysis", st.LastResult.Subject+": "+st.LastResult.Movement)
		}
		return c.JSON(toStateDTO(st))
	case errors.Is(err, orchestrator.ErrNoSession),
		errors.Is(err, orchestrator.ErrBusy),
		errors.Is(err, orchestrator.ErrWrongMode):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	default:
		s.AddLog("error", "motion analysis failed: "+err.Error())
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	}
}

// handleToggleLive flips live detection polling
func (s *Server) handleToggleLive(c *fiber.Ctx) error {
	err := s.orch.ToggleLiveDetection()
	switch {
	case err == nil:
		return c.JSON(toStateDTO(s.orch.Snapshot()))
	case errors.Is(err, orchestrator.ErrNoSession),
		errors.Is(err, orchestrator.ErrWrongMode):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}

// handleGetLogs returns recent log entries
func (s *Server) handleGetLogs(c *fiber.Ctx) error {
	s.logsMu.RLock()
	defer s.logsMu.RUnlock()
	return c.JSON(s.logs)
}

// handleStateWS streams state snapshots; the current state is sent on
// connect so clients render immediately.
func (s *Server) handleStateWS(c *websocket.Conn) {
	client := hub.NewClient(s.stateHub, c)
	c.WriteJSON(toStateDTO(s.orch.Snapshot()))
	client.Run()
}

// handleLogsWS streams log entries as they happen
func (s *Server) handleLogsWS(c *websocket.Conn) {
	client := hub.NewClient(s.logHub, c)

	// Send recent logs so the pane isn't empty on connect
	s.logsMu.RLock()
	for _, entry := range s.logs {
		c.WriteJSON(entry)
	}
	s.logsMu.RUnlock()

	client.Run()
}

// handleCameraWS streams JPEG preview frames
func (s *Server) handleCameraWS(c *websocket.Conn) {
	client := hub.NewClient(s.cameraHub, c)
	client.Run()
}
