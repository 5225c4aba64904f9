package web

import (
	"context"
	"io"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/sakina-labs/sakina/pkg/hub"
	"github.com/sakina-labs/sakina/pkg/session"
)

// handleStatus returns the state machine position with localized text.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	s.mu.Lock()
	status := s.status
	turns := len(s.history)
	s.mu.Unlock()

	payload := statusPayload(status)
	payload["turns"] = turns
	payload["can_start"] = status.CanStart()
	return c.JSON(payload)
}

// handleConversation returns the session history.
func (s *Server) handleConversation(c *fiber.Ctx) error {
	return c.JSON(s.History())
}

// turnResponse is the JSON shape returned by POST /api/turn.
type turnResponse struct {
	*session.Result
	AudioURL string      `json:"audio_url,omitempty"`
	Warning  *statusText `json:"warning,omitempty"`
}

// handleTurn accepts a WAV upload and runs it through the pipeline.
// Only one turn runs at a time: anything but ready status is a 409.
func (s *Server) handleTurn(c *fiber.Ctx) error {
	file, err := c.FormFile("audio")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "multipart field 'audio' is required",
		})
	}

	f, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "cannot read uploaded audio",
		})
	}
	audioBytes, err := io.ReadAll(f)
	f.Close()
	if err != nil || len(audioBytes) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "empty audio upload",
		})
	}

	// Gate: single in-flight turn.
	s.mu.Lock()
	if !s.status.CanStart() {
		status := s.status
		s.mu.Unlock()
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":  "a turn is already in progress",
			"status": status,
		})
	}
	s.status, _ = s.status.Transition(session.StatusProcessing)
	ctx, cancel := context.WithCancel(c.Context())
	s.cancel = cancel
	recent := s.history.Tail(maxContextTurns)
	history := make(session.History, len(recent))
	copy(history, recent)
	s.mu.Unlock()

	s.statusHub.PublishEvent(hub.EventStatus, statusPayload(session.StatusProcessing))

	result := s.orchestrator.ProcessTurn(ctx, audioBytes, history)

	s.mu.Lock()
	s.cancel = nil
	s.status, _ = s.status.Transition(session.StatusReady)
	s.mu.Unlock()

	if !result.Success() {
		s.statusHub.PublishEvent(hub.EventError, stagePayload(result.Err))
		s.statusHub.PublishEvent(hub.EventStatus, statusPayload(session.StatusReady))
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"result":  result,
			"message": stagePayload(result.Err)["message"],
		})
	}

	turn := session.NewTurn(result.Transcription, result.Emotions, result.ResponseText)
	s.appendTurn(turn)

	resp := turnResponse{Result: result}
	if result.AudioPath != "" {
		resp.AudioURL = "/audio/" + filepath.Base(result.AudioPath)
	}
	if result.SlowWarning {
		warning := slowWarningText
		resp.Warning = &warning
		s.statusHub.PublishEvent(hub.EventWarning, warning)
	}

	s.statusHub.PublishEvent(hub.EventTurn, turn)
	s.statusHub.PublishEvent(hub.EventStatus, statusPayload(session.StatusReady))

	return c.JSON(resp)
}

// handleStop cancels the in-flight turn, if any.
func (s *Server) handleStop(c *fiber.Ctx) error {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()

	if cancel == nil {
		return c.JSON(fiber.Map{"stopped": false})
	}

	cancel()
	s.logger.Info("in-flight turn cancelled by user")
	return c.JSON(fiber.Map{"stopped": true})
}

// handleStatusWS registers a dashboard client with the status hub.
func (s *Server) handleStatusWS(c *websocket.Conn) {
	// Snapshot first so a fresh dashboard renders immediately.
	if event, err := hub.NewEvent(hub.EventStatus, statusPayload(s.Status())); err == nil {
		c.WriteJSON(event)
	}

	client := hub.NewClient(s.statusHub, c)
	client.Run()
}
