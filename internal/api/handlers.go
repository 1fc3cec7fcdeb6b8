package api

import (
	"bytes"
	"errors"
	"math"

	"github.com/gofiber/fiber/v2"

	"github.com/cxd309/mapf-player/internal/monitoring"
	"github.com/cxd309/mapf-player/internal/session"
	"github.com/cxd309/mapf-player/internal/snapshot"
)

// Handler contains all HTTP handlers
type Handler struct {
	session *session.Session
}

// NewHandler creates a new handler
func NewHandler(s *session.Session) *Handler {
	return &Handler{session: s}
}

// StepRequest moves playback. Dt defaults to the session speed.
type StepRequest struct {
	Dt     *float64 `json:"dt"`
	Atomic bool     `json:"atomic"`
}

// SeekRequest jumps to a playback time.
type SeekRequest struct {
	Time *float64 `json:"time"`
}

// LoopRequest sets looping; without Enabled it toggles.
type LoopRequest struct {
	Enabled *bool `json:"enabled"`
}

// SpeedRequest sets the speed directly or by Delta increments.
type SpeedRequest struct {
	Speed *float64 `json:"speed"`
	Delta int      `json:"delta"`
}

// parseBody decodes an optional JSON body into v.
func parseBody(c *fiber.Ctx, v any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(v); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	return nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func ok(c *fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"service": "mapf-player",
	})
}

// GetState returns the current session status and frame
func (h *Handler) GetState(c *fiber.Ctx) error {
	return ok(c, h.session.Status())
}

// Step advances or rewinds playback
func (h *Handler) Step(c *fiber.Ctx) error {
	var req StepRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	dt := h.session.Speed()
	if req.Dt != nil {
		if !finite(*req.Dt) {
			return fiber.NewError(fiber.StatusBadRequest, "dt must be finite")
		}
		dt = *req.Dt
	}
	return ok(c, h.session.Step(dt, req.Atomic))
}

// Reset rewinds playback to t = 0
func (h *Handler) Reset(c *fiber.Ctx) error {
	return ok(c, h.session.Reset())
}

// Seek jumps to a playback time
func (h *Handler) Seek(c *fiber.Ctx) error {
	var req SeekRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Time == nil || !finite(*req.Time) {
		return fiber.NewError(fiber.StatusBadRequest, "time is required")
	}
	return ok(c, h.session.Seek(*req.Time))
}

// SetLooping sets or toggles looping
func (h *Handler) SetLooping(c *fiber.Ctx) error {
	var req LoopRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Enabled == nil {
		return ok(c, h.session.ToggleLooping())
	}
	return ok(c, h.session.SetLooping(*req.Enabled))
}

// Play starts autoplay
func (h *Handler) Play(c *fiber.Ctx) error {
	return ok(c, h.session.SetPlaying(true))
}

// Pause stops autoplay
func (h *Handler) Pause(c *fiber.Ctx) error {
	return ok(c, h.session.SetPlaying(false))
}

// SetSpeed changes the autoplay speed
func (h *Handler) SetSpeed(c *fiber.Ctx) error {
	var req SpeedRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Speed != nil {
		if !finite(*req.Speed) {
			return fiber.NewError(fiber.StatusBadRequest, "speed must be finite")
		}
		return ok(c, h.session.SetSpeed(*req.Speed))
	}
	return ok(c, h.session.AdjustSpeed(req.Delta))
}

// GetSnapshot renders the current frame as png, svg or pdf
func (h *Handler) GetSnapshot(c *fiber.Ctx) error {
	format, err := snapshot.FormatOf("snapshot." + c.Query("format", "png"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	var buf bytes.Buffer
	if _, err := h.session.Snapshot(&buf, format); err != nil {
		monitoring.Logf("[api] snapshot: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to render snapshot")
	}
	c.Type(format)
	return c.Send(buf.Bytes())
}

// GetRuns returns the stored run history, newest first
func (h *Handler) GetRuns(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 1000 {
		limit = 20
	}

	runs, err := h.session.Runs(c.Context(), limit)
	if errors.Is(err, session.ErrNoStore) {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	if err != nil {
		monitoring.Logf("[api] runs: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch runs")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    runs,
		"count":   len(runs),
	})
}
