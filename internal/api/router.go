// Package api exposes a playback session over HTTP.
package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/cxd309/mapf-player/internal/session"
)

// SetupRoutes configures all HTTP routes
func SetupRoutes(app *fiber.App, s *session.Session) {
	handler := NewHandler(s)

	app.Get("/health", handler.HealthCheck)

	api := app.Group("/api/v1")
	{
		// Playback state and controls
		api.Get("/state", handler.GetState)
		api.Post("/step", handler.Step)
		api.Post("/reset", handler.Reset)
		api.Post("/seek", handler.Seek)
		api.Post("/loop", handler.SetLooping)
		api.Post("/play", handler.Play)
		api.Post("/pause", handler.Pause)
		api.Post("/speed", handler.SetSpeed)

		api.Get("/snapshot", handler.GetSnapshot)
		api.Get("/runs", handler.GetRuns)
	}
}

// ErrorHandler renders every error as a JSON body.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
