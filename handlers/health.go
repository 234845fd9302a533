package handlers

import "github.com/gofiber/fiber/v2"

// HandleHealthCheck reports whether the database answers.
func (h *Handler) HandleHealthCheck(c *fiber.Ctx) error {
	if h.DB != nil {
		if err := h.DB.PingContext(c.UserContext()); err != nil {
			h.Log.WithError(err).Warn("health check failed")
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
