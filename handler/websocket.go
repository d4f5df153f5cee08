package handler

import (
	"context"
	"storefront/constants"
	"storefront/utils"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// RequireUpgrade only lets websocket handshakes through.
func RequireUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// AdminOrderFeed streams order-placed events to admin dashboards.
func (h *Handler) AdminOrderFeed() fiber.Handler {
	return websocket.New(h.hub.Serve)
}

// Health reports the state of each dependency.
func (h *Handler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status := fiber.Map{}
	healthy := true
	for name, ping := range h.checks {
		if err := ping(ctx); err != nil {
			status[name] = err.Error()
			healthy = false
			continue
		}
		status[name] = "ok"
	}

	if !healthy {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"message": constants.SERVICE_UNAVAILABLE,
			"checks":  status,
		})
	}
	return utils.SuccessResponse(c, fiber.StatusOK, status)
}
