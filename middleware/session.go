package middleware

import (
	"storefront/constants"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const sessionTTL = 30 * 24 * time.Hour

// Session assigns a long-lived session id cookie and exposes it as
// Locals("sessionId"). The cart is stored under that id.
func Session() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies(constants.SESSION_COOKIE)
		if _, err := uuid.Parse(sid); err != nil {
			sid = uuid.NewString()
			c.Cookie(&fiber.Cookie{
				Name:     constants.SESSION_COOKIE,
				Value:    sid,
				Path:     "/",
				Expires:  time.Now().Add(sessionTTL),
				HTTPOnly: true,
				SameSite: fiber.CookieSameSiteLaxMode,
			})
		}
		c.Locals("sessionId", sid)
		return c.Next()
	}
}

func SessionID(c *fiber.Ctx) string {
	sid, _ := c.Locals("sessionId").(string)
	return sid
}

func CustomerID(c *fiber.Ctx) uint {
	id, _ := c.Locals("customerId").(uint)
	return id
}
