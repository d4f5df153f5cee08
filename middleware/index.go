package middleware

import (
	"errors"
	"log"
	"storefront/constants"
	"storefront/helper"
	"storefront/service"
	"storefront/utils"
	"strings"

	"github.com/gofiber/fiber/v2"
)

func bearerToken(c *fiber.Ctx) string {
	token := c.Cookies("access_token")
	if token == "" {
		auth := c.Get("Authorization")
		if strings.HasPrefix(auth, "Bearer ") {
			token = strings.TrimPrefix(auth, "Bearer ")
		}
	}
	return token
}

// Protected rejects requests without a valid access token.
func Protected(secret []byte) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Missing token", errors.New("no token"))
		}

		jwtToken, err := helper.ParseToken(token, secret)
		if err != nil || !jwtToken.Valid {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid token", err)
		}

		c.Locals("user", jwtToken)
		return c.Next()
	}
}

func OptionalJWT(secret []byte) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			c.Locals("user", nil)
			return c.Next()
		}

		jwtToken, err := helper.ParseToken(token, secret)
		if err != nil || !jwtToken.Valid {
			c.Locals("user", nil)
			return c.Next()
		}

		c.Locals("user", jwtToken)
		return c.Next()
	}
}

// OptionalAuth resolves the token's customer into Locals("customerId") and
// Locals("customer"). Unknown customers are treated as guests.
func OptionalAuth(customers service.CustomerRepo) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claim := helper.GetInfoCustomerFromToken(c)
		c.Locals("customerId", uint(0))
		if claim.CustomerId == 0 {
			return c.Next()
		}

		customer, err := customers.FindByID(c.UserContext(), claim.CustomerId)
		if err != nil {
			log.Printf("Customer lookup failed id=%d: %v", claim.CustomerId, err)
			return c.Next()
		}
		if customer == nil {
			log.Printf("Customer not found id=%d", claim.CustomerId)
			return c.Next()
		}

		c.Locals("customerId", customer.ID)
		c.Locals("customer", customer)
		return c.Next()
	}
}

// AdminOnly must run after Protected.
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claim := helper.GetInfoCustomerFromToken(c)
		if claim.Role != constants.ROLE_ADMIN {
			return utils.ErrorResponse(c, fiber.StatusForbidden, "Forbidden", nil)
		}
		return c.Next()
	}
}
