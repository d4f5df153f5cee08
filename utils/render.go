package utils

import (
	"storefront/constants"

	"github.com/gofiber/fiber/v2"
)

// RenderCheckoutFailed renders the online checkout failure page.
func RenderCheckoutFailed(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).Render(constants.VIEW_PAYMENT_FAIL, fiber.Map{
		"title":   constants.TITLE_CHECKOUT_FAILED,
		"message": message,
	}, constants.VIEW_LAYOUT)
}

// RenderOrderFailed renders the generic order placement failure page.
func RenderOrderFailed(c *fiber.Ctx, message string) error {
	if message == "" {
		message = constants.MESSAGE_CANT_PLACE_ORDER
	}
	return c.Status(fiber.StatusNotFound).Render(constants.VIEW_ERROR, fiber.Map{
		"title":   constants.MESSAGE_CANT_PLACE_ORDER,
		"message": message,
	}, constants.VIEW_LAYOUT)
}

func RenderVerifyFailed(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusNotFound).Render(constants.VIEW_PAYMENT_FAIL, fiber.Map{
		"title":   constants.TITLE_VERIFY_FAILED,
		"message": message,
	}, constants.VIEW_LAYOUT)
}

// RenderCreateOrderFailed picks the failure page for the submitted order method.
func RenderCreateOrderFailed(c *fiber.Ctx, method, message string) error {
	if method == constants.ORDER_METHOD_ONLINE {
		return RenderCheckoutFailed(c, message)
	}
	return RenderOrderFailed(c, message)
}
