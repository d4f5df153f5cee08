package handler

import (
	"log"
	"storefront/constants"
	"storefront/middleware"
	"storefront/utils"

	"github.com/gofiber/fiber/v2"
)

// GetMyOrders renders the order history page.
func (h *Handler) GetMyOrders(c *fiber.Ctx) error {
	customerID := middleware.CustomerID(c)
	if customerID == 0 {
		return c.Status(fiber.StatusUnauthorized).Render(constants.VIEW_ERROR, fiber.Map{
			"title":   constants.UNAUTHORIZED,
			"message": constants.MESSAGE_PLEASE_LOGIN,
		}, constants.VIEW_LAYOUT)
	}

	history, err := h.checkout.OrderHistory(c.UserContext(), customerID)
	if err != nil {
		log.Printf("Load orders failed customer=%d: %v", customerID, err)
		return c.Status(fiber.StatusInternalServerError).Render(constants.VIEW_ERROR, fiber.Map{
			"title":   constants.ERROR_INTERNAL_ERROR,
			"message": "",
		}, constants.VIEW_LAYOUT)
	}

	return c.Status(fiber.StatusOK).Render(constants.VIEW_CUSTOMER_ORDER, fiber.Map{
		"title":   constants.TITLE_MY_ORDERS,
		"history": history,
	}, constants.VIEW_LAYOUT)
}

// ListMyOrders serves GET /api/v1/orders.
func (h *Handler) ListMyOrders(c *fiber.Ctx) error {
	customerID := middleware.CustomerID(c)
	if customerID == 0 {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, constants.MESSAGE_PLEASE_LOGIN, nil)
	}

	history, err := h.checkout.OrderHistory(c.UserContext(), customerID)
	if err != nil {
		log.Printf("Load orders failed customer=%d: %v", customerID, err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, nil)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, history.Orders)
}
