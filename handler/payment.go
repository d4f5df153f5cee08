package handler

import (
	"errors"
	"log"
	"storefront/constants"
	"storefront/middleware"
	"storefront/model"
	"storefront/service"
	"storefront/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/jinzhu/copier"
)

// CreateOrder handles POST /payment/create-order.
func (h *Handler) CreateOrder(c *fiber.Ctx) error {
	input := c.Locals("input").(model.CreateOrderInput)

	customerID := middleware.CustomerID(c)
	if customerID == 0 {
		return utils.RenderCreateOrderFailed(c, input.OrderMethod, constants.MESSAGE_PLEASE_LOGIN)
	}

	var req service.CreateOrderRequest
	if err := copier.Copy(&req, &input); err != nil {
		return utils.RenderCreateOrderFailed(c, input.OrderMethod, constants.ERROR_INPUT)
	}
	req.CustomerID = customerID
	req.SessionID = middleware.SessionID(c)

	result, err := h.checkout.CreateOrder(c.UserContext(), req)
	if err != nil {
		log.Printf("Create order failed customer=%d method=%s: %v", customerID, input.OrderMethod, err)
		return utils.RenderCreateOrderFailed(c, input.OrderMethod, createOrderMessage(err))
	}

	if result.Checkout != nil {
		return c.Status(fiber.StatusOK).Render(constants.VIEW_CHECKOUT, fiber.Map{
			"title":    constants.TITLE_CONFIRM_ORDER,
			"checkout": result.Checkout,
		}, constants.VIEW_LAYOUT)
	}
	return c.Status(fiber.StatusOK).Render(constants.VIEW_CUSTOMER_ORDER, fiber.Map{
		"title":   constants.TITLE_MY_ORDERS,
		"history": result.History,
	}, constants.VIEW_LAYOUT)
}

func createOrderMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return constants.MESSAGE_MISSING_PHONE_ADDR
	case errors.Is(err, service.ErrCustomerNotFound):
		return constants.MESSAGE_PLEASE_LOGIN
	}
	return ""
}

// VerifyPayment handles POST /payment/verify, the gateway checkout callback.
func (h *Handler) VerifyPayment(c *fiber.Ctx) error {
	input := c.Locals("input").(model.VerifyPaymentInput)

	var req service.VerifyPaymentRequest
	if err := copier.Copy(&req, &input); err != nil {
		return utils.RenderVerifyFailed(c, "")
	}
	req.SessionID = middleware.SessionID(c)

	view, err := h.checkout.VerifyPayment(c.UserContext(), req)
	if err != nil {
		log.Printf("Verify payment failed gateway_order_id=%s: %v", input.RazorpayOrderID, err)
		switch {
		case errors.Is(err, service.ErrPaymentRecordNotFound):
			return utils.RenderVerifyFailed(c, constants.MESSAGE_PAYMENT_UNMATCHED)
		case errors.Is(err, service.ErrSignatureMismatch):
			return utils.RenderVerifyFailed(c, constants.MESSAGE_PAYMENT_REJECTED)
		}
		return utils.RenderVerifyFailed(c, "")
	}

	return c.Status(fiber.StatusOK).Render(constants.VIEW_PAYMENT_OK, fiber.Map{
		"title":   constants.TITLE_VERIFY_SUCCESS,
		"payment": view,
	}, constants.VIEW_LAYOUT)
}
