package validate

import (
	"errors"
	"log"
	"storefront/constants"
	"storefront/model"
	"storefront/utils"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

func CreateOrder() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input model.CreateOrderInput
		if err := c.BodyParser(&input); err != nil {
			return utils.RenderCreateOrderFailed(c, strings.ToLower(c.FormValue("orderMethod")), constants.ERROR_INPUT)
		}
		input.PhoneNumber = strings.TrimSpace(input.PhoneNumber)
		input.Address = strings.TrimSpace(input.Address)
		input.OrderMethod = strings.ToLower(strings.TrimSpace(input.OrderMethod))

		if err := validate.Struct(&input); err != nil {
			return utils.RenderCreateOrderFailed(c, input.OrderMethod, createOrderMessage(err))
		}
		if !utils.IsValidValueOfConstant(input.OrderMethod, constants.ORDER_METHODS) {
			return utils.RenderCreateOrderFailed(c, input.OrderMethod, constants.MESSAGE_INVALID_ORDER_METHOD)
		}

		c.Locals("input", input)
		return c.Next()
	}
}

func createOrderMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			switch fe.Field() {
			case "PhoneNumber", "Address":
				return constants.MESSAGE_MISSING_PHONE_ADDR
			case "OrderMethod":
				return constants.MESSAGE_INVALID_ORDER_METHOD
			}
		}
	}
	return constants.ERROR_INPUT
}

func VerifyPayment() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input model.VerifyPaymentInput
		if err := c.BodyParser(&input); err != nil {
			log.Printf("Verify payment parse failed: %v", err)
			return utils.RenderVerifyFailed(c, "")
		}

		if err := validate.Struct(&input); err != nil {
			log.Printf("Verify payment input invalid gateway_order_id=%s: %v", input.RazorpayOrderID, err)
			return utils.RenderVerifyFailed(c, "")
		}

		c.Locals("input", input)
		return c.Next()
	}
}
