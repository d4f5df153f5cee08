package model

type CreateOrderInput struct {
	PhoneNumber string `form:"phoneNumber" json:"phoneNumber" validate:"required"`
	Address     string `form:"address" json:"address" validate:"required"`
	Amount      int64  `form:"amount" json:"amount" validate:"gte=0"`
	OrderMethod string `form:"orderMethod" json:"orderMethod" validate:"required"`
}

type VerifyPaymentInput struct {
	RazorpayOrderID   string `form:"razorpay_order_id" json:"razorpay_order_id" validate:"required"`
	RazorpayPaymentID string `form:"razorpay_payment_id" json:"razorpay_payment_id" validate:"required"`
	RazorpaySignature string `form:"razorpay_signature" json:"razorpay_signature" validate:"required"`
	OrderCustomerID   string `form:"order_customer_id" json:"order_customer_id" validate:"required"`
	OrderCartItems    string `form:"order_cart_items" json:"order_cart_items" validate:"required"`
	OrderPhone        string `form:"order_phone" json:"order_phone" validate:"required"`
	OrderAddress      string `form:"order_address" json:"order_address" validate:"required"`
}
