package service

import "storefront/model"

// CheckoutView feeds payment/checkout, which opens the gateway widget and
// posts the result back to /payment/verify.
type CheckoutView struct {
	KeyID          string
	Payment        *model.PaymentDetail
	AmountText     string
	Phone          string
	Address        string
	CustomerID     string
	CustomerName   string
	CustomerEmail  string
	CartItemsJSON  string
	GatewayOrderID string
}

type OrderRow struct {
	Code          string
	CreatedAtText string
	PaymentType   string
	Items         []model.OrderItem
	TotalQty      int
	AmountText    string
	Phone         string
	Address       string
}

type OrderHistoryView struct {
	Orders     []OrderRow
	PlacedCode string
}

type PaymentSuccessView struct {
	Payment       *model.PaymentDetail
	OrderCode     string
	AmountText    string
	CreatedAtText string
	PaidAtText    string
	QRCode        string
	Replayed      bool
}

type CreateOrderResult struct {
	Method   string
	Checkout *CheckoutView
	History  *OrderHistoryView
}
