package handler

import (
	"context"
	"storefront/realtime"
	"storefront/service"
)

// Checkout is the order and payment flow served by the HTTP layer.
type Checkout interface {
	CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error)
	VerifyPayment(ctx context.Context, req service.VerifyPaymentRequest) (*service.PaymentSuccessView, error)
	OrderHistory(ctx context.Context, customerID uint) (*service.OrderHistoryView, error)
}

type PingFunc func(ctx context.Context) error

type Handler struct {
	checkout Checkout
	hub      *realtime.Hub
	checks   map[string]PingFunc
}

func New(checkout Checkout, hub *realtime.Hub, checks map[string]PingFunc) *Handler {
	return &Handler{checkout: checkout, hub: hub, checks: checks}
}
