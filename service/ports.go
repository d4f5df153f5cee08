package service

import (
	"context"
	"time"

	"storefront/model"
)

type OrderRepo interface {
	Create(ctx context.Context, order *model.Order) error
	FindByID(ctx context.Context, id uint) (*model.Order, error)
	ListByCustomer(ctx context.Context, customerID uint) ([]model.Order, error)
}

// PaymentRepo stores PendingPayment records. Lookups return (nil, nil) when
// nothing matches; MarkPaid returns ErrPaymentRecordNotFound instead.
type PaymentRepo interface {
	Create(ctx context.Context, payment *model.PaymentDetail) error
	FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*model.PaymentDetail, error)
	MarkPaid(ctx context.Context, gatewayOrderID string, update model.PaidUpdate) (*model.PaymentDetail, error)
	RecordLatePayment(ctx context.Context, gatewayOrderID string, update model.PaidUpdate) (bool, error)
	MarkStaleFailed(ctx context.Context, createdBefore time.Time) (int64, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
}

type CustomerRepo interface {
	FindByID(ctx context.Context, id uint) (*model.Customer, error)
}

// Store groups the repositories so they can share one transaction.
type Store interface {
	Orders() OrderRepo
	Payments() PaymentRepo
	Customers() CustomerRepo
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

type CartStore interface {
	Load(ctx context.Context, sessionID string) (*model.Cart, error)
	Clear(ctx context.Context, sessionID string) error
}

type Gateway interface {
	CreateOrder(ctx context.Context, req model.GatewayOrderRequest) (*model.GatewayOrder, error)
	KeyID() string
}

type Notifier interface {
	NotifyOrderPlaced(ctx context.Context, event model.OrderPlacedEvent) error
}

type Mailer interface {
	SendNewOrderMail(ctx context.Context, customer model.Customer, order model.Order) error
}

// Locker returns an unlock func once key is held.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}
