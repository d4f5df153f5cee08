package model

import "time"

const (
	PaymentStatusCreated = "created"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

// PaymentDetail mirrors one gateway order. It starts as created and moves
// once, to paid on verification or to failed on reconciliation. A failed
// record still keeps the payment id of a late capture so it can be refunded.
type PaymentDetail struct {
	DTO
	GatewayOrderID   string      `gorm:"uniqueIndex;size:64;not null" json:"orderId"`
	ReceiptID        string      `gorm:"uniqueIndex;size:64;not null" json:"receiptId"`
	CustomerID       uint        `gorm:"not null;index" json:"customerId"`
	Amount           int64       `gorm:"not null" json:"amount"` // minor units
	Currency         string      `gorm:"size:8;not null" json:"currency"`
	Items            []OrderItem `gorm:"serializer:json" json:"items"`
	Phone            string      `gorm:"size:20" json:"phone"`
	Address          string      `gorm:"size:255" json:"address"`
	GatewayCreatedAt time.Time   `json:"gatewayCreatedAt"`
	Status           string      `gorm:"size:16;not null;default:created;index" json:"status"`
	PaymentID        *string     `gorm:"size:64" json:"paymentId,omitempty"`
	Signature        *string     `gorm:"size:128" json:"signature,omitempty"`
	LinkedOrderID    *uint       `gorm:"uniqueIndex" json:"productOrderId,omitempty"`
}

type PaidUpdate struct {
	PaymentID string
	Signature string
	OrderID   uint
}
