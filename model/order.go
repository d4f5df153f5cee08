package model

const (
	PaymentTypeOnline = "online"
	PaymentTypeCOD    = "cod"
)

// OrderItem is one cart line carried into the order.
type OrderItem struct {
	SKU   string `json:"sku"`
	Name  string `json:"name,omitempty"`
	Qty   int    `json:"qty"`
	Price int64  `json:"price,omitempty"` // minor units per unit
}

type Order struct {
	DTO
	PublicCode  string      `gorm:"unique;size:20;not null" json:"orderCode"`
	CustomerID  uint        `gorm:"not null;index" json:"customerId"`
	Items       []OrderItem `gorm:"serializer:json" json:"items"`
	Phone       string      `gorm:"not null" json:"phone"`
	Address     string      `gorm:"not null" json:"address"`
	PaymentType string      `gorm:"size:16;not null" json:"paymentType"`
	Amount      int64       `json:"amount"` // minor units
}

func (o Order) TotalQty() int {
	total := 0
	for _, item := range o.Items {
		total += item.Qty
	}
	return total
}

// OrderPlacedEvent is broadcast to admin dashboards and the event bus.
type OrderPlacedEvent struct {
	OrderCode   string `json:"order_code"`
	CustomerID  uint   `json:"customer_id"`
	PaymentType string `json:"payment_type"`
	Amount      int64  `json:"amount"`
	PlacedAt    string `json:"placed_at"`
}
