package model

type RazorpayConfig struct {
	KeyID     string
	KeySecret string
}

type GatewayOrderRequest struct {
	Amount         int64  `json:"amount"` // minor units
	Currency       string `json:"currency"`
	Receipt        string `json:"receipt"`
	PaymentCapture bool   `json:"payment_capture"`
}

type GatewayOrder struct {
	ID        string `json:"id"`
	Receipt   string `json:"receipt"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	CreatedAt int64  `json:"created_at"` // unix seconds
	Status    string `json:"status"`
}
