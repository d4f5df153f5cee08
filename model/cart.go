package model

type Cart struct {
	Items      []OrderItem `json:"items"`
	TotalQty   int         `json:"totalQty"`
	TotalPrice int64       `json:"totalPrice"`
}

func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}
