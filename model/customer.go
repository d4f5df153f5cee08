package model

// Customer is the storefront identity resolved from the access token.
// Accounts are owned by the auth service; this service only reads them.
type Customer struct {
	DTO
	Email    string `gorm:"unique;not null" json:"email"`
	Phone    string `json:"phone"`
	UserName string `json:"username"`
	IsActive bool   `gorm:"default:true" json:"isActive"`
}

func (c Customer) DisplayName() string {
	if c.UserName != "" {
		return c.UserName
	}
	return c.Email
}
