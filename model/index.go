package model

import "time"

type TokenClaim struct {
	CustomerId uint   `json:"customerId"`
	Username   string `json:"username"`
	Role       string `json:"role,omitempty"`
}

type DTO struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
