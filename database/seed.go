package database

import (
	"log"
	"storefront/model"

	"gorm.io/gorm"
)

// SeedData creates the demo shopper used by local checkouts.
func SeedData(db *gorm.DB) {
	customers := []model.Customer{
		{Email: "demo@storefront.local", Phone: "9999999999", UserName: "Demo Shopper", IsActive: true},
	}

	for _, customer := range customers {
		if err := db.Where(model.Customer{Email: customer.Email}).FirstOrCreate(&customer).Error; err != nil {
			log.Println("failed to seed data for customer:", customer.Email, "error:", err)
		}
	}
}
