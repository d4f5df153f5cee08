package database

import (
	"fmt"
	"log"
	"storefront/config"
	"storefront/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func ConnectDB(cfg config.Database) *gorm.DB {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable", cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		panic("failed to connect database")
	}

	log.Println("Connection Opened to Database")
	if err := Migrate(db); err != nil {
		panic("failed to migrate database: " + err.Error())
	}
	log.Println("Database Migrated")

	DB = db
	return db
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Customer{},
		&model.Order{},
		&model.PaymentDetail{},
	)
}
