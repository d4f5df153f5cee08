package repository

import (
	"context"
	"storefront/service"

	"gorm.io/gorm"
)

// Store implements service.Store on top of GORM.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Orders() service.OrderRepo {
	return &orderRepo{db: s.db}
}

func (s *Store) Payments() service.PaymentRepo {
	return &paymentRepo{db: s.db}
}

func (s *Store) Customers() service.CustomerRepo {
	return &customerRepo{db: s.db}
}

func (s *Store) Transaction(ctx context.Context, fn func(tx service.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// Ping checks the underlying connection for /healthz.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
