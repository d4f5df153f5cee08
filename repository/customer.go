package repository

import (
	"context"
	"errors"
	"storefront/model"

	"gorm.io/gorm"
)

type customerRepo struct {
	db *gorm.DB
}

func (r *customerRepo) FindByID(ctx context.Context, id uint) (*model.Customer, error) {
	var customer model.Customer
	if err := r.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &customer, nil
}
