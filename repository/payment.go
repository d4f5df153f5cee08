package repository

import (
	"context"
	"errors"
	"storefront/model"
	"storefront/service"
	"time"

	"gorm.io/gorm"
)

type paymentRepo struct {
	db *gorm.DB
}

func (r *paymentRepo) Create(ctx context.Context, payment *model.PaymentDetail) error {
	if payment.Status == "" {
		payment.Status = model.PaymentStatusCreated
	}
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *paymentRepo) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*model.PaymentDetail, error) {
	var payment model.PaymentDetail
	if err := r.db.WithContext(ctx).Where("gateway_order_id = ?", gatewayOrderID).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

// MarkPaid moves a created record to paid and returns the updated row.
// Records that are missing or no longer created yield ErrPaymentRecordNotFound.
func (r *paymentRepo) MarkPaid(ctx context.Context, gatewayOrderID string, update model.PaidUpdate) (*model.PaymentDetail, error) {
	res := r.db.WithContext(ctx).Model(&model.PaymentDetail{}).
		Where("gateway_order_id = ? AND status = ?", gatewayOrderID, model.PaymentStatusCreated).
		Updates(map[string]interface{}{
			"payment_id":      update.PaymentID,
			"signature":       update.Signature,
			"linked_order_id": update.OrderID,
			"status":          model.PaymentStatusPaid,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, service.ErrPaymentRecordNotFound
	}

	var payment model.PaymentDetail
	if err := r.db.WithContext(ctx).Where("gateway_order_id = ?", gatewayOrderID).First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// RecordLatePayment stores the first payment captured against a failed
// record. It reports false when the record is not failed or already holds one.
func (r *paymentRepo) RecordLatePayment(ctx context.Context, gatewayOrderID string, update model.PaidUpdate) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.PaymentDetail{}).
		Where("gateway_order_id = ? AND status = ? AND payment_id IS NULL", gatewayOrderID, model.PaymentStatusFailed).
		Updates(map[string]interface{}{
			"payment_id": update.PaymentID,
			"signature":  update.Signature,
		})
	return res.RowsAffected > 0, res.Error
}

// MarkStaleFailed fails created records older than createdBefore.
func (r *paymentRepo) MarkStaleFailed(ctx context.Context, createdBefore time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.PaymentDetail{}).
		Where("status = ? AND created_at < ?", model.PaymentStatusCreated, createdBefore).
		Update("status", model.PaymentStatusFailed)
	return res.RowsAffected, res.Error
}

func (r *paymentRepo) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.PaymentDetail{}).Where("status = ?", status).Count(&count).Error
	return count, err
}
