package service

import (
	"context"
	"log"
	"storefront/metrics"
	"storefront/model"
	"time"
)

// Reconciler fails payment records that were never verified.
type Reconciler struct {
	payments PaymentRepo
	ttl      time.Duration
	metrics  *metrics.CheckoutMetrics
	now      func() time.Time
}

func NewReconciler(payments PaymentRepo, ttl time.Duration, m *metrics.CheckoutMetrics) *Reconciler {
	return &Reconciler{payments: payments, ttl: ttl, metrics: m, now: time.Now}
}

// ExpireStale marks created records older than the TTL as failed.
func (r *Reconciler) ExpireStale(ctx context.Context) (int64, error) {
	cutoff := r.now().Add(-r.ttl)
	n, err := r.payments.MarkStaleFailed(ctx, cutoff)
	if err != nil {
		log.Printf("Reconcile stale payments failed: %v", err)
		return 0, err
	}
	if n > 0 {
		log.Printf("Reconciled %d stale payment records created before %s", n, cutoff.Format(time.RFC3339))
		if r.metrics != nil {
			r.metrics.ReconciledTotal.Add(float64(n))
		}
	}
	return n, nil
}

// RefreshPendingGauge publishes the number of created records.
func (r *Reconciler) RefreshPendingGauge(ctx context.Context) error {
	n, err := r.payments.CountByStatus(ctx, model.PaymentStatusCreated)
	if err != nil {
		log.Printf("Count pending payments failed: %v", err)
		return err
	}
	if r.metrics != nil {
		r.metrics.PendingPayments.Set(float64(n))
	}
	return nil
}
