package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// CheckoutMetrics covers the checkout and payment verification flow.
type CheckoutMetrics struct {
	CreateOrderTotal   *prometheus.CounterVec // by method, result
	VerifyPaymentTotal *prometheus.CounterVec // by result
	GatewayDuration    prometheus.Histogram

	PendingPayments   prometheus.Gauge
	ReconciledTotal   prometheus.Counter
	LatePaymentsTotal prometheus.Counter
	NotifyFailedTotal *prometheus.CounterVec // by sink: notifier/mail/kafka

	LockAcquireTotal *prometheus.CounterVec // by result
}

// NewCheckoutMetrics registers the collectors on reg. A nil reg uses the
// default registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &CheckoutMetrics{
		CreateOrderTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "checkout_create_order_total",
				Help: "Total number of create-order requests",
			},
			[]string{"method", "result"}, // result: success/failed
		),
		VerifyPaymentTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "checkout_verify_payment_total",
				Help: "Total number of payment verifications",
			},
			[]string{"result"}, // result: paid/replayed/signature_mismatch/record_not_found/late_payment/failed
		),
		GatewayDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "checkout_gateway_duration_seconds",
				Help:    "Duration of payment gateway order creation",
				Buckets: prometheus.DefBuckets,
			},
		),
		PendingPayments: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "checkout_pending_payments",
				Help: "Number of payment records still in created status",
			},
		),
		ReconciledTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "checkout_reconciled_payments_total",
				Help: "Total number of stale payment records marked failed",
			},
		),
		LatePaymentsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "checkout_late_payments_total",
				Help: "Total number of payments captured after their record was marked failed",
			},
		),
		NotifyFailedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "checkout_notify_failed_total",
				Help: "Total number of failed order-placed side effects",
			},
			[]string{"sink"},
		),
		LockAcquireTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "checkout_lock_acquire_total",
				Help: "Total number of verification lock attempts",
			},
			[]string{"result"}, // result: success/failed
		),
	}
}

var (
	defaultMetrics *CheckoutMetrics
	initOnce       sync.Once
)

func InitMetrics() {
	initOnce.Do(func() {
		defaultMetrics = NewCheckoutMetrics(nil)
	})
}

// GetMetrics returns the process-wide instance.
func GetMetrics() *CheckoutMetrics {
	InitMetrics()
	return defaultMetrics
}
