package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"storefront/database"
	"storefront/metrics"
	"storefront/model"
	"storefront/repository"
	"storefront/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	testKeyID     = "rzp_test_key"
	testSecret    = "rzp_test_secret"
	testSessionID = "sess-1"
)

type fakeGateway struct {
	mu       sync.Mutex
	requests []model.GatewayOrderRequest
	err      error
}

func (g *fakeGateway) CreateOrder(_ context.Context, req model.GatewayOrderRequest) (*model.GatewayOrder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	if g.err != nil {
		return nil, g.err
	}
	return &model.GatewayOrder{
		ID:        fmt.Sprintf("order_%d", len(g.requests)),
		Receipt:   req.Receipt,
		Amount:    req.Amount,
		Currency:  req.Currency,
		CreatedAt: time.Now().Unix(),
		Status:    "created",
	}, nil
}

func (g *fakeGateway) KeyID() string { return testKeyID }

type fakeNotifier struct {
	mu     sync.Mutex
	events []model.OrderPlacedEvent
	err    error
	panics bool
}

func (n *fakeNotifier) NotifyOrderPlaced(_ context.Context, event model.OrderPlacedEvent) error {
	if n.panics {
		panic("notifier exploded")
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return n.err
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []model.Order
	to   []string
	err  error
}

func (m *fakeMailer) SendNewOrderMail(_ context.Context, customer model.Customer, order model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, order)
	m.to = append(m.to, customer.Email)
	return nil
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type fixture struct {
	svc      *service.CheckoutService
	deps     service.Dependencies
	db       *gorm.DB
	carts    *repository.CartStore
	gateway  *fakeGateway
	notifier *fakeNotifier
	mailer   *fakeMailer
	metrics  *metrics.CheckoutMetrics
	customer model.Customer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	customer := model.Customer{Email: "asha@example.com", UserName: "Asha", Phone: "9876543210", IsActive: true}
	require.NoError(t, db.Create(&customer).Error)

	f := &fixture{
		db:       db,
		carts:    repository.NewCartStore(rdb),
		gateway:  &fakeGateway{},
		notifier: &fakeNotifier{},
		mailer:   &fakeMailer{},
		metrics:  metrics.NewCheckoutMetrics(prometheus.NewRegistry()),
		customer: customer,
	}
	f.deps = service.Dependencies{
		Store:       repository.NewStore(db),
		Carts:       f.carts,
		Gateway:     f.gateway,
		Notifier:    f.notifier,
		Mailer:      f.mailer,
		Locker:      repository.NewRedisLocker(rdb, 5*time.Second, f.metrics),
		Metrics:     f.metrics,
		KeySecret:   testSecret,
		Currency:    "INR",
		MailTimeout: time.Second,
	}
	f.svc = service.NewCheckoutService(f.deps)

	require.NoError(t, f.carts.Save(context.Background(), testSessionID, &model.Cart{
		Items: []model.OrderItem{
			{SKU: "pizza-margherita", Name: "Margherita", Qty: 2, Price: 25000},
		},
		TotalQty:   2,
		TotalPrice: 50000,
	}))
	return f
}

func (f *fixture) count(t *testing.T, m interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(m).Count(&n).Error)
	return n
}

func (f *fixture) cartItemsJSON(t *testing.T) string {
	t.Helper()
	raw, err := json.Marshal([]model.OrderItem{{SKU: "pizza-margherita", Name: "Margherita", Qty: 2, Price: 25000}})
	require.NoError(t, err)
	return string(raw)
}

func (f *fixture) verifyRequest(t *testing.T, gatewayOrderID, paymentID string) service.VerifyPaymentRequest {
	return service.VerifyPaymentRequest{
		SessionID:         testSessionID,
		RazorpayOrderID:   gatewayOrderID,
		RazorpayPaymentID: paymentID,
		RazorpaySignature: service.Sign(gatewayOrderID, paymentID, testSecret),
		OrderCustomerID:   fmt.Sprint(f.customer.ID),
		OrderCartItems:    f.cartItemsJSON(t),
		OrderPhone:        "9876543210",
		OrderAddress:      "12 MG Road",
	}
}

func (f *fixture) startOnline(t *testing.T) *service.CheckoutView {
	t.Helper()
	result, err := f.svc.CreateOrder(context.Background(), service.CreateOrderRequest{
		CustomerID:  f.customer.ID,
		SessionID:   testSessionID,
		PhoneNumber: "9876543210",
		Address:     "12 MG Road",
		Amount:      500,
		OrderMethod: "online",
	})
	require.NoError(t, err)
	require.NotNil(t, result.Checkout)
	return result.Checkout
}

func TestCreateOrderCashOnDelivery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.svc.CreateOrder(ctx, service.CreateOrderRequest{
		CustomerID:  f.customer.ID,
		SessionID:   testSessionID,
		PhoneNumber: " 9876543210 ",
		Address:     "12 MG Road",
		OrderMethod: "cod",
	})
	require.NoError(t, err)
	require.NotNil(t, result.History)
	assert.Equal(t, "cod", result.Method)
	require.Len(t, result.History.Orders, 1)

	row := result.History.Orders[0]
	assert.Equal(t, result.History.PlacedCode, row.Code)
	assert.Regexp(t, `^ORD-[0-9A-F]{8}$`, row.Code)
	assert.Equal(t, "cod", row.PaymentType)
	assert.Equal(t, "9876543210", row.Phone)
	assert.Equal(t, 2, row.TotalQty)
	assert.Equal(t, "₹500.00", row.AmountText)
	assert.NotEmpty(t, row.CreatedAtText)

	assert.Equal(t, int64(1), f.count(t, &model.Order{}))
	assert.Equal(t, int64(0), f.count(t, &model.PaymentDetail{}))
	assert.Empty(t, f.gateway.requests)
	assert.Equal(t, 1, f.notifier.count())
	assert.Equal(t, row.Code, f.notifier.events[0].OrderCode)
	assert.Equal(t, 1, f.mailer.count())
	assert.Equal(t, []string{"asha@example.com"}, f.mailer.to)

	cart, err := f.carts.Load(ctx, testSessionID)
	require.NoError(t, err)
	assert.Nil(t, cart)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CreateOrderTotal.WithLabelValues("cod", "success")))
}

func TestCreateOrderHistoryIsNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	older := model.Order{PublicCode: "ORD-OLD00001", CustomerID: f.customer.ID, Phone: "1", Address: "x", PaymentType: "cod"}
	older.CreatedAt = time.Now().Add(-24 * time.Hour)
	require.NoError(t, f.db.Create(&older).Error)

	result, err := f.svc.CreateOrder(ctx, service.CreateOrderRequest{
		CustomerID: f.customer.ID, SessionID: testSessionID, PhoneNumber: "1", Address: "x", OrderMethod: "cod",
	})
	require.NoError(t, err)
	require.Len(t, result.History.Orders, 2)
	assert.Equal(t, result.History.PlacedCode, result.History.Orders[0].Code)
	assert.Equal(t, "ORD-OLD00001", result.History.Orders[1].Code)
}

func TestCreateOrderOnlineCreatesPendingPayment(t *testing.T) {
	f := newFixture(t)

	view := f.startOnline(t)

	require.Len(t, f.gateway.requests, 1)
	req := f.gateway.requests[0]
	assert.Equal(t, int64(50000), req.Amount)
	assert.Equal(t, "INR", req.Currency)
	assert.True(t, req.PaymentCapture)
	assert.NotEmpty(t, req.Receipt)

	var payments []model.PaymentDetail
	require.NoError(t, f.db.Find(&payments).Error)
	require.Len(t, payments, 1)
	assert.Equal(t, model.PaymentStatusCreated, payments[0].Status)
	assert.Equal(t, int64(50000), payments[0].Amount)
	assert.Equal(t, req.Receipt, payments[0].ReceiptID)
	assert.Equal(t, f.customer.ID, payments[0].CustomerID)
	assert.Nil(t, payments[0].PaymentID)
	assert.Equal(t, "12 MG Road", payments[0].Address)
	require.Len(t, payments[0].Items, 1)
	assert.Equal(t, "pizza-margherita", payments[0].Items[0].SKU)

	assert.Equal(t, testKeyID, view.KeyID)
	assert.Equal(t, "order_1", view.GatewayOrderID)
	assert.Equal(t, "₹500.00", view.AmountText)
	assert.Equal(t, fmt.Sprint(f.customer.ID), view.CustomerID)
	assert.Equal(t, "12 MG Road", view.Address)
	assert.JSONEq(t, f.cartItemsJSON(t), view.CartItemsJSON)

	assert.Equal(t, int64(0), f.count(t, &model.Order{}))
	assert.Equal(t, 0, f.notifier.count())
}

func TestVerifyPaymentMarksRecordPaid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	checkout := f.startOnline(t)

	view, err := f.svc.VerifyPayment(ctx, f.verifyRequest(t, checkout.GatewayOrderID, "pay_1"))
	require.NoError(t, err)
	assert.False(t, view.Replayed)
	assert.Equal(t, model.PaymentStatusPaid, view.Payment.Status)
	assert.Equal(t, "₹500.00", view.AmountText)
	assert.NotEmpty(t, view.CreatedAtText)
	assert.NotEmpty(t, view.OrderCode)
	assert.Contains(t, view.QRCode, "data:image/png;base64,")

	var order model.Order
	require.NoError(t, f.db.Where("public_code = ?", view.OrderCode).First(&order).Error)
	assert.Equal(t, model.PaymentTypeOnline, order.PaymentType)
	assert.Equal(t, int64(50000), order.Amount)
	require.Len(t, order.Items, 1)

	var payment model.PaymentDetail
	require.NoError(t, f.db.Where("gateway_order_id = ?", checkout.GatewayOrderID).First(&payment).Error)
	assert.Equal(t, model.PaymentStatusPaid, payment.Status)
	require.NotNil(t, payment.LinkedOrderID)
	assert.Equal(t, order.ID, *payment.LinkedOrderID)
	assert.Equal(t, "pay_1", *payment.PaymentID)

	assert.Equal(t, 1, f.notifier.count())
	assert.Equal(t, 1, f.mailer.count())
	cart, err := f.carts.Load(ctx, testSessionID)
	require.NoError(t, err)
	assert.Nil(t, cart)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.VerifyPaymentTotal.WithLabelValues("paid")))
}

func TestVerifyPaymentReplayIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	checkout := f.startOnline(t)
	req := f.verifyRequest(t, checkout.GatewayOrderID, "pay_1")

	first, err := f.svc.VerifyPayment(ctx, req)
	require.NoError(t, err)
	second, err := f.svc.VerifyPayment(ctx, req)
	require.NoError(t, err)

	assert.True(t, second.Replayed)
	assert.Equal(t, first.OrderCode, second.OrderCode)
	assert.Equal(t, int64(1), f.count(t, &model.Order{}))
	assert.Equal(t, 1, f.notifier.count())
	assert.Equal(t, 1, f.mailer.count())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.VerifyPaymentTotal.WithLabelValues("replayed")))
}

func TestVerifyPaymentConcurrentReplays(t *testing.T) {
	f := newFixture(t)
	checkout := f.startOnline(t)
	req := f.verifyRequest(t, checkout.GatewayOrderID, "pay_1")

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.VerifyPayment(context.Background(), req)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int64(1), f.count(t, &model.Order{}))
	assert.Equal(t, 1, f.notifier.count())
}

func TestVerifyPaymentRejectsSecondPaymentForPaidOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	checkout := f.startOnline(t)

	_, err := f.svc.VerifyPayment(ctx, f.verifyRequest(t, checkout.GatewayOrderID, "pay_1"))
	require.NoError(t, err)
	_, err = f.svc.VerifyPayment(ctx, f.verifyRequest(t, checkout.GatewayOrderID, "pay_2"))
	assert.ErrorIs(t, err, service.ErrVerificationFailed)
	assert.Equal(t, int64(1), f.count(t, &model.Order{}))
}

func TestVerifyPaymentTamperedSignature(t *testing.T) {
	f := newFixture(t)
	checkout := f.startOnline(t)

	req := f.verifyRequest(t, checkout.GatewayOrderID, "pay_1")
	req.RazorpaySignature = service.Sign(checkout.GatewayOrderID, "pay_1", "not-the-secret")

	view, err := f.svc.VerifyPayment(context.Background(), req)
	assert.Nil(t, view)
	assert.ErrorIs(t, err, service.ErrSignatureMismatch)

	var payment model.PaymentDetail
	require.NoError(t, f.db.Where("gateway_order_id = ?", checkout.GatewayOrderID).First(&payment).Error)
	assert.Equal(t, model.PaymentStatusCreated, payment.Status)
	assert.Equal(t, int64(0), f.count(t, &model.Order{}))
	assert.Equal(t, 0, f.notifier.count())
	assert.Equal(t, 0, f.mailer.count())
}

func TestVerifyPaymentWithoutPaymentRecord(t *testing.T) {
	f := newFixture(t)

	view, err := f.svc.VerifyPayment(context.Background(), f.verifyRequest(t, "order_unknown", "pay_1"))
	assert.Nil(t, view)
	assert.ErrorIs(t, err, service.ErrPaymentRecordNotFound)

	assert.Equal(t, int64(1), f.count(t, &model.Order{}))
	assert.Equal(t, 0, f.notifier.count())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.VerifyPaymentTotal.WithLabelValues("record_not_found")))
}

func TestVerifyPaymentRejectsMalformedInput(t *testing.T) {
	f := newFixture(t)
	checkout := f.startOnline(t)

	bad := f.verifyRequest(t, checkout.GatewayOrderID, "pay_1")
	bad.OrderCartItems = "{not json"
	_, err := f.svc.VerifyPayment(context.Background(), bad)
	assert.ErrorIs(t, err, service.ErrVerificationFailed)

	unknown := f.verifyRequest(t, checkout.GatewayOrderID, "pay_1")
	unknown.OrderCustomerID = "4242"
	_, err = f.svc.VerifyPayment(context.Background(), unknown)
	assert.ErrorIs(t, err, service.ErrVerificationFailed)
	assert.ErrorIs(t, err, service.ErrCustomerNotFound)

	assert.Equal(t, int64(0), f.count(t, &model.Order{}))
}

func TestVerifyPaymentKeepsLatePaymentOnExpiredRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	checkout := f.startOnline(t)
	require.NoError(t, f.db.Model(&model.PaymentDetail{}).
		Where("gateway_order_id = ?", checkout.GatewayOrderID).
		Update("status", model.PaymentStatusFailed).Error)

	req := f.verifyRequest(t, checkout.GatewayOrderID, "pay_late")
	_, err := f.svc.VerifyPayment(ctx, req)
	assert.ErrorIs(t, err, service.ErrVerificationFailed)
	assert.ErrorIs(t, err, service.ErrPaymentExpired)
	assert.Equal(t, int64(0), f.count(t, &model.Order{}))

	var payment model.PaymentDetail
	require.NoError(t, f.db.Where("gateway_order_id = ?", checkout.GatewayOrderID).First(&payment).Error)
	assert.Equal(t, model.PaymentStatusFailed, payment.Status)
	require.NotNil(t, payment.PaymentID)
	assert.Equal(t, "pay_late", *payment.PaymentID)
	require.NotNil(t, payment.Signature)
	assert.Equal(t, req.RazorpaySignature, *payment.Signature)
	assert.Nil(t, payment.LinkedOrderID)

	// a replay does not overwrite or double count
	_, err = f.svc.VerifyPayment(ctx, req)
	assert.ErrorIs(t, err, service.ErrPaymentExpired)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.LatePaymentsTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.VerifyPaymentTotal.WithLabelValues("late_payment")))
}

func TestVerifyPaymentRejectsEverythingWithoutSecret(t *testing.T) {
	f := newFixture(t)
	deps := f.deps
	deps.KeySecret = ""
	svc := service.NewCheckoutService(deps)

	req := f.verifyRequest(t, "order_forged", "pay_forged")
	req.RazorpaySignature = service.Sign("order_forged", "pay_forged", "")

	view, err := svc.VerifyPayment(context.Background(), req)
	assert.Nil(t, view)
	assert.ErrorIs(t, err, service.ErrSignatureMismatch)
	assert.Equal(t, int64(0), f.count(t, &model.Order{}))
	assert.Equal(t, 0, f.mailer.count())
	assert.Equal(t, 0, f.notifier.count())
}

func TestVerifyPaymentUsesStoredCheckout(t *testing.T) {
	f := newFixture(t)
	checkout := f.startOnline(t)

	req := f.verifyRequest(t, checkout.GatewayOrderID, "pay_1")
	req.OrderCartItems = `[{"sku":"gold-bar","name":"Gold bar","qty":50,"price":1}]`
	req.OrderPhone = "0000000000"
	req.OrderAddress = "Somewhere else"

	view, err := f.svc.VerifyPayment(context.Background(), req)
	require.NoError(t, err)

	var order model.Order
	require.NoError(t, f.db.Where("public_code = ?", view.OrderCode).First(&order).Error)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "pizza-margherita", order.Items[0].SKU)
	assert.Equal(t, 2, order.Items[0].Qty)
	assert.Equal(t, "9876543210", order.Phone)
	assert.Equal(t, "12 MG Road", order.Address)
	assert.Equal(t, int64(50000), order.Amount)
}

func TestCreateOrderRequiresPhoneAndAddress(t *testing.T) {
	for _, method := range []string{"online", "cod"} {
		t.Run(method, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.CreateOrder(context.Background(), service.CreateOrderRequest{
				CustomerID:  f.customer.ID,
				SessionID:   testSessionID,
				PhoneNumber: "",
				Address:     "12 MG Road",
				Amount:      500,
				OrderMethod: method,
			})
			require.Error(t, err)
			assert.ErrorIs(t, err, service.ErrInvalidInput)
			if method == "online" {
				assert.ErrorIs(t, err, service.ErrCheckoutFailed)
			} else {
				assert.ErrorIs(t, err, service.ErrOrderPlacement)
			}

			assert.Empty(t, f.gateway.requests)
			assert.Equal(t, int64(0), f.count(t, &model.Order{}))
			assert.Equal(t, int64(0), f.count(t, &model.PaymentDetail{}))
			cart, err := f.carts.Load(context.Background(), testSessionID)
			require.NoError(t, err)
			assert.NotNil(t, cart)
		})
	}
}

func TestCreateOrderRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := service.CreateOrderRequest{
		CustomerID: f.customer.ID, SessionID: testSessionID, PhoneNumber: "1", Address: "x", Amount: 500,
	}

	req := base
	req.OrderMethod = "card"
	_, err := f.svc.CreateOrder(ctx, req)
	assert.ErrorIs(t, err, service.ErrOrderPlacement)
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	req = base
	req.OrderMethod = "online"
	req.Amount = 0
	_, err = f.svc.CreateOrder(ctx, req)
	assert.ErrorIs(t, err, service.ErrCheckoutFailed)

	req = base
	req.OrderMethod = "cod"
	req.SessionID = "empty-session"
	_, err = f.svc.CreateOrder(ctx, req)
	assert.ErrorIs(t, err, service.ErrEmptyCart)

	req = base
	req.OrderMethod = "cod"
	req.CustomerID = 0
	_, err = f.svc.CreateOrder(ctx, req)
	assert.ErrorIs(t, err, service.ErrCustomerNotFound)

	assert.Empty(t, f.gateway.requests)
	assert.Equal(t, int64(0), f.count(t, &model.Order{}))
}

func TestCreateOrderGatewayFailure(t *testing.T) {
	f := newFixture(t)
	f.gateway.err = errors.New("gateway timeout")

	_, err := f.svc.CreateOrder(context.Background(), service.CreateOrderRequest{
		CustomerID: f.customer.ID, SessionID: testSessionID, PhoneNumber: "1", Address: "x", Amount: 500, OrderMethod: "online",
	})
	assert.ErrorIs(t, err, service.ErrCheckoutFailed)
	assert.Equal(t, int64(0), f.count(t, &model.PaymentDetail{}))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CreateOrderTotal.WithLabelValues("online", "failed")))
}

func TestCreateOrderIsolatesSideEffectFailures(t *testing.T) {
	f := newFixture(t)
	f.mailer.err = errors.New("smtp down")
	f.notifier.panics = true

	result, err := f.svc.CreateOrder(context.Background(), service.CreateOrderRequest{
		CustomerID: f.customer.ID, SessionID: testSessionID, PhoneNumber: "1", Address: "x", OrderMethod: "cod",
	})
	require.NoError(t, err)
	assert.Len(t, result.History.Orders, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.NotifyFailedTotal.WithLabelValues("mail")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.NotifyFailedTotal.WithLabelValues("notifier")))
}

func TestOrderHistoryEmpty(t *testing.T) {
	f := newFixture(t)
	history, err := f.svc.OrderHistory(context.Background(), f.customer.ID)
	require.NoError(t, err)
	assert.Empty(t, history.Orders)
}
