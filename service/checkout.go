package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"storefront/constants"
	"storefront/metrics"
	"storefront/model"
	"storefront/utils"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

const qrCodeSize = 256

var errStatusChanged = errors.New("payment record changed during verification")

type Dependencies struct {
	Store       Store
	Carts       CartStore
	Gateway     Gateway
	Notifier    Notifier
	Mailer      Mailer
	Locker      Locker
	Metrics     *metrics.CheckoutMetrics
	KeySecret   string
	Currency    string
	MailTimeout time.Duration
	Now         func() time.Time
}

// CheckoutService runs order placement and gateway payment verification.
type CheckoutService struct {
	store       Store
	carts       CartStore
	gateway     Gateway
	notifier    Notifier
	mailer      Mailer
	locker      Locker
	metrics     *metrics.CheckoutMetrics
	keySecret   string
	currency    string
	mailTimeout time.Duration
	now         func() time.Time
}

func NewCheckoutService(deps Dependencies) *CheckoutService {
	s := &CheckoutService{
		store:       deps.Store,
		carts:       deps.Carts,
		gateway:     deps.Gateway,
		notifier:    deps.Notifier,
		mailer:      deps.Mailer,
		locker:      deps.Locker,
		metrics:     deps.Metrics,
		keySecret:   deps.KeySecret,
		currency:    deps.Currency,
		mailTimeout: deps.MailTimeout,
		now:         deps.Now,
	}
	if s.currency == "" {
		s.currency = "INR"
	}
	if s.mailTimeout <= 0 {
		s.mailTimeout = 10 * time.Second
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

type CreateOrderRequest struct {
	CustomerID  uint
	SessionID   string
	PhoneNumber string
	Address     string
	Amount      int64 // major units
	OrderMethod string
}

type VerifyPaymentRequest struct {
	SessionID         string
	RazorpayOrderID   string
	RazorpayPaymentID string
	RazorpaySignature string
	OrderCustomerID   string
	OrderCartItems    string
	OrderPhone        string
	OrderAddress      string
}

// CreateOrder starts an online checkout or places a cash-on-delivery order.
// Online failures wrap ErrCheckoutFailed, all others ErrOrderPlacement.
func (s *CheckoutService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	method := strings.ToLower(strings.TrimSpace(req.OrderMethod))
	result, err := s.createOrder(ctx, method, req)
	s.countCreate(method, err)
	return result, err
}

func (s *CheckoutService) createOrder(ctx context.Context, method string, req CreateOrderRequest) (*CreateOrderResult, error) {
	failure := ErrOrderPlacement
	if method == constants.ORDER_METHOD_ONLINE {
		failure = ErrCheckoutFailed
	}
	if !utils.IsValidValueOfConstant(method, constants.ORDER_METHODS) {
		return nil, fmt.Errorf("%w: %w: unknown order method %q", failure, ErrInvalidInput, req.OrderMethod)
	}

	phone := strings.TrimSpace(req.PhoneNumber)
	address := strings.TrimSpace(req.Address)
	if phone == "" || address == "" {
		return nil, fmt.Errorf("%w: %w: %s", failure, ErrInvalidInput, constants.MESSAGE_MISSING_PHONE_ADDR)
	}
	if method == constants.ORDER_METHOD_ONLINE && req.Amount <= 0 {
		return nil, fmt.Errorf("%w: %w: amount must be positive", failure, ErrInvalidInput)
	}

	customer, err := s.resolveCustomer(ctx, req.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", failure, err)
	}

	cart, err := s.carts.Load(ctx, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: load cart: %w", failure, err)
	}
	if cart.IsEmpty() {
		return nil, fmt.Errorf("%w: %w", failure, ErrEmptyCart)
	}

	if method == constants.ORDER_METHOD_ONLINE {
		return s.startOnlineCheckout(ctx, customer, cart, phone, address, req.Amount)
	}
	return s.placeOrder(ctx, customer, cart, req.SessionID, method, phone, address, req.Amount)
}

func (s *CheckoutService) startOnlineCheckout(ctx context.Context, customer *model.Customer, cart *model.Cart, phone, address string, amount int64) (*CreateOrderResult, error) {
	itemsJSON, err := json.Marshal(cart.Items)
	if err != nil {
		return nil, fmt.Errorf("%w: encode cart: %w", ErrCheckoutFailed, err)
	}

	gwReq := model.GatewayOrderRequest{
		Amount:         amount * 100,
		Currency:       s.currency,
		Receipt:        uuid.NewString(),
		PaymentCapture: true,
	}
	start := time.Now()
	gwOrder, err := s.gateway.CreateOrder(ctx, gwReq)
	if s.metrics != nil {
		s.metrics.GatewayDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		log.Printf("Gateway order create failed receipt=%s: %v", gwReq.Receipt, err)
		return nil, fmt.Errorf("%w: %w", ErrCheckoutFailed, err)
	}

	payment := &model.PaymentDetail{
		GatewayOrderID:   gwOrder.ID,
		ReceiptID:        firstNonEmpty(gwOrder.Receipt, gwReq.Receipt),
		CustomerID:       customer.ID,
		Amount:           gwOrder.Amount,
		Currency:         firstNonEmpty(gwOrder.Currency, gwReq.Currency),
		Items:            cart.Items,
		Phone:            phone,
		Address:          address,
		GatewayCreatedAt: s.now(),
		Status:           model.PaymentStatusCreated,
	}
	if payment.Amount == 0 {
		payment.Amount = gwReq.Amount
	}
	if gwOrder.CreatedAt > 0 {
		payment.GatewayCreatedAt = time.Unix(gwOrder.CreatedAt, 0)
	}
	if err := s.store.Payments().Create(ctx, payment); err != nil {
		log.Printf("Save payment record failed gateway_order_id=%s: %v", gwOrder.ID, err)
		return nil, fmt.Errorf("%w: %w", ErrCheckoutFailed, err)
	}

	view := &CheckoutView{
		KeyID:          s.gateway.KeyID(),
		Payment:        payment,
		AmountText:     utils.FormatAmount(payment.Amount, payment.Currency),
		Phone:          phone,
		Address:        address,
		CustomerID:     strconv.FormatUint(uint64(customer.ID), 10),
		CustomerName:   customer.DisplayName(),
		CustomerEmail:  customer.Email,
		CartItemsJSON:  string(itemsJSON),
		GatewayOrderID: payment.GatewayOrderID,
	}
	return &CreateOrderResult{Method: constants.ORDER_METHOD_ONLINE, Checkout: view}, nil
}

func (s *CheckoutService) placeOrder(ctx context.Context, customer *model.Customer, cart *model.Cart, sessionID, method, phone, address string, amount int64) (*CreateOrderResult, error) {
	order := &model.Order{
		PublicCode:  newOrderCode(),
		CustomerID:  customer.ID,
		Items:       cart.Items,
		Phone:       phone,
		Address:     address,
		PaymentType: method,
		Amount:      amount * 100,
	}
	if order.Amount <= 0 {
		order.Amount = cart.TotalPrice
	}
	if err := s.store.Orders().Create(ctx, order); err != nil {
		log.Printf("Create order failed customer=%d: %v", customer.ID, err)
		return nil, fmt.Errorf("%w: %w", ErrOrderPlacement, err)
	}

	s.clearCart(ctx, sessionID)
	s.announce(ctx, *order)
	s.sendMail(ctx, *customer, *order)

	history, err := s.OrderHistory(ctx, customer.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOrderPlacement, err)
	}
	history.PlacedCode = order.PublicCode
	return &CreateOrderResult{Method: method, History: history}, nil
}

// OrderHistory lists the customer's orders, newest first.
func (s *CheckoutService) OrderHistory(ctx context.Context, customerID uint) (*OrderHistoryView, error) {
	orders, err := s.store.Orders().ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	rows := make([]OrderRow, 0, len(orders))
	for i := range orders {
		var row OrderRow
		if err := copier.Copy(&row, &orders[i]); err != nil {
			return nil, err
		}
		row.Code = orders[i].PublicCode
		row.CreatedAtText = utils.FormatDateTime(orders[i].CreatedAt)
		row.TotalQty = orders[i].TotalQty()
		if orders[i].Amount > 0 {
			row.AmountText = utils.FormatAmount(orders[i].Amount, s.currency)
		}
		rows = append(rows, row)
	}
	return &OrderHistoryView{Orders: rows}, nil
}

// VerifyPayment checks the gateway callback signature and turns the
// matching created payment record into a paid order. Replays of an already
// paid record return the original result without writing.
func (s *CheckoutService) VerifyPayment(ctx context.Context, req VerifyPaymentRequest) (*PaymentSuccessView, error) {
	view, err := s.verifyPayment(ctx, req)
	s.countVerify(view, err)
	return view, err
}

func (s *CheckoutService) verifyPayment(ctx context.Context, req VerifyPaymentRequest) (*PaymentSuccessView, error) {
	if !VerifySignature(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature, s.keySecret) {
		log.Printf("Signature mismatch gateway_order_id=%s", req.RazorpayOrderID)
		return nil, ErrSignatureMismatch
	}

	var items []model.OrderItem
	if err := json.Unmarshal([]byte(req.OrderCartItems), &items); err != nil {
		return nil, fmt.Errorf("%w: decode cart items: %w", ErrVerificationFailed, err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrVerificationFailed, ErrEmptyCart)
	}
	customerID, err := strconv.ParseUint(strings.TrimSpace(req.OrderCustomerID), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %w: customer id", ErrVerificationFailed, ErrInvalidInput)
	}
	customer, err := s.resolveCustomer(ctx, uint(customerID))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVerificationFailed, err)
	}

	if s.locker != nil {
		unlock, err := s.locker.Lock(ctx, constants.REDIS_KEY_VERIFY_LOCK+req.RazorpayOrderID)
		if err != nil {
			return nil, fmt.Errorf("%w: lock: %w", ErrVerificationFailed, err)
		}
		defer unlock()
	}

	existing, err := s.store.Payments().FindByGatewayOrderID(ctx, req.RazorpayOrderID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVerificationFailed, err)
	}
	if existing != nil {
		if existing.CustomerID != customer.ID {
			return nil, fmt.Errorf("%w: payment record belongs to another customer", ErrVerificationFailed)
		}
		switch existing.Status {
		case model.PaymentStatusPaid:
			return s.replayedResult(ctx, existing, req)
		case model.PaymentStatusFailed:
			return nil, s.recordLatePayment(ctx, req)
		}
	}

	order := &model.Order{
		PublicCode:  newOrderCode(),
		CustomerID:  customer.ID,
		Items:       items,
		Phone:       strings.TrimSpace(req.OrderPhone),
		Address:     strings.TrimSpace(req.OrderAddress),
		PaymentType: model.PaymentTypeOnline,
	}
	if existing != nil {
		// only the gateway ids are signed; the stored checkout outranks the form
		order.Amount = existing.Amount
		if len(existing.Items) > 0 {
			order.Items = existing.Items
		}
		order.Phone = firstNonEmpty(existing.Phone, order.Phone)
		order.Address = firstNonEmpty(existing.Address, order.Address)
	}

	var paid *model.PaymentDetail
	recordMissing := false
	err = s.store.Transaction(ctx, func(tx Store) error {
		if err := tx.Orders().Create(ctx, order); err != nil {
			return err
		}
		updated, err := tx.Payments().MarkPaid(ctx, req.RazorpayOrderID, model.PaidUpdate{
			PaymentID: req.RazorpayPaymentID,
			Signature: req.RazorpaySignature,
			OrderID:   order.ID,
		})
		if errors.Is(err, ErrPaymentRecordNotFound) {
			if existing != nil {
				return errStatusChanged
			}
			recordMissing = true
			return nil
		}
		if err != nil {
			return err
		}
		paid = updated
		return nil
	})
	if errors.Is(err, errStatusChanged) {
		current, ferr := s.store.Payments().FindByGatewayOrderID(ctx, req.RazorpayOrderID)
		if ferr == nil && current != nil && current.Status == model.PaymentStatusPaid {
			return s.replayedResult(ctx, current, req)
		}
		return nil, fmt.Errorf("%w: %w", ErrVerificationFailed, err)
	}
	if err != nil {
		log.Printf("Verify payment transaction failed gateway_order_id=%s: %v", req.RazorpayOrderID, err)
		return nil, fmt.Errorf("%w: %w", ErrVerificationFailed, err)
	}

	s.clearCart(ctx, req.SessionID)
	s.sendMail(ctx, *customer, *order)

	if recordMissing {
		log.Printf("No payment record for gateway_order_id=%s, order=%s kept", req.RazorpayOrderID, order.PublicCode)
		return nil, ErrPaymentRecordNotFound
	}

	s.announce(ctx, *order)
	return s.successView(paid, order), nil
}

// recordLatePayment keeps the payment captured against an expired record so
// it can be refunded, and rejects the verification.
func (s *CheckoutService) recordLatePayment(ctx context.Context, req VerifyPaymentRequest) error {
	stored, err := s.store.Payments().RecordLatePayment(ctx, req.RazorpayOrderID, model.PaidUpdate{
		PaymentID: req.RazorpayPaymentID,
		Signature: req.RazorpaySignature,
	})
	if err != nil {
		log.Printf("Record late payment failed gateway_order_id=%s payment_id=%s: %v", req.RazorpayOrderID, req.RazorpayPaymentID, err)
		return fmt.Errorf("%w: %w: %w", ErrVerificationFailed, ErrPaymentExpired, err)
	}
	if stored && s.metrics != nil {
		s.metrics.LatePaymentsTotal.Inc()
	}
	log.Printf("Payment captured for expired record gateway_order_id=%s payment_id=%s stored=%t", req.RazorpayOrderID, req.RazorpayPaymentID, stored)
	return fmt.Errorf("%w: %w", ErrVerificationFailed, ErrPaymentExpired)
}

func (s *CheckoutService) replayedResult(ctx context.Context, payment *model.PaymentDetail, req VerifyPaymentRequest) (*PaymentSuccessView, error) {
	if payment.PaymentID == nil || *payment.PaymentID != req.RazorpayPaymentID {
		return nil, fmt.Errorf("%w: gateway order already paid by another payment", ErrVerificationFailed)
	}

	var order *model.Order
	if payment.LinkedOrderID != nil {
		linked, err := s.store.Orders().FindByID(ctx, *payment.LinkedOrderID)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrVerificationFailed, err)
		}
		order = linked
	}
	log.Printf("Replayed verification gateway_order_id=%s", payment.GatewayOrderID)

	view := s.successView(payment, order)
	view.Replayed = true
	return view, nil
}

func (s *CheckoutService) successView(payment *model.PaymentDetail, order *model.Order) *PaymentSuccessView {
	view := &PaymentSuccessView{
		Payment:       payment,
		AmountText:    utils.FormatAmount(payment.Amount, payment.Currency),
		CreatedAtText: utils.FormatDateTime(payment.CreatedAt),
		PaidAtText:    utils.FormatDateTime(payment.UpdatedAt),
	}
	if order == nil {
		return view
	}
	view.OrderCode = order.PublicCode
	qr, err := utils.QRCodeDataURI(order.PublicCode, qrCodeSize)
	if err != nil {
		log.Printf("QR code failed for order=%s: %v", order.PublicCode, err)
		return view
	}
	view.QRCode = qr
	return view
}

func (s *CheckoutService) resolveCustomer(ctx context.Context, id uint) (*model.Customer, error) {
	if id == 0 {
		return nil, ErrCustomerNotFound
	}
	customer, err := s.store.Customers().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}
	return customer, nil
}

func (s *CheckoutService) clearCart(ctx context.Context, sessionID string) {
	if sessionID == "" {
		return
	}
	if err := s.carts.Clear(ctx, sessionID); err != nil {
		log.Printf("Clear cart failed session=%s: %v", sessionID, err)
	}
}

// announce and sendMail never fail the request.
func (s *CheckoutService) announce(ctx context.Context, order model.Order) {
	if s.notifier == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Order notifier panic order=%s: %v", order.PublicCode, r)
			s.countNotifyFailed("notifier")
		}
	}()

	event := model.OrderPlacedEvent{
		OrderCode:   order.PublicCode,
		CustomerID:  order.CustomerID,
		PaymentType: order.PaymentType,
		Amount:      order.Amount,
		PlacedAt:    order.CreatedAt.UTC().Format(time.RFC3339),
	}
	if err := s.notifier.NotifyOrderPlaced(ctx, event); err != nil {
		log.Printf("Order notification failed order=%s: %v", order.PublicCode, err)
		s.countNotifyFailed("notifier")
	}
}

func (s *CheckoutService) sendMail(ctx context.Context, customer model.Customer, order model.Order) {
	if s.mailer == nil {
		return
	}
	mailCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.mailTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Order mail panic order=%s: %v", order.PublicCode, r)
			s.countNotifyFailed("mail")
		}
	}()

	if err := s.mailer.SendNewOrderMail(mailCtx, customer, order); err != nil {
		log.Printf("New order mail failed order=%s to=%s: %v", order.PublicCode, customer.Email, err)
		s.countNotifyFailed("mail")
	}
}

func (s *CheckoutService) countCreate(method string, err error) {
	if s.metrics == nil {
		return
	}
	if !utils.IsValidValueOfConstant(method, constants.ORDER_METHODS) {
		method = "invalid"
	}
	result := "success"
	if err != nil {
		result = "failed"
	}
	s.metrics.CreateOrderTotal.WithLabelValues(method, result).Inc()
}

func (s *CheckoutService) countVerify(view *PaymentSuccessView, err error) {
	if s.metrics == nil {
		return
	}
	result := "paid"
	switch {
	case errors.Is(err, ErrSignatureMismatch):
		result = "signature_mismatch"
	case errors.Is(err, ErrPaymentRecordNotFound):
		result = "record_not_found"
	case errors.Is(err, ErrPaymentExpired):
		result = "late_payment"
	case err != nil:
		result = "failed"
	case view != nil && view.Replayed:
		result = "replayed"
	}
	s.metrics.VerifyPaymentTotal.WithLabelValues(result).Inc()
}

func (s *CheckoutService) countNotifyFailed(sink string) {
	if s.metrics != nil {
		s.metrics.NotifyFailedTotal.WithLabelValues(sink).Inc()
	}
}

func newOrderCode() string {
	return constants.ORDER_CODE_PREFIX + strings.ToUpper(uuid.NewString()[:8])
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
