package gateway

import (
	"context"
	"errors"
	"fmt"
	"storefront/model"
	"time"

	"github.com/razorpay/razorpay-go"
)

var ErrMalformedResponse = errors.New("malformed gateway response")

// orderCreator is the part of the Razorpay SDK used here.
type orderCreator interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// Razorpay Service
type Razorpay struct {
	Config  model.RazorpayConfig
	orders  orderCreator
	timeout time.Duration
}

func NewRazorpay(cfg model.RazorpayConfig, timeout time.Duration) *Razorpay {
	client := razorpay.NewClient(cfg.KeyID, cfg.KeySecret)
	return newRazorpay(cfg, client.Order, timeout)
}

func newRazorpay(cfg model.RazorpayConfig, orders orderCreator, timeout time.Duration) *Razorpay {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Razorpay{Config: cfg, orders: orders, timeout: timeout}
}

func (r *Razorpay) KeyID() string {
	return r.Config.KeyID
}

// CreateOrder registers a gateway order. The SDK call is not cancellable, so
// it runs in a goroutine and the result is dropped once ctx or the timeout ends.
func (r *Razorpay) CreateOrder(ctx context.Context, req model.GatewayOrderRequest) (*model.GatewayOrder, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	capture := 0
	if req.PaymentCapture {
		capture = 1
	}
	data := map[string]interface{}{
		"amount":          req.Amount,
		"currency":        req.Currency,
		"receipt":         req.Receipt,
		"payment_capture": capture,
	}

	type result struct {
		body map[string]interface{}
		err  error
	}
	done := make(chan result, 1)
	go func() {
		body, err := r.orders.Create(data, nil)
		done <- result{body: body, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Errorf("razorpay create order: %w", res.err)
		}
		return parseGatewayOrder(res.body)
	case <-ctx.Done():
		return nil, fmt.Errorf("razorpay create order: %w", ctx.Err())
	}
}

func parseGatewayOrder(body map[string]interface{}) (*model.GatewayOrder, error) {
	id, _ := body["id"].(string)
	if id == "" {
		return nil, fmt.Errorf("%w: missing order id", ErrMalformedResponse)
	}
	order := &model.GatewayOrder{
		ID:        id,
		Receipt:   stringField(body, "receipt"),
		Currency:  stringField(body, "currency"),
		Status:    stringField(body, "status"),
		Amount:    intField(body, "amount"),
		CreatedAt: intField(body, "created_at"),
	}
	return order, nil
}

func stringField(body map[string]interface{}, key string) string {
	v, _ := body[key].(string)
	return v
}

// intField accepts the float64 produced by encoding/json as well as ints.
func intField(body map[string]interface{}, key string) int64 {
	switch v := body[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	}
	return 0
}
