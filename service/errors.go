package service

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrEmptyCart             = errors.New("cart is empty")
	ErrCustomerNotFound      = errors.New("customer not found")
	ErrGatewayUnavailable    = errors.New("payment gateway unavailable")
	ErrCheckoutFailed        = errors.New("payment checkout failed")
	ErrOrderPlacement        = errors.New("can't place order")
	ErrSignatureMismatch     = errors.New("payment signature mismatch")
	ErrPaymentRecordNotFound = errors.New("payment record not found")
	ErrVerificationFailed    = errors.New("payment verification failed")
	ErrPaymentExpired        = errors.New("payment record expired")
	ErrMissingKeySecret      = errors.New("gateway key secret is not configured")
)
