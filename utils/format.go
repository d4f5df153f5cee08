package utils

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const DateTimeLayout = "02 Jan 2006, 03:04 PM"

var currencySymbols = map[string]string{
	"INR": "₹",
	"USD": "$",
	"EUR": "€",
}

// FormatAmount renders an amount held in minor units, e.g. 50000 INR -> "₹500.00".
func FormatAmount(minor int64, currency string) string {
	value := decimal.New(minor, -2).StringFixed(2)
	if symbol, ok := currencySymbols[strings.ToUpper(currency)]; ok {
		return symbol + value
	}
	if currency == "" {
		return value
	}
	return strings.ToUpper(currency) + " " + value
}

func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateTimeLayout)
}
