// internal/ranking/currency.go
package ranking

import (
	"strings"

	"github.com/shopspring/decimal"
)

const BaseCurrency = "USD"

// RateConverter converts plan prices into USD.
type RateConverter interface {
	ToUSD(amount float64, currency string) float64
}

// StaticRates maps a currency code to the USD value of one unit.
type StaticRates map[string]decimal.Decimal

// FallbackUSDRates is used whenever no live rate is available.
var FallbackUSDRates = StaticRates{
	"USD": decimal.NewFromInt(1),
	"EUR": decimal.RequireFromString("1.08"),
	"GBP": decimal.RequireFromString("1.27"),
	"CHF": decimal.RequireFromString("1.13"),
	"CAD": decimal.RequireFromString("0.74"),
	"AUD": decimal.RequireFromString("0.66"),
	"NZD": decimal.RequireFromString("0.61"),
	"JPY": decimal.RequireFromString("0.0067"),
	"INR": decimal.RequireFromString("0.012"),
	"AED": decimal.RequireFromString("0.27"),
	"SGD": decimal.RequireFromString("0.74"),
	"HKD": decimal.RequireFromString("0.13"),
	"PLN": decimal.RequireFromString("0.25"),
	"CZK": decimal.RequireFromString("0.044"),
	"ZAR": decimal.RequireFromString("0.054"),
	"BRL": decimal.RequireFromString("0.2"),
}

func normalizeCurrency(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return BaseCurrency
	}
	return code
}

// Rate returns the USD value of one unit of currency.
func (r StaticRates) Rate(currency string) (decimal.Decimal, bool) {
	rate, ok := r[normalizeCurrency(currency)]
	return rate, ok
}

// ToUSD converts amount to USD rounded to cents. Unknown currencies are taken as USD.
func (r StaticRates) ToUSD(amount float64, currency string) float64 {
	rate, ok := r.Rate(currency)
	if !ok {
		rate = decimal.NewFromInt(1)
	}
	usd, _ := decimal.NewFromFloat(amount).Mul(rate).Round(2).Float64()
	return usd
}

// Merge returns a copy of r with overrides applied on top.
func (r StaticRates) Merge(overrides map[string]decimal.Decimal) StaticRates {
	merged := make(StaticRates, len(r)+len(overrides))
	for code, rate := range r {
		merged[code] = rate
	}
	for code, rate := range overrides {
		if rate.IsPositive() {
			merged[normalizeCurrency(code)] = rate
		}
	}
	return merged
}
