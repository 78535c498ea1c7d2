package common

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// FormatMoney formats an amount in the given ISO currency, e.g. "$1,200.00".
// Unknown currency codes fall back to "1200.00 XYZ".
func FormatMoney(v float64, currency string) string {
	code := strings.ToUpper(currency)
	if money.GetCurrency(code) == nil {
		return decimal.NewFromFloat(v).StringFixed(2) + " " + code
	}
	return money.NewFromFloat(v, code).Display()
}

// FormatSignedMoney formats an amount with an explicit "+" for gains.
func FormatSignedMoney(v float64, currency string) string {
	if v > 0 {
		return "+" + FormatMoney(v, currency)
	}
	return FormatMoney(v, currency)
}

// FormatPct formats a percentage with two decimals, e.g. "20.00%".
func FormatPct(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2) + "%"
}

// FormatSignedPct formats a percentage with an explicit sign for gains.
func FormatSignedPct(v float64) string {
	if v > 0 {
		return "+" + FormatPct(v)
	}
	return FormatPct(v)
}

// FormatQuantity formats a share count or plain number with two decimals.
func FormatQuantity(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

var groupedFormatter = money.NewFormatter(0, ".", ",", "", "1")

// FormatGrouped formats a large whole number with thousands separators,
// e.g. "2,650,000,000,000". Used for company figures in their own currency.
func FormatGrouped(v float64) string {
	return groupedFormatter.Format(decimal.NewFromFloat(v).Round(0).IntPart())
}
