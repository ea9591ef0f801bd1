package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

var symbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"CAD": "$",
	"AUD": "$",
	"INR": "₹",
}

// Symbol returns the display symbol for an ISO currency code. Unknown codes
// are returned as-is.
func Symbol(code string) string {
	if s, ok := symbols[strings.ToUpper(code)]; ok {
		return s
	}
	return code
}

// Format renders the absolute value of amount with its currency symbol,
// e.g. "$ 12.50". Direction is conveyed by the surrounding text.
func Format(amount decimal.Decimal, code string) string {
	return Symbol(code) + " " + amount.Abs().StringFixed(2)
}

// DescribeBalance phrases a member's net balance for display.
func DescribeBalance(balance decimal.Decimal, code string) string {
	switch {
	case balance.GreaterThan(Cent):
		return "gets back " + Format(balance, code)
	case balance.LessThan(Cent.Neg()):
		return "owes " + Format(balance, code)
	default:
		return "settled up"
	}
}
