package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MaxMoney is the largest value a NUMERIC(12, 2) money column holds.
var MaxMoney = decimal.RequireFromString("9999999999.99")

func checkMoney(field string, d decimal.Decimal) error {
	if !d.Equal(d.Round(2)) {
		return Invalid(field, fmt.Sprintf("%s must have at most 2 decimal places", field))
	}
	if d.Abs().GreaterThan(MaxMoney) {
		return Invalid(field, fmt.Sprintf("%s must not exceed %s", field, MaxMoney.StringFixed(2)))
	}
	return nil
}
