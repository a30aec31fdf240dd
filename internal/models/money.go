package models

import (
	"github.com/shopspring/decimal"

	"github.com/sudo-init-do/distal/internal/apperr"
)

// maxMoney is the first value NUMERIC(12,2) cannot hold.
var maxMoney = decimal.New(1, 10)

// Money validates a non-negative amount with at most two decimal places; nil
// means the field was missing. The amount is never rounded.
func Money(field string, v *decimal.Decimal) (decimal.Decimal, error) {
	if v == nil {
		return decimal.Zero, apperr.Validation(field + " is required")
	}
	if v.IsNegative() {
		return decimal.Zero, apperr.Validation(field + " must be a non-negative number")
	}
	if v.GreaterThanOrEqual(maxMoney) {
		return decimal.Zero, apperr.Validation(field + " is too large")
	}
	if !v.Equal(v.Truncate(2)) {
		return decimal.Zero, apperr.Validation(field + " must have at most two decimal places")
	}
	return v.Truncate(2), nil
}
