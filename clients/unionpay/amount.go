package unionpay

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrAmountPrecision - the amount carries sub-fen precision
	ErrAmountPrecision = errors.New("amount has more than two decimal places")
	// ErrAmountNotPositive - the amount is zero or negative
	ErrAmountNotPositive = errors.New("amount must be positive")
)

// MinorUnits converts a decimal yuan amount into the integral fen the
// gateway transacts in. Sub-fen precision is rejected rather than
// rounded, the caller owns rounding policy.
func MinorUnits(amount decimal.Decimal) (int64, error) {
	if !amount.IsPositive() {
		return 0, ErrAmountNotPositive
	}
	fen := amount.Mul(decimal.New(1, 2))
	if !fen.Equal(fen.Truncate(0)) {
		return 0, ErrAmountPrecision
	}
	return fen.IntPart(), nil
}

// MajorUnits converts integral fen back into a decimal yuan amount
func MajorUnits(fen int64) decimal.Decimal {
	return decimal.New(fen, -2)
}
