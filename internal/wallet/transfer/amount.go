package transfer

import (
	"math/big"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// ParseAmount converts a human amount such as "1.5" into the smallest unit of an asset with
// the given decimals. Fractions finer than the asset's precision are rejected.
func ParseAmount(s string, decimals int32) (*big.Int, error) {
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidIntent, "amount %q", s)
	}

	if amount.IsNegative() {
		return nil, errors.Wrapf(ErrInvalidIntent, "negative amount %s", s)
	}

	scaled := amount.Shift(decimals)
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, errors.Wrapf(ErrInvalidIntent, "amount %s exceeds %d decimals", s, decimals)
	}

	return scaled.BigInt(), nil
}

// FormatAmount renders a smallest-unit decimal string with the asset's decimals.
func FormatAmount(smallest string, decimals int32) string {
	if smallest == "" {
		return "0"
	}

	v, err := decimal.NewFromString(smallest)
	if err != nil {
		return smallest
	}

	return v.Shift(-decimals).String()
}
