package wallet

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"
	"github.com/kysee/zksend/zk-send/config"
	"github.com/shopspring/decimal"
)

var subunitsPerCoin = decimal.NewFromInt(config.SubunitsPerCoin)

// ScaleAmount converts a coin amount to ledger subunits. Fractions of a
// subunit are truncated, never rounded.
func ScaleAmount(amount decimal.Decimal) (uint64, error) {
	if amount.IsNegative() {
		return 0, fmt.Errorf("%w: negative amount %s", ErrAmountOverflow, amount)
	}
	scaled := amount.Mul(subunitsPerCoin).Truncate(0)
	v, overflow := uint256.FromBig(scaled.BigInt())
	if overflow || !v.IsUint64() {
		return 0, fmt.Errorf("%w: %s", ErrAmountOverflow, amount)
	}
	return v.Uint64(), nil
}

// ParseAmount parses a decimal coin amount such as "1.5" and scales it.
func ParseAmount(s string) (uint64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: amount %q: %v", ErrMalformedInput, s, err)
	}
	return ScaleAmount(d)
}

// FormatAmount renders subunits as a coin amount.
func FormatAmount(subunits *uint256.Int) string {
	return decimal.NewFromBigInt(subunits.ToBig(), 0).Div(subunitsPerCoin).String()
}
