// Package pricing converts between notional amount, desired fixed rate, and
// deposit/proceeds amounts for long and short orders. All arithmetic is
// WAD-scaled (10^18) big.Int fixed point; nothing here touches floating point.
package pricing

import (
	"errors"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/hyperdrive-otc/api/internal/types"
)

// One is the WAD fixed-point unit.
var One = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

var (
	ErrZeroAmount    = errors.New("pricing: amount must be positive")
	ErrGuardExceeds  = errors.New("pricing: slippage guard must be below amount")
	ErrRateOutOfWAD  = errors.New("pricing: rate must be in [0, 1) WAD")
)

// DepositAmount returns the deposit a trader must post to open a position of
// the given notional at the desired rate.
//
// Long:  price = 1 - r,          deposit = amount * price
// Short: price = 1 - 1/(1 + r),  deposit = amount * price = amount * r/(1+r)
func DepositAmount(amount *big.Int, orderType types.OrderType, desiredRate *big.Int) (*big.Int, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrZeroAmount
	}
	if desiredRate == nil || desiredRate.Sign() < 0 || desiredRate.Cmp(One) >= 0 {
		return nil, ErrRateOutOfWAD
	}

	var price *big.Int
	if orderType == types.OrderTypeLong {
		price = new(big.Int).Sub(One, desiredRate)
	} else {
		// ONE / (ONE + r) in WAD is ONE*ONE / (ONE + r).
		denom := new(big.Int).Add(One, desiredRate)
		inv := new(big.Int).Div(new(big.Int).Mul(One, One), denom)
		price = new(big.Int).Sub(One, inv)
	}

	deposit := new(big.Int).Mul(amount, price)
	return deposit.Div(deposit, One), nil
}

// TargetRate inverts DepositAmount: given a stored slippage guard it returns
// the rate the trader locked in when signing. Used for display previews.
//
// Long:  r = (amount - guard) / amount
// Short: r = guard / (amount - guard), the algebraic inverse of
// deposit = amount * r/(1+r).
func TargetRate(orderType types.OrderType, amount, slippageGuard *big.Int) (*big.Int, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrZeroAmount
	}
	if slippageGuard == nil || slippageGuard.Sign() < 0 {
		return nil, ErrRateOutOfWAD
	}

	if orderType == types.OrderTypeLong {
		diff := new(big.Int).Sub(amount, slippageGuard)
		if diff.Sign() < 0 {
			return nil, ErrGuardExceeds
		}
		rate := new(big.Int).Mul(diff, One)
		return rate.Div(rate, amount), nil
	}

	denom := new(big.Int).Sub(amount, slippageGuard)
	if denom.Sign() <= 0 {
		return nil, ErrGuardExceeds
	}
	rate := new(big.Int).Mul(slippageGuard, One)
	return rate.Div(rate, denom), nil
}

// FormatRatePercent renders a WAD rate as a percentage string for logs and
// previews, e.g. 0.05e18 -> "5.00%". Never used in signed or stored data.
func FormatRatePercent(rate *big.Int) string {
	d := decimal.NewFromBigInt(rate, -18)
	return d.Mul(decimal.NewFromInt(100)).StringFixed(2) + "%"
}
