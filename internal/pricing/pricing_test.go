package pricing

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperdrive-otc/api/internal/types"
)

func wad(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), One)
}

// 0.05 WAD
func rate5pct() *big.Int {
	return new(big.Int).Div(One, big.NewInt(20))
}

func TestLongDepositRoundTrip(t *testing.T) {
	amount := wad(1000)
	rate := rate5pct()

	deposit, err := DepositAmount(amount, types.OrderTypeLong, rate)
	require.NoError(t, err)
	// 1000 * 0.95 = 950
	require.Equal(t, wad(950), deposit)

	got, err := TargetRate(types.OrderTypeLong, amount, deposit)
	require.NoError(t, err)

	diff := new(big.Int).Sub(got, rate)
	require.LessOrEqual(t, diff.CmpAbs(big.NewInt(1)), 0,
		"round trip drifted more than 1 unit: got %s want %s", got, rate)
}

func TestShortDepositRoundTrip(t *testing.T) {
	amount := wad(1000)
	rate := rate5pct()

	deposit, err := DepositAmount(amount, types.OrderTypeShort, rate)
	require.NoError(t, err)

	// deposit = amount * r/(1+r); the inverse is r = d/(a-d).
	got, err := TargetRate(types.OrderTypeShort, amount, deposit)
	require.NoError(t, err)

	diff := new(big.Int).Sub(got, rate)
	require.LessOrEqual(t, diff.CmpAbs(big.NewInt(1)), 0,
		"short round trip drifted more than 1 unit: got %s want %s", got, rate)
}

func TestShortDepositBelowLongDeposit(t *testing.T) {
	// A short posts the discount, a long posts the discounted principal, so
	// for any rate below 100% the short deposit is the smaller of the two.
	amount := wad(500)
	rate := rate5pct()

	long, err := DepositAmount(amount, types.OrderTypeLong, rate)
	require.NoError(t, err)
	short, err := DepositAmount(amount, types.OrderTypeShort, rate)
	require.NoError(t, err)

	require.Negative(t, short.Cmp(long))
}

func TestZeroAmountFails(t *testing.T) {
	_, err := DepositAmount(big.NewInt(0), types.OrderTypeLong, rate5pct())
	require.ErrorIs(t, err, ErrZeroAmount)

	_, err = TargetRate(types.OrderTypeShort, big.NewInt(0), big.NewInt(1))
	require.ErrorIs(t, err, ErrZeroAmount)
}

func TestGuardAtAmountFails(t *testing.T) {
	amount := wad(10)
	_, err := TargetRate(types.OrderTypeShort, amount, amount)
	require.ErrorIs(t, err, ErrGuardExceeds)

	_, err = TargetRate(types.OrderTypeLong, amount, new(big.Int).Add(amount, big.NewInt(1)))
	require.ErrorIs(t, err, ErrGuardExceeds)
}

func TestRateBounds(t *testing.T) {
	amount := wad(1)
	_, err := DepositAmount(amount, types.OrderTypeLong, One)
	require.ErrorIs(t, err, ErrRateOutOfWAD)

	_, err = DepositAmount(amount, types.OrderTypeLong, big.NewInt(-1))
	require.ErrorIs(t, err, ErrRateOutOfWAD)
}

func TestFormatRatePercent(t *testing.T) {
	require.Equal(t, "5.00%", FormatRatePercent(rate5pct()))
	require.Equal(t, "0.00%", FormatRatePercent(big.NewInt(0)))
}
