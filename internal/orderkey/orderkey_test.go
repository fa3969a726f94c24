package orderkey

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperdrive-otc/api/internal/types"
)

const (
	testTrader = "0x1111111111111111111111111111111111111111"
	testMarket = "0x2222222222222222222222222222222222222222"
)

var testSalt = "0x" + "ab" + strings.Repeat("00", 30) + "cd"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, status := range []types.OrderStatus{
		types.StatusPending, types.StatusFilled, types.StatusCanceled,
	} {
		key := Encode(status, testTrader, testMarket, testSalt)
		require.Equal(t, string(status)+"/"+testTrader+":"+testMarket+":"+testSalt+".json", key)

		d, err := Decode(key)
		require.NoError(t, err)
		require.Equal(t, status, d.Status)
		require.Equal(t, testTrader, d.Trader)
		require.Equal(t, testMarket, d.Hyperdrive)
		require.Equal(t, testSalt, d.Salt)
	}
}

func TestEncodeLowercasesAddresses(t *testing.T) {
	checksummed := "0xAbCd111111111111111111111111111111111111"
	key := Encode(types.StatusPending, checksummed, testMarket, testSalt)
	require.Equal(t, strings.ToLower(key), key)

	d, err := Decode(key)
	require.NoError(t, err)
	require.Equal(t, strings.ToLower(checksummed), d.Trader)
}

func TestDecodeMalformed(t *testing.T) {
	cases := []string{
		"",
		"pending",
		"pending/",
		"unknown/" + testTrader + ":" + testMarket + ":" + testSalt + ".json",
		"pending/" + testTrader + ":" + testMarket + ":" + testSalt,
		"pending/" + testTrader + ":" + testSalt + ".json",
		"pending/nothex:" + testMarket + ":" + testSalt + ".json",
		"pending/" + testTrader + ":" + testMarket + ":0x1234.json",
	}
	for _, key := range cases {
		_, err := Decode(key)
		require.ErrorIs(t, err, ErrMalformedKey, "key %q", key)
	}
}

func TestListPrefixPrecedence(t *testing.T) {
	// No status: nothing can be folded.
	prefix, folded := ListPrefix(types.ListFilters{Trader: testTrader})
	require.Empty(t, prefix)
	require.Empty(t, folded.Trader)

	// Status only.
	prefix, folded = ListPrefix(types.ListFilters{Status: types.StatusPending})
	require.Equal(t, "pending/", prefix)
	require.Equal(t, types.StatusPending, folded.Status)

	// Status + hyperdrive without trader: hyperdrive stays a post-filter.
	prefix, folded = ListPrefix(types.ListFilters{
		Status:     types.StatusPending,
		Hyperdrive: testMarket,
	})
	require.Equal(t, "pending/", prefix)
	require.Empty(t, folded.Hyperdrive)

	// Full chain folds everything.
	prefix, folded = ListPrefix(types.ListFilters{
		Status:     types.StatusPending,
		Trader:     testTrader,
		Hyperdrive: testMarket,
	})
	require.Equal(t, "pending/"+testTrader+":"+testMarket+":", prefix)
	require.Equal(t, testMarket, folded.Hyperdrive)

	// A fully-folded prefix is a prefix of the encoded key.
	key := Encode(types.StatusPending, testTrader, testMarket, testSalt)
	require.True(t, strings.HasPrefix(key, prefix))
}

func TestMatches(t *testing.T) {
	d, err := Decode(Encode(types.StatusPending, testTrader, testMarket, testSalt))
	require.NoError(t, err)

	require.True(t, d.Matches(types.ListFilters{}))
	require.True(t, d.Matches(types.ListFilters{Status: types.StatusPending}))
	require.False(t, d.Matches(types.ListFilters{Trader: "0xAbCd111111111111111111111111111111111111"}))
	require.True(t, d.Matches(types.ListFilters{Trader: testTrader}))
	// Address comparison is case-insensitive.
	require.True(t, d.Matches(types.ListFilters{Trader: strings.ToUpper(testTrader)}))
	require.False(t, d.Matches(types.ListFilters{Status: types.StatusCanceled}))
	require.False(t, d.Matches(types.ListFilters{Hyperdrive: testTrader}))
}
