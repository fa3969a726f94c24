package intent

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/hyperdrive-otc/api/internal/types"
)

const (
	testChainID = int64(31337)
	testEngine  = "0x9999999999999999999999999999999999999999"
	testMarket  = "0x2222222222222222222222222222222222222222"
)

func newTestSigner(t *testing.T) *Signer {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	s, err := NewSigner(hex.EncodeToString(crypto.FromECDSA(key)), testChainID, testEngine)
	require.NoError(t, err)
	return s
}

func newTestIntent(t *testing.T, s *Signer) types.OrderIntent {
	t.Helper()
	salt, err := GenerateSalt()
	require.NoError(t, err)

	o := types.OrderIntent{
		Trader:             s.Address().Hex(),
		Hyperdrive:         testMarket,
		Amount:             "1000000000000000000000",
		SlippageGuard:      "950000000000000000000",
		MinVaultSharePrice: "1000000000000000000",
		Options: types.OrderOptions{
			Destination: s.Address().Hex(),
			AsBase:      true,
			ExtraData:   "0x",
		},
		OrderType: types.OrderTypeLong,
		Expiry:    1900000000,
		Salt:      salt,
	}
	require.NoError(t, s.Sign(&o))
	return o
}

func TestSignAndVerify(t *testing.T) {
	s := newTestSigner(t)
	o := newTestIntent(t, s)

	v := NewVerifier(testChainID, testEngine)
	require.NoError(t, v.Verify(&o))
}

func TestSignDeterministic(t *testing.T) {
	s := newTestSigner(t)
	o := newTestIntent(t, s)

	again := o
	again.Signature = ""
	require.NoError(t, s.Sign(&again))
	require.Equal(t, o.Signature, again.Signature)
}

func TestVerifyRejectsMutatedFields(t *testing.T) {
	s := newTestSigner(t)
	v := NewVerifier(testChainID, testEngine)

	mutations := map[string]func(*types.OrderIntent){
		"amount":      func(o *types.OrderIntent) { o.Amount = "1000000000000000000001" },
		"guard":       func(o *types.OrderIntent) { o.SlippageGuard = "1" },
		"sharePrice":  func(o *types.OrderIntent) { o.MinVaultSharePrice = "2" },
		"salt":        func(o *types.OrderIntent) { o.Salt = "0x" + strings.Repeat("11", 32) },
		"expiry":      func(o *types.OrderIntent) { o.Expiry++ },
		"orderType":   func(o *types.OrderIntent) { o.OrderType = types.OrderTypeShort },
		"destination": func(o *types.OrderIntent) { o.Options.Destination = testEngine },
		"asBase":      func(o *types.OrderIntent) { o.Options.AsBase = false },
		"extraData":   func(o *types.OrderIntent) { o.Options.ExtraData = "0xdead" },
		"market":      func(o *types.OrderIntent) { o.Hyperdrive = testEngine },
	}

	for name, mutate := range mutations {
		o := newTestIntent(t, s)
		mutate(&o)
		require.ErrorIs(t, v.Verify(&o), ErrBadSignature, "mutation %q should invalidate", name)
	}
}

func TestVerifyRejectsWrongTrader(t *testing.T) {
	s := newTestSigner(t)
	other := newTestSigner(t)
	v := NewVerifier(testChainID, testEngine)

	o := newTestIntent(t, s)
	o.Trader = other.Address().Hex()
	require.ErrorIs(t, v.Verify(&o), ErrBadSignature)
}

func TestVerifyRejectsWrongDomain(t *testing.T) {
	s := newTestSigner(t)
	o := newTestIntent(t, s)

	require.Error(t, NewVerifier(testChainID+1, testEngine).Verify(&o))
	require.Error(t, NewVerifier(testChainID, testMarket).Verify(&o))
}

func TestVerifyMissingSignature(t *testing.T) {
	s := newTestSigner(t)
	o := newTestIntent(t, s)
	o.Signature = ""

	v := NewVerifier(testChainID, testEngine)
	require.ErrorIs(t, v.Verify(&o), ErrNoSignature)
}

func TestGenerateSalt(t *testing.T) {
	a, err := GenerateSalt()
	require.NoError(t, err)
	b, err := GenerateSalt()
	require.NoError(t, err)

	require.NoError(t, types.ValidateSalt(a))
	require.NotEqual(t, a, b)
}
