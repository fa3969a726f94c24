// Package intent builds, signs, and verifies EIP-712 order intents for the
// matching engine. The typed-data layout must match the on-chain contract
// byte for byte; any drift invalidates every signature in the store.
package intent

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/hyperdrive-otc/api/internal/types"
)

const (
	domainName    = "Hyperdrive Matching Engine"
	domainVersion = "1"
)

var orderTypes = apitypes.Types{
	"EIP712Domain": {
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	},
	"Order": {
		{Name: "trader", Type: "address"},
		{Name: "hyperdrive", Type: "address"},
		{Name: "amount", Type: "uint256"},
		{Name: "slippageGuard", Type: "uint256"},
		{Name: "minVaultSharePrice", Type: "uint256"},
		{Name: "options", Type: "Options"},
		{Name: "orderType", Type: "uint8"},
		{Name: "expiry", Type: "uint256"},
		{Name: "salt", Type: "bytes32"},
	},
	"Options": {
		{Name: "destination", Type: "address"},
		{Name: "asBase", Type: "bool"},
		{Name: "extraData", Type: "bytes"},
	},
}

// typedData assembles the full EIP-712 structure for an intent, coercing the
// decimal-string amount fields back into the integer domain used at signing.
func typedData(o *types.OrderIntent, chainID int64, matchingEngine string) (apitypes.TypedData, error) {
	amount, err := types.ParseBig(o.Amount)
	if err != nil {
		return apitypes.TypedData{}, fmt.Errorf("amount: %w", err)
	}
	guard, err := types.ParseBig(o.SlippageGuard)
	if err != nil {
		return apitypes.TypedData{}, fmt.Errorf("slippageGuard: %w", err)
	}
	sharePrice, err := types.ParseBig(o.MinVaultSharePrice)
	if err != nil {
		return apitypes.TypedData{}, fmt.Errorf("minVaultSharePrice: %w", err)
	}

	extraData := o.Options.ExtraData
	if extraData == "" {
		extraData = "0x"
	}

	return apitypes.TypedData{
		Types:       orderTypes,
		PrimaryType: "Order",
		Domain: apitypes.TypedDataDomain{
			Name:              domainName,
			Version:           domainVersion,
			ChainId:           math.NewHexOrDecimal256(chainID),
			VerifyingContract: matchingEngine,
		},
		Message: apitypes.TypedDataMessage{
			"trader":             o.Trader,
			"hyperdrive":         o.Hyperdrive,
			"amount":             amount.String(),
			"slippageGuard":      guard.String(),
			"minVaultSharePrice": sharePrice.String(),
			"options": map[string]interface{}{
				"destination": o.Options.Destination,
				"asBase":      o.Options.AsBase,
				"extraData":   extraData,
			},
			"orderType": fmt.Sprintf("%d", o.OrderType),
			"expiry":    fmt.Sprintf("%d", o.Expiry),
			"salt":      o.Salt,
		},
	}, nil
}

// Digest computes the 32-byte EIP-712 signing hash for an intent.
func Digest(o *types.OrderIntent, chainID int64, matchingEngine string) ([]byte, error) {
	td, err := typedData(o, chainID, matchingEngine)
	if err != nil {
		return nil, err
	}

	domainSeparator, err := td.HashStruct("EIP712Domain", td.Domain.Map())
	if err != nil {
		return nil, fmt.Errorf("hash domain: %w", err)
	}
	messageHash, err := td.HashStruct(td.PrimaryType, td.Message)
	if err != nil {
		return nil, fmt.Errorf("hash message: %w", err)
	}

	raw := make([]byte, 0, 2+len(domainSeparator)+len(messageHash))
	raw = append(raw, 0x19, 0x01)
	raw = append(raw, domainSeparator...)
	raw = append(raw, messageHash...)
	return crypto.Keccak256(raw), nil
}
