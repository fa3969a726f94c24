package matching

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/hyperdrive-otc/api/internal/types"
)

// matchingEngineABI covers the two entry points this client uses. The tuple
// layout must match the order intent struct the contract hashes for EIP-712
// recovery, with the signature appended.
const matchingEngineABI = `[
  {
    "name": "matchOrders",
    "type": "function",
    "stateMutability": "nonpayable",
    "inputs": [
      {"name": "longOrder", "type": "tuple", "components": [
        {"name": "trader", "type": "address"},
        {"name": "hyperdrive", "type": "address"},
        {"name": "amount", "type": "uint256"},
        {"name": "slippageGuard", "type": "uint256"},
        {"name": "minVaultSharePrice", "type": "uint256"},
        {"name": "options", "type": "tuple", "components": [
          {"name": "destination", "type": "address"},
          {"name": "asBase", "type": "bool"},
          {"name": "extraData", "type": "bytes"}
        ]},
        {"name": "orderType", "type": "uint8"},
        {"name": "expiry", "type": "uint256"},
        {"name": "salt", "type": "bytes32"},
        {"name": "signature", "type": "bytes"}
      ]},
      {"name": "shortOrder", "type": "tuple", "components": [
        {"name": "trader", "type": "address"},
        {"name": "hyperdrive", "type": "address"},
        {"name": "amount", "type": "uint256"},
        {"name": "slippageGuard", "type": "uint256"},
        {"name": "minVaultSharePrice", "type": "uint256"},
        {"name": "options", "type": "tuple", "components": [
          {"name": "destination", "type": "address"},
          {"name": "asBase", "type": "bool"},
          {"name": "extraData", "type": "bytes"}
        ]},
        {"name": "orderType", "type": "uint8"},
        {"name": "expiry", "type": "uint256"},
        {"name": "salt", "type": "bytes32"},
        {"name": "signature", "type": "bytes"}
      ]},
      {"name": "minOutput", "type": "uint256"},
      {"name": "longOptions", "type": "tuple", "components": [
        {"name": "destination", "type": "address"},
        {"name": "asBase", "type": "bool"},
        {"name": "extraData", "type": "bytes"}
      ]},
      {"name": "shortOptions", "type": "tuple", "components": [
        {"name": "destination", "type": "address"},
        {"name": "asBase", "type": "bool"},
        {"name": "extraData", "type": "bytes"}
      ]},
      {"name": "feeRecipient", "type": "address"},
      {"name": "longFirst", "type": "bool"}
    ],
    "outputs": []
  },
  {
    "name": "cancelOrders",
    "type": "function",
    "stateMutability": "nonpayable",
    "inputs": [
      {"name": "orders", "type": "tuple[]", "components": [
        {"name": "trader", "type": "address"},
        {"name": "hyperdrive", "type": "address"},
        {"name": "amount", "type": "uint256"},
        {"name": "slippageGuard", "type": "uint256"},
        {"name": "minVaultSharePrice", "type": "uint256"},
        {"name": "options", "type": "tuple", "components": [
          {"name": "destination", "type": "address"},
          {"name": "asBase", "type": "bool"},
          {"name": "extraData", "type": "bytes"}
        ]},
        {"name": "orderType", "type": "uint8"},
        {"name": "expiry", "type": "uint256"},
        {"name": "salt", "type": "bytes32"},
        {"name": "signature", "type": "bytes"}
      ]}
    ],
    "outputs": []
  }
]`

func parseEngineABI() (abi.ABI, error) {
	return abi.JSON(strings.NewReader(matchingEngineABI))
}

// abiOptions mirrors the Options tuple for go-ethereum's reflection packer.
type abiOptions struct {
	Destination common.Address
	AsBase      bool
	ExtraData   []byte
}

// abiOrder mirrors the order intent tuple.
type abiOrder struct {
	Trader             common.Address
	Hyperdrive         common.Address
	Amount             *big.Int
	SlippageGuard      *big.Int
	MinVaultSharePrice *big.Int
	Options            abiOptions
	OrderType          uint8
	Expiry             *big.Int
	Salt               [32]byte
	Signature          []byte
}

// toABIOrder converts a stored intent into the settlement call's tuple form.
func toABIOrder(o *types.OrderIntent) (abiOrder, error) {
	var out abiOrder

	amount, err := types.ParseBig(o.Amount)
	if err != nil {
		return out, fmt.Errorf("amount: %w", err)
	}
	guard, err := types.ParseBig(o.SlippageGuard)
	if err != nil {
		return out, fmt.Errorf("slippageGuard: %w", err)
	}
	sharePrice, err := types.ParseBig(o.MinVaultSharePrice)
	if err != nil {
		return out, fmt.Errorf("minVaultSharePrice: %w", err)
	}
	saltBytes, err := types.ParseHexBytes(o.Salt)
	if err != nil || len(saltBytes) != 32 {
		return out, fmt.Errorf("salt: invalid 32-byte value %q", o.Salt)
	}
	extraData, err := types.ParseHexBytes(o.Options.ExtraData)
	if err != nil {
		return out, fmt.Errorf("extraData: %w", err)
	}
	signature, err := types.ParseHexBytes(o.Signature)
	if err != nil {
		return out, fmt.Errorf("signature: %w", err)
	}

	out = abiOrder{
		Trader:             common.HexToAddress(o.Trader),
		Hyperdrive:         common.HexToAddress(o.Hyperdrive),
		Amount:             amount,
		SlippageGuard:      guard,
		MinVaultSharePrice: sharePrice,
		Options: abiOptions{
			Destination: common.HexToAddress(o.Options.Destination),
			AsBase:      o.Options.AsBase,
			ExtraData:   extraData,
		},
		OrderType: uint8(o.OrderType),
		Expiry:    big.NewInt(o.Expiry),
		Signature: signature,
	}
	copy(out.Salt[:], saltBytes)
	return out, nil
}
