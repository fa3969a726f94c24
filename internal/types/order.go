package types

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// OrderStatus is the lifecycle state of a stored order. It doubles as the
// first path segment of the storage key, so values are lowercase.
type OrderStatus string

const (
	StatusPending  OrderStatus = "pending"
	StatusFilled   OrderStatus = "filled"
	StatusCanceled OrderStatus = "canceled"
)

// ParseOrderStatus validates a status string from a key or query parameter.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(s) {
	case StatusPending, StatusFilled, StatusCanceled:
		return OrderStatus(s), nil
	}
	return "", fmt.Errorf("invalid order status %q", s)
}

// OrderType is the side of a fixed-rate position. The numeric values match
// the uint8 encoding used in the signed typed data and the settlement call.
type OrderType uint8

const (
	OrderTypeLong OrderType = iota
	OrderTypeShort
)

func (t OrderType) String() string {
	if t == OrderTypeLong {
		return "long"
	}
	return "short"
}

// OrderOptions is forwarded verbatim to the settlement call.
type OrderOptions struct {
	Destination string `json:"destination"`
	AsBase      bool   `json:"asBase"`
	ExtraData   string `json:"extraData"`
}

// OrderIntent is the signed, immutable trade request. Amounts are decimal
// strings because the underlying values are 256-bit integers and must not
// pass through floating point.
type OrderIntent struct {
	Trader             string       `json:"trader"`
	Hyperdrive         string       `json:"hyperdrive"`
	Amount             string       `json:"amount"`
	SlippageGuard      string       `json:"slippageGuard"`
	MinVaultSharePrice string       `json:"minVaultSharePrice"`
	Options            OrderOptions `json:"options"`
	OrderType          OrderType    `json:"orderType"`
	Expiry             int64        `json:"expiry"`
	Salt               string       `json:"salt"`
	Signature          string       `json:"signature,omitempty"`
}

// Validate checks field shapes only; signature validity is the verifier's job.
func (o *OrderIntent) Validate() error {
	if !common.IsHexAddress(o.Trader) {
		return fmt.Errorf("trader is not a valid address: %q", o.Trader)
	}
	if !common.IsHexAddress(o.Hyperdrive) {
		return fmt.Errorf("hyperdrive is not a valid address: %q", o.Hyperdrive)
	}
	if !common.IsHexAddress(o.Options.Destination) {
		return fmt.Errorf("options.destination is not a valid address: %q", o.Options.Destination)
	}
	for _, f := range []struct{ name, val string }{
		{"amount", o.Amount},
		{"slippageGuard", o.SlippageGuard},
		{"minVaultSharePrice", o.MinVaultSharePrice},
	} {
		if _, err := ParseBig(f.val); err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
	}
	if o.OrderType != OrderTypeLong && o.OrderType != OrderTypeShort {
		return fmt.Errorf("invalid order type %d", o.OrderType)
	}
	if o.Expiry <= 0 {
		return fmt.Errorf("expiry must be a positive unix timestamp")
	}
	if err := ValidateSalt(o.Salt); err != nil {
		return err
	}
	return nil
}

// ParseBig coerces a decimal string field into the integer domain used at
// signing time. Negative values are rejected; every signed field is uint256.
func ParseBig(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("not a decimal integer: %q", s)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("negative value: %q", s)
	}
	return v, nil
}

// ValidateSalt requires a 0x-prefixed 32-byte hex string.
func ValidateSalt(s string) error {
	if !strings.HasPrefix(s, "0x") || len(s) != 66 {
		return fmt.Errorf("salt must be a 0x-prefixed 32-byte hex string")
	}
	if _, err := ParseHexBytes(s); err != nil {
		return fmt.Errorf("salt: %w", err)
	}
	return nil
}

// ParseHexBytes decodes a 0x-prefixed hex string. An empty or bare "0x"
// string decodes to nil, which is what the settlement ABI expects for an
// absent extraData payload.
func ParseHexBytes(s string) ([]byte, error) {
	if s == "" || s == "0x" {
		return nil, nil
	}
	if !strings.HasPrefix(s, "0x") {
		return nil, fmt.Errorf("missing 0x prefix: %q", s)
	}
	b := common.FromHex(s)
	if len(b) == 0 {
		return nil, fmt.Errorf("invalid hex: %q", s)
	}
	return b, nil
}

// OrderData is the persisted payload: the intent plus lifecycle metadata.
// CanceledAt is set on tombstones; MatchKey is set on filled records and
// references the pending key of the matched counter-order.
type OrderData struct {
	OrderIntent
	CanceledAt int64  `json:"canceledAt,omitempty"`
	MatchKey   string `json:"matchKey,omitempty"`
}

// OrderRecord is the server-side wrapper returned by every store operation.
type OrderRecord struct {
	Status OrderStatus `json:"status"`
	Key    string      `json:"key"`
	Data   OrderData   `json:"data"`
}
