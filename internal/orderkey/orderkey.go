// Package orderkey maps (status, trader, hyperdrive, salt) to storage keys
// and back. The encoding doubles as a list index: the status segment is a
// directory-like prefix and trader/hyperdrive narrow it progressively.
package orderkey

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/hyperdrive-otc/api/internal/types"
)

const suffix = ".json"

var ErrMalformedKey = errors.New("orderkey: malformed key")

// Encode builds the storage key "<status>/<trader>:<hyperdrive>:<salt>.json".
// Addresses are lowercased so the same triple always produces the same key
// regardless of the checksum casing a client submitted.
func Encode(status types.OrderStatus, trader, hyperdrive, salt string) string {
	return fmt.Sprintf("%s/%s:%s:%s%s",
		status,
		strings.ToLower(trader),
		strings.ToLower(hyperdrive),
		strings.ToLower(salt),
		suffix,
	)
}

// Decoded holds the fields recovered from a key.
type Decoded struct {
	Status     types.OrderStatus
	Trader     string
	Hyperdrive string
	Salt       string
}

// Decode is the exact left inverse of Encode for all valid inputs. Malformed
// keys fail with ErrMalformedKey rather than yielding partial fields.
func Decode(key string) (Decoded, error) {
	var d Decoded

	statusPart, rest, ok := strings.Cut(key, "/")
	if !ok {
		return d, fmt.Errorf("%w: missing status segment in %q", ErrMalformedKey, key)
	}
	status, err := types.ParseOrderStatus(statusPart)
	if err != nil {
		return d, fmt.Errorf("%w: %v", ErrMalformedKey, err)
	}

	rest, found := strings.CutSuffix(rest, suffix)
	if !found {
		return d, fmt.Errorf("%w: missing %s suffix in %q", ErrMalformedKey, suffix, key)
	}

	parts := strings.Split(rest, ":")
	if len(parts) != 3 {
		return d, fmt.Errorf("%w: want trader:hyperdrive:salt, got %q", ErrMalformedKey, rest)
	}
	trader, hyperdrive, salt := parts[0], parts[1], parts[2]

	if !common.IsHexAddress(trader) {
		return d, fmt.Errorf("%w: invalid trader %q", ErrMalformedKey, trader)
	}
	if !common.IsHexAddress(hyperdrive) {
		return d, fmt.Errorf("%w: invalid hyperdrive %q", ErrMalformedKey, hyperdrive)
	}
	if err := types.ValidateSalt(salt); err != nil {
		return d, fmt.Errorf("%w: %v", ErrMalformedKey, err)
	}

	return Decoded{
		Status:     status,
		Trader:     trader,
		Hyperdrive: hyperdrive,
		Salt:       salt,
	}, nil
}

// ListPrefix folds filters into a storage-list prefix, honoring the
// precedence status -> trader -> hyperdrive: a filter is folded only when
// every more-specific filter before it is also present. The second return
// reports which filters were folded; the caller must post-filter the rest.
func ListPrefix(f types.ListFilters) (prefix string, folded types.ListFilters) {
	if f.Status == "" {
		return "", folded
	}
	prefix = string(f.Status) + "/"
	folded.Status = f.Status

	if f.Trader == "" {
		return prefix, folded
	}
	prefix += strings.ToLower(f.Trader) + ":"
	folded.Trader = f.Trader

	if f.Hyperdrive == "" {
		return prefix, folded
	}
	prefix += strings.ToLower(f.Hyperdrive) + ":"
	folded.Hyperdrive = f.Hyperdrive
	return prefix, folded
}

// Matches reports whether a decoded key satisfies the given filters,
// comparing addresses case-insensitively.
func (d Decoded) Matches(f types.ListFilters) bool {
	if f.Status != "" && d.Status != f.Status {
		return false
	}
	if f.Trader != "" && !strings.EqualFold(d.Trader, f.Trader) {
		return false
	}
	if f.Hyperdrive != "" && !strings.EqualFold(d.Hyperdrive, f.Hyperdrive) {
		return false
	}
	return true
}
