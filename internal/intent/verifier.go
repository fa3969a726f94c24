package intent

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/hyperdrive-otc/api/internal/types"
)

var (
	ErrNoSignature  = errors.New("intent: missing signature")
	ErrBadSignature = errors.New("intent: signature does not verify against trader")
)

// Verifier checks that a claimed trader actually authorized an intent's
// fields, under the same domain the Signer uses.
type Verifier struct {
	chainID        int64
	matchingEngine string
}

func NewVerifier(chainID int64, matchingEngine string) *Verifier {
	return &Verifier{chainID: chainID, matchingEngine: matchingEngine}
}

// Verify recovers the signing address from the intent's signature and
// compares it to the trader field. Any failure, including a missing or
// unparseable signature, is an error; callers gate mutations on nil.
func (v *Verifier) Verify(o *types.OrderIntent) error {
	if o.Signature == "" {
		return ErrNoSignature
	}

	sig, err := types.ParseHexBytes(o.Signature)
	if err != nil || len(sig) != crypto.SignatureLength {
		return fmt.Errorf("%w: malformed signature", ErrBadSignature)
	}

	// Normalize the recovery id back to 0/1 for recovery.
	sig = append([]byte(nil), sig...)
	if sig[64] >= 27 {
		sig[64] -= 27
	}

	digest, err := Digest(o, v.chainID, v.matchingEngine)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	}

	pub, err := crypto.SigToPub(digest, sig)
	if err != nil {
		return fmt.Errorf("%w: recover: %v", ErrBadSignature, err)
	}

	recovered := crypto.PubkeyToAddress(*pub)
	if !strings.EqualFold(recovered.Hex(), common.HexToAddress(o.Trader).Hex()) {
		return fmt.Errorf("%w: recovered %s", ErrBadSignature, recovered.Hex())
	}
	return nil
}
