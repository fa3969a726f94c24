package intent

import (
	"crypto/ecdsa"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/hyperdrive-otc/api/internal/types"
)

// Signer produces signed order intents under a fixed typed-data domain.
type Signer struct {
	privateKey     *ecdsa.PrivateKey
	chainID        int64
	matchingEngine string
}

// NewSigner creates a signer from a hex-encoded private key. The chain id and
// matching engine address pin the EIP-712 domain.
func NewSigner(privateKeyHex string, chainID int64, matchingEngine string) (*Signer, error) {
	privateKeyHex = strings.TrimPrefix(privateKeyHex, "0x")
	privateKey, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return &Signer{
		privateKey:     privateKey,
		chainID:        chainID,
		matchingEngine: matchingEngine,
	}, nil
}

// Address returns the signer's account address.
func (s *Signer) Address() common.Address {
	return crypto.PubkeyToAddress(s.privateKey.PublicKey)
}

// Sign computes the EIP-712 digest of the intent and sets its Signature
// field. The signature is deterministic for identical field values and
// breaks on any single-bit change, salt included.
func (s *Signer) Sign(o *types.OrderIntent) error {
	digest, err := Digest(o, s.chainID, s.matchingEngine)
	if err != nil {
		return err
	}

	sig, err := crypto.Sign(digest, s.privateKey)
	if err != nil {
		return fmt.Errorf("sign intent: %w", err)
	}
	// Ethereum convention: recovery id as 27/28.
	sig[64] += 27

	o.Signature = "0x" + hex.EncodeToString(sig)
	return nil
}

// GenerateSalt draws a fresh 32-byte salt from the OS CSPRNG. One salt per
// intent; it is what distinguishes two otherwise-identical orders.
func GenerateSalt() (string, error) {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return "0x" + hex.EncodeToString(b[:]), nil
}
