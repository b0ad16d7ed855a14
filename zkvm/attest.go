// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package zkvm

import (
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/crypto"
)

var (
	factory crypto.FactorySECP256K1R

	_ Sealer   = &AttestSealer{}
	_ Verifier = &AttestVerifier{}
)

// AttestSealer seals journals with a secp256k1 attestation key held by the
// environment. Receipts are checked with the matching public key.
type AttestSealer struct {
	key      crypto.PrivateKey
	verifier *AttestVerifier
}

// NewAttestSealer returns a sealer for [key].
func NewAttestSealer(key crypto.PrivateKey) *AttestSealer {
	return &AttestSealer{
		key:      key,
		verifier: &AttestVerifier{key: key.PublicKey()},
	}
}

// GenerateAttestSealer returns a sealer with a fresh key.
func GenerateAttestSealer() (*AttestSealer, error) {
	key, err := factory.NewPrivateKey()
	if err != nil {
		return nil, err
	}
	return NewAttestSealer(key), nil
}

// ParseAttestSealer returns a sealer for the serialized private key [b].
func ParseAttestSealer(b []byte) (*AttestSealer, error) {
	key, err := factory.ToPrivateKey(b)
	if err != nil {
		return nil, fmt.Errorf("couldn't parse attestation key: %w", err)
	}
	return NewAttestSealer(key), nil
}

// PrivateKey returns the serialized attestation key.
func (s *AttestSealer) PrivateKey() []byte { return s.key.Bytes() }

// PublicKey returns the serialized public half of the attestation key.
func (s *AttestSealer) PublicKey() []byte { return s.key.PublicKey().Bytes() }

// Verifier returns the verify-only half of the sealer.
func (s *AttestSealer) Verifier() *AttestVerifier { return s.verifier }

// Seal implements Sealer.
func (s *AttestSealer) Seal(programID ids.ID, journal []byte) ([]byte, error) {
	return s.key.Sign(sealMessage(programID, journal))
}

// Verify implements Verifier.
func (s *AttestSealer) Verify(receipt *Receipt, programID ids.ID) error {
	return s.verifier.Verify(receipt, programID)
}

// AttestVerifier checks seals produced by an AttestSealer.
type AttestVerifier struct {
	key crypto.PublicKey
}

// NewAttestVerifier returns a verifier for the serialized public key [b].
func NewAttestVerifier(b []byte) (*AttestVerifier, error) {
	key, err := factory.ToPublicKey(b)
	if err != nil {
		return nil, fmt.Errorf("couldn't parse attestation public key: %w", err)
	}
	return &AttestVerifier{key: key}, nil
}

// Verify implements Verifier.
func (v *AttestVerifier) Verify(receipt *Receipt, programID ids.ID) error {
	if receipt == nil {
		return errNilReceipt
	}
	if !v.key.Verify(sealMessage(programID, receipt.Journal), receipt.Seal) {
		return fmt.Errorf("%w: seal does not match program %s", ErrVerification, programID)
	}
	return nil
}
