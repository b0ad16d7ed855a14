// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package zkvm

import (
	"crypto/subtle"
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/hashing"
)

var _ Sealer = DevSealer{}

// DevSealer seals a journal with a bare hash of the seal message. Anyone can
// produce a valid dev seal, so it only detects accidental corruption. Use it
// for local development.
type DevSealer struct{}

// Seal implements Sealer.
func (DevSealer) Seal(programID ids.ID, journal []byte) ([]byte, error) {
	return hashing.ComputeHash256(sealMessage(programID, journal)), nil
}

// Verify implements Verifier.
func (d DevSealer) Verify(receipt *Receipt, programID ids.ID) error {
	if receipt == nil {
		return errNilReceipt
	}
	expected, _ := d.Seal(programID, receipt.Journal)
	if subtle.ConstantTimeCompare(expected, receipt.Seal) != 1 {
		return fmt.Errorf("%w: seal does not match program %s", ErrVerification, programID)
	}
	return nil
}
