// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package zkvm

import (
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/hashing"
	"github.com/ava-labs/avalanchego/utils/wrappers"
)

const (
	receiptVersion = 0

	// MaxReceiptSize bounds the encoding of a receipt.
	MaxReceiptSize = 8 * 1024 * 1024

	sealDomain     = "zkledger/seal/v1"
	sealMessageLen = len(sealDomain) + 32 /* program ID */ + 32 /* journal hash */
)

// MarshalReceipt encodes [r] as version || journal || seal, where byte
// fields are length-prefixed.
func MarshalReceipt(r *Receipt) ([]byte, error) {
	p := wrappers.Packer{
		MaxSize: MaxReceiptSize,
		Bytes:   make([]byte, 0, wrappers.ShortLen+2*wrappers.IntLen+len(r.Journal)+len(r.Seal)),
	}
	p.PackShort(receiptVersion)
	p.PackBytes(r.Journal)
	p.PackBytes(r.Seal)
	if p.Errored() {
		return nil, &kindError{kind: ErrMalformedReceipt, cause: p.Err}
	}
	return p.Bytes, nil
}

// ParseReceipt decodes a receipt produced by MarshalReceipt.
func ParseReceipt(raw []byte) (*Receipt, error) {
	if len(raw) > MaxReceiptSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit", ErrMalformedReceipt, len(raw))
	}
	p := wrappers.Packer{Bytes: raw}
	version := p.UnpackShort()
	journal := p.UnpackBytes()
	seal := p.UnpackBytes()
	if p.Errored() {
		return nil, &kindError{kind: ErrMalformedReceipt, cause: p.Err}
	}
	if version != receiptVersion {
		return nil, fmt.Errorf("%w: unknown version %d", ErrMalformedReceipt, version)
	}
	if p.Offset != len(raw) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformedReceipt, len(raw)-p.Offset)
	}
	return &Receipt{
		Journal: append([]byte(nil), journal...),
		Seal:    append([]byte(nil), seal...),
	}, nil
}

// sealMessage is the fixed-size message a seal is computed over:
// domain || program ID || H(journal).
func sealMessage(programID ids.ID, journal []byte) []byte {
	raw := make([]byte, sealMessageLen)
	work := raw

	copy(work, sealDomain)
	work = work[len(sealDomain):]
	copy(work, programID[:])
	work = work[32:]
	journalHash := hashing.ComputeHash256Array(journal)
	copy(work, journalHash[:])
	return raw
}
