// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package zkvm is the execution environment the ledger programs run in. A
// run produces a Receipt: the public journal the program committed plus a
// seal binding that journal to the program's identity. The environment is
// consumed through the narrow Environment interface so the sealing backend
// can be swapped without touching the ledger or the service.
package zkvm

import (
	"context"
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/hashing"
)

var (
	// ErrExecution is returned when a program could not run to completion.
	ErrExecution = errors.New("program execution failed")
	// ErrVerification is returned when a seal does not bind a journal to the
	// claimed program identity.
	ErrVerification = errors.New("receipt verification failed")
	// ErrMalformedReceipt is returned when receipt bytes cannot be parsed.
	ErrMalformedReceipt = errors.New("malformed receipt")

	ErrUnknownProgram = fmt.Errorf("%w: unknown program", ErrExecution)
)

// kindError tags a cause with one of the error kinds above. Both the kind and
// the cause match with errors.Is.
type kindError struct {
	kind  error
	cause error
}

func (e *kindError) Error() string { return e.kind.Error() + ": " + e.cause.Error() }

func (e *kindError) Is(target error) bool { return errors.Is(e.kind, target) }

func (e *kindError) Unwrap() error { return e.cause }

// ExecutionError marks [err] as an ErrExecution.
func ExecutionError(err error) error {
	return &kindError{kind: ErrExecution, cause: err}
}

// Verifier checks receipts. It is the only half of the environment a third
// party needs.
type Verifier interface {
	// Verify returns nil iff [receipt] was produced by running [programID].
	Verify(receipt *Receipt, programID ids.ID) error
}

// Environment runs programs and verifies their receipts.
type Environment interface {
	Verifier

	// Run executes [programID] on [input]. The call is synchronous; [ctx] is
	// only consulted before execution starts.
	Run(ctx context.Context, programID ids.ID, input []byte) (*Session, error)
}

// Sealer produces and checks the seal of a journal.
type Sealer interface {
	Verifier

	Seal(programID ids.ID, journal []byte) ([]byte, error)
}

// Receipt is the proof of a program run.
type Receipt struct {
	// Journal is the public output of the run.
	Journal []byte
	// Seal attests that Journal was produced by a specific program.
	Seal []byte
}

// ID is the content hash of the receipt's encoding.
func (r *Receipt) ID() (ids.ID, error) {
	b, err := MarshalReceipt(r)
	if err != nil {
		return ids.Empty, err
	}
	return hashing.ComputeHash256Array(b), nil
}

// Bytes returns the encoding of the receipt.
func (r *Receipt) Bytes() ([]byte, error) {
	return MarshalReceipt(r)
}

// Clone returns a deep copy of the receipt.
func (r *Receipt) Clone() *Receipt {
	return &Receipt{
		Journal: append([]byte(nil), r.Journal...),
		Seal:    append([]byte(nil), r.Seal...),
	}
}

// Session is the result of a run. Output is the program's private output; it
// is returned to the caller of Run only and is not covered by the seal.
type Session struct {
	Receipt *Receipt
	Output  []byte
}
