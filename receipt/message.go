// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package receipt couples a receipt with typed access to the commit in its
// journal.
//
// There are two ways to read a commit. Claimed decodes the journal without
// checking the seal and returns an Unverified value; whoever relies on it
// trusts whoever handed over the receipt. VerifyAndGetCommit checks the seal
// first and only then decodes. Only the latter yields a plain commit.
package receipt

import (
	"errors"

	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/zkledger/ledger"
	"github.com/ava-labs/zkledger/programs"
	"github.com/ava-labs/zkledger/zkvm"
)

var errNilReceipt = errors.New("nil receipt")

// Commit is the set of journal types.
type Commit interface {
	ledger.InitializeLedgerCommit | ledger.IssueTransactionCommit
}

// Message is a receipt created against one program kind.
type Message[C Commit] struct {
	kind      programs.Kind
	programID ids.ID
	receipt   *zkvm.Receipt
	verifier  zkvm.Verifier
}

type (
	InitMessage  = Message[ledger.InitializeLedgerCommit]
	IssueMessage = Message[ledger.IssueTransactionCommit]
)

// NewInit wraps a receipt of the Init program.
func NewInit(v zkvm.Verifier, t programs.Table, r *zkvm.Receipt) (*InitMessage, error) {
	return newMessage[ledger.InitializeLedgerCommit](programs.Init, v, t, r)
}

// NewIssue wraps a receipt of the Issue program.
func NewIssue(v zkvm.Verifier, t programs.Table, r *zkvm.Receipt) (*IssueMessage, error) {
	return newMessage[ledger.IssueTransactionCommit](programs.Issue, v, t, r)
}

func newMessage[C Commit](kind programs.Kind, v zkvm.Verifier, t programs.Table, r *zkvm.Receipt) (*Message[C], error) {
	if r == nil {
		return nil, errNilReceipt
	}
	programID, err := t.ID(kind)
	if err != nil {
		return nil, err
	}
	return &Message[C]{
		kind:      kind,
		programID: programID,
		receipt:   r.Clone(),
		verifier:  v,
	}, nil
}

// Kind is the program kind the receipt is checked against.
func (m *Message[C]) Kind() programs.Kind { return m.kind }

// ProgramID is the identity the receipt is checked against.
func (m *Message[C]) ProgramID() ids.ID { return m.programID }

// Receipt returns a copy of the wrapped receipt.
func (m *Message[C]) Receipt() *zkvm.Receipt { return m.receipt.Clone() }

// Claimed decodes the journal without checking the seal.
func (m *Message[C]) Claimed() (Unverified[C], error) {
	var commit C
	if err := ledger.Unmarshal(m.receipt.Journal, &commit); err != nil {
		return Unverified[C]{}, err
	}
	return Unverified[C]{commit: commit}, nil
}

// VerifyErr checks the seal against the program identity.
func (m *Message[C]) VerifyErr() error {
	return m.verifier.Verify(m.receipt, m.programID)
}

// Verify reports whether the seal binds the journal to the program identity.
// The reason for a failure is dropped.
func (m *Message[C]) Verify() bool {
	return m.VerifyErr() == nil
}

// VerifyAndGetCommit checks the seal and, only if it holds, decodes the
// journal.
func (m *Message[C]) VerifyAndGetCommit() (*C, error) {
	if err := m.VerifyErr(); err != nil {
		return nil, err
	}
	commit := new(C)
	if err := ledger.Unmarshal(m.receipt.Journal, commit); err != nil {
		return nil, err
	}
	return commit, nil
}

// Unverified is a commit decoded from a journal whose seal was not checked.
type Unverified[C Commit] struct {
	commit C
}

// Untrusted returns the decoded commit. It must not feed a trust decision.
func (u Unverified[C]) Untrusted() C { return u.commit }
