// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"github.com/ava-labs/avalanchego/ids"
)

// InitializeLedgerCommit is the journal of the Init program.
type InitializeLedgerCommit struct {
	StateDigest ids.ID `serialize:"true" json:"stateDigest"`
}

// IssueTransactionCommit is the journal of the Issue program. It names the
// pre- and post-state by digest and restates the transaction.
type IssueTransactionCommit struct {
	OldStateDigest  ids.ID `serialize:"true" json:"oldStateDigest"`
	NewStateDigest  ids.ID `serialize:"true" json:"newStateDigest"`
	Sender          string `serialize:"true" json:"sender"`
	Receiver        string `serialize:"true" json:"receiver"`
	Tokens          uint32 `serialize:"true" json:"tokens"`
	TransferCounted bool   `serialize:"true" json:"transferCounted"`
}

// NewInitializeLedgerCommit commits to [state].
func NewInitializeLedgerCommit(state *LedgerState) (*InitializeLedgerCommit, error) {
	digest, err := state.Digest()
	if err != nil {
		return nil, err
	}
	return &InitializeLedgerCommit{StateDigest: digest}, nil
}

// NewIssueTransactionCommit commits to the transition from [params] to
// [result].
func NewIssueTransactionCommit(params *IssueTransactionParams, result *IssueTransactionResult) (*IssueTransactionCommit, error) {
	oldDigest, err := params.State.Digest()
	if err != nil {
		return nil, err
	}
	newDigest, err := result.State.Digest()
	if err != nil {
		return nil, err
	}
	return &IssueTransactionCommit{
		OldStateDigest:  oldDigest,
		NewStateDigest:  newDigest,
		Sender:          params.Transaction.Sender,
		Receiver:        params.Transaction.Receiver,
		Tokens:          result.Tokens,
		TransferCounted: result.TransferCounted,
	}, nil
}
