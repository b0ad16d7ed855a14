// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package guest holds the programs executed inside the environment. Both
// programs treat their input as untrusted and reject non-canonical states.
package guest

import (
	"github.com/ava-labs/avalanchego/utils/wrappers"

	"github.com/ava-labs/zkledger/ledger"
	"github.com/ava-labs/zkledger/programs"
	"github.com/ava-labs/zkledger/zkvm"
)

// Init commits to the digest of the ledger state it is given.
func Init(g zkvm.Guest) error {
	state, err := ledger.ParseLedgerState(g.Input())
	if err != nil {
		return err
	}
	commit, err := ledger.NewInitializeLedgerCommit(state)
	if err != nil {
		return err
	}
	journal, err := ledger.Marshal(commit)
	if err != nil {
		return err
	}
	g.Commit(journal)
	return nil
}

// Issue applies a transaction to a ledger state. The commit names the old and
// new state by digest; the full new state is written to the private output.
func Issue(g zkvm.Guest) error {
	params := &ledger.IssueTransactionParams{}
	if err := ledger.Unmarshal(g.Input(), params); err != nil {
		return err
	}
	if err := params.State.Verify(); err != nil {
		return err
	}

	result := params.Process()
	commit, err := ledger.NewIssueTransactionCommit(params, result)
	if err != nil {
		return err
	}
	journal, err := ledger.Marshal(commit)
	if err != nil {
		return err
	}
	output, err := ledger.Marshal(result)
	if err != nil {
		return err
	}
	g.Commit(journal)
	g.Write(output)
	return nil
}

// Register adds both programs to [e] under the identities of [t].
func Register(e *zkvm.Executor, t programs.Table) error {
	errs := wrappers.Errs{}
	errs.Add(
		e.Register(t.Init, Init),
		e.Register(t.Issue, Issue),
	)
	return errs.Err
}

// NewExecutor returns an executor sealing with [sealer] that runs both
// programs of [t].
func NewExecutor(sealer zkvm.Sealer, t programs.Table, opts ...zkvm.ExecutorOption) (*zkvm.Executor, error) {
	e := zkvm.NewExecutor(sealer, opts...)
	if err := Register(e, t); err != nil {
		return nil, err
	}
	return e, nil
}
