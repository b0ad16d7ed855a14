// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package maintainer owns a running copy of a ledger and advances it by
// running the ledger programs in an execution environment.
package maintainer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/ids"

	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/zkledger/ledger"
	"github.com/ava-labs/zkledger/programs"
	"github.com/ava-labs/zkledger/receipt"
	"github.com/ava-labs/zkledger/zkvm"
)

var (
	errNilState       = errors.New("nil genesis state")
	errNilTransaction = errors.New("nil transaction")

	errDigestMismatch      = fmt.Errorf("%w: journal does not commit to the states of the run", zkvm.ErrExecution)
	errTransactionMismatch = fmt.Errorf("%w: journal does not restate the issued transaction", zkvm.ErrExecution)
)

// Maintainer holds the authoritative state of one ledger. Every transition
// is produced by the environment and yields a receipt.
type Maintainer struct {
	lock sync.Mutex

	env     zkvm.Environment
	table   programs.Table
	state   *ledger.LedgerState
	history History
	log     log.Logger
}

// Option configures a Maintainer.
type Option func(*Maintainer)

// WithLogger sets the maintainer's logger.
func WithLogger(logger log.Logger) Option {
	return func(m *Maintainer) { m.log = logger }
}

// WithHistory records every transition in [h].
func WithHistory(h History) Option {
	return func(m *Maintainer) { m.history = h }
}

// New returns a maintainer for a copy of [genesis].
func New(env zkvm.Environment, table programs.Table, genesis *ledger.LedgerState, opts ...Option) (*Maintainer, error) {
	if genesis == nil {
		return nil, errNilState
	}
	if err := genesis.Verify(); err != nil {
		return nil, fmt.Errorf("invalid genesis state: %w", err)
	}
	m := &Maintainer{
		env:   env,
		table: table,
		state: genesis.Clone(),
		log:   log.Root(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.history == nil {
		m.history = NewHistory(memdb.New())
	}
	return m, nil
}

// Init proves the current state. The state is not modified.
func (m *Maintainer) Init(ctx context.Context) (*receipt.InitMessage, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	input, err := m.state.Bytes()
	if err != nil {
		return nil, err
	}
	digest, err := m.state.Digest()
	if err != nil {
		return nil, err
	}
	session, err := m.env.Run(ctx, m.table.Init, input)
	if err != nil {
		return nil, err
	}
	msg, err := receipt.NewInit(m.env, m.table, session.Receipt)
	if err != nil {
		return nil, err
	}
	if err := m.record(programs.Init, session.Receipt, digest); err != nil {
		return nil, err
	}

	m.log.Info("initialized ledger", "stateDigest", digest, "accounts", len(m.state.Accounts))
	return msg, nil
}

// Issue applies [tx] to the current state. A rejected transfer is still a
// transition: the state is replaced and a receipt is returned with
// TransferCounted set to false. If the environment fails the state is left
// untouched.
func (m *Maintainer) Issue(ctx context.Context, tx *ledger.Transaction) (*receipt.IssueMessage, error) {
	if tx == nil {
		return nil, errNilTransaction
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	params := ledger.NewIssueTransactionParams(m.state, tx)
	oldDigest, err := params.State.Digest()
	if err != nil {
		return nil, err
	}
	input, err := ledger.Marshal(params)
	if err != nil {
		return nil, err
	}
	session, err := m.env.Run(ctx, m.table.Issue, input)
	if err != nil {
		return nil, err
	}

	result := &ledger.IssueTransactionResult{}
	if err := ledger.Unmarshal(session.Output, result); err != nil {
		return nil, zkvm.ExecutionError(fmt.Errorf("couldn't parse program output: %w", err))
	}
	if err := result.State.Verify(); err != nil {
		return nil, zkvm.ExecutionError(fmt.Errorf("program returned invalid state: %w", err))
	}
	newDigest, err := result.State.Digest()
	if err != nil {
		return nil, err
	}

	msg, err := receipt.NewIssue(m.env, m.table, session.Receipt)
	if err != nil {
		return nil, err
	}
	// The session comes from our own environment, so the journal is read
	// without checking the seal. It must still agree with the input and the
	// output.
	claimed, err := msg.Claimed()
	if err != nil {
		return nil, zkvm.ExecutionError(err)
	}
	commit := claimed.Untrusted()
	if commit.OldStateDigest != oldDigest || commit.NewStateDigest != newDigest {
		return nil, errDigestMismatch
	}
	if commit.Sender != tx.Sender ||
		commit.Receiver != tx.Receiver ||
		commit.Tokens != tx.Tokens ||
		commit.TransferCounted != result.TransferCounted {
		return nil, errTransactionMismatch
	}

	if err := m.record(programs.Issue, session.Receipt, newDigest); err != nil {
		return nil, err
	}
	m.state = result.State.Clone()

	m.log.Debug("issued transaction",
		"sender", tx.Sender,
		"receiver", tx.Receiver,
		"tokens", tx.Tokens,
		"transferCounted", result.TransferCounted,
		"transferCount", m.state.TransferCount,
		"stateDigest", newDigest,
	)
	return msg, nil
}

// State returns a copy of the current state.
func (m *Maintainer) State() *ledger.LedgerState {
	m.lock.Lock()
	defer m.lock.Unlock()

	return m.state.Clone()
}

// History returns the maintainer's transition log.
func (m *Maintainer) History() History { return m.history }

// Digest returns the digest of the current state.
func (m *Maintainer) Digest() (ids.ID, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	return m.state.Digest()
}

// record appends a transition and commits it. On failure nothing is kept.
func (m *Maintainer) record(kind programs.Kind, r *zkvm.Receipt, digest ids.ID) error {
	receiptBytes, err := r.Bytes()
	if err != nil {
		return err
	}
	if _, err := m.history.Append(&Entry{
		Kind:        kind,
		Receipt:     receiptBytes,
		StateDigest: digest,
	}); err != nil {
		m.history.Abort()
		return err
	}
	if err := m.history.Commit(); err != nil {
		m.history.Abort()
		return err
	}
	return nil
}
