// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package maintainer

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/zkledger/guest"
	"github.com/ava-labs/zkledger/ledger"
	"github.com/ava-labs/zkledger/programs"
	"github.com/ava-labs/zkledger/zkvm"
)

func newTestMaintainer(t *testing.T, genesis map[string]uint32, opts ...Option) (*Maintainer, zkvm.Environment) {
	sealer, err := zkvm.GenerateAttestSealer()
	require.NoError(t, err)
	env, err := guest.NewExecutor(sealer, programs.Current())
	require.NoError(t, err)
	m, err := New(env, programs.Current(), ledger.NewLedgerState(genesis), opts...)
	require.NoError(t, err)
	return m, env
}

func TestScenario(t *testing.T) {
	assert := assert.New(t)
	m, _ := newTestMaintainer(t, map[string]uint32{"A": 1000})
	ctx := context.Background()

	initMsg, err := m.Init(ctx)
	assert.NoError(err)
	assert.True(initMsg.Verify())
	assert.Zero(m.State().TransferCount)

	genesisDigest, err := m.Digest()
	assert.NoError(err)
	initCommit, err := initMsg.VerifyAndGetCommit()
	assert.NoError(err)
	assert.Equal(genesisDigest, initCommit.StateDigest)

	msg, err := m.Issue(ctx, &ledger.Transaction{Sender: "A", Receiver: "B", Tokens: 100})
	assert.NoError(err)
	state := m.State()
	assert.Equal(map[string]uint32{"A": 900, "B": 100}, state.Balances())
	assert.EqualValues(1, state.TransferCount)

	commit, err := msg.VerifyAndGetCommit()
	assert.NoError(err)
	assert.Equal(genesisDigest, commit.OldStateDigest)
	afterFirst, err := state.Digest()
	assert.NoError(err)
	assert.Equal(afterFirst, commit.NewStateDigest)
	assert.True(commit.TransferCounted)

	msg, err = m.Issue(ctx, &ledger.Transaction{Sender: "B", Receiver: "C", Tokens: 50})
	assert.NoError(err)
	state = m.State()
	assert.Equal(map[string]uint32{"A": 900, "B": 50, "C": 50}, state.Balances())
	assert.EqualValues(2, state.TransferCount)

	commit, err = msg.VerifyAndGetCommit()
	assert.NoError(err)
	assert.Equal(afterFirst, commit.OldStateDigest)
	afterSecond, err := state.Digest()
	assert.NoError(err)
	assert.Equal(afterSecond, commit.NewStateDigest)
}

func TestInsufficientFunds(t *testing.T) {
	assert := assert.New(t)
	m, _ := newTestMaintainer(t, map[string]uint32{"A": 10})

	before := m.State()
	beforeDigest, err := before.Digest()
	assert.NoError(err)

	msg, err := m.Issue(context.Background(), &ledger.Transaction{Sender: "A", Receiver: "B", Tokens: 100})
	assert.NoError(err)
	assert.Equal(before, m.State())

	assert.True(msg.Verify())
	commit, err := msg.VerifyAndGetCommit()
	assert.NoError(err)
	assert.False(commit.TransferCounted)
	assert.Equal(beforeDigest, commit.OldStateDigest)
	assert.Equal(beforeDigest, commit.NewStateDigest)

	height, err := m.History().Height()
	assert.NoError(err)
	assert.EqualValues(1, height)
}

func TestStateIsACopy(t *testing.T) {
	assert := assert.New(t)

	genesis := ledger.NewLedgerState(map[string]uint32{"A": 10})
	m, _ := newTestMaintainer(t, map[string]uint32{"A": 10})

	state := m.State()
	assert.True(state.Transfer("A", "B", 10))
	assert.Equal(genesis, m.State())
}

func TestNewRejectsInvalidGenesis(t *testing.T) {
	assert := assert.New(t)

	env, err := guest.NewExecutor(zkvm.DevSealer{}, programs.Current())
	assert.NoError(err)

	_, err = New(env, programs.Current(), nil)
	assert.ErrorIs(err, errNilState)

	unsorted := &ledger.LedgerState{Accounts: []ledger.Account{{ID: "B"}, {ID: "A"}}}
	_, err = New(env, programs.Current(), unsorted)
	assert.Error(err)

	_, err = New(env, programs.Current(), ledger.NewLedgerState(nil))
	assert.NoError(err)
}

func TestIssueNilTransaction(t *testing.T) {
	m, _ := newTestMaintainer(t, map[string]uint32{"A": 10})
	_, err := m.Issue(context.Background(), nil)
	assert.ErrorIs(t, err, errNilTransaction)
}

// failingEnv fails every run.
type failingEnv struct {
	zkvm.Environment
	err error
}

func (f *failingEnv) Run(context.Context, ids.ID, []byte) (*zkvm.Session, error) {
	return nil, f.err
}

// lyingEnv returns the real output of the Issue program with the journal of
// another run.
type lyingEnv struct {
	zkvm.Environment
	journal []byte
}

func (l *lyingEnv) Run(ctx context.Context, programID ids.ID, input []byte) (*zkvm.Session, error) {
	session, err := l.Environment.Run(ctx, programID, input)
	if err != nil {
		return nil, err
	}
	session.Receipt.Journal = l.journal
	return session, nil
}

func TestEnvironmentFailureIsAtomic(t *testing.T) {
	assert := assert.New(t)

	errResources := errors.New("out of resources")
	env, err := guest.NewExecutor(zkvm.DevSealer{}, programs.Current())
	assert.NoError(err)
	m, err := New(&failingEnv{Environment: env, err: errResources}, programs.Current(), ledger.NewLedgerState(map[string]uint32{"A": 1000}))
	assert.NoError(err)

	before := m.State()
	_, err = m.Issue(context.Background(), &ledger.Transaction{Sender: "A", Receiver: "B", Tokens: 100})
	assert.ErrorIs(err, errResources)
	assert.Equal(before, m.State())

	_, err = m.Init(context.Background())
	assert.ErrorIs(err, errResources)

	height, err := m.History().Height()
	assert.NoError(err)
	assert.Zero(height)
}

func TestUnknownProgramIsAtomic(t *testing.T) {
	assert := assert.New(t)

	env := zkvm.NewExecutor(zkvm.DevSealer{})
	m, err := New(env, programs.Current(), ledger.NewLedgerState(map[string]uint32{"A": 1000}))
	assert.NoError(err)

	before := m.State()
	_, err = m.Issue(context.Background(), &ledger.Transaction{Sender: "A", Receiver: "B", Tokens: 100})
	assert.ErrorIs(err, zkvm.ErrUnknownProgram)
	assert.Equal(before, m.State())
}

func TestJournalMustMatchOutput(t *testing.T) {
	assert := assert.New(t)
	m, env := newTestMaintainer(t, map[string]uint32{"A": 1000})

	// a genuine journal for a different transfer
	msg, err := m.Issue(context.Background(), &ledger.Transaction{Sender: "A", Receiver: "C", Tokens: 1})
	assert.NoError(err)
	journal := msg.Receipt().Journal

	liar, err := New(&lyingEnv{Environment: env, journal: journal}, programs.Current(), ledger.NewLedgerState(map[string]uint32{"A": 1000}))
	assert.NoError(err)
	before := liar.State()
	_, err = liar.Issue(context.Background(), &ledger.Transaction{Sender: "A", Receiver: "B", Tokens: 100})
	assert.ErrorIs(err, zkvm.ErrExecution)
	assert.ErrorIs(err, errDigestMismatch)
	assert.Equal(before, liar.State())
}

func TestJournalMustRestateTransaction(t *testing.T) {
	assert := assert.New(t)
	genesis := map[string]uint32{"A": 1000}
	m, env := newTestMaintainer(t, genesis)

	// a rejected transfer keeps the state, so both digests match any other
	// rejected transfer from the same state
	msg, err := m.Issue(context.Background(), &ledger.Transaction{Sender: "X", Receiver: "Y", Tokens: 5})
	assert.NoError(err)
	journal := msg.Receipt().Journal

	for _, tx := range []*ledger.Transaction{
		{Sender: "A", Receiver: "B", Tokens: 5000},
		{Sender: "X", Receiver: "Z", Tokens: 5},
		{Sender: "X", Receiver: "Y", Tokens: 6},
	} {
		liar, err := New(&lyingEnv{Environment: env, journal: journal}, programs.Current(), ledger.NewLedgerState(genesis))
		assert.NoError(err)
		before := liar.State()
		_, err = liar.Issue(context.Background(), tx)
		assert.ErrorIs(err, zkvm.ErrExecution)
		assert.ErrorIs(err, errTransactionMismatch)
		assert.Equal(before, liar.State())
	}

	// the same journal is accepted for the transfer it was made for
	liar, err := New(&lyingEnv{Environment: env, journal: journal}, programs.Current(), ledger.NewLedgerState(genesis))
	assert.NoError(err)
	_, err = liar.Issue(context.Background(), &ledger.Transaction{Sender: "X", Receiver: "Y", Tokens: 5})
	assert.NoError(err)
}

func TestJournalMustCommitToOldState(t *testing.T) {
	assert := assert.New(t)
	m, env := newTestMaintainer(t, map[string]uint32{"A": 1000})

	// a rejected transfer from another state that ends in the liar's state
	_, err := m.Issue(context.Background(), &ledger.Transaction{Sender: "A", Receiver: "B", Tokens: 100})
	assert.NoError(err)
	msg, err := m.Issue(context.Background(), &ledger.Transaction{Sender: "A", Receiver: "B", Tokens: 5000})
	assert.NoError(err)
	journal := msg.Receipt().Journal

	liar, err := New(&lyingEnv{Environment: env, journal: journal}, programs.Current(), ledger.NewLedgerState(map[string]uint32{"A": 1000}))
	assert.NoError(err)
	before := liar.State()
	_, err = liar.Issue(context.Background(), &ledger.Transaction{Sender: "A", Receiver: "B", Tokens: 100})
	assert.ErrorIs(err, zkvm.ErrExecution)
	assert.ErrorIs(err, errDigestMismatch)
	assert.Equal(before, liar.State())
}

func TestHistory(t *testing.T) {
	assert := assert.New(t)

	h := NewHistory(memdb.New())
	m, env := newTestMaintainer(t, map[string]uint32{"A": 1000}, WithHistory(h))
	ctx := context.Background()

	_, ok, err := h.Genesis()
	assert.NoError(err)
	assert.False(ok)

	_, err = m.Init(ctx)
	assert.NoError(err)
	genesisDigest, err := m.Digest()
	assert.NoError(err)

	for _, tx := range []*ledger.Transaction{
		{Sender: "A", Receiver: "B", Tokens: 100},
		{Sender: "B", Receiver: "C", Tokens: 50},
		{Sender: "Z", Receiver: "C", Tokens: 50},
	} {
		_, err := m.Issue(ctx, tx)
		assert.NoError(err)
	}

	height, err := h.Height()
	assert.NoError(err)
	assert.EqualValues(4, height)

	digest, ok, err := h.Genesis()
	assert.NoError(err)
	assert.True(ok)
	assert.Equal(genesisDigest, digest)

	// every entry verifies and chains onto the previous digest
	prev := genesisDigest
	for i := uint64(0); i < height; i++ {
		entry, err := h.Get(i)
		assert.NoError(err)
		r, err := entry.ParseReceipt()
		assert.NoError(err)

		programID, err := programs.Current().ID(entry.Kind)
		assert.NoError(err)
		assert.NoError(env.Verify(r, programID))

		if entry.Kind == programs.Issue {
			commit := &ledger.IssueTransactionCommit{}
			assert.NoError(ledger.Unmarshal(r.Journal, commit))
			assert.Equal(prev, commit.OldStateDigest)
			assert.Equal(entry.StateDigest, commit.NewStateDigest)
		}
		prev = entry.StateDigest
	}
	current, err := m.Digest()
	assert.NoError(err)
	assert.Equal(current, prev)

	_, err = h.Get(height)
	assert.ErrorIs(err, errNoSuchEntry)
}

func TestHistoryEntriesAreCopies(t *testing.T) {
	assert := assert.New(t)

	h := NewHistory(memdb.New())
	m, _ := newTestMaintainer(t, map[string]uint32{"A": 1000}, WithHistory(h))
	_, err := m.Issue(context.Background(), &ledger.Transaction{Sender: "A", Receiver: "B", Tokens: 100})
	assert.NoError(err)

	// the first read fills the cache and the second is served from it
	for i := 0; i < 2; i++ {
		entry, err := h.Get(0)
		assert.NoError(err)
		receipt := append([]byte(nil), entry.Receipt...)
		digest := entry.StateDigest

		entry.Receipt[0] ^= 0xff
		entry.StateDigest = ids.Empty
		entry.Kind = programs.Init

		again, err := h.Get(0)
		assert.NoError(err)
		assert.Equal(receipt, again.Receipt)
		assert.Equal(digest, again.StateDigest)
		assert.Equal(programs.Issue, again.Kind)
		_, err = again.ParseReceipt()
		assert.NoError(err)
	}
}

func TestHistoryAbort(t *testing.T) {
	assert := assert.New(t)

	h := NewHistory(memdb.New())
	_, err := h.Append(&Entry{Kind: programs.Init, StateDigest: ids.ID{1}})
	assert.NoError(err)
	assert.NoError(h.Commit())

	_, err = h.Append(&Entry{Kind: programs.Issue, StateDigest: ids.ID{2}})
	assert.NoError(err)
	entry, err := h.Get(1)
	assert.NoError(err)
	assert.Equal(ids.ID{2}, entry.StateDigest)

	h.Abort()
	height, err := h.Height()
	assert.NoError(err)
	assert.EqualValues(1, height)
	_, err = h.Get(1)
	assert.ErrorIs(err, errNoSuchEntry)

	// a later Init does not move the genesis anchor
	_, err = h.Append(&Entry{Kind: programs.Init, StateDigest: ids.ID{3}})
	assert.NoError(err)
	digest, ok, err := h.Genesis()
	assert.NoError(err)
	assert.True(ok)
	assert.Equal(ids.ID{1}, digest)

	assert.NoError(h.Close())
}

func TestConcurrentIssue(t *testing.T) {
	assert := assert.New(t)
	m, _ := newTestMaintainer(t, map[string]uint32{"A": 1000})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Issue(context.Background(), &ledger.Transaction{Sender: "A", Receiver: "B", Tokens: 10})
			assert.NoError(err)
		}()
	}
	wg.Wait()

	state := m.State()
	assert.Equal(map[string]uint32{"A": 900, "B": 100}, state.Balances())
	assert.EqualValues(10, state.TransferCount)
}
