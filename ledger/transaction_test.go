// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProcessDoesNotMutateParams(t *testing.T) {
	assert := assert.New(t)

	state := NewLedgerState(map[string]uint32{"A": 1000})
	params := NewIssueTransactionParams(state, &Transaction{Sender: "A", Receiver: "B", Tokens: 100})

	// params hold their own copy
	assert.True(state.Transfer("A", "C", 1))
	_, exists := params.State.Balance("C")
	assert.False(exists)

	result := params.Process()
	assert.True(result.TransferCounted)
	assert.EqualValues(100, result.Tokens)
	assert.Equal(map[string]uint32{"A": 900, "B": 100}, result.State.Balances())
	assert.EqualValues(1, result.State.TransferCount)

	assert.Equal(map[string]uint32{"A": 1000}, params.State.Balances())
	assert.Zero(params.State.TransferCount)
}

func TestProcessRejected(t *testing.T) {
	assert := assert.New(t)

	state := NewLedgerState(map[string]uint32{"A": 10})
	params := NewIssueTransactionParams(state, &Transaction{Sender: "A", Receiver: "B", Tokens: 100})
	result := params.Process()
	assert.False(result.TransferCounted)
	assert.EqualValues(100, result.Tokens)
	assert.Equal(*state, result.State)
}

func TestIssueTransactionCommit(t *testing.T) {
	assert := assert.New(t)

	state := NewLedgerState(map[string]uint32{"A": 1000})
	params := NewIssueTransactionParams(state, &Transaction{Sender: "A", Receiver: "B", Tokens: 100})
	result := params.Process()

	commit, err := NewIssueTransactionCommit(params, result)
	assert.NoError(err)

	oldDigest, err := state.Digest()
	assert.NoError(err)
	newDigest, err := result.State.Digest()
	assert.NoError(err)
	assert.Equal(oldDigest, commit.OldStateDigest)
	assert.Equal(newDigest, commit.NewStateDigest)
	assert.NotEqual(commit.OldStateDigest, commit.NewStateDigest)
	assert.Equal("A", commit.Sender)
	assert.Equal("B", commit.Receiver)
	assert.EqualValues(100, commit.Tokens)
	assert.True(commit.TransferCounted)

	initCommit, err := NewInitializeLedgerCommit(state)
	assert.NoError(err)
	assert.Equal(oldDigest, initCommit.StateDigest)
}

func TestParseTransaction(t *testing.T) {
	assert := assert.New(t)

	tx := &Transaction{Sender: "alice", Receiver: "bob", Tokens: 42}
	b, err := tx.Bytes()
	assert.NoError(err)
	parsed, err := ParseTransaction(b)
	assert.NoError(err)
	assert.Equal(tx, parsed)

	_, err = ParseTransaction(b[:len(b)-1])
	assert.ErrorIs(err, ErrDecode)
}

func TestParseSignatures(t *testing.T) {
	assert := assert.New(t)

	sigs := &Signatures{Values: [][]byte{{1, 2, 3}, {4}}}
	b, err := sigs.Bytes()
	assert.NoError(err)
	parsed, err := ParseSignatures(b)
	assert.NoError(err)
	assert.Equal(sigs, parsed)

	_, err = ParseSignatures([]byte{0xff})
	assert.ErrorIs(err, ErrDecode)
}
