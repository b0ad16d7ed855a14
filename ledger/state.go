// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ledger defines the account ledger whose transitions are executed
// inside the execution environment, together with the records those
// executions consume and commit.
//
// The transfer rules in this package are the same code the guest programs
// run. Any change here changes what every receipt attests to.
package ledger

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/hashing"
)

var (
	errUnsortedAccounts = errors.New("accounts are not sorted by id")
	errDuplicateAccount = errors.New("duplicate account id")
	errNilState         = errors.New("nil ledger state")
)

// Account is a single entry of the balance table.
type Account struct {
	ID      string `serialize:"true" json:"id" yaml:"id"`
	Balance uint32 `serialize:"true" json:"balance" yaml:"balance"`
}

// LedgerState is the balance table plus the number of transfers that moved
// tokens. Accounts are kept sorted by ID so that the encoding, and with it the
// digest, does not depend on insertion order.
type LedgerState struct {
	Accounts      []Account `serialize:"true" json:"accounts" yaml:"accounts"`
	TransferCount uint32    `serialize:"true" json:"transferCount" yaml:"transferCount"`
}

// NewLedgerState returns a genesis state holding [balances] with a zero
// transfer count.
func NewLedgerState(balances map[string]uint32) *LedgerState {
	accounts := make([]Account, 0, len(balances))
	for id, balance := range balances {
		accounts = append(accounts, Account{ID: id, Balance: balance})
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return &LedgerState{Accounts: accounts}
}

// ParseLedgerState decodes [b] and rejects non-canonical states.
func ParseLedgerState(b []byte) (*LedgerState, error) {
	s := &LedgerState{}
	if err := Unmarshal(b, s); err != nil {
		return nil, err
	}
	if err := s.Verify(); err != nil {
		return nil, DecodeError(err)
	}
	return s, nil
}

// find returns the index of [id] or, when absent, the index it would be
// inserted at.
func (s *LedgerState) find(id string) (int, bool) {
	i := sort.Search(len(s.Accounts), func(i int) bool { return s.Accounts[i].ID >= id })
	return i, i < len(s.Accounts) && s.Accounts[i].ID == id
}

// Balance returns the balance of [id] and whether the account exists.
func (s *LedgerState) Balance(id string) (uint32, bool) {
	i, ok := s.find(id)
	if !ok {
		return 0, false
	}
	return s.Accounts[i].Balance, true
}

// Balances returns a copy of the balance table.
func (s *LedgerState) Balances() map[string]uint32 {
	balances := make(map[string]uint32, len(s.Accounts))
	for _, acc := range s.Accounts {
		balances[acc.ID] = acc.Balance
	}
	return balances
}

// Transfer moves [tokens] from [sender] to [receiver], creating the receiver
// when it has no entry. It returns false, leaving the state untouched, when
// the sender is unknown or short of funds. A transfer that would overflow the
// receiver's balance or the transfer counter is also rejected. Self-transfers
// and zero-token transfers succeed and are counted.
func (s *LedgerState) Transfer(sender, receiver string, tokens uint32) bool {
	si, ok := s.find(sender)
	if !ok || s.Accounts[si].Balance < tokens {
		return false
	}
	if s.TransferCount == math.MaxUint32 {
		return false
	}
	ri, exists := s.find(receiver)
	if exists && sender != receiver && s.Accounts[ri].Balance > math.MaxUint32-tokens {
		return false
	}

	s.Accounts[si].Balance -= tokens
	if exists {
		s.Accounts[ri].Balance += tokens
	} else {
		s.Accounts = append(s.Accounts, Account{})
		copy(s.Accounts[ri+1:], s.Accounts[ri:])
		s.Accounts[ri] = Account{ID: receiver, Balance: tokens}
	}
	s.TransferCount++
	return true
}

// Clone returns a deep copy of the state.
func (s *LedgerState) Clone() *LedgerState {
	accounts := make([]Account, len(s.Accounts))
	copy(accounts, s.Accounts)
	return &LedgerState{
		Accounts:      accounts,
		TransferCount: s.TransferCount,
	}
}

// Verify returns nil iff the state is in canonical form: account IDs
// strictly increasing.
func (s *LedgerState) Verify() error {
	if s == nil {
		return errNilState
	}
	for i := 1; i < len(s.Accounts); i++ {
		prev, cur := s.Accounts[i-1].ID, s.Accounts[i].ID
		switch {
		case prev == cur:
			return fmt.Errorf("%w: %q", errDuplicateAccount, cur)
		case prev > cur:
			return fmt.Errorf("%w: %q before %q", errUnsortedAccounts, prev, cur)
		}
	}
	return nil
}

// Bytes returns the canonical encoding of the state.
func (s *LedgerState) Bytes() ([]byte, error) {
	return Marshal(s)
}

// Digest is the content hash committed to by the guest programs.
func (s *LedgerState) Digest() (ids.ID, error) {
	b, err := s.Bytes()
	if err != nil {
		return ids.Empty, err
	}
	return hashing.ComputeHash256Array(b), nil
}
