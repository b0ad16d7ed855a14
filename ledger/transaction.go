// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

// Transaction asks to move Tokens from Sender to Receiver.
type Transaction struct {
	Sender   string `serialize:"true" json:"sender" yaml:"sender"`
	Receiver string `serialize:"true" json:"receiver" yaml:"receiver"`
	Tokens   uint32 `serialize:"true" json:"tokens" yaml:"tokens"`
}

// ParseTransaction decodes a Transaction.
func ParseTransaction(b []byte) (*Transaction, error) {
	tx := &Transaction{}
	if err := Unmarshal(b, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// Bytes returns the encoding of the transaction.
func (tx *Transaction) Bytes() ([]byte, error) {
	return Marshal(tx)
}

// Signatures accompany a transaction submitted to the ledger service. They
// are decoded but not checked against the transaction.
type Signatures struct {
	Values [][]byte `serialize:"true" json:"values"`
}

// ParseSignatures decodes a Signatures record.
func ParseSignatures(b []byte) (*Signatures, error) {
	sigs := &Signatures{}
	if err := Unmarshal(b, sigs); err != nil {
		return nil, err
	}
	return sigs, nil
}

// Bytes returns the encoding of the signatures.
func (s *Signatures) Bytes() ([]byte, error) {
	return Marshal(s)
}

// IssueTransactionParams is the private input of the Issue program.
type IssueTransactionParams struct {
	State       LedgerState `serialize:"true"`
	Transaction Transaction `serialize:"true"`
}

// NewIssueTransactionParams copies [state] and [tx] into a new params value.
func NewIssueTransactionParams(state *LedgerState, tx *Transaction) *IssueTransactionParams {
	return &IssueTransactionParams{
		State:       *state.Clone(),
		Transaction: *tx,
	}
}

// Process applies the transaction to a copy of the params' state.
func (p *IssueTransactionParams) Process() *IssueTransactionResult {
	state := p.State.Clone()
	counted := state.Transfer(p.Transaction.Sender, p.Transaction.Receiver, p.Transaction.Tokens)
	return &IssueTransactionResult{
		State:           *state,
		TransferCounted: counted,
		Tokens:          p.Transaction.Tokens,
	}
}

// IssueTransactionResult is the private output of the Issue program. Only
// the digest of State is public.
type IssueTransactionResult struct {
	State           LedgerState `serialize:"true"`
	TransferCounted bool        `serialize:"true"`
	Tokens          uint32      `serialize:"true"`
}
