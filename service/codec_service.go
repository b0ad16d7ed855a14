// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package service

import (
	"fmt"
	"net/http"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/formatting"

	cjson "github.com/ava-labs/avalanchego/utils/json"

	"github.com/ava-labs/zkledger/ledger"
)

// CodecName is the name the codec service is registered under.
const CodecName = "codec"

// CodecService builds and reads the binary payloads of the ledger service
// for clients that do not link the codec. It holds no state.
type CodecService struct{}

// CreateCodecService ...
func CreateCodecService() *CodecService {
	return &CodecService{}
}

// EncodeTransactionArgs are arguments for EncodeTransaction
type EncodeTransactionArgs struct {
	Sender   string       `json:"sender"`
	Receiver string       `json:"receiver"`
	Tokens   cjson.Uint32 `json:"tokens"`
}

// BytesReply is the hex encoding of a payload
type BytesReply struct {
	Bytes string `json:"bytes"`
}

// EncodeTransaction returns the encoded transaction
func (cs *CodecService) EncodeTransaction(_ *http.Request, args *EncodeTransactionArgs, reply *BytesReply) error {
	tx := &ledger.Transaction{
		Sender:   args.Sender,
		Receiver: args.Receiver,
		Tokens:   uint32(args.Tokens),
	}
	b, err := tx.Bytes()
	if err != nil {
		return fmt.Errorf("couldn't encode transaction: %w", err)
	}
	return encodeReply(b, reply)
}

// EncodeLedgerStateArgs are arguments for EncodeLedgerState
type EncodeLedgerStateArgs struct {
	Balances      map[string]cjson.Uint32 `json:"balances"`
	TransferCount cjson.Uint32            `json:"transferCount"`
}

// EncodeLedgerState returns the encoded ledger state
func (cs *CodecService) EncodeLedgerState(_ *http.Request, args *EncodeLedgerStateArgs, reply *BytesReply) error {
	balances := make(map[string]uint32, len(args.Balances))
	for id, balance := range args.Balances {
		balances[id] = uint32(balance)
	}
	state := ledger.NewLedgerState(balances)
	state.TransferCount = uint32(args.TransferCount)
	b, err := state.Bytes()
	if err != nil {
		return fmt.Errorf("couldn't encode ledger state: %w", err)
	}
	return encodeReply(b, reply)
}

// DecodeLedgerStateArgs are arguments for DecodeLedgerState
type DecodeLedgerStateArgs struct {
	Bytes string `json:"bytes"`
}

// DecodeLedgerStateReply is the reply from DecodeLedgerState
type DecodeLedgerStateReply struct {
	Balances      map[string]cjson.Uint32 `json:"balances"`
	TransferCount cjson.Uint32            `json:"transferCount"`
	Digest        ids.ID                  `json:"digest"`
}

// DecodeLedgerState returns the decoded ledger state and its digest
func (cs *CodecService) DecodeLedgerState(_ *http.Request, args *DecodeLedgerStateArgs, reply *DecodeLedgerStateReply) error {
	b, err := decodeHex("bytes", args.Bytes)
	if err != nil {
		return err
	}
	state, err := ledger.ParseLedgerState(b)
	if err != nil {
		return err
	}
	digest, err := state.Digest()
	if err != nil {
		return err
	}
	reply.Balances = make(map[string]cjson.Uint32, len(state.Accounts))
	for _, account := range state.Accounts {
		reply.Balances[account.ID] = cjson.Uint32(account.Balance)
	}
	reply.TransferCount = cjson.Uint32(state.TransferCount)
	reply.Digest = digest
	return nil
}

// EncodeSignaturesArgs are arguments for EncodeSignatures. Each value is hex
// encoded.
type EncodeSignaturesArgs struct {
	Signatures []string `json:"signatures"`
}

// EncodeSignatures returns the encoded signature list
func (cs *CodecService) EncodeSignatures(_ *http.Request, args *EncodeSignaturesArgs, reply *BytesReply) error {
	sigs := &ledger.Signatures{Values: make([][]byte, 0, len(args.Signatures))}
	for _, s := range args.Signatures {
		sig, err := decodeHex("signature", s)
		if err != nil {
			return err
		}
		sigs.Values = append(sigs.Values, sig)
	}
	b, err := sigs.Bytes()
	if err != nil {
		return fmt.Errorf("couldn't encode signatures: %w", err)
	}
	return encodeReply(b, reply)
}

func encodeReply(b []byte, reply *BytesReply) error {
	s, err := formatting.EncodeWithChecksum(formatting.Hex, b)
	if err != nil {
		return fmt.Errorf("couldn't encode data as string: %w", err)
	}
	reply.Bytes = s
	return nil
}
