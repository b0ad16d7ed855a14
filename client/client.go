// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package client

import (
	"context"
	"strings"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/formatting"
	"github.com/ava-labs/avalanchego/utils/rpc"

	"github.com/ava-labs/zkledger/ledger"
	"github.com/ava-labs/zkledger/service"
	"github.com/ava-labs/zkledger/zkvm"
)

// Client defines ledger service client operations.
type Client interface {
	// CreateReceipt applies [tx] to [state] on the server and returns the
	// receipt of the transition and the new state.
	CreateReceipt(ctx context.Context, tx *ledger.Transaction, sigs *ledger.Signatures, state *ledger.LedgerState) (*zkvm.Receipt, *ledger.LedgerState, error)

	// CreateReceiptBytes is CreateReceipt on already encoded payloads.
	CreateReceiptBytes(ctx context.Context, tx, sigs, state []byte) ([]byte, []byte, error)

	// Validation asks the server whether [r] was produced by the program
	// selected by [methodID].
	Validation(ctx context.Context, r *zkvm.Receipt, methodID int32) (bool, error)

	// ValidationBytes is Validation on an already encoded receipt.
	ValidationBytes(ctx context.Context, r []byte, methodID int32) (bool, error)
}

// New creates a new client object for the node at [uri].
func New(uri string) Client {
	req := rpc.NewEndpointRequester(strings.TrimSuffix(uri, "/"), service.Endpoint, service.Name)
	return &client{req: req}
}

type client struct {
	req rpc.EndpointRequester
}

func (cli *client) CreateReceipt(
	ctx context.Context,
	tx *ledger.Transaction,
	sigs *ledger.Signatures,
	state *ledger.LedgerState,
) (*zkvm.Receipt, *ledger.LedgerState, error) {
	txBytes, err := tx.Bytes()
	if err != nil {
		return nil, nil, err
	}
	if sigs == nil {
		sigs = &ledger.Signatures{}
	}
	sigBytes, err := sigs.Bytes()
	if err != nil {
		return nil, nil, err
	}
	stateBytes, err := state.Bytes()
	if err != nil {
		return nil, nil, err
	}

	receiptBytes, newStateBytes, err := cli.CreateReceiptBytes(ctx, txBytes, sigBytes, stateBytes)
	if err != nil {
		return nil, nil, err
	}
	r, err := zkvm.ParseReceipt(receiptBytes)
	if err != nil {
		return nil, nil, err
	}
	newState, err := ledger.ParseLedgerState(newStateBytes)
	if err != nil {
		return nil, nil, err
	}
	return r, newState, nil
}

func (cli *client) CreateReceiptBytes(ctx context.Context, tx, sigs, state []byte) ([]byte, []byte, error) {
	args := &service.CreateReceiptArgs{}
	for _, field := range []struct {
		dst *string
		src []byte
	}{
		{&args.Transaction, tx},
		{&args.Signatures, sigs},
		{&args.LedgerState, state},
	} {
		s, err := formatting.EncodeWithChecksum(formatting.Hex, field.src)
		if err != nil {
			return nil, nil, err
		}
		*field.dst = s
	}

	resp := new(service.CreateReceiptReply)
	if err := cli.req.SendRequest(ctx, "createReceipt", args, resp); err != nil {
		return nil, nil, err
	}
	receiptBytes, err := formatting.Decode(formatting.Hex, resp.Receipt)
	if err != nil {
		return nil, nil, err
	}
	stateBytes, err := formatting.Decode(formatting.Hex, resp.NewLedgerState)
	if err != nil {
		return nil, nil, err
	}
	return receiptBytes, stateBytes, nil
}

func (cli *client) Validation(ctx context.Context, r *zkvm.Receipt, methodID int32) (bool, error) {
	b, err := r.Bytes()
	if err != nil {
		return false, err
	}
	return cli.ValidationBytes(ctx, b, methodID)
}

func (cli *client) ValidationBytes(ctx context.Context, r []byte, methodID int32) (bool, error) {
	s, err := formatting.EncodeWithChecksum(formatting.Hex, r)
	if err != nil {
		return false, err
	}
	resp := new(service.ValidationReply)
	err = cli.req.SendRequest(ctx,
		"validation",
		&service.ValidationArgs{Receipt: s, MethodID: methodID},
		resp,
	)
	if err != nil {
		return false, err
	}
	return resp.Valid, nil
}

// ReceiptID returns the content hash of an encoded receipt.
func ReceiptID(b []byte) (ids.ID, error) {
	r, err := zkvm.ParseReceipt(b)
	if err != nil {
		return ids.Empty, err
	}
	return r.ID()
}
