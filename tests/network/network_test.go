// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package network_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ava-labs/zkledger/client"
	"github.com/ava-labs/zkledger/ledger"
	"github.com/ava-labs/zkledger/programs"
	"github.com/ava-labs/zkledger/tests/network"
	"github.com/ava-labs/zkledger/zkvm"
)

func TestLocalNetwork(t *testing.T) {
	assert := assert.New(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	local := network.NewLocalNetwork(network.LocalNetworkConfig{
		Nodes:            2,
		ProofConcurrency: 1,
		Dev:              true,
	})
	var net network.StaticNetwork = local

	_, err := net.URIs(ctx)
	assert.Error(err)

	assert.NoError(net.CreateDefault(ctx))
	defer func() {
		assert.NoError(net.Teardown(ctx))
	}()
	assert.Error(net.CreateDefault(ctx))
	assert.Equal(zkvm.DevSealer{}, local.Sealer())

	uris, err := net.URIs(ctx)
	assert.NoError(err)
	if !assert.Len(uris, 2) {
		return
	}

	state := ledger.NewLedgerState(map[string]uint32{"A": 1000})
	r, _, err := client.New(uris[0]).CreateReceipt(ctx, &ledger.Transaction{Sender: "A", Receiver: "B", Tokens: 1}, nil, state)
	assert.NoError(err)
	valid, err := client.New(uris[1]).Validation(ctx, r, programs.Issue.MethodID())
	assert.NoError(err)
	assert.True(valid)
}

func TestExistingNetwork(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	net := network.NewExistingNetwork([]string{"http://127.0.0.1:9650"})
	assert.NoError(net.CreateDefault(ctx))
	uris, err := net.URIs(ctx)
	assert.NoError(err)
	assert.Equal([]string{"http://127.0.0.1:9650"}, uris)
	assert.NoError(net.Teardown(ctx))
}
