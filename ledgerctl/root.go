// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ava-labs/avalanchego/utils/formatting"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ava-labs/zkledger/client"
	"github.com/ava-labs/zkledger/ledger"
	"github.com/ava-labs/zkledger/zkvm"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	URI     string
	Timeout time.Duration
}

// NewRootCommand creates the root command for ledgerctl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Issue transactions and check receipts of a zkledger node",
		// main reports errors
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.URI, "uri", "http://127.0.0.1:9650", "URI of the ledger node")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 2*time.Minute, "request timeout")

	cmd.AddCommand(NewIssueCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewVerifyCommand())

	return cmd
}

func (o *RootOptions) client() client.Client {
	return client.New(o.URI)
}

func (o *RootOptions) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, o.Timeout)
}

// readState loads a YAML ledger state file.
func readState(path string) (*ledger.LedgerState, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	state := &ledger.LedgerState{}
	decoder := yaml.NewDecoder(bytes.NewReader(b))
	decoder.KnownFields(true)
	if err := decoder.Decode(state); err != nil {
		return nil, fmt.Errorf("couldn't parse state file %s: %w", path, err)
	}
	if err := state.Verify(); err != nil {
		return nil, fmt.Errorf("state file %s: %w", path, err)
	}
	return state, nil
}

func marshalState(state *ledger.LedgerState) ([]byte, error) {
	return yaml.Marshal(state)
}

// readReceipt accepts a hex encoded receipt, or @path to a file holding one.
func readReceipt(arg string) (*zkvm.Receipt, error) {
	if strings.HasPrefix(arg, "@") {
		b, err := os.ReadFile(strings.TrimPrefix(arg, "@"))
		if err != nil {
			return nil, err
		}
		arg = string(b)
	}
	b, err := formatting.Decode(formatting.Hex, strings.TrimSpace(arg))
	if err != nil {
		return nil, fmt.Errorf("couldn't decode receipt: %w", err)
	}
	return zkvm.ParseReceipt(b)
}

func encodeReceipt(r *zkvm.Receipt) (string, error) {
	b, err := r.Bytes()
	if err != nil {
		return "", err
	}
	return formatting.EncodeWithChecksum(formatting.Hex, b)
}
