// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"os"

	"github.com/ava-labs/avalanchego/utils/formatting"
	"github.com/spf13/cobra"

	"github.com/ava-labs/zkledger/ledger"
)

type issueOptions struct {
	statePath   string
	outPath     string
	receiptPath string
	sender      string
	receiver    string
	tokens      uint32
	signatures  []string
}

// NewIssueCommand creates the issue command.
func NewIssueCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &issueOptions{}

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Apply a transaction to a ledger state on the node",
		Long: `Sends the state file and a transaction to the node and prints the
receipt of the transition. The new state replaces --out, or is printed
when --out is empty.

Transactions are applied to the supplied state only. Issue them one at a
time and feed each new state into the next call.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIssue(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().StringVar(&opts.statePath, "state", "", "YAML ledger state file")
	cmd.Flags().StringVarP(&opts.outPath, "out", "o", "", "file to write the new state to")
	cmd.Flags().StringVar(&opts.receiptPath, "receipt-out", "", "file to write the hex encoded receipt to")
	cmd.Flags().StringVar(&opts.sender, "sender", "", "sending account")
	cmd.Flags().StringVar(&opts.receiver, "receiver", "", "receiving account")
	cmd.Flags().Uint32Var(&opts.tokens, "tokens", 0, "amount to transfer")
	cmd.Flags().StringSliceVar(&opts.signatures, "signature", nil, "hex encoded signature, may be repeated")
	_ = cmd.MarkFlagRequired("state")
	_ = cmd.MarkFlagRequired("sender")
	_ = cmd.MarkFlagRequired("receiver")

	return cmd
}

func runIssue(cmd *cobra.Command, rootOpts *RootOptions, opts *issueOptions) error {
	state, err := readState(opts.statePath)
	if err != nil {
		return err
	}
	sigs := &ledger.Signatures{}
	for _, s := range opts.signatures {
		sig, err := formatting.Decode(formatting.Hex, s)
		if err != nil {
			return fmt.Errorf("couldn't decode signature: %w", err)
		}
		sigs.Values = append(sigs.Values, sig)
	}
	tx := &ledger.Transaction{
		Sender:   opts.sender,
		Receiver: opts.receiver,
		Tokens:   opts.tokens,
	}

	ctx, cancel := rootOpts.context(cmd)
	defer cancel()
	r, newState, err := rootOpts.client().CreateReceipt(ctx, tx, sigs, state)
	if err != nil {
		return err
	}

	receiptHex, err := encodeReceipt(r)
	if err != nil {
		return err
	}
	receiptID, err := r.ID()
	if err != nil {
		return err
	}
	stateYAML, err := marshalState(newState)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "receipt id: %s\n", receiptID)
	if opts.receiptPath != "" {
		if err := os.WriteFile(opts.receiptPath, []byte(receiptHex+"\n"), 0o600); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(out, "receipt: %s\n", receiptHex)
	}
	if opts.outPath != "" {
		return os.WriteFile(opts.outPath, stateYAML, 0o600)
	}
	_, err = out.Write(stateYAML)
	return err
}
