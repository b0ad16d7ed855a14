// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/ava-labs/avalanchego/utils/formatting"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ava-labs/zkledger/programs"
	"github.com/ava-labs/zkledger/receipt"
	"github.com/ava-labs/zkledger/zkvm"
)

var errNoVerifier = errors.New("one of --public-key or --dev is required")

type verifyOptions struct {
	receipt      string
	kind         string
	publicKey    string
	dev          bool
	programTable uint16
}

// initCommitView and issueCommitView are the printed forms of the commits.
type initCommitView struct {
	Kind        string `yaml:"kind"`
	StateDigest string `yaml:"stateDigest"`
}

type issueCommitView struct {
	Kind            string `yaml:"kind"`
	OldStateDigest  string `yaml:"oldStateDigest"`
	NewStateDigest  string `yaml:"newStateDigest"`
	Sender          string `yaml:"sender"`
	Receiver        string `yaml:"receiver"`
	Tokens          uint32 `yaml:"tokens"`
	TransferCounted bool   `yaml:"transferCounted"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand() *cobra.Command {
	opts := &verifyOptions{}

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a receipt locally and print its commit",
		Long: `Checks the seal of a receipt against the program identity of --kind
and prints the commit only when the seal holds. No node is contacted.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runVerify(cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.receipt, "receipt", "", "hex encoded receipt, or @file")
	cmd.Flags().StringVar(&opts.kind, "kind", programs.Issue.String(), "program kind (init, issue)")
	cmd.Flags().StringVar(&opts.publicKey, "public-key", "", "hex encoded attestation public key of the node")
	cmd.Flags().BoolVar(&opts.dev, "dev", false, "check receipts of a node running the dev sealer")
	cmd.Flags().Uint16Var(&opts.programTable, "program-table", programs.CurrentVersion, "version of the program identity table")
	_ = cmd.MarkFlagRequired("receipt")

	return cmd
}

func buildVerifier(opts *verifyOptions) (zkvm.Verifier, error) {
	switch {
	case opts.dev:
		return zkvm.DevSealer{}, nil
	case opts.publicKey != "":
		b, err := formatting.Decode(formatting.Hex, opts.publicKey)
		if err != nil {
			return nil, fmt.Errorf("couldn't decode public key: %w", err)
		}
		return zkvm.NewAttestVerifier(b)
	default:
		return nil, errNoVerifier
	}
}

func runVerify(out io.Writer, opts *verifyOptions) error {
	kind, err := programs.ParseKind(opts.kind)
	if err != nil {
		return err
	}
	table, err := programs.Lookup(opts.programTable)
	if err != nil {
		return err
	}
	verifier, err := buildVerifier(opts)
	if err != nil {
		return err
	}
	r, err := readReceipt(opts.receipt)
	if err != nil {
		return err
	}

	var view interface{}
	switch kind {
	case programs.Init:
		msg, err := receipt.NewInit(verifier, table, r)
		if err != nil {
			return err
		}
		commit, err := msg.VerifyAndGetCommit()
		if err != nil {
			return err
		}
		view = &initCommitView{
			Kind:        kind.String(),
			StateDigest: commit.StateDigest.String(),
		}
	case programs.Issue:
		msg, err := receipt.NewIssue(verifier, table, r)
		if err != nil {
			return err
		}
		commit, err := msg.VerifyAndGetCommit()
		if err != nil {
			return err
		}
		view = &issueCommitView{
			Kind:            kind.String(),
			OldStateDigest:  commit.OldStateDigest.String(),
			NewStateDigest:  commit.NewStateDigest.String(),
			Sender:          commit.Sender,
			Receiver:        commit.Receiver,
			Tokens:          commit.Tokens,
			TransferCounted: commit.TransferCounted,
		}
	}

	b, err := yaml.Marshal(view)
	if err != nil {
		return err
	}
	_, err = out.Write(b)
	return err
}
