// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		receiptArg string
		methodID   int32
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Ask the node whether a receipt is valid for a program",
		Long: `Asks the node to check a receipt against the program selected by
--method-id (1 for init, 2 for issue). The node only answers valid or
invalid.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := readReceipt(receiptArg)
			if err != nil {
				return err
			}
			ctx, cancel := rootOpts.context(cmd)
			defer cancel()
			valid, err := rootOpts.client().Validation(ctx, r, methodID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "valid: %t\n", valid)
			return nil
		},
	}

	cmd.Flags().StringVar(&receiptArg, "receipt", "", "hex encoded receipt, or @file")
	cmd.Flags().Int32Var(&methodID, "method-id", 2, "program to check against (1 init, 2 issue)")
	_ = cmd.MarkFlagRequired("receipt")

	return cmd
}
