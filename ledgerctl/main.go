// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// ledgerctl talks to a ledger node and checks receipts locally.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ledgerctl: %s\n", err)
		os.Exit(1)
	}
}
