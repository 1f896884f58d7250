//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Command secureagg is the two-server aggregator's CLI surface
// (spec.md §6): a `server` subcommand that runs one role of a round,
// and a `client` subcommand that encodes and submits num_submissions
// simulated values to both servers.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "secureagg",
		Short: "Two-server privacy-preserving aggregation",
	}
	root.AddCommand(serverCmd())
	root.AddCommand(clientCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "secureagg:", err)
		os.Exit(1)
	}
}
