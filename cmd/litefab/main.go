/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package main is the entrypoint for the litefab binary: a single CLI
// wiring together node startup and client operations, the way fabric's
// cmd/peer wires cobra subcommands defined in their own packages.
package main

import (
	"os"

	"github.com/litefab/litefab/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "litefab",
	Short: "litefab is a minimal permissioned blockchain node runtime",
}

func main() {
	rootCmd.AddCommand(cli.GenerateConfigCmd())
	rootCmd.AddCommand(cli.StartPeerCmd())
	rootCmd.AddCommand(cli.StartOrdererCmd())
	rootCmd.AddCommand(cli.ClientCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
