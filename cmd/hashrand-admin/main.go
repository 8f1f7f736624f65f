// SPDX-License-Identifier: LGPL-3.0-or-later

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "hashrand-admin",
	Short: "HashRand admin CLI - master key, storage maintenance, build info",
	Long: `hashrand-admin provides operational tooling around a running HashRand
deployment: generating a server master key, sweeping expired storage rows,
and reporting build version.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	// Commands are registered in their own files:
	// - masterkey.go: masterKeyCmd
	// - sweep.go: sweepCmd
	// - version.go: versionCmd
}
