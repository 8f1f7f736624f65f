// SPDX-License-Identifier: LGPL-3.0-or-later

package main

import (
	"github.com/spf13/cobra"

	"github.com/hashrand-project/hashrand/pkg/version"
)

var versionJSON bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build version information",
	RunE:  runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "Print as JSON")
}

func runVersion(cmd *cobra.Command, args []string) error {
	if versionJSON {
		version.PrintVersionJSON()
		return nil
	}
	version.PrintVersion()
	return nil
}
