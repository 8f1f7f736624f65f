// SPDX-License-Identifier: LGPL-3.0-or-later

package main

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"
)

var masterKeyEncoding string

var masterKeyCmd = &cobra.Command{
	Use:   "master-key",
	Short: "Manage the server master key",
}

var masterKeyGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a fresh 32-byte SERVER_MASTER_KEY",
	Long: `Generate prints a cryptographically random 32-byte key suitable for
SERVER_MASTER_KEY. Rotating this value invalidates every existing identity,
session, and shared-secret URL, since every one of them is derived from it.`,
	RunE: runMasterKeyGenerate,
}

func init() {
	rootCmd.AddCommand(masterKeyCmd)
	masterKeyCmd.AddCommand(masterKeyGenerateCmd)
	masterKeyGenerateCmd.Flags().StringVarP(&masterKeyEncoding, "encoding", "e", "hex", "Output encoding (hex, base64)")
}

func runMasterKeyGenerate(cmd *cobra.Command, args []string) error {
	var key [32]byte
	if _, err := rand.Read(key[:]); err != nil {
		return fmt.Errorf("generate master key: %w", err)
	}

	switch masterKeyEncoding {
	case "hex":
		fmt.Println(hex.EncodeToString(key[:]))
	case "base64":
		fmt.Println(base64.StdEncoding.EncodeToString(key[:]))
	default:
		return fmt.Errorf("unsupported encoding %q", masterKeyEncoding)
	}
	return nil
}
