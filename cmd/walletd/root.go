// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Walletd Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the walletd CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "walletd",
		Short: "walletd - user account and wallet service",
		Long: `walletd is a user account service with credential verification,
signed session tokens, a single-use password-reset flow, and
per-user wallet accounts backed by PostgreSQL.`,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	// Add subcommands
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewStatusCmd())

	return cmd
}
