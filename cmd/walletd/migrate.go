// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Walletd Contributors

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/walletd/walletd/internal/config"
	"github.com/walletd/walletd/internal/store"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	flags := config.Flags()

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Apply, roll back, or inspect schema migrations on the PostgreSQL database.`,
	}
	cmd.PersistentFlags().AddFlagSet(flags)

	newMigrator := func() (*store.Migrator, error) {
		cfg, err := config.Load(configFile, flags)
		if err != nil {
			return nil, err
		}
		return store.NewMigrator(cfg.DatabaseURL)
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := newMigrator()
			if err != nil {
				return err
			}
			defer closeMigrator(cmd, m)

			if err := m.Up(); err != nil {
				return err
			}
			cmd.Println("Migrations applied")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := newMigrator()
			if err != nil {
				return err
			}
			defer closeMigrator(cmd, m)

			if err := m.Down(); err != nil {
				return err
			}
			cmd.Println("Migrations rolled back")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "steps <n>",
		Short: "Apply n migrations up, or -n down",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid step count %q: %w", args[0], err)
			}

			m, err := newMigrator()
			if err != nil {
				return err
			}
			defer closeMigrator(cmd, m)

			if err := m.Steps(n); err != nil {
				return err
			}
			cmd.Printf("Applied %d migration step(s)\n", n)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "force <version>",
		Short: "Force the migration version without running migrations",
		Long:  `Set the schema version directly to recover from a dirty migration state.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid version %q: %w", args[0], err)
			}

			m, err := newMigrator()
			if err != nil {
				return err
			}
			defer closeMigrator(cmd, m)

			if err := m.Force(v); err != nil {
				return err
			}
			cmd.Printf("Forced version to %d\n", v)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show the current migration version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := newMigrator()
			if err != nil {
				return err
			}
			defer closeMigrator(cmd, m)

			version, dirty, err := m.Version()
			if err != nil {
				return err
			}
			if version == 0 && !dirty {
				cmd.Println("No migrations applied")
				return nil
			}
			if dirty {
				cmd.Printf("Version %d (dirty)\n", version)
			} else {
				cmd.Printf("Version %d\n", version)
			}
			return nil
		},
	})

	return cmd
}

func closeMigrator(cmd *cobra.Command, m *store.Migrator) {
	if err := m.Close(); err != nil {
		cmd.PrintErrf("warning: closing migrator: %v\n", err)
	}
}
