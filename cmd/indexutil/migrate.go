package main

import (
	"errors"
	"fmt"

	"essayproxy-go/internal/migrations"

	"github.com/spf13/cobra"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	var dsn string
	resolveDSN := func() (string, error) {
		if dsn != "" {
			return dsn, nil
		}
		cfg, err := opts.loadConfig()
		if err != nil {
			return "", err
		}
		if cfg.Storage.PostgresDSN == "" {
			return "", errors.New("no PostgreSQL DSN: pass --dsn or set POSTGRES_DSN")
		}
		return cfg.Storage.PostgresDSN, nil
	}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL rotation index schema",
	}
	cmd.PersistentFlags().StringVar(&dsn, "dsn", "", "PostgreSQL connection string (defaults to POSTGRES_DSN)")

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := resolveDSN()
			if err != nil {
				return err
			}
			if err := migrations.PostgresUp(d); err != nil {
				return fmt.Errorf("migrate up: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if steps <= 0 {
				return fmt.Errorf("--steps must be positive, got %d", steps)
			}
			d, err := resolveDSN()
			if err != nil {
				return err
			}
			if err := migrations.PostgresDown(d, steps); err != nil {
				return fmt.Errorf("migrate down: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d step(s)\n", steps)
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of steps to roll back")

	ver := &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := resolveDSN()
			if err != nil {
				return err
			}
			v, dirty, err := migrations.PostgresVersion(d)
			if err != nil {
				return fmt.Errorf("read version: %w", err)
			}
			state := "clean"
			if dirty {
				state = "dirty"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "current version: %d (%s)\n", v, state)
			return nil
		},
	}

	cmd.AddCommand(up, down, ver)
	return cmd
}
