package main

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pratik-mahalle/tiergate/internal/config"
	"github.com/pratik-mahalle/tiergate/internal/repository/postgres"
	"github.com/pratik-mahalle/tiergate/migrations"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the tiergate database schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(db *sql.DB, driver string) error {
				applied, err := postgres.RunMigrations(db, driver, migrations.GetFS())
				if err != nil {
					return fmt.Errorf("migration failed after %d applied: %w", applied, err)
				}
				if applied == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s)\n", applied)
				return nil
			})
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "List migrations and whether they have run",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(db *sql.DB, driver string) error {
				statuses, err := postgres.Migrations(db, migrations.GetFS())
				if err != nil {
					return err
				}
				for _, m := range statuses {
					state := "pending"
					if m.Applied {
						state = "applied"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%-8s %s\n", state, m.Version)
				}
				return nil
			})
		},
	}

	root.AddCommand(up, status)
	// bare "migrate" keeps working as "migrate up"
	root.RunE = up.RunE
	return root
}

func withDB(fn func(db *sql.DB, driver string) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	db, err := postgres.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	return fn(db, cfg.Database.Driver)
}
