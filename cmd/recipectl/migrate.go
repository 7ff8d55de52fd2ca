package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pageza/recipe-api/backend/internal/database"
)

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := database.RunMigrations(cmd.Context(), a.db, a.log); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			},
		},
		&cobra.Command{
			Use:   "rollback",
			Short: "Revert the most recent migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				name, err := database.Rollback(cmd.Context(), a.db, a.log)
				if err != nil {
					return err
				}
				if name == "" {
					fmt.Fprintln(cmd.OutOrStdout(), "no migrations to roll back")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "rolled back %s\n", name)
				return nil
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "List migrations and when they were applied",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				status, err := database.Status(cmd.Context(), a.db)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "MIGRATION\tAPPLIED")
				for _, st := range status {
					applied := "pending"
					if st.AppliedAt != nil {
						applied = st.AppliedAt.Format("2006-01-02 15:04:05")
					}
					fmt.Fprintf(w, "%s\t%s\n", st.Name, applied)
				}
				return w.Flush()
			},
		},
	)
	return cmd
}
