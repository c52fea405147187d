package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bayitbeseder/bayit/internal/database"
)

func newMigrateCmd(a *app) *cobra.Command {
	var usePostgres bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if usePostgres {
				if a.cfg.Postgres.URL == "" {
					return fmt.Errorf("--postgres requires BAYIT_POSTGRES_URL")
				}
				pool, err := database.OpenPostgres(cmd.Context(), a.cfg.Postgres.URL, database.PostgresOptions{
					ConnectTimeout: a.cfg.Postgres.ConnectTimeout,
					PingTimeout:    a.cfg.Postgres.PingTimeout,
				})
				if err != nil {
					return err
				}
				pool.Close()
				fmt.Fprintln(cmd.OutOrStdout(), "postgres schema up to date")
				return nil
			}

			db, err := database.Open(a.cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()
			version, err := database.MigrationVersion(db)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s at schema version %d\n", a.cfg.DBPath, version)
			return nil
		},
	}
	cmd.Flags().BoolVar(&usePostgres, "postgres", false, "migrate BAYIT_POSTGRES_URL instead of the SQLite database")
	return cmd
}
