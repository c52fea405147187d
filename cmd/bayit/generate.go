package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/bayitbeseder/bayit/internal/database"
	"github.com/bayitbeseder/bayit/internal/pgstore"
	"github.com/bayitbeseder/bayit/internal/scheduler"
	"github.com/bayitbeseder/bayit/internal/store"
)

func newGenerateCmd(a *app) *cobra.Command {
	var usePostgres bool
	var days int

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Run one generation pass for every household",
		Long: `Creates the pending task instances every active template owes between today
and today plus the look-ahead. Safe to repeat: existing instances are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if days > 0 {
				a.cfg.Generator.DaysAhead = days
			}
			return a.generate(cmd.Context(), cmd.OutOrStdout(), usePostgres)
		},
	}
	cmd.Flags().BoolVar(&usePostgres, "postgres", false, "generate against BAYIT_POSTGRES_URL instead of the SQLite database")
	cmd.Flags().IntVar(&days, "days", 0, "look-ahead in days (default BAYIT_GENERATE_DAYS_AHEAD)")
	return cmd
}

func (a *app) generate(ctx context.Context, out io.Writer, usePostgres bool) error {
	var repo scheduler.Repository
	var households scheduler.HouseholdLister

	if usePostgres {
		if a.cfg.Postgres.URL == "" {
			return fmt.Errorf("--postgres requires BAYIT_POSTGRES_URL")
		}
		pool, err := database.OpenPostgres(ctx, a.cfg.Postgres.URL, database.PostgresOptions{
			ConnectTimeout: a.cfg.Postgres.ConnectTimeout,
			PingTimeout:    a.cfg.Postgres.PingTimeout,
		})
		if err != nil {
			return err
		}
		defer pool.Close()
		pg := pgstore.New(pool)
		repo, households = pg, pg
	} else {
		db, err := database.Open(a.cfg.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()
		repo, households = store.NewGeneratorRepository(db), store.NewHouseholdStore(db)
	}

	runner := scheduler.NewRunner(
		scheduler.NewGenerator(repo, a.logger.With("component", "generator")),
		households,
		scheduler.RunnerConfig{
			DaysAhead:   a.cfg.Generator.DaysAhead,
			Concurrency: a.cfg.Generator.Concurrency,
			Location:    a.cfg.Location(),
		},
		a.logger.With("component", "runner"),
	)

	start, end := runner.Window()
	runs, err := runner.RunOnce(ctx)
	if err != nil {
		return fmt.Errorf("list households: %w", err)
	}

	fmt.Fprintf(out, "window %s..%s, %d households\n", start.Format("2006-01-02"), end.Format("2006-01-02"), len(runs))
	var failed int
	for _, run := range runs {
		if run.Err != nil {
			failed++
			fmt.Fprintf(out, "%s  error: %v\n", run.HouseholdID, run.Err)
			continue
		}
		fmt.Fprintf(out, "%s  created=%d skipped=%d errors=%d\n",
			run.HouseholdID, run.Result.Created, run.Result.Skipped, len(run.Result.Errors))
		for _, e := range run.Result.Errors {
			fmt.Fprintf(out, "    %s\n", e)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d households failed", failed, len(runs))
	}
	return nil
}
