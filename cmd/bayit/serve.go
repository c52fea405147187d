package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bayitbeseder/bayit/internal/database"
	"github.com/bayitbeseder/bayit/internal/push"
	"github.com/bayitbeseder/bayit/internal/scheduler"
	"github.com/bayitbeseder/bayit/internal/server"
	"github.com/bayitbeseder/bayit/internal/store"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with the generation, reminder and backup loops",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	cfg, logger := a.cfg, a.logger
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	loc := cfg.Location()
	pushSvc := push.NewService(cfg.Push.VAPIDPublicKey, cfg.Push.VAPIDPrivateKey, cfg.Push.Subscriber)
	srv := server.New(db, server.Options{
		Location:    loc,
		DaysAhead:   cfg.Generator.DaysAhead,
		PushService: pushSvc,
	}, logger)

	households := store.NewHouseholdStore(db)
	repo := store.NewGeneratorRepository(db)
	generator := scheduler.NewGenerator(repo, logger.With("component", "generator"))
	runner := scheduler.NewRunner(generator, households, scheduler.RunnerConfig{
		DaysAhead:   cfg.Generator.DaysAhead,
		Interval:    cfg.Generator.Interval,
		Concurrency: cfg.Generator.Concurrency,
		Location:    loc,
	}, logger.With("component", "runner"))
	runner.Start(ctx)
	defer runner.Stop()

	if pushSvc.Enabled() {
		reminders := push.NewScheduler(pushSvc, store.NewPushStore(db), households, repo,
			cfg.Push.ReminderHour, loc, logger.With("component", "push"))
		reminders.Start(ctx)
		defer reminders.Stop()
	} else {
		logger.Info("push reminders disabled, VAPID keys not configured")
	}

	backups := newBackupManager(a, db)
	backups.Start(ctx)
	defer backups.Stop()

	go srv.RateLimiter().RunCleanup(ctx, 5*time.Minute)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", httpServer.Addr, "env", cfg.Env, "timezone", loc.String())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
