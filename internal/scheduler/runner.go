package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/bayitbeseder/bayit/internal/model"
	"github.com/bayitbeseder/bayit/internal/recurrence"
)

// HouseholdLister lists the households a run covers.
type HouseholdLister interface {
	ListHouseholds(ctx context.Context) ([]model.Household, error)
}

// RunnerConfig controls the rolling generation window.
type RunnerConfig struct {
	DaysAhead   int
	Interval    time.Duration
	Concurrency int
	Location    *time.Location
}

// HouseholdRun is the outcome of generating for one household.
type HouseholdRun struct {
	HouseholdID uuid.UUID
	Result      Result
	Err         error
}

// Runner periodically generates instances for every household over
// [today, today+DaysAhead].
type Runner struct {
	mu         sync.RWMutex
	gen        *Generator
	households HouseholdLister
	cfg        RunnerConfig
	logger     *slog.Logger
	now        func() time.Time
	cancel     context.CancelFunc
	done       chan struct{}
}

func NewRunner(gen *Generator, households HouseholdLister, cfg RunnerConfig, logger *slog.Logger) *Runner {
	if cfg.Interval <= 0 {
		cfg.Interval = 24 * time.Hour
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Runner{
		gen:        gen,
		households: households,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// Start runs a generation pass immediately and then once per interval until
// ctx is cancelled or Stop is called.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})
	r.mu.Unlock()

	go func() {
		defer close(r.done)
		r.tick(ctx)

		ticker := time.NewTicker(r.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.tick(ctx)
			}
		}
	}()
}

// Stop cancels the loop and waits for an in-flight pass to finish.
func (r *Runner) Stop() {
	r.mu.RLock()
	cancel := r.cancel
	done := r.done
	r.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (r *Runner) tick(ctx context.Context) {
	if _, err := r.RunOnce(ctx); err != nil {
		r.logger.Error("generation pass failed", "error", err)
	}
}

// Window returns the date range a pass starting now covers.
func (r *Runner) Window() (time.Time, time.Time) {
	today := recurrence.Normalize(r.now().In(r.cfg.Location))
	return today, today.AddDate(0, 0, r.cfg.DaysAhead)
}

// RunOnce generates for every household in parallel, bounded by the
// configured concurrency. A failing household does not stop the others; its
// error is reported in the returned slice. The error return is set only when
// households cannot be listed.
func (r *Runner) RunOnce(ctx context.Context) ([]HouseholdRun, error) {
	households, err := r.households.ListHouseholds(ctx)
	if err != nil {
		return nil, err
	}

	start, end := r.Window()
	runs := make([]HouseholdRun, len(households))

	var g errgroup.Group
	g.SetLimit(r.cfg.Concurrency)
	for i, h := range households {
		g.Go(func() error {
			res, err := r.gen.Generate(ctx, h.ID, start, end, WithGoldenRuleTarget(h.GoldenRuleTarget))
			runs[i] = HouseholdRun{HouseholdID: h.ID, Result: res, Err: err}
			if err != nil {
				r.logger.Error("household generation failed", "household_id", h.ID, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, run := range runs {
		if run.Err != nil || len(run.Result.Errors) > 0 {
			failed++
		}
	}
	r.logger.Info("generation pass complete", "households", len(runs), "with_errors", failed)
	return runs, nil
}
