// Package scheduler expands recurring task templates into dated task
// instances over a rolling window.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bayitbeseder/bayit/internal/model"
	"github.com/bayitbeseder/bayit/internal/recurrence"
)

// ErrDuplicate is returned by a Repository when an instance for the same
// template and due date already exists.
var ErrDuplicate = errors.New("task instance already exists")

const dateKey = "2006-01-02"

// Repository is the storage the generator reads templates from and writes
// instances to.
type Repository interface {
	ListActiveTemplates(ctx context.Context, householdID uuid.UUID) ([]model.TaskTemplate, error)
	ListInstances(ctx context.Context, householdID uuid.UUID, start, end time.Time) ([]model.TaskInstance, error)
	CreateInstance(ctx context.Context, inst *model.TaskInstance) error
}

// Result summarizes one generation run for a household.
type Result struct {
	RunID            uuid.UUID `json:"run_id"`
	Created          int       `json:"created"`
	Skipped          int       `json:"skipped"`
	Errors           []string  `json:"errors"`
	GoldenRuleTarget int       `json:"golden_rule_target"`
}

type options struct {
	goldenRuleTarget int
}

type Option func(*options)

// WithGoldenRuleTarget overrides the household's completion target reported
// in the result. It has no effect on which instances are generated.
func WithGoldenRuleTarget(target int) Option {
	return func(o *options) {
		o.goldenRuleTarget = target
	}
}

type Generator struct {
	repo   Repository
	logger *slog.Logger
}

func NewGenerator(repo Repository, logger *slog.Logger) *Generator {
	return &Generator{repo: repo, logger: logger}
}

// Generate creates the pending instances that active templates owe within
// [start, end]. Pairs that already exist are counted as skipped, so running
// it again over the same range creates nothing. Failures to load templates or
// instances abort the run; a failure for a single template or insert is
// recorded in Result.Errors and the rest of the run continues.
func (g *Generator) Generate(ctx context.Context, householdID uuid.UUID, start, end time.Time, opts ...Option) (Result, error) {
	o := options{goldenRuleTarget: model.DefaultGoldenRuleTarget}
	for _, opt := range opts {
		opt(&o)
	}

	res := Result{RunID: uuid.New(), Errors: []string{}, GoldenRuleTarget: o.goldenRuleTarget}
	if o.goldenRuleTarget < 0 || o.goldenRuleTarget > 100 {
		return res, fmt.Errorf("golden rule target %d out of range 0-100", o.goldenRuleTarget)
	}

	start, end = recurrence.Normalize(start), recurrence.Normalize(end)
	if end.Before(start) {
		return res, fmt.Errorf("invalid range: end %s before start %s", end.Format(dateKey), start.Format(dateKey))
	}

	templates, err := g.repo.ListActiveTemplates(ctx, householdID)
	if err != nil {
		return res, fmt.Errorf("list templates: %w", err)
	}

	existing, err := g.repo.ListInstances(ctx, householdID, start, end)
	if err != nil {
		return res, fmt.Errorf("list instances: %w", err)
	}

	index := make(map[string]struct{}, len(existing))
	for _, inst := range existing {
		index[instanceKey(inst.TemplateID, inst.DueDate)] = struct{}{}
	}

	for _, tmpl := range templates {
		rule, err := recurrence.NewRule(tmpl.RecurrenceType, tmpl.RecurrenceDay, tmpl.CreatedAt)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("template %s (%s): %v", tmpl.ID, tmpl.Title, err))
			continue
		}
		dates, err := recurrence.DueDates(rule, start, end)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("template %s (%s): %v", tmpl.ID, tmpl.Title, err))
			continue
		}

		for _, due := range dates {
			key := instanceKey(tmpl.ID, due)
			if _, ok := index[key]; ok {
				res.Skipped++
				continue
			}
			if err := ctx.Err(); err != nil {
				return res, fmt.Errorf("generate: %w", err)
			}

			inst := &model.TaskInstance{
				ID:          uuid.New(),
				TemplateID:  tmpl.ID,
				HouseholdID: householdID,
				AssignedTo:  tmpl.DefaultAssignee,
				DueDate:     due,
				Status:      model.StatusPending,
			}
			err := g.repo.CreateInstance(ctx, inst)
			switch {
			case errors.Is(err, ErrDuplicate):
				res.Skipped++
			case err != nil:
				res.Errors = append(res.Errors, fmt.Sprintf("template %s on %s: %v", tmpl.ID, due.Format(dateKey), err))
				continue
			default:
				res.Created++
			}
			index[key] = struct{}{}
		}
	}

	g.logger.Info("generated task instances",
		"household_id", householdID,
		"run_id", res.RunID,
		"start", start.Format(dateKey),
		"end", end.Format(dateKey),
		"created", res.Created,
		"skipped", res.Skipped,
		"errors", len(res.Errors),
	)
	return res, nil
}

func instanceKey(templateID uuid.UUID, due time.Time) string {
	return templateID.String() + "/" + recurrence.Normalize(due).Format(dateKey)
}
