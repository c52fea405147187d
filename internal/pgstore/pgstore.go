// Package pgstore is the Postgres-backed repository used by the instance
// generator when households live in a hosted Postgres database.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bayitbeseder/bayit/internal/model"
	"github.com/bayitbeseder/bayit/internal/scheduler"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

var _ scheduler.Repository = (*Store)(nil)
var _ scheduler.HouseholdLister = (*Store)(nil)

const templateCols = `id, household_id, title, category, estimated_minutes, recurrence_type, recurrence_day, default_assignee, emergency, active, created_at, updated_at`
const instanceCols = `id, template_id, household_id, assigned_to, due_date, status, completed_at, completed_by, rating, notes, created_at`

func (s *Store) ListHouseholds(ctx context.Context) ([]model.Household, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, golden_rule_target, emergency_mode, created_at, updated_at FROM households ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list households: %w", err)
	}
	households, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Household, error) {
		var h model.Household
		err := row.Scan(&h.ID, &h.Name, &h.GoldenRuleTarget, &h.EmergencyMode, &h.CreatedAt, &h.UpdatedAt)
		return h, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan households: %w", err)
	}
	return households, nil
}

func (s *Store) ListActiveTemplates(ctx context.Context, householdID uuid.UUID) ([]model.TaskTemplate, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+templateCols+` FROM task_templates WHERE household_id = $1 AND active ORDER BY category, title`,
		householdID)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	templates, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.TaskTemplate, error) {
		var t model.TaskTemplate
		var day *int32
		err := row.Scan(&t.ID, &t.HouseholdID, &t.Title, &t.Category, &t.EstimatedMinutes,
			&t.RecurrenceType, &day, &t.DefaultAssignee, &t.Emergency, &t.Active, &t.CreatedAt, &t.UpdatedAt)
		if day != nil {
			d := int(*day)
			t.RecurrenceDay = &d
		}
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan templates: %w", err)
	}
	return templates, nil
}

func (s *Store) ListInstances(ctx context.Context, householdID uuid.UUID, start, end time.Time) ([]model.TaskInstance, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+instanceCols+` FROM task_instances
		 WHERE household_id = $1 AND due_date BETWEEN $2 AND $3
		 ORDER BY due_date, template_id`,
		householdID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list instances: %w", err)
	}
	instances, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.TaskInstance, error) {
		var i model.TaskInstance
		var rating *int32
		err := row.Scan(&i.ID, &i.TemplateID, &i.HouseholdID, &i.AssignedTo, &i.DueDate, &i.Status,
			&i.CompletedAt, &i.CompletedBy, &rating, &i.Notes, &i.CreatedAt)
		if rating != nil {
			r := int(*rating)
			i.Rating = &r
		}
		return i, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan instances: %w", err)
	}
	return instances, nil
}

// CreateInstance inserts a pending instance, mapping the unique constraint on
// (template_id, due_date) to scheduler.ErrDuplicate.
func (s *Store) CreateInstance(ctx context.Context, inst *model.TaskInstance) error {
	if inst.ID == uuid.Nil {
		inst.ID = uuid.New()
	}
	if inst.Status == "" {
		inst.Status = model.StatusPending
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO task_instances (id, template_id, household_id, assigned_to, due_date, status)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		inst.ID, inst.TemplateID, inst.HouseholdID, inst.AssignedTo, inst.DueDate, string(inst.Status),
	)
	if err != nil {
		return mapError(err)
	}
	return nil
}

func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return fmt.Errorf("%w: %s", scheduler.ErrDuplicate, pgErr.ConstraintName)
	}
	return fmt.Errorf("insert instance: %w", err)
}
