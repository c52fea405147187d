package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bayitbeseder/bayit/internal/model"
	"github.com/bayitbeseder/bayit/internal/scheduler"
)

type InstanceStore struct {
	db *sql.DB
}

func NewInstanceStore(db *sql.DB) *InstanceStore {
	return &InstanceStore{db: db}
}

const instanceCols = `i.id, i.template_id, i.household_id, i.assigned_to, i.due_date, i.status, i.completed_at, i.completed_by, i.rating, i.notes, i.created_at`
const taskCols = instanceCols + `, t.title, t.category, t.estimated_minutes, t.recurrence_type, t.emergency`

func scanInstanceInto(s scanner, inst *model.TaskInstance, extra ...any) error {
	var due string
	var completedAt sql.NullTime
	var rating sql.NullInt64
	dest := []any{&inst.ID, &inst.TemplateID, &inst.HouseholdID, &inst.AssignedTo, &due, &inst.Status,
		&completedAt, &inst.CompletedBy, &rating, &inst.Notes, &inst.CreatedAt}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return err
	}

	d, err := parseDate(due)
	if err != nil {
		return err
	}
	inst.DueDate = d
	if completedAt.Valid {
		t := completedAt.Time.UTC()
		inst.CompletedAt = &t
	}
	if rating.Valid {
		r := int(rating.Int64)
		inst.Rating = &r
	}
	return nil
}

func scanTask(s scanner) (*model.Task, error) {
	var t model.Task
	err := scanInstanceInto(s, &t.TaskInstance,
		&t.Title, &t.Category, &t.EstimatedMinutes, &t.RecurrenceType, &t.Emergency)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateInstance inserts a pending instance. It returns scheduler.ErrDuplicate
// when the template already has an instance on that due date.
func (s *InstanceStore) CreateInstance(ctx context.Context, inst *model.TaskInstance) error {
	if inst.ID == uuid.Nil {
		inst.ID = uuid.New()
	}
	if inst.Status == "" {
		inst.Status = model.StatusPending
	}
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO task_instances (id, template_id, household_id, assigned_to, due_date, status)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(template_id, due_date) DO NOTHING`,
		inst.ID, inst.TemplateID, inst.HouseholdID, inst.AssignedTo, formatDate(inst.DueDate), inst.Status,
	)
	if err != nil {
		return fmt.Errorf("insert instance: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return scheduler.ErrDuplicate
	}
	return nil
}

// ListInstances returns the household's instances due within [start, end].
func (s *InstanceStore) ListInstances(ctx context.Context, householdID uuid.UUID, start, end time.Time) ([]model.TaskInstance, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+instanceCols+` FROM task_instances i
		 WHERE i.household_id = ? AND i.due_date BETWEEN ? AND ?
		 ORDER BY i.due_date, i.template_id`,
		householdID, formatDate(start), formatDate(end),
	)
	if err != nil {
		return nil, fmt.Errorf("list instances: %w", err)
	}
	defer rows.Close()

	var instances []model.TaskInstance
	for rows.Next() {
		var inst model.TaskInstance
		if err := scanInstanceInto(rows, &inst); err != nil {
			return nil, fmt.Errorf("scan instance: %w", err)
		}
		instances = append(instances, inst)
	}
	return instances, rows.Err()
}

// ListTasks returns instances due within [from, to] joined with their
// template fields.
func (s *InstanceStore) ListTasks(ctx context.Context, householdID uuid.UUID, from, to time.Time) ([]model.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskCols+` FROM task_instances i
		 JOIN task_templates t ON t.id = i.template_id
		 WHERE i.household_id = ? AND i.due_date BETWEEN ? AND ?
		 ORDER BY i.due_date, t.category, t.title`,
		householdID, formatDate(from), formatDate(to),
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (s *InstanceStore) GetTask(ctx context.Context, householdID, id uuid.UUID) (*model.Task, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+taskCols+` FROM task_instances i
		 JOIN task_templates t ON t.id = i.template_id
		 WHERE i.id = ? AND i.household_id = ?`,
		id, householdID,
	)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// Completion describes who finished a task and how it went.
type Completion struct {
	By     uuid.NullUUID
	At     time.Time
	Rating *int
	Notes  string
}

// Complete marks an instance completed.
func (s *InstanceStore) Complete(ctx context.Context, householdID, id uuid.UUID, c Completion) (*model.Task, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE task_instances
		 SET status = ?, completed_at = ?, completed_by = ?, rating = ?, notes = ?
		 WHERE id = ? AND household_id = ?`,
		model.StatusCompleted, c.At.UTC(), c.By, c.Rating, c.Notes, id, householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("complete task: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return s.GetTask(ctx, householdID, id)
}

// Skip marks an instance skipped and clears any completion data.
func (s *InstanceStore) Skip(ctx context.Context, householdID, id uuid.UUID) (*model.Task, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE task_instances
		 SET status = ?, completed_at = NULL, completed_by = NULL, rating = NULL
		 WHERE id = ? AND household_id = ?`,
		model.StatusSkipped, id, householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("skip task: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return s.GetTask(ctx, householdID, id)
}

// LastCompletions returns the most recent completion time per template.
func (s *InstanceStore) LastCompletions(ctx context.Context, householdID uuid.UUID) (map[uuid.UUID]time.Time, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT template_id, completed_at FROM task_instances
		 WHERE household_id = ? AND status = ? AND completed_at IS NOT NULL`,
		householdID, model.StatusCompleted,
	)
	if err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	defer rows.Close()

	last := make(map[uuid.UUID]time.Time)
	for rows.Next() {
		var templateID uuid.UUID
		var at time.Time
		if err := rows.Scan(&templateID, &at); err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		if at.After(last[templateID]) {
			last[templateID] = at.UTC()
		}
	}
	return last, rows.Err()
}

// GeneratorRepository combines the template and instance stores into the
// storage the instance generator needs.
type GeneratorRepository struct {
	*TemplateStore
	*InstanceStore
}

func NewGeneratorRepository(db *sql.DB) *GeneratorRepository {
	return &GeneratorRepository{
		TemplateStore: NewTemplateStore(db),
		InstanceStore: NewInstanceStore(db),
	}
}

var _ scheduler.Repository = (*GeneratorRepository)(nil)
