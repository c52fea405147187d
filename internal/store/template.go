package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/bayitbeseder/bayit/internal/model"
)

type TemplateStore struct {
	db *sql.DB
}

func NewTemplateStore(db *sql.DB) *TemplateStore {
	return &TemplateStore{db: db}
}

func scanTemplate(s scanner) (*model.TaskTemplate, error) {
	var t model.TaskTemplate
	var day sql.NullInt64
	err := s.Scan(&t.ID, &t.HouseholdID, &t.Title, &t.Category, &t.EstimatedMinutes,
		&t.RecurrenceType, &day, &t.DefaultAssignee, &t.Emergency, &t.Active, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if day.Valid {
		d := int(day.Int64)
		t.RecurrenceDay = &d
	}
	return &t, nil
}

const templateCols = `id, household_id, title, category, estimated_minutes, recurrence_type, recurrence_day, default_assignee, emergency, active, created_at, updated_at`

// Create inserts a template and fills in its ID and timestamps. A preset
// CreatedAt is kept since it anchors the recurrence; otherwise the database
// clock is used.
func (s *TemplateStore) Create(ctx context.Context, t *model.TaskTemplate) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	var createdAt any
	if !t.CreatedAt.IsZero() {
		createdAt = t.CreatedAt.UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO task_templates (id, household_id, title, category, estimated_minutes, recurrence_type, recurrence_day, default_assignee, emergency, active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1, COALESCE(?, CURRENT_TIMESTAMP))`,
		t.ID, t.HouseholdID, t.Title, t.Category, t.EstimatedMinutes, t.RecurrenceType,
		t.RecurrenceDay, t.DefaultAssignee, t.Emergency, createdAt,
	)
	if err != nil {
		return fmt.Errorf("insert template: %w", err)
	}
	created, err := s.GetByID(ctx, t.HouseholdID, t.ID)
	if err != nil {
		return err
	}
	*t = *created
	return nil
}

func (s *TemplateStore) GetByID(ctx context.Context, householdID, id uuid.UUID) (*model.TaskTemplate, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+templateCols+` FROM task_templates WHERE id = ? AND household_id = ?`, id, householdID)
	t, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	return t, nil
}

// List returns the household's templates ordered by category then title.
func (s *TemplateStore) List(ctx context.Context, householdID uuid.UUID, includeInactive bool) ([]model.TaskTemplate, error) {
	query := `SELECT ` + templateCols + ` FROM task_templates WHERE household_id = ?`
	if !includeInactive {
		query += ` AND active = 1`
	}
	query += ` ORDER BY category, title`

	rows, err := s.db.QueryContext(ctx, query, householdID)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var templates []model.TaskTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		templates = append(templates, *t)
	}
	return templates, rows.Err()
}

func (s *TemplateStore) ListActiveTemplates(ctx context.Context, householdID uuid.UUID) ([]model.TaskTemplate, error) {
	return s.List(ctx, householdID, false)
}

// Update rewrites the editable fields of a template.
func (s *TemplateStore) Update(ctx context.Context, t *model.TaskTemplate) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE task_templates
		 SET title = ?, category = ?, estimated_minutes = ?, recurrence_type = ?, recurrence_day = ?,
		     default_assignee = ?, emergency = ?, active = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND household_id = ?`,
		t.Title, t.Category, t.EstimatedMinutes, t.RecurrenceType, t.RecurrenceDay,
		t.DefaultAssignee, t.Emergency, t.Active, t.ID, t.HouseholdID,
	)
	if err != nil {
		return fmt.Errorf("update template: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	updated, err := s.GetByID(ctx, t.HouseholdID, t.ID)
	if err != nil {
		return err
	}
	*t = *updated
	return nil
}

// Deactivate hides a template from generation. Existing instances are kept.
func (s *TemplateStore) Deactivate(ctx context.Context, householdID, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE task_templates SET active = 0, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND household_id = ?`,
		id, householdID,
	)
	if err != nil {
		return fmt.Errorf("deactivate template: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
