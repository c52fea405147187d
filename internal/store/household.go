package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/bayitbeseder/bayit/internal/model"
)

type HouseholdStore struct {
	db *sql.DB
}

func NewHouseholdStore(db *sql.DB) *HouseholdStore {
	return &HouseholdStore{db: db}
}

func scanHousehold(s scanner) (*model.Household, error) {
	var h model.Household
	err := s.Scan(&h.ID, &h.Name, &h.GoldenRuleTarget, &h.EmergencyMode, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func scanMember(s scanner) (*model.Member, error) {
	var m model.Member
	if err := s.Scan(&m.ID, &m.HouseholdID, &m.Name, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

const householdCols = `id, name, golden_rule_target, emergency_mode, created_at, updated_at`
const memberCols = `id, household_id, name, created_at`

func (s *HouseholdStore) Create(ctx context.Context, name string) (*model.Household, error) {
	id := uuid.New()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO households (id, name, golden_rule_target) VALUES (?, ?, ?)`,
		id, name, model.DefaultGoldenRuleTarget,
	)
	if err != nil {
		return nil, fmt.Errorf("insert household: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *HouseholdStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Household, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+householdCols+` FROM households WHERE id = ?`, id)
	h, err := scanHousehold(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get household: %w", err)
	}
	return h, nil
}

// ListHouseholds returns every household, oldest first.
func (s *HouseholdStore) ListHouseholds(ctx context.Context) ([]model.Household, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+householdCols+` FROM households ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list households: %w", err)
	}
	defer rows.Close()

	var households []model.Household
	for rows.Next() {
		h, err := scanHousehold(rows)
		if err != nil {
			return nil, fmt.Errorf("scan household: %w", err)
		}
		households = append(households, *h)
	}
	return households, rows.Err()
}

// UpdateSettings sets the golden rule target and emergency mode. It returns
// nil when the household does not exist.
func (s *HouseholdStore) UpdateSettings(ctx context.Context, id uuid.UUID, goldenRuleTarget int, emergencyMode bool) (*model.Household, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE households SET golden_rule_target = ?, emergency_mode = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		goldenRuleTarget, emergencyMode, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update household settings: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *HouseholdStore) AddMember(ctx context.Context, householdID uuid.UUID, name string) (*model.Member, error) {
	id := uuid.New()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO members (id, household_id, name) VALUES (?, ?, ?)`,
		id, householdID, name,
	)
	if err != nil {
		return nil, fmt.Errorf("insert member: %w", err)
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+memberCols+` FROM members WHERE id = ?`, id)
	m, err := scanMember(row)
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

func (s *HouseholdStore) ListMembers(ctx context.Context, householdID uuid.UUID) ([]model.Member, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+memberCols+` FROM members WHERE household_id = ? ORDER BY created_at, name`, householdID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []model.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

// IsMember reports whether memberID belongs to the household.
func (s *HouseholdStore) IsMember(ctx context.Context, householdID, memberID uuid.UUID) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM members WHERE id = ? AND household_id = ?`, memberID, householdID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check member: %w", err)
	}
	return count > 0, nil
}
