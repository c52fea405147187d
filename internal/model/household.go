package model

import (
	"time"

	"github.com/google/uuid"
)

// DefaultGoldenRuleTarget is the completion percentage a new household aims for.
const DefaultGoldenRuleTarget = 80

type Household struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	GoldenRuleTarget int       `json:"golden_rule_target"`
	EmergencyMode    bool      `json:"emergency_mode"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type Member struct {
	ID          uuid.UUID `json:"id"`
	HouseholdID uuid.UUID `json:"household_id"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"created_at"`
}
