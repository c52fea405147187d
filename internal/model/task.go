package model

import (
	"time"

	"github.com/google/uuid"
)

type Category string

const (
	CategoryKitchen  Category = "kitchen"
	CategoryBathroom Category = "bathroom"
	CategoryLiving   Category = "living"
	CategoryBedroom  Category = "bedroom"
	CategoryLaundry  Category = "laundry"
	CategoryOutdoor  Category = "outdoor"
	CategoryPets     Category = "pets"
	CategoryGeneral  Category = "general"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryKitchen, CategoryBathroom, CategoryLiving, CategoryBedroom,
	CategoryLaundry, CategoryOutdoor, CategoryPets, CategoryGeneral,
}

// Valid reports whether c is one of the fixed categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusSkipped   Status = "skipped"
)

// TaskTemplate is a recurring chore definition. Templates are deactivated, never deleted.
type TaskTemplate struct {
	ID               uuid.UUID     `json:"id"`
	HouseholdID      uuid.UUID     `json:"household_id"`
	Title            string        `json:"title"`
	Category         Category      `json:"category"`
	EstimatedMinutes int           `json:"estimated_minutes"`
	RecurrenceType   string        `json:"recurrence_type"`
	RecurrenceDay    *int          `json:"recurrence_day"`
	DefaultAssignee  uuid.NullUUID `json:"default_assignee"`
	Emergency        bool          `json:"emergency"`
	Active           bool          `json:"active"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// TaskInstance is one dated occurrence of a template.
type TaskInstance struct {
	ID          uuid.UUID     `json:"id"`
	TemplateID  uuid.UUID     `json:"template_id"`
	HouseholdID uuid.UUID     `json:"household_id"`
	AssignedTo  uuid.NullUUID `json:"assigned_to"`
	DueDate     time.Time     `json:"due_date"`
	Status      Status        `json:"status"`
	CompletedAt *time.Time    `json:"completed_at"`
	CompletedBy uuid.NullUUID `json:"completed_by"`
	Rating      *int          `json:"rating"`
	Notes       string        `json:"notes"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Task is an instance joined with the template fields the derived views need.
type Task struct {
	TaskInstance
	Title            string   `json:"title"`
	Category         Category `json:"category"`
	EstimatedMinutes int      `json:"estimated_minutes"`
	RecurrenceType   string   `json:"recurrence_type"`
	Emergency        bool     `json:"emergency"`
}
