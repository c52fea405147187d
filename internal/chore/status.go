// Package chore derives the display status of task instances.
package chore

import (
	"time"

	"github.com/bayitbeseder/bayit/internal/model"
	"github.com/bayitbeseder/bayit/internal/recurrence"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusSkipped   Status = "skipped"
	StatusOverdue   Status = "overdue"
	StatusUpcoming  Status = "upcoming"
)

// TaskWithStatus is a task annotated for display.
type TaskWithStatus struct {
	model.Task
	DisplayStatus Status `json:"display_status"`
	Difficulty    int    `json:"difficulty"`
	AssigneeName  string `json:"assignee_name,omitempty"`
}

// ComputeStatus maps a stored instance status to what the household sees on
// the given day. Pending work due before today is overdue and pending work due
// after today is upcoming.
func ComputeStatus(inst model.TaskInstance, today time.Time) Status {
	switch inst.Status {
	case model.StatusCompleted:
		return StatusCompleted
	case model.StatusSkipped:
		return StatusSkipped
	}

	today = recurrence.Normalize(today)
	due := recurrence.Normalize(inst.DueDate)
	switch {
	case due.Before(today):
		return StatusOverdue
	case due.After(today):
		return StatusUpcoming
	default:
		return StatusPending
	}
}

// IsOverdue reports whether the instance is still open past its due date.
func IsOverdue(inst model.TaskInstance, today time.Time) bool {
	return ComputeStatus(inst, today) == StatusOverdue
}

// CompletionDay is the calendar day in loc an instance counts as done on.
// Instances without a completion timestamp fall back to their due date.
func CompletionDay(inst model.TaskInstance, loc *time.Location) time.Time {
	if inst.CompletedAt != nil {
		if loc == nil {
			loc = time.UTC
		}
		return recurrence.Normalize(inst.CompletedAt.In(loc))
	}
	return recurrence.Normalize(inst.DueDate)
}
