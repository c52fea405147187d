// Package balance spreads a week's chores across days and suggests where the
// load could be evened out.
package balance

import (
	"time"

	"github.com/bayitbeseder/bayit/internal/model"
	"github.com/bayitbeseder/bayit/internal/recurrence"
)

type LoadLevel string

const (
	LoadLight    LoadLevel = "light"
	LoadModerate LoadLevel = "moderate"
	LoadHeavy    LoadLevel = "heavy"
)

const (
	heavyThreshold    = 60
	moderateThreshold = 30
)

// DayLoad is the work scheduled on one day of the week.
type DayLoad struct {
	Date         time.Time    `json:"date"`
	Weekday      time.Weekday `json:"weekday"`
	Tasks        []model.Task `json:"tasks"`
	TotalMinutes int          `json:"total_minutes"`
	Level        LoadLevel    `json:"level"`
}

// Week is seven consecutive days starting on Sunday.
type Week [7]DayLoad

// ClassifyLoad maps total minutes to a load level; both thresholds are strict.
func ClassifyLoad(minutes int) LoadLevel {
	switch {
	case minutes > heavyThreshold:
		return LoadHeavy
	case minutes > moderateThreshold:
		return LoadModerate
	default:
		return LoadLight
	}
}

// WeekStart returns the Sunday on or before t.
func WeekStart(t time.Time) time.Time {
	d := recurrence.Normalize(t)
	return d.AddDate(0, 0, -int(d.Weekday()))
}

// AnalyzeDailyLoad buckets tasks into the Sunday-first week containing
// startOfWeek by exact due date and totals each day's estimated minutes.
func AnalyzeDailyLoad(tasks []model.Task, startOfWeek time.Time, c Classifier) Week {
	var week Week
	start := WeekStart(startOfWeek)
	for i := range week {
		d := start.AddDate(0, 0, i)
		week[i] = DayLoad{Date: d, Weekday: d.Weekday()}
	}

	for _, t := range tasks {
		due := recurrence.Normalize(t.DueDate)
		for i := range week {
			if due.Equal(week[i].Date) {
				week[i].Tasks = append(week[i].Tasks, t)
				week[i].TotalMinutes += c.Minutes(t)
				break
			}
		}
	}

	for i := range week {
		week[i].Level = ClassifyLoad(week[i].TotalMinutes)
	}
	return week
}

// GroupTasksByZone buckets tasks by the zone the classifier assigns them.
func GroupTasksByZone(tasks []model.Task, c Classifier) map[Zone][]model.Task {
	groups := make(map[Zone][]model.Task)
	for _, t := range tasks {
		z := c.Zone(t)
		groups[z] = append(groups[z], t)
	}
	return groups
}
