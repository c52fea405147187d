package balance

import (
	"fmt"
	"time"

	"github.com/bayitbeseder/bayit/internal/model"
)

type SuggestionType string

const (
	SuggestBatch     SuggestionType = "batch"
	SuggestHeavyDay  SuggestionType = "heavy_day"
	SuggestMoveTask  SuggestionType = "move_task"
	SuggestEmptyDay  SuggestionType = "empty_day"
	SuggestEnergyTip SuggestionType = "energy_tip"
)

const (
	batchMinTasks  = 3
	calmDayMinutes = 40
)

type Suggestion struct {
	Type    SuggestionType `json:"type"`
	Message string         `json:"message"`
	Date    *time.Time     `json:"date,omitempty"`
	Target  *time.Time     `json:"target,omitempty"`
	Zone    Zone           `json:"zone,omitempty"`
	Tasks   []string       `json:"tasks,omitempty"`
}

// GenerateSmartSuggestions applies four independent rule sets to a week's
// load. Output is grouped by rule set in a fixed order: batching, heavy days,
// empty days, energy tip. Batching covers every zone, the general one included.
func GenerateSmartSuggestions(week Week, c Classifier) []Suggestion {
	var out []Suggestion
	out = append(out, batchSuggestions(week, c)...)
	out = append(out, heavyDaySuggestions(week, c)...)
	out = append(out, emptyDaySuggestions(week, c)...)
	out = append(out, energyTip(week)...)
	return out
}

func batchSuggestions(week Week, c Classifier) []Suggestion {
	var out []Suggestion
	for i := range week {
		day := &week[i]
		groups := GroupTasksByZone(day.Tasks, c)
		for _, z := range zoneOrder {
			if len(groups[z]) < batchMinTasks {
				continue
			}
			out = append(out, Suggestion{
				Type:    SuggestBatch,
				Message: fmt.Sprintf("%d %s tasks on %s: do them in one pass", len(groups[z]), z, day.Weekday),
				Date:    datePtr(day.Date),
				Zone:    z,
				Tasks:   taskTitles(groups[z]),
			})
		}
	}
	return out
}

func heavyDaySuggestions(week Week, c Classifier) []Suggestion {
	var out []Suggestion
	for i := range week {
		day := &week[i]
		if day.TotalMinutes <= heavyThreshold {
			continue
		}
		out = append(out, Suggestion{
			Type:    SuggestHeavyDay,
			Message: fmt.Sprintf("%s is heavy: about %d minutes of chores", day.Weekday, day.TotalMinutes),
			Date:    datePtr(day.Date),
		})

		if i+1 >= len(week) || week[i+1].TotalMinutes >= moderateThreshold {
			continue
		}
		next := &week[i+1]
		longest, ok := longestTask(day.Tasks, c)
		if !ok {
			continue
		}
		out = append(out, Suggestion{
			Type:    SuggestMoveTask,
			Message: fmt.Sprintf("Move %q from %s to %s, which is light", longest.Title, day.Weekday, next.Weekday),
			Date:    datePtr(day.Date),
			Target:  datePtr(next.Date),
			Tasks:   []string{longest.Title},
		})
	}
	return out
}

func emptyDaySuggestions(week Week, c Classifier) []Suggestion {
	empty, heavy := -1, -1
	for i := range week {
		if empty < 0 && len(week[i].Tasks) == 0 {
			empty = i
		}
		if heavy < 0 && week[i].TotalMinutes > heavyThreshold {
			heavy = i
		}
	}
	if empty < 0 || heavy < 0 {
		return nil
	}

	s := Suggestion{
		Type:    SuggestEmptyDay,
		Message: fmt.Sprintf("%s has nothing scheduled: move some of %s's chores there", week[empty].Weekday, week[heavy].Weekday),
		Date:    datePtr(week[heavy].Date),
		Target:  datePtr(week[empty].Date),
	}
	if t, ok := longestTask(week[heavy].Tasks, c); ok {
		s.Tasks = []string{t.Title}
	}
	return []Suggestion{s}
}

// energyTip fires when the heavy days sit in Thursday-Saturday while
// Sunday-Tuesday stay calm.
func energyTip(week Week) []Suggestion {
	backHeavy := false
	for i := 4; i <= 6; i++ {
		if week[i].TotalMinutes > heavyThreshold {
			backHeavy = true
		}
	}
	if !backHeavy {
		return nil
	}
	for i := 0; i <= 2; i++ {
		if week[i].TotalMinutes > calmDayMinutes {
			return nil
		}
	}
	return []Suggestion{{
		Type:    SuggestEnergyTip,
		Message: "The week ends heavy. Energy is usually higher early in the week, so pull a few chores forward to Sunday-Tuesday",
	}}
}

func longestTask(tasks []model.Task, c Classifier) (model.Task, bool) {
	if len(tasks) == 0 {
		return model.Task{}, false
	}
	best := tasks[0]
	bestMin := c.Minutes(best)
	for _, t := range tasks[1:] {
		if m := c.Minutes(t); m > bestMin {
			best, bestMin = t, m
		}
	}
	return best, true
}

func taskTitles(tasks []model.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Title
	}
	return out
}

func datePtr(t time.Time) *time.Time {
	return &t
}
