// Package health scores how fresh a room or task is from the time since its
// last completion, relative to how often it recurs.
package health

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/bayitbeseder/bayit/internal/model"
	"github.com/bayitbeseder/bayit/internal/recurrence"
)

// maxHours is the elapsed time after which a task scores 0.
var maxHours = map[recurrence.Type]float64{
	recurrence.Daily:     48,
	recurrence.Weekly:    336,
	recurrence.Biweekly:  672,
	recurrence.Monthly:   1440,
	recurrence.Quarterly: 4320,
	recurrence.Yearly:    17520,
}

// MaxHours returns the decay horizon for a recurrence type.
func MaxHours(recurrenceType string) (float64, bool) {
	t, err := recurrence.ParseType(recurrenceType)
	if err != nil {
		return 0, false
	}
	return maxHours[t], true
}

// Compute returns a 0-100 score that falls linearly from 100 at completion to
// 0 once the decay horizon has elapsed. Never-completed tasks and unknown
// recurrence types score 0; completions in the future clamp to 100.
func Compute(lastCompletedAt *time.Time, recurrenceType string, now time.Time) int {
	if lastCompletedAt == nil {
		return 0
	}
	horizon, ok := MaxHours(recurrenceType)
	if !ok {
		return 0
	}

	elapsed := now.Sub(*lastCompletedAt).Hours()
	score := 100 - (elapsed/horizon)*100
	score = math.Max(0, math.Min(100, score))
	return int(math.Round(score))
}

// Item is the input to category scoring: one template's freshness.
type Item struct {
	TemplateID      string
	Category        model.Category
	RecurrenceType  string
	LastCompletedAt *time.Time
}

// ComputeCategory averages the scores of the items in category, or returns 0
// when none match.
func ComputeCategory(items []Item, category model.Category, now time.Time) int {
	var sum, n int
	for _, it := range items {
		if it.Category != category {
			continue
		}
		sum += Compute(it.LastCompletedAt, it.RecurrenceType, now)
		n++
	}
	if n == 0 {
		return 0
	}
	return int(math.Round(float64(sum) / float64(n)))
}

// Items reduces task rows to one Item per template carrying its latest
// completion. Output follows the order templates first appear in tasks.
func Items(tasks []model.Task) []Item {
	index := make(map[string]int)
	var items []Item
	for _, t := range tasks {
		key := t.TemplateID.String()
		i, ok := index[key]
		if !ok {
			i = len(items)
			index[key] = i
			items = append(items, Item{
				TemplateID:     key,
				Category:       t.Category,
				RecurrenceType: t.RecurrenceType,
			})
		}
		if t.Status != model.StatusCompleted || t.CompletedAt == nil {
			continue
		}
		if last := items[i].LastCompletedAt; last == nil || t.CompletedAt.After(*last) {
			completed := *t.CompletedAt
			items[i].LastCompletedAt = &completed
		}
	}
	return items
}

// FromTemplates builds one item per template, using last to look up the
// template's most recent completion. Templates never completed score 0.
func FromTemplates(templates []model.TaskTemplate, last map[uuid.UUID]time.Time) []Item {
	items := make([]Item, 0, len(templates))
	for _, t := range templates {
		item := Item{
			TemplateID:     t.ID.String(),
			Category:       t.Category,
			RecurrenceType: t.RecurrenceType,
		}
		if at, ok := last[t.ID]; ok {
			item.LastCompletedAt = &at
		}
		items = append(items, item)
	}
	return items
}

// CategoryHealth is the score of one category with its display band.
type CategoryHealth struct {
	Category model.Category `json:"category"`
	Score    int            `json:"score"`
	Tasks    int            `json:"tasks"`
	Band     Band           `json:"band"`
}

// Summarize scores every category that has at least one item, in the fixed
// category order.
func Summarize(items []Item, now time.Time) []CategoryHealth {
	counts := make(map[model.Category]int)
	for _, it := range items {
		counts[it.Category]++
	}

	var out []CategoryHealth
	for _, c := range model.Categories {
		if counts[c] == 0 {
			continue
		}
		score := ComputeCategory(items, c, now)
		out = append(out, CategoryHealth{Category: c, Score: score, Tasks: counts[c], Band: BandFor(score)})
	}
	return out
}

// Overall is the mean score across all items, 0 when there are none.
func Overall(items []Item, now time.Time) int {
	if len(items) == 0 {
		return 0
	}
	var sum int
	for _, it := range items {
		sum += Compute(it.LastCompletedAt, it.RecurrenceType, now)
	}
	return int(math.Round(float64(sum) / float64(len(items))))
}
