package stats

import (
	"time"

	"github.com/bayitbeseder/bayit/internal/model"
	"github.com/bayitbeseder/bayit/internal/recurrence"
)

// CalendarDay is one cell of the month grid. Padding cells from the adjacent
// months carry their date but no counts.
type CalendarDay struct {
	Date      time.Time `json:"date"`
	InMonth   bool      `json:"in_month"`
	IsToday   bool      `json:"is_today"`
	Due       int       `json:"due"`
	Completed int       `json:"completed"`
}

// CalendarMonth lays the month out as Sunday-first weeks, annotating each day
// with the tasks due on it and how many of those are completed.
func CalendarMonth(tasks []model.Task, year int, month time.Month, today time.Time) [][]CalendarDay {
	today = recurrence.Normalize(today)
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	type counts struct{ due, completed int }
	byDay := make(map[time.Time]*counts)
	for _, t := range tasks {
		d := recurrence.Normalize(t.DueDate)
		if d.Before(first) || d.After(last) {
			continue
		}
		c, ok := byDay[d]
		if !ok {
			c = &counts{}
			byDay[d] = c
		}
		c.due++
		if t.Status == model.StatusCompleted {
			c.completed++
		}
	}

	start := first.AddDate(0, 0, -int(first.Weekday()))
	end := last.AddDate(0, 0, 6-int(last.Weekday()))

	var weeks [][]CalendarDay
	for d := start; !d.After(end); d = d.AddDate(0, 0, 7) {
		week := make([]CalendarDay, 7)
		for i := range week {
			day := d.AddDate(0, 0, i)
			cell := CalendarDay{
				Date:    day,
				InMonth: day.Month() == month,
				IsToday: day.Equal(today),
			}
			if c, ok := byDay[day]; ok {
				cell.Due = c.due
				cell.Completed = c.completed
			}
			week[i] = cell
		}
		weeks = append(weeks, week)
	}
	return weeks
}
