// Package stats rolls task instances up into the summaries shown on the
// household dashboard.
package stats

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/bayitbeseder/bayit/internal/chore"
	"github.com/bayitbeseder/bayit/internal/model"
	"github.com/bayitbeseder/bayit/internal/recurrence"
)

const trendWeeks = 4

type CategoryCount struct {
	Category  model.Category `json:"category"`
	Total     int            `json:"total"`
	Completed int            `json:"completed"`
	Rate      int            `json:"rate"`
}

// WeekPoint is one Sunday-first week of the trend series.
type WeekPoint struct {
	WeekStart time.Time `json:"week_start"`
	Due       int       `json:"due"`
	Completed int       `json:"completed"`
}

type MemberShare struct {
	MemberID  uuid.UUID `json:"member_id"`
	Name      string    `json:"name"`
	Completed int       `json:"completed"`
	Share     int       `json:"share"`
}

// PartnerSplit compares how completions divide between household members.
type PartnerSplit struct {
	Members          []MemberShare `json:"members"`
	Unattributed     int           `json:"unattributed"`
	GoldenRuleTarget int           `json:"golden_rule_target"`
	OnTrack          bool          `json:"on_track"`
}

type Summary struct {
	Total              int             `json:"total"`
	Completed          int             `json:"completed"`
	CompletionRate     int             `json:"completion_rate"`
	CompletedThisWeek  int             `json:"completed_this_week"`
	CompletedThisMonth int             `json:"completed_this_month"`
	Upcoming           int             `json:"upcoming"`
	Overdue            int             `json:"overdue"`
	Streak             int             `json:"streak"`
	Categories         []CategoryCount `json:"categories"`
	Trend              []WeekPoint     `json:"trend"`
	Partners           PartnerSplit    `json:"partners"`
}

// Compute builds the dashboard summary for tasks as of today. Completion
// timestamps are bucketed into calendar days in today's location. The
// household is on track when its completion rate reaches goldenTarget.
func Compute(tasks []model.Task, members []model.Member, today time.Time, goldenTarget int) Summary {
	loc := today.Location()
	today = recurrence.Normalize(today)
	weekAgo := today.AddDate(0, 0, -6)
	upcomingEnd := today.AddDate(0, 0, 6)

	s := Summary{Total: len(tasks)}
	for _, t := range tasks {
		if t.Status == model.StatusCompleted {
			s.Completed++
			done := chore.CompletionDay(t.TaskInstance, loc)
			if within(done, weekAgo, today) {
				s.CompletedThisWeek++
			}
			if done.Year() == today.Year() && done.Month() == today.Month() && !done.After(today) {
				s.CompletedThisMonth++
			}
			continue
		}
		if within(recurrence.Normalize(t.DueDate), today, upcomingEnd) {
			s.Upcoming++
		}
		if chore.IsOverdue(t.TaskInstance, today) {
			s.Overdue++
		}
	}
	s.CompletionRate = percent(s.Completed, s.Total)
	s.Categories = categoryBreakdown(tasks)
	s.Trend = weeklyTrend(tasks, today, loc)
	s.Partners = partnerSplit(tasks, members, s.CompletionRate, goldenTarget)
	s.Streak = streak(tasks, today, loc)
	return s
}

func categoryBreakdown(tasks []model.Task) []CategoryCount {
	byCat := make(map[model.Category]*CategoryCount)
	for _, t := range tasks {
		c, ok := byCat[t.Category]
		if !ok {
			c = &CategoryCount{Category: t.Category}
			byCat[t.Category] = c
		}
		c.Total++
		if t.Status == model.StatusCompleted {
			c.Completed++
		}
	}

	out := make([]CategoryCount, 0, len(byCat))
	for _, cat := range model.Categories {
		if c, ok := byCat[cat]; ok {
			c.Rate = percent(c.Completed, c.Total)
			out = append(out, *c)
		}
	}
	return out
}

// weeklyTrend covers the current week and the three before it, oldest first.
func weeklyTrend(tasks []model.Task, today time.Time, loc *time.Location) []WeekPoint {
	current := today.AddDate(0, 0, -int(today.Weekday()))
	points := make([]WeekPoint, trendWeeks)
	for i := range points {
		points[i].WeekStart = current.AddDate(0, 0, -7*(trendWeeks-1-i))
	}

	index := func(d time.Time) int {
		for i := range points {
			if within(d, points[i].WeekStart, points[i].WeekStart.AddDate(0, 0, 6)) {
				return i
			}
		}
		return -1
	}

	for _, t := range tasks {
		if i := index(recurrence.Normalize(t.DueDate)); i >= 0 {
			points[i].Due++
		}
		if t.Status == model.StatusCompleted {
			if i := index(chore.CompletionDay(t.TaskInstance, loc)); i >= 0 {
				points[i].Completed++
			}
		}
	}
	return points
}

func partnerSplit(tasks []model.Task, members []model.Member, rate, goldenTarget int) PartnerSplit {
	counts := make(map[uuid.UUID]int)
	total := 0
	split := PartnerSplit{GoldenRuleTarget: goldenTarget, OnTrack: rate >= goldenTarget}
	for _, t := range tasks {
		if t.Status != model.StatusCompleted {
			continue
		}
		total++
		if t.CompletedBy.Valid {
			counts[t.CompletedBy.UUID]++
		} else {
			split.Unattributed++
		}
	}

	split.Members = make([]MemberShare, 0, len(members))
	for _, m := range members {
		split.Members = append(split.Members, MemberShare{
			MemberID:  m.ID,
			Name:      m.Name,
			Completed: counts[m.ID],
			Share:     percent(counts[m.ID], total),
		})
	}
	return split
}

// Streak counts consecutive days with at least one completion, ending today.
// A day without completions yet does not break the streak until it is over,
// so the count starts from yesterday when nothing is done today. Days are
// taken in today's location.
func Streak(tasks []model.Task, today time.Time) int {
	return streak(tasks, recurrence.Normalize(today), today.Location())
}

func streak(tasks []model.Task, today time.Time, loc *time.Location) int {
	days := make(map[time.Time]bool)
	for _, t := range tasks {
		if t.Status == model.StatusCompleted {
			days[chore.CompletionDay(t.TaskInstance, loc)] = true
		}
	}

	d := today
	if !days[d] {
		d = d.AddDate(0, 0, -1)
	}
	streak := 0
	for days[d] {
		streak++
		d = d.AddDate(0, 0, -1)
	}
	return streak
}

func within(d, from, to time.Time) bool {
	return !d.Before(from) && !d.After(to)
}

func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}
