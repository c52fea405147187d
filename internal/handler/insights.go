package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/bayitbeseder/bayit/internal/balance"
	"github.com/bayitbeseder/bayit/internal/health"
	"github.com/bayitbeseder/bayit/internal/middleware"
	"github.com/bayitbeseder/bayit/internal/model"
	"github.com/bayitbeseder/bayit/internal/stats"
	"github.com/bayitbeseder/bayit/internal/store"
)

// InsightsHandler serves the read-only views derived from templates and
// instances: room health, weekly load and statistics.
type InsightsHandler struct {
	templates  *store.TemplateStore
	instances  *store.InstanceStore
	households *store.HouseholdStore
	classifier balance.Classifier
	clock      Clock
	logger     *slog.Logger
}

func NewInsightsHandler(ts *store.TemplateStore, is *store.InstanceStore, hs *store.HouseholdStore, classifier balance.Classifier, clock Clock, logger *slog.Logger) *InsightsHandler {
	return &InsightsHandler{
		templates:  ts,
		instances:  is,
		households: hs,
		classifier: classifier,
		clock:      clock,
		logger:     logger,
	}
}

type healthResponse struct {
	Overall     int                     `json:"overall"`
	OverallBand health.Band             `json:"overall_band"`
	Categories  []health.CategoryHealth `json:"categories"`
}

// Health handles GET /api/households/{hid}/health
func (h *InsightsHandler) Health(w http.ResponseWriter, r *http.Request) {
	household := middleware.Household(r.Context())

	templates, err := h.templates.ListActiveTemplates(r.Context(), household.ID)
	if err != nil {
		h.logger.Error("list templates", "household_id", household.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load templates")
		return
	}
	last, err := h.instances.LastCompletions(r.Context(), household.ID)
	if err != nil {
		h.logger.Error("last completions", "household_id", household.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load completions")
		return
	}

	now := h.clock.Now()
	items := health.FromTemplates(templates, last)
	overall := health.Overall(items, now)
	categories := health.Summarize(items, now)
	if categories == nil {
		categories = []health.CategoryHealth{}
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Overall:     overall,
		OverallBand: health.BandFor(overall),
		Categories:  categories,
	})
}

type loadResponse struct {
	WeekStart   string               `json:"week_start"`
	Days        balance.Week         `json:"days"`
	Suggestions []balance.Suggestion `json:"suggestions"`
}

// Load handles GET /api/households/{hid}/load?week=YYYY-MM-DD
// Any date in the week selects it; skipped tasks carry no load.
func (h *InsightsHandler) Load(w http.ResponseWriter, r *http.Request) {
	household := middleware.Household(r.Context())

	day, err := parseDate(r, "week", h.clock.Today())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	start := balance.WeekStart(day)

	tasks, err := h.instances.ListTasks(r.Context(), household.ID, start, start.AddDate(0, 0, 6))
	if err != nil {
		h.logger.Error("list tasks", "household_id", household.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}
	active := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Status != model.StatusSkipped {
			active = append(active, t)
		}
	}

	week := balance.AnalyzeDailyLoad(active, start, h.classifier)
	for i := range week {
		if week[i].Tasks == nil {
			week[i].Tasks = []model.Task{}
		}
	}
	suggestions := balance.GenerateSmartSuggestions(week, h.classifier)
	if suggestions == nil {
		suggestions = []balance.Suggestion{}
	}
	writeJSON(w, http.StatusOK, loadResponse{
		WeekStart:   start.Format(dateLayout),
		Days:        week,
		Suggestions: suggestions,
	})
}

type statsResponse struct {
	Summary  stats.Summary         `json:"summary"`
	Month    string                `json:"month"`
	Calendar [][]stats.CalendarDay `json:"calendar"`
}

// Stats handles GET /api/households/{hid}/stats?month=YYYY-MM
// The summary covers the current month and the four trend weeks through the
// coming seven days; the calendar covers the requested month (default: the
// current one).
func (h *InsightsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	household := middleware.Household(r.Context())
	today := h.clock.Today()

	month := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	if v := r.URL.Query().Get("month"); v != "" {
		m, err := time.Parse("2006-01", v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "month must be YYYY-MM")
			return
		}
		month = m
	}

	from := balance.WeekStart(today).AddDate(0, 0, -21)
	if first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC); first.Before(from) {
		from = first
	}
	to := today.AddDate(0, 0, 6)
	tasks, err := h.instances.ListTasks(r.Context(), household.ID, from, to)
	if err != nil {
		h.logger.Error("list tasks", "household_id", household.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}
	monthTasks, err := h.instances.ListTasks(r.Context(), household.ID, month, month.AddDate(0, 1, -1))
	if err != nil {
		h.logger.Error("list month tasks", "household_id", household.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}
	members, err := h.households.ListMembers(r.Context(), household.ID)
	if err != nil {
		h.logger.Error("list members", "household_id", household.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list members")
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		Summary:  stats.Compute(tasks, members, h.clock.Local(), household.GoldenRuleTarget),
		Month:    month.Format("2006-01"),
		Calendar: stats.CalendarMonth(monthTasks, month.Year(), month.Month(), today),
	})
}
