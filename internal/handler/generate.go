package handler

import (
	"log/slog"
	"net/http"

	"github.com/bayitbeseder/bayit/internal/middleware"
	"github.com/bayitbeseder/bayit/internal/scheduler"
)

type GenerateHandler struct {
	generator *scheduler.Generator
	daysAhead int
	clock     Clock
	logger    *slog.Logger
}

func NewGenerateHandler(gen *scheduler.Generator, daysAhead int, clock Clock, logger *slog.Logger) *GenerateHandler {
	return &GenerateHandler{generator: gen, daysAhead: daysAhead, clock: clock, logger: logger}
}

// Generate handles POST /api/households/{hid}/generate?start=&end=
// Without a range it covers today through the configured look-ahead.
func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	household := middleware.Household(r.Context())
	today := h.clock.Today()

	start, err := parseDate(r, "start", today)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	end, err := parseDate(r, "end", start.AddDate(0, 0, h.daysAhead))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if end.Before(start) {
		writeError(w, http.StatusBadRequest, "end must not be before start")
		return
	}
	if end.Sub(start).Hours() > 366*24 {
		writeError(w, http.StatusBadRequest, "range must not exceed one year")
		return
	}

	res, err := h.generator.Generate(r.Context(), household.ID, start, end,
		scheduler.WithGoldenRuleTarget(household.GoldenRuleTarget))
	if err != nil {
		h.logger.Error("generate instances", "household_id", household.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to generate tasks")
		return
	}
	writeJSON(w, http.StatusOK, res)
}
