package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/bayitbeseder/bayit/internal/middleware"
	"github.com/bayitbeseder/bayit/internal/model"
	"github.com/bayitbeseder/bayit/internal/recurrence"
	"github.com/bayitbeseder/bayit/internal/store"
)

type TemplateHandler struct {
	templates  *store.TemplateStore
	households *store.HouseholdStore
	clock      Clock
	logger     *slog.Logger
}

func NewTemplateHandler(ts *store.TemplateStore, hs *store.HouseholdStore, clock Clock, logger *slog.Logger) *TemplateHandler {
	return &TemplateHandler{templates: ts, households: hs, clock: clock, logger: logger}
}

type templateRequest struct {
	Title            string        `json:"title"`
	Category         string        `json:"category"`
	EstimatedMinutes int           `json:"estimated_minutes"`
	RecurrenceType   string        `json:"recurrence_type"`
	RecurrenceDay    *int          `json:"recurrence_day"`
	DefaultAssignee  uuid.NullUUID `json:"default_assignee"`
	Emergency        bool          `json:"emergency"`
	Active           *bool         `json:"active"`
}

// validate normalizes the request and checks it against the household.
func (h *TemplateHandler) validate(ctx context.Context, householdID uuid.UUID, req *templateRequest) (string, error) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return "title is required", nil
	}
	req.Category = strings.ToLower(strings.TrimSpace(req.Category))
	if req.Category == "" {
		req.Category = string(model.CategoryGeneral)
	}
	if !model.Category(req.Category).Valid() {
		return fmt.Sprintf("unknown category %q", req.Category), nil
	}
	if req.EstimatedMinutes < 0 {
		return "estimated_minutes must not be negative", nil
	}
	req.RecurrenceType = strings.ToLower(strings.TrimSpace(req.RecurrenceType))
	if _, err := recurrence.NewRule(req.RecurrenceType, req.RecurrenceDay, h.clock.Today()); err != nil {
		return err.Error(), nil
	}
	if req.DefaultAssignee.Valid {
		ok, err := h.households.IsMember(ctx, householdID, req.DefaultAssignee.UUID)
		if err != nil {
			return "", err
		}
		if !ok {
			return "default_assignee is not a member of this household", nil
		}
	}
	return "", nil
}

func (req templateRequest) apply(t *model.TaskTemplate) {
	t.Title = req.Title
	t.Category = model.Category(req.Category)
	t.EstimatedMinutes = req.EstimatedMinutes
	t.RecurrenceType = req.RecurrenceType
	t.RecurrenceDay = req.RecurrenceDay
	t.DefaultAssignee = req.DefaultAssignee
	t.Emergency = req.Emergency
	if req.Active != nil {
		t.Active = *req.Active
	}
}

// List handles GET /api/households/{hid}/templates?include_inactive=true
func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	household := middleware.Household(r.Context())
	includeInactive := r.URL.Query().Get("include_inactive") == "true"

	templates, err := h.templates.List(r.Context(), household.ID, includeInactive)
	if err != nil {
		h.logger.Error("list templates", "household_id", household.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list templates")
		return
	}
	if templates == nil {
		templates = []model.TaskTemplate{}
	}
	writeJSON(w, http.StatusOK, templates)
}

// Create handles POST /api/households/{hid}/templates
func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	household := middleware.Household(r.Context())

	var req templateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	msg, err := h.validate(r.Context(), household.ID, &req)
	if err != nil {
		h.logger.Error("validate template", "household_id", household.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to validate template")
		return
	}
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	// The creation date anchors the recurrence, so it is the household's
	// local date rather than the UTC one.
	t := &model.TaskTemplate{HouseholdID: household.ID, CreatedAt: h.clock.Today()}
	req.apply(t)
	if err := h.templates.Create(r.Context(), t); err != nil {
		h.logger.Error("create template", "household_id", household.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create template")
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// Update handles PUT /api/households/{hid}/templates/{id}
func (h *TemplateHandler) Update(w http.ResponseWriter, r *http.Request) {
	household := middleware.Household(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	existing, err := h.templates.GetByID(r.Context(), household.ID, id)
	if err != nil {
		h.logger.Error("get template", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get template")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "template not found")
		return
	}

	var req templateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	msg, err := h.validate(r.Context(), household.ID, &req)
	if err != nil {
		h.logger.Error("validate template", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to validate template")
		return
	}
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	req.apply(existing)
	if err := h.templates.Update(r.Context(), existing); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "template not found")
			return
		}
		h.logger.Error("update template", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update template")
		return
	}
	writeJSON(w, http.StatusOK, existing)
}

// Deactivate handles DELETE /api/households/{hid}/templates/{id}. Templates
// are never removed; their history stays attached to past instances.
func (h *TemplateHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	household := middleware.Household(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.templates.Deactivate(r.Context(), household.ID, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "template not found")
			return
		}
		h.logger.Error("deactivate template", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to deactivate template")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
