package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/bayitbeseder/bayit/internal/middleware"
	"github.com/bayitbeseder/bayit/internal/model"
	"github.com/bayitbeseder/bayit/internal/store"
)

type HouseholdHandler struct {
	households *store.HouseholdStore
	logger     *slog.Logger
}

func NewHouseholdHandler(hs *store.HouseholdStore, logger *slog.Logger) *HouseholdHandler {
	return &HouseholdHandler{households: hs, logger: logger}
}

type nameRequest struct {
	Name string `json:"name"`
}

// Create handles POST /api/households
func (h *HouseholdHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	household, err := h.households.Create(r.Context(), req.Name)
	if err != nil {
		h.logger.Error("create household", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create household")
		return
	}
	writeJSON(w, http.StatusCreated, household)
}

// Get handles GET /api/households/{hid}
func (h *HouseholdHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, middleware.Household(r.Context()))
}

type settingsRequest struct {
	GoldenRuleTarget *int  `json:"golden_rule_target"`
	EmergencyMode    *bool `json:"emergency_mode"`
}

// UpdateSettings handles PUT /api/households/{hid}/settings. Omitted fields
// keep their current value.
func (h *HouseholdHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	household := middleware.Household(r.Context())

	var req settingsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	target, emergency := household.GoldenRuleTarget, household.EmergencyMode
	if req.GoldenRuleTarget != nil {
		target = *req.GoldenRuleTarget
	}
	if req.EmergencyMode != nil {
		emergency = *req.EmergencyMode
	}
	if target < 0 || target > 100 {
		writeError(w, http.StatusBadRequest, "golden_rule_target must be between 0 and 100")
		return
	}

	updated, err := h.households.UpdateSettings(r.Context(), household.ID, target, emergency)
	if err != nil {
		h.logger.Error("update household settings", "household_id", household.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update settings")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// ListMembers handles GET /api/households/{hid}/members
func (h *HouseholdHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	household := middleware.Household(r.Context())

	members, err := h.households.ListMembers(r.Context(), household.ID)
	if err != nil {
		h.logger.Error("list members", "household_id", household.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list members")
		return
	}
	if members == nil {
		members = []model.Member{}
	}
	writeJSON(w, http.StatusOK, members)
}

// AddMember handles POST /api/households/{hid}/members
func (h *HouseholdHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	household := middleware.Household(r.Context())

	var req nameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	member, err := h.households.AddMember(r.Context(), household.ID, req.Name)
	if err != nil {
		h.logger.Error("add member", "household_id", household.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to add member")
		return
	}
	writeJSON(w, http.StatusCreated, member)
}
