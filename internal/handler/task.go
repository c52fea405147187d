package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bayitbeseder/bayit/internal/chore"
	"github.com/bayitbeseder/bayit/internal/energy"
	"github.com/bayitbeseder/bayit/internal/middleware"
	"github.com/bayitbeseder/bayit/internal/model"
	"github.com/bayitbeseder/bayit/internal/store"
)

type TaskHandler struct {
	instances  *store.InstanceStore
	households *store.HouseholdStore
	clock      Clock
	logger     *slog.Logger
}

func NewTaskHandler(is *store.InstanceStore, hs *store.HouseholdStore, clock Clock, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{instances: is, households: hs, clock: clock, logger: logger}
}

type taskListResponse struct {
	From          string                 `json:"from"`
	To            string                 `json:"to"`
	Energy        energy.Level           `json:"energy"`
	EmergencyMode bool                   `json:"emergency_mode"`
	Tasks         []chore.TaskWithStatus `json:"tasks"`
}

// List handles GET /api/households/{hid}/tasks?from=&to=&energy=
// The range defaults to the seven days starting today. Households in
// emergency mode only see their emergency tasks.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	household := middleware.Household(r.Context())
	today := h.clock.Today()

	from, err := parseDate(r, "from", today)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := parseDate(r, "to", from.AddDate(0, 0, 6))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if to.Before(from) {
		writeError(w, http.StatusBadRequest, "to must not be before from")
		return
	}
	level, err := energy.ParseLevel(r.URL.Query().Get("energy"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tasks, err := h.instances.ListTasks(r.Context(), household.ID, from, to)
	if err != nil {
		h.logger.Error("list tasks", "household_id", household.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}
	members, err := h.households.ListMembers(r.Context(), household.ID)
	if err != nil {
		h.logger.Error("list members", "household_id", household.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list members")
		return
	}

	if household.EmergencyMode {
		tasks = energy.CrisisMode(tasks)
	}
	tasks = energy.Filter(tasks, level)

	writeJSON(w, http.StatusOK, taskListResponse{
		From:          from.Format(dateLayout),
		To:            to.Format(dateLayout),
		Energy:        level,
		EmergencyMode: household.EmergencyMode,
		Tasks:         annotate(tasks, members, today),
	})
}

func annotate(tasks []model.Task, members []model.Member, today time.Time) []chore.TaskWithStatus {
	names := make(map[uuid.UUID]string, len(members))
	for _, m := range members {
		names[m.ID] = m.Name
	}
	out := make([]chore.TaskWithStatus, 0, len(tasks))
	for _, t := range tasks {
		tws := chore.TaskWithStatus{
			Task:          t,
			DisplayStatus: chore.ComputeStatus(t.TaskInstance, today),
			Difficulty:    int(energy.InferDifficulty(t)),
		}
		if t.AssignedTo.Valid {
			tws.AssigneeName = names[t.AssignedTo.UUID]
		}
		out = append(out, tws)
	}
	return out
}

type completeRequest struct {
	CompletedBy uuid.NullUUID `json:"completed_by"`
	Rating      *int          `json:"rating"`
	Notes       string        `json:"notes"`
}

// Complete handles POST /api/households/{hid}/tasks/{id}/complete
func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	household := middleware.Household(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req completeRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Rating != nil && (*req.Rating < 1 || *req.Rating > 5) {
		writeError(w, http.StatusBadRequest, "rating must be between 1 and 5")
		return
	}
	if req.CompletedBy.Valid {
		ok, err := h.households.IsMember(r.Context(), household.ID, req.CompletedBy.UUID)
		if err != nil {
			h.logger.Error("check member", "household_id", household.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to check member")
			return
		}
		if !ok {
			writeError(w, http.StatusBadRequest, "completed_by is not a member of this household")
			return
		}
	}

	task, err := h.instances.Complete(r.Context(), household.ID, id, store.Completion{
		By:     req.CompletedBy,
		At:     h.clock.Now(),
		Rating: req.Rating,
		Notes:  strings.TrimSpace(req.Notes),
	})
	if err != nil {
		h.writeUpdateError(w, id, "complete task", err)
		return
	}
	writeJSON(w, http.StatusOK, annotate([]model.Task{*task}, nil, h.clock.Today())[0])
}

// Skip handles POST /api/households/{hid}/tasks/{id}/skip
func (h *TaskHandler) Skip(w http.ResponseWriter, r *http.Request) {
	household := middleware.Household(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	task, err := h.instances.Skip(r.Context(), household.ID, id)
	if err != nil {
		h.writeUpdateError(w, id, "skip task", err)
		return
	}
	writeJSON(w, http.StatusOK, annotate([]model.Task{*task}, nil, h.clock.Today())[0])
}

func (h *TaskHandler) writeUpdateError(w http.ResponseWriter, id uuid.UUID, op string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	h.logger.Error(op, "id", id, "error", err)
	writeError(w, http.StatusInternalServerError, "failed to "+op)
}
