package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/bayitbeseder/bayit/internal/middleware"
	"github.com/bayitbeseder/bayit/internal/model"
	"github.com/bayitbeseder/bayit/internal/push"
	"github.com/bayitbeseder/bayit/internal/store"
)

type PushHandler struct {
	pushStore  *store.PushStore
	households *store.HouseholdStore
	service    *push.Service
	logger     *slog.Logger
}

func NewPushHandler(ps *store.PushStore, hs *store.HouseholdStore, svc *push.Service, logger *slog.Logger) *PushHandler {
	return &PushHandler{pushStore: ps, households: hs, service: svc, logger: logger}
}

// VAPIDKey handles GET /api/push/vapid-key
func (h *PushHandler) VAPIDKey(w http.ResponseWriter, r *http.Request) {
	if !h.service.Enabled() {
		writeError(w, http.StatusServiceUnavailable, "push notifications are not configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"public_key": h.service.VAPIDPublicKey()})
}

type subscribeRequest struct {
	Endpoint   string        `json:"endpoint"`
	P256dh     string        `json:"p256dh"`
	Auth       string        `json:"auth"`
	DeviceName string        `json:"device_name"`
	MemberID   uuid.NullUUID `json:"member_id"`
}

// Subscribe handles POST /api/households/{hid}/push/subscribe
func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	household := middleware.Household(r.Context())
	if !h.service.Enabled() {
		writeError(w, http.StatusServiceUnavailable, "push notifications are not configured")
		return
	}

	var req subscribeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Endpoint = strings.TrimSpace(req.Endpoint)
	if req.Endpoint == "" || req.P256dh == "" || req.Auth == "" {
		writeError(w, http.StatusBadRequest, "endpoint, p256dh, and auth are required")
		return
	}
	if !strings.HasPrefix(req.Endpoint, "https://") {
		writeError(w, http.StatusBadRequest, "endpoint must be an https URL")
		return
	}
	if req.MemberID.Valid {
		ok, err := h.households.IsMember(r.Context(), household.ID, req.MemberID.UUID)
		if err != nil {
			h.logger.Error("check member", "household_id", household.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to check member")
			return
		}
		if !ok {
			writeError(w, http.StatusBadRequest, "member_id is not a member of this household")
			return
		}
	}

	sub, err := h.pushStore.CreateSubscription(r.Context(), &model.PushSubscription{
		HouseholdID: household.ID,
		MemberID:    req.MemberID,
		Endpoint:    req.Endpoint,
		P256dhKey:   req.P256dh,
		AuthKey:     req.Auth,
		DeviceName:  strings.TrimSpace(req.DeviceName),
	})
	if err != nil {
		h.logger.Error("create push subscription", "household_id", household.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save subscription")
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}
