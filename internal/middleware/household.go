package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/bayitbeseder/bayit/internal/model"
)

type householdKey struct{}

// HouseholdLoader looks up the household named in a request path.
type HouseholdLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Household, error)
}

// WithHousehold stores h in ctx.
func WithHousehold(ctx context.Context, h *model.Household) context.Context {
	return context.WithValue(ctx, householdKey{}, h)
}

// Household returns the household loaded by RequireHousehold, or nil.
func Household(ctx context.Context) *model.Household {
	h, _ := ctx.Value(householdKey{}).(*model.Household)
	return h
}

// RequireHousehold resolves the {hid} path value to a household and stores it
// in the request context. Unknown or malformed ids are answered directly.
func RequireHousehold(loader HouseholdLoader, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := uuid.Parse(r.PathValue("hid"))
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid household id")
				return
			}

			h, err := loader.GetByID(r.Context(), id)
			if err != nil {
				logger.Error("load household", "household_id", id, "error", err)
				writeError(w, http.StatusInternalServerError, "failed to load household")
				return
			}
			if h == nil {
				writeError(w, http.StatusNotFound, "household not found")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithHousehold(r.Context(), h)))
		})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
