// Package handler serves the household JSON API.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/bayitbeseder/bayit/internal/recurrence"
)

const dateLayout = "2006-01-02"

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// Clock supplies "today" in the household time zone.
type Clock struct {
	Location *time.Location
	Now      func() time.Time
}

// NewClock returns a wall clock for loc.
func NewClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return Clock{Location: loc, Now: time.Now}
}

// Local is the current instant in the clock's location.
func (c Clock) Local() time.Time {
	return c.Now().In(c.Location)
}

// Today is the current calendar date in the clock's location.
func (c Clock) Today() time.Time {
	return recurrence.Normalize(c.Now().In(c.Location))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

func parseIDParam(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(r.PathValue("id"))
}

var errBadDate = errors.New("dates must be YYYY-MM-DD")

// parseDate reads a YYYY-MM-DD query value, returning def when it is absent.
func parseDate(r *http.Request, key string, def time.Time) (time.Time, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	d, err := time.Parse(dateLayout, v)
	if err != nil {
		return time.Time{}, errBadDate
	}
	return d, nil
}
