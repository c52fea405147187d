// Package store persists households, templates and task instances in SQLite.
package store

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by updates that match no row.
var ErrNotFound = errors.New("not found")

const dateLayout = "2006-01-02"

type scanner interface{ Scan(...any) error }

func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}
