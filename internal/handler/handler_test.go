package handler

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/bayitbeseder/bayit/internal/chore"
	"github.com/bayitbeseder/bayit/internal/model"
)

func TestClockToday(t *testing.T) {
	jerusalem, err := time.LoadLocation("Asia/Jerusalem")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// 23:30 UTC on March 10 is already March 11 in Jerusalem.
	c := Clock{Location: jerusalem, Now: func() time.Time {
		return time.Date(2026, 3, 10, 23, 30, 0, 0, time.UTC)
	}}
	want := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	if got := c.Today(); !got.Equal(want) {
		t.Errorf("Today() = %v, want %v", got, want)
	}

	if NewClock(nil).Location != time.UTC {
		t.Error("NewClock(nil) should default to UTC")
	}
}

func TestParseDate(t *testing.T) {
	def := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	r := httptest.NewRequest("GET", "/?from=2026-03-05&bad=5/3/2026", nil)
	got, err := parseDate(r, "from", def)
	if err != nil || !got.Equal(time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("parseDate(from) = %v, %v", got, err)
	}
	if got, err := parseDate(r, "missing", def); err != nil || !got.Equal(def) {
		t.Errorf("parseDate(missing) = %v, %v; want default", got, err)
	}
	if _, err := parseDate(r, "bad", def); err != errBadDate {
		t.Errorf("parseDate(bad) error = %v, want errBadDate", err)
	}
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	var req nameRequest
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"a","nmae":"b"}`))
	if err := decodeJSON(httptest.NewRecorder(), r, &req); err == nil {
		t.Fatal("expected error for unknown field")
	}

	r = httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"Levi"}`))
	if err := decodeJSON(httptest.NewRecorder(), r, &req); err != nil || req.Name != "Levi" {
		t.Fatalf("decodeJSON() = %v, name %q", err, req.Name)
	}
}

func TestAnnotate(t *testing.T) {
	today := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	member := model.Member{ID: uuid.New(), Name: "Noa"}

	tasks := []model.Task{
		{
			TaskInstance: model.TaskInstance{
				DueDate:    today.AddDate(0, 0, -1),
				Status:     model.StatusPending,
				AssignedTo: uuid.NullUUID{UUID: member.ID, Valid: true},
			},
			Title: "Take out trash",
		},
		{
			TaskInstance: model.TaskInstance{DueDate: today.AddDate(0, 0, 2), Status: model.StatusPending},
			Title:        "Deep clean oven",
		},
		{
			TaskInstance:     model.TaskInstance{DueDate: today, Status: model.StatusSkipped},
			Title:            "Fold towels",
			EstimatedMinutes: 10,
		},
	}

	got := annotate(tasks, []model.Member{member}, today)
	want := []struct {
		status     chore.Status
		difficulty int
		assignee   string
	}{
		{chore.StatusOverdue, 1, "Noa"},
		{chore.StatusUpcoming, 3, ""},
		{chore.StatusSkipped, 2, ""},
	}
	if len(got) != len(want) {
		t.Fatalf("annotate() returned %d tasks, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].DisplayStatus != w.status || got[i].Difficulty != w.difficulty || got[i].AssigneeName != w.assignee {
			t.Errorf("task %d = {%s %d %q}, want %+v", i, got[i].DisplayStatus, got[i].Difficulty, got[i].AssigneeName, w)
		}
	}
}
