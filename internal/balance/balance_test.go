package balance

import (
	"testing"
	"time"

	"github.com/bayitbeseder/bayit/internal/model"
)

// 2026-03-01 is a Sunday.
var sunday = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func on(dayOffset int, title string) model.Task {
	var t model.Task
	t.Title = title
	t.DueDate = sunday.AddDate(0, 0, dayOffset)
	return t
}

func countTypes(s []Suggestion) map[SuggestionType]int {
	counts := make(map[SuggestionType]int)
	for _, x := range s {
		counts[x.Type]++
	}
	return counts
}

func TestKeywordMinutes(t *testing.T) {
	c := KeywordClassifier{}
	tests := []struct {
		title string
		want  int
	}{
		{"Deep clean kitchen", 30},
		{"Ironing shirts", 30},
		{"Laundry", 30},
		{"Folding towels", 30},
		{"Mop floors", 30},
		{"כביסה לבנה", 30},
		{"Clean sink", 15},
		{"Vacuum hallway", 15},
		{"Change bedding", 15},
		{"Feed the dog", 5},
	}
	for _, tt := range tests {
		if got := c.Minutes(model.Task{Title: tt.title}); got != tt.want {
			t.Errorf("Minutes(%q) = %d, want %d", tt.title, got, tt.want)
		}
	}
}

func TestKeywordZone(t *testing.T) {
	c := KeywordClassifier{}
	tests := []struct {
		title string
		want  Zone
	}{
		{"Clean the kitchen counter", ZoneKitchen},
		{"Scrub toilet", ZoneBathroom},
		{"Vacuum living room", ZoneLiving},
		{"ניקוי סלון", ZoneLiving},
		{"Change bedding", ZoneBedroom},
		{"Ironing", ZoneLaundry},
		{"Water balcony plants", ZoneOutdoor},
		{"Empty litter box", ZonePets},
		{"Pay the bills", ZoneGeneral},
	}
	for _, tt := range tests {
		if got := c.Zone(model.Task{Title: tt.title}); got != tt.want {
			t.Errorf("Zone(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestFieldClassifier(t *testing.T) {
	c := FieldClassifier{}
	explicit := model.Task{Title: "Laundry", EstimatedMinutes: 12, Category: model.CategoryBathroom}
	if got := c.Minutes(explicit); got != 12 {
		t.Errorf("Minutes = %d, want 12", got)
	}
	if got := c.Zone(explicit); got != ZoneBathroom {
		t.Errorf("Zone = %q, want bathroom", got)
	}

	fallback := model.Task{Title: "Laundry", Category: model.CategoryGeneral}
	if got := c.Minutes(fallback); got != 30 {
		t.Errorf("fallback Minutes = %d, want 30", got)
	}
	if got := c.Zone(fallback); got != ZoneLaundry {
		t.Errorf("fallback Zone = %q, want laundry", got)
	}
}

func TestClassifyLoad(t *testing.T) {
	tests := []struct {
		minutes int
		want    LoadLevel
	}{
		{0, LoadLight},
		{30, LoadLight},
		{31, LoadModerate},
		{60, LoadModerate},
		{61, LoadHeavy},
	}
	for _, tt := range tests {
		if got := ClassifyLoad(tt.minutes); got != tt.want {
			t.Errorf("ClassifyLoad(%d) = %q, want %q", tt.minutes, got, tt.want)
		}
	}
}

func TestAnalyzeDailyLoad(t *testing.T) {
	tasks := []model.Task{
		on(1, "Deep clean oven"),
		on(1, "Laundry"),
		on(1, "Vacuum"),
		on(2, "Wipe table"),
		on(9, "Outside the week"),
	}

	// Any day inside the week resolves to the same Sunday.
	week := AnalyzeDailyLoad(tasks, sunday.AddDate(0, 0, 3), KeywordClassifier{})

	if !week[0].Date.Equal(sunday) || week[0].Weekday != time.Sunday {
		t.Fatalf("week[0] = %v %v, want Sunday %v", week[0].Date, week[0].Weekday, sunday)
	}
	if week[1].TotalMinutes != 75 || week[1].Level != LoadHeavy {
		t.Errorf("Monday = %d min %q, want 75 heavy", week[1].TotalMinutes, week[1].Level)
	}
	if len(week[1].Tasks) != 3 {
		t.Errorf("Monday tasks = %d, want 3", len(week[1].Tasks))
	}
	if week[2].TotalMinutes != 5 || week[2].Level != LoadLight {
		t.Errorf("Tuesday = %d min %q, want 5 light", week[2].TotalMinutes, week[2].Level)
	}
	total := 0
	for _, d := range week {
		total += len(d.Tasks)
	}
	if total != 4 {
		t.Errorf("bucketed %d tasks, want 4", total)
	}
}

func TestAnalyzeDailyLoadThresholdEdges(t *testing.T) {
	heavy := on(0, "A")
	heavy.EstimatedMinutes = 61
	moderate := on(1, "B")
	moderate.EstimatedMinutes = 60

	week := AnalyzeDailyLoad([]model.Task{heavy, moderate}, sunday, FieldClassifier{})
	if week[0].Level != LoadHeavy {
		t.Errorf("61 minutes = %q, want heavy", week[0].Level)
	}
	if week[1].Level != LoadModerate {
		t.Errorf("60 minutes = %q, want moderate", week[1].Level)
	}
}

func TestGroupTasksByZone(t *testing.T) {
	tasks := []model.Task{
		{Title: "Dishes"},
		{Title: "Clean stovetop"},
		{Title: "Scrub toilet"},
		{Title: "Call plumber"},
	}
	groups := GroupTasksByZone(tasks, KeywordClassifier{})
	if len(groups[ZoneKitchen]) != 2 {
		t.Errorf("kitchen = %d, want 2", len(groups[ZoneKitchen]))
	}
	if len(groups[ZoneBathroom]) != 1 {
		t.Errorf("bathroom = %d, want 1", len(groups[ZoneBathroom]))
	}
	if len(groups[ZoneGeneral]) != 1 {
		t.Errorf("general = %d, want 1", len(groups[ZoneGeneral]))
	}
}

func TestSuggestionsAllRulesFire(t *testing.T) {
	c := KeywordClassifier{}
	tasks := []model.Task{
		on(0, "Wipe table"),
		on(1, "Deep clean bathroom"),
		on(1, "Clean shower"),
		on(1, "Scrub toilet"),
		on(1, "Laundry"),
		on(3, "Wipe table"),
	}
	week := AnalyzeDailyLoad(tasks, sunday, c)
	if week[1].Level != LoadHeavy {
		t.Fatalf("Monday = %d min, want heavy", week[1].TotalMinutes)
	}

	got := GenerateSmartSuggestions(week, c)
	counts := countTypes(got)
	for _, typ := range []SuggestionType{SuggestBatch, SuggestHeavyDay, SuggestMoveTask, SuggestEmptyDay} {
		if counts[typ] == 0 {
			t.Errorf("missing %q suggestion in %+v", typ, got)
		}
	}
	if counts[SuggestEnergyTip] != 0 {
		t.Error("energy tip should not fire when the heavy day is early in the week")
	}

	// Rule-category order.
	if got[0].Type != SuggestBatch || got[0].Zone != ZoneBathroom {
		t.Errorf("first suggestion = %+v, want bathroom batch", got[0])
	}
	if got[len(got)-1].Type != SuggestEmptyDay {
		t.Errorf("last suggestion = %q, want empty_day", got[len(got)-1].Type)
	}

	for _, s := range got {
		if s.Type == SuggestMoveTask {
			if len(s.Tasks) != 1 || s.Tasks[0] != "Deep clean bathroom" {
				t.Errorf("move candidate = %v, want the longest task", s.Tasks)
			}
			if s.Target == nil || !s.Target.Equal(sunday.AddDate(0, 0, 2)) {
				t.Errorf("move target = %v, want Tuesday", s.Target)
			}
		}
		if s.Type == SuggestEmptyDay && (s.Target == nil || !s.Target.Equal(sunday.AddDate(0, 0, 2))) {
			t.Errorf("empty day target = %v, want Tuesday", s.Target)
		}
	}
}

func TestBatchIncludesGeneralZone(t *testing.T) {
	c := KeywordClassifier{}
	tasks := []model.Task{on(2, "Pay bills"), on(2, "Sort mail"), on(2, "Call plumber")}
	week := AnalyzeDailyLoad(tasks, sunday, c)

	var batches []Suggestion
	for _, s := range GenerateSmartSuggestions(week, c) {
		if s.Type == SuggestBatch {
			batches = append(batches, s)
		}
	}
	if len(batches) != 1 || batches[0].Zone != ZoneGeneral || len(batches[0].Tasks) != 3 {
		t.Errorf("batch suggestions = %+v, want one general batch of 3", batches)
	}
}

func TestHeavyDayWithoutLightFollower(t *testing.T) {
	c := FieldClassifier{}
	a := on(1, "A")
	a.EstimatedMinutes = 90
	b := on(2, "B")
	b.EstimatedMinutes = 30
	week := AnalyzeDailyLoad([]model.Task{a, b}, sunday, c)

	counts := countTypes(GenerateSmartSuggestions(week, c))
	if counts[SuggestHeavyDay] != 1 {
		t.Errorf("heavy_day = %d, want 1", counts[SuggestHeavyDay])
	}
	if counts[SuggestMoveTask] != 0 {
		t.Error("move suggestion requires a following day under 30 minutes")
	}
}

func TestHeavySaturdayHasNoFollower(t *testing.T) {
	c := FieldClassifier{}
	a := on(6, "A")
	a.EstimatedMinutes = 90
	week := AnalyzeDailyLoad([]model.Task{a}, sunday, c)

	counts := countTypes(GenerateSmartSuggestions(week, c))
	if counts[SuggestMoveTask] != 0 {
		t.Error("Saturday has no following day in the week")
	}
	if counts[SuggestEnergyTip] != 1 {
		t.Error("expected energy tip for a heavy Saturday after a calm start")
	}
}

func TestEnergyTipNeedsCalmStart(t *testing.T) {
	c := FieldClassifier{}
	fri := on(5, "A")
	fri.EstimatedMinutes = 70
	mon := on(1, "B")
	mon.EstimatedMinutes = 45
	week := AnalyzeDailyLoad([]model.Task{fri, mon}, sunday, c)

	if countTypes(GenerateSmartSuggestions(week, c))[SuggestEnergyTip] != 0 {
		t.Error("energy tip should not fire when Sunday-Tuesday has a day over 40 minutes")
	}
}

func TestNoSuggestionsForEmptyWeek(t *testing.T) {
	week := AnalyzeDailyLoad(nil, sunday, KeywordClassifier{})
	if got := GenerateSmartSuggestions(week, KeywordClassifier{}); len(got) != 0 {
		t.Errorf("expected no suggestions, got %+v", got)
	}
}
