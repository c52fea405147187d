package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/bayitbeseder/bayit/internal/model"
)

type fakeRepo struct {
	mu         sync.Mutex
	templates  map[uuid.UUID][]model.TaskTemplate
	instances  []model.TaskInstance
	listTplErr error
	listErr    error
	failOn     map[string]error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		templates: make(map[uuid.UUID][]model.TaskTemplate),
		failOn:    make(map[string]error),
	}
}

func (f *fakeRepo) ListActiveTemplates(_ context.Context, hid uuid.UUID) ([]model.TaskTemplate, error) {
	if f.listTplErr != nil {
		return nil, f.listTplErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.TaskTemplate
	for _, t := range f.templates[hid] {
		if t.Active {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListInstances(_ context.Context, hid uuid.UUID, start, end time.Time) ([]model.TaskInstance, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.TaskInstance
	for _, inst := range f.instances {
		if inst.HouseholdID == hid && !inst.DueDate.Before(start) && !inst.DueDate.After(end) {
			out = append(out, inst)
		}
	}
	return out, nil
}

func (f *fakeRepo) CreateInstance(_ context.Context, inst *model.TaskInstance) error {
	if err, ok := f.failOn[inst.DueDate.Format(dateKey)]; ok {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.instances {
		if existing.TemplateID == inst.TemplateID && existing.DueDate.Equal(inst.DueDate) {
			return ErrDuplicate
		}
	}
	f.instances = append(f.instances, *inst)
	return nil
}

func (f *fakeRepo) ListHouseholds(context.Context) ([]model.Household, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Household
	for id := range f.templates {
		out = append(out, model.Household{ID: id, GoldenRuleTarget: model.DefaultGoldenRuleTarget})
	}
	return out, nil
}

func (f *fakeRepo) addTemplate(hid uuid.UUID, recurrenceType string, day *int) model.TaskTemplate {
	tmpl := model.TaskTemplate{
		ID:             uuid.New(),
		HouseholdID:    hid,
		Title:          "Task " + recurrenceType,
		Category:       model.CategoryKitchen,
		RecurrenceType: recurrenceType,
		RecurrenceDay:  day,
		Active:         true,
		CreatedAt:      time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC),
	}
	f.templates[hid] = append(f.templates[hid], tmpl)
	return tmpl
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func intPtr(n int) *int { return &n }

var (
	rangeStart = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	rangeEnd   = time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
)

func TestGenerateCreatesInstances(t *testing.T) {
	repo := newFakeRepo()
	hid := uuid.New()
	assignee := uuid.New()
	daily := repo.addTemplate(hid, "daily", nil)
	weekly := repo.addTemplate(hid, "weekly", intPtr(2))
	repo.templates[hid][0].DefaultAssignee = uuid.NullUUID{UUID: assignee, Valid: true}

	g := NewGenerator(repo, testLogger())
	res, err := g.Generate(context.Background(), hid, rangeStart, rangeEnd)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	// 14 daily + 2 Tuesdays.
	if res.Created != 16 || res.Skipped != 0 || len(res.Errors) != 0 {
		t.Errorf("result = %+v, want 16 created", res)
	}
	if res.GoldenRuleTarget != model.DefaultGoldenRuleTarget {
		t.Errorf("golden rule target = %d, want default", res.GoldenRuleTarget)
	}
	if res.RunID == uuid.Nil {
		t.Error("run ID should be set")
	}

	for _, inst := range repo.instances {
		if inst.Status != model.StatusPending {
			t.Errorf("status = %q, want pending", inst.Status)
		}
		switch inst.TemplateID {
		case daily.ID:
			if inst.AssignedTo.UUID != assignee || !inst.AssignedTo.Valid {
				t.Errorf("daily instance assigned to %v, want default assignee", inst.AssignedTo)
			}
		case weekly.ID:
			if inst.AssignedTo.Valid {
				t.Error("weekly instance should be unassigned")
			}
			if inst.DueDate.Weekday() != time.Tuesday {
				t.Errorf("weekly due %v, want a Tuesday", inst.DueDate)
			}
		}
	}
}

func TestGenerateIdempotent(t *testing.T) {
	repo := newFakeRepo()
	hid := uuid.New()
	repo.addTemplate(hid, "daily", nil)
	repo.addTemplate(hid, "biweekly", intPtr(0))

	g := NewGenerator(repo, testLogger())
	first, err := g.Generate(context.Background(), hid, rangeStart, rangeEnd)
	if err != nil {
		t.Fatalf("first Generate: %v", err)
	}
	second, err := g.Generate(context.Background(), hid, rangeStart, rangeEnd)
	if err != nil {
		t.Fatalf("second Generate: %v", err)
	}

	if second.Created != 0 {
		t.Errorf("second run created %d, want 0", second.Created)
	}
	if second.Skipped != first.Created {
		t.Errorf("second run skipped %d, want %d", second.Skipped, first.Created)
	}
	if len(repo.instances) != first.Created {
		t.Errorf("stored %d instances, want %d", len(repo.instances), first.Created)
	}
}

func TestGenerateOverlappingRangesNoDuplicates(t *testing.T) {
	repo := newFakeRepo()
	hid := uuid.New()
	repo.addTemplate(hid, "daily", nil)

	g := NewGenerator(repo, testLogger())
	ctx := context.Background()
	if _, err := g.Generate(ctx, hid, rangeStart, rangeEnd); err != nil {
		t.Fatal(err)
	}
	res, err := g.Generate(ctx, hid, rangeStart.AddDate(0, 0, 7), rangeEnd.AddDate(0, 0, 7))
	if err != nil {
		t.Fatal(err)
	}
	if res.Created != 7 || res.Skipped != 7 {
		t.Errorf("result = %+v, want 7 created 7 skipped", res)
	}

	seen := make(map[string]bool)
	for _, inst := range repo.instances {
		key := instanceKey(inst.TemplateID, inst.DueDate)
		if seen[key] {
			t.Fatalf("duplicate instance %s", key)
		}
		seen[key] = true
	}
}

func TestGenerateStorageDuplicateCountsAsSkipped(t *testing.T) {
	repo := newFakeRepo()
	hid := uuid.New()
	repo.addTemplate(hid, "daily", nil)
	repo.failOn["2026-03-02"] = ErrDuplicate

	res, err := NewGenerator(repo, testLogger()).Generate(context.Background(), hid, rangeStart, rangeStart.AddDate(0, 0, 2))
	if err != nil {
		t.Fatal(err)
	}
	if res.Created != 2 || res.Skipped != 1 || len(res.Errors) != 0 {
		t.Errorf("result = %+v, want 2 created 1 skipped", res)
	}
}

func TestGeneratePartialFailure(t *testing.T) {
	repo := newFakeRepo()
	hid := uuid.New()
	repo.addTemplate(hid, "daily", nil)
	repo.failOn["2026-03-03"] = errors.New("disk full")

	res, err := NewGenerator(repo, testLogger()).Generate(context.Background(), hid, rangeStart, rangeStart.AddDate(0, 0, 4))
	if err != nil {
		t.Fatalf("insert failures must not abort the run: %v", err)
	}
	if res.Created != 4 {
		t.Errorf("created = %d, want 4", res.Created)
	}
	if len(res.Errors) != 1 || !strings.Contains(res.Errors[0], "disk full") {
		t.Errorf("errors = %v, want one disk full error", res.Errors)
	}

	// The failed pair is created on the next run.
	delete(repo.failOn, "2026-03-03")
	again, err := NewGenerator(repo, testLogger()).Generate(context.Background(), hid, rangeStart, rangeStart.AddDate(0, 0, 4))
	if err != nil {
		t.Fatal(err)
	}
	if again.Created != 1 || again.Skipped != 4 {
		t.Errorf("retry = %+v, want 1 created 4 skipped", again)
	}
}

func TestGenerateFetchFailuresAbort(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*fakeRepo)
	}{
		{"templates", func(f *fakeRepo) { f.listTplErr = errors.New("connection reset") }},
		{"instances", func(f *fakeRepo) { f.listErr = errors.New("connection reset") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepo()
			hid := uuid.New()
			repo.addTemplate(hid, "daily", nil)
			tt.setup(repo)

			res, err := NewGenerator(repo, testLogger()).Generate(context.Background(), hid, rangeStart, rangeEnd)
			if err == nil {
				t.Fatal("expected run error")
			}
			if res.Created != 0 || len(repo.instances) != 0 {
				t.Errorf("created %d instances on a failed run", res.Created)
			}
		})
	}
}

func TestGenerateInvalidRecurrenceIsPerTemplate(t *testing.T) {
	repo := newFakeRepo()
	hid := uuid.New()
	bad := repo.addTemplate(hid, "fortnightly", nil)
	repo.addTemplate(hid, "weekly", intPtr(9))
	repo.addTemplate(hid, "daily", nil)

	res, err := NewGenerator(repo, testLogger()).Generate(context.Background(), hid, rangeStart, rangeEnd)
	if err != nil {
		t.Fatal(err)
	}
	if res.Created != 14 {
		t.Errorf("created = %d, want 14 from the valid template", res.Created)
	}
	if len(res.Errors) != 2 {
		t.Fatalf("errors = %v, want 2", res.Errors)
	}
	if !strings.Contains(res.Errors[0], bad.ID.String()) {
		t.Errorf("error %q should name the template", res.Errors[0])
	}
}

func TestGenerateInactiveTemplatesIgnored(t *testing.T) {
	repo := newFakeRepo()
	hid := uuid.New()
	repo.addTemplate(hid, "daily", nil)
	repo.templates[hid][0].Active = false

	res, err := NewGenerator(repo, testLogger()).Generate(context.Background(), hid, rangeStart, rangeEnd)
	if err != nil {
		t.Fatal(err)
	}
	if res.Created != 0 {
		t.Errorf("created = %d, want 0", res.Created)
	}
}

func TestGenerateGoldenRuleTarget(t *testing.T) {
	repo := newFakeRepo()
	hid := uuid.New()
	g := NewGenerator(repo, testLogger())

	res, err := g.Generate(context.Background(), hid, rangeStart, rangeEnd, WithGoldenRuleTarget(65))
	if err != nil {
		t.Fatal(err)
	}
	if res.GoldenRuleTarget != 65 {
		t.Errorf("target = %d, want 65", res.GoldenRuleTarget)
	}

	if _, err := g.Generate(context.Background(), hid, rangeStart, rangeEnd, WithGoldenRuleTarget(101)); err == nil {
		t.Error("expected error for target above 100")
	}
}

func TestGenerateInvalidRange(t *testing.T) {
	_, err := NewGenerator(newFakeRepo(), testLogger()).Generate(context.Background(), uuid.New(), rangeEnd, rangeStart)
	if err == nil {
		t.Error("expected error when end precedes start")
	}
}

func TestGenerateCancelled(t *testing.T) {
	repo := newFakeRepo()
	hid := uuid.New()
	repo.addTemplate(hid, "daily", nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewGenerator(repo, testLogger()).Generate(ctx, hid, rangeStart, rangeEnd)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestRunnerRunOnce(t *testing.T) {
	repo := newFakeRepo()
	ok := uuid.New()
	other := uuid.New()
	repo.addTemplate(ok, "daily", nil)
	repo.addTemplate(other, "weekly", nil)

	r := NewRunner(NewGenerator(repo, testLogger()), repo, RunnerConfig{DaysAhead: 6, Concurrency: 2}, testLogger())
	r.now = func() time.Time { return time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC) }

	runs, err := r.RunOnce(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(runs))
	}
	byID := make(map[uuid.UUID]HouseholdRun)
	for _, run := range runs {
		if run.Err != nil {
			t.Errorf("household %s: %v", run.HouseholdID, run.Err)
		}
		byID[run.HouseholdID] = run
	}
	if byID[ok].Result.Created != 7 {
		t.Errorf("daily household created %d, want 7", byID[ok].Result.Created)
	}
	// Anchored on Thursday 2026-01-01.
	if byID[other].Result.Created != 1 {
		t.Errorf("weekly household created %d, want 1", byID[other].Result.Created)
	}
}

func TestRunnerWindowUsesLocation(t *testing.T) {
	loc := time.FixedZone("IST", 2*60*60)
	r := NewRunner(NewGenerator(newFakeRepo(), testLogger()), newFakeRepo(), RunnerConfig{DaysAhead: 14, Location: loc}, testLogger())
	r.now = func() time.Time { return time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC) }

	start, end := r.Window()
	if want := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC); !start.Equal(want) {
		t.Errorf("start = %v, want %v", start, want)
	}
	if want := time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC); !end.Equal(want) {
		t.Errorf("end = %v, want %v", end, want)
	}
}

func TestRunnerStartStop(t *testing.T) {
	repo := newFakeRepo()
	hid := uuid.New()
	repo.addTemplate(hid, "daily", nil)

	r := NewRunner(NewGenerator(repo, testLogger()), repo, RunnerConfig{DaysAhead: 0, Interval: time.Hour}, testLogger())
	r.Start(context.Background())
	deadline := time.Now().Add(2 * time.Second)
	for {
		repo.mu.Lock()
		n := len(repo.instances)
		repo.mu.Unlock()
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("instances = %d after start, want 1", n)
		}
		time.Sleep(10 * time.Millisecond)
	}
	r.Stop()
}
