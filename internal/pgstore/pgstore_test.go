package pgstore

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/bayitbeseder/bayit/internal/database"
	"github.com/bayitbeseder/bayit/internal/model"
	"github.com/bayitbeseder/bayit/internal/scheduler"
)

func TestMapErrorUniqueViolation(t *testing.T) {
	err := mapError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "task_instances_template_due_key"})
	if !errors.Is(err, scheduler.ErrDuplicate) {
		t.Errorf("err = %v, want ErrDuplicate", err)
	}
}

func TestMapErrorOther(t *testing.T) {
	err := mapError(&pgconn.PgError{Code: pgerrcode.ForeignKeyViolation})
	if errors.Is(err, scheduler.ErrDuplicate) {
		t.Error("foreign key violation must not map to ErrDuplicate")
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		t.Error("original error should stay wrapped")
	}
}

func setupPostgres(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("BAYIT_TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("BAYIT_TEST_POSTGRES_URL not set")
	}
	ctx := context.Background()
	pool, err := database.OpenPostgres(ctx, url, database.PostgresOptions{ConnectTimeout: 5 * time.Second, PingTimeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	t.Cleanup(pool.Close)
	return New(pool)
}

func TestGeneratorAgainstPostgres(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	hid := uuid.New()
	if _, err := s.pool.Exec(ctx, `INSERT INTO households (id, name) VALUES ($1, 'pg test')`, hid); err != nil {
		t.Fatalf("insert household: %v", err)
	}
	t.Cleanup(func() {
		s.pool.Exec(context.Background(), `DELETE FROM households WHERE id = $1`, hid)
	})
	if _, err := s.pool.Exec(ctx,
		`INSERT INTO task_templates (id, household_id, title, category, recurrence_type) VALUES ($1, $2, 'Dishes', 'kitchen', 'daily')`,
		uuid.New(), hid); err != nil {
		t.Fatalf("insert template: %v", err)
	}

	gen := scheduler.NewGenerator(s, slog.New(slog.NewTextHandler(io.Discard, nil)))
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 6)

	first, err := gen.Generate(ctx, hid, start, end)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if first.Created != 7 {
		t.Errorf("created = %d, want 7", first.Created)
	}
	second, err := gen.Generate(ctx, hid, start, end)
	if err != nil {
		t.Fatalf("generate again: %v", err)
	}
	if second.Created != 0 || second.Skipped != 7 {
		t.Errorf("second run = %+v, want 7 skipped", second)
	}

	instances, err := s.ListInstances(ctx, hid, start, end)
	if err != nil {
		t.Fatal(err)
	}
	if len(instances) != 7 || instances[0].Status != model.StatusPending {
		t.Errorf("instances = %d, first status %q", len(instances), instances[0].Status)
	}
}

func TestCreateInstanceDuplicatePostgres(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	hid, tid := uuid.New(), uuid.New()
	if _, err := s.pool.Exec(ctx, `INSERT INTO households (id, name) VALUES ($1, 'dup test')`, hid); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		s.pool.Exec(context.Background(), `DELETE FROM households WHERE id = $1`, hid)
	})
	if _, err := s.pool.Exec(ctx,
		`INSERT INTO task_templates (id, household_id, title, recurrence_type) VALUES ($1, $2, 'Laundry', 'weekly')`,
		tid, hid); err != nil {
		t.Fatal(err)
	}

	due := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	if err := s.CreateInstance(ctx, &model.TaskInstance{TemplateID: tid, HouseholdID: hid, DueDate: due}); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	err := s.CreateInstance(ctx, &model.TaskInstance{TemplateID: tid, HouseholdID: hid, DueDate: due})
	if !errors.Is(err, scheduler.ErrDuplicate) {
		t.Errorf("err = %v, want ErrDuplicate", err)
	}
}
