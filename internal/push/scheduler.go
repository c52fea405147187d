package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bayitbeseder/bayit/internal/energy"
	"github.com/bayitbeseder/bayit/internal/health"
	"github.com/bayitbeseder/bayit/internal/model"
	"github.com/bayitbeseder/bayit/internal/recurrence"
)

// Sender delivers a payload to one subscription.
type Sender interface {
	Send(ctx context.Context, sub *model.PushSubscription, payload Payload) error
}

// SubscriptionStore holds subscriptions and the dedup log of sent reminders.
type SubscriptionStore interface {
	ListHouseholdIDs(ctx context.Context) ([]uuid.UUID, error)
	ListByHousehold(ctx context.Context, householdID uuid.UUID) ([]model.PushSubscription, error)
	DeleteByEndpoint(ctx context.Context, endpoint string) error
	WasSent(ctx context.Context, householdID uuid.UUID, notifType, refID string) (bool, error)
	RecordSent(ctx context.Context, householdID uuid.UUID, notifType, refID string) error
}

type HouseholdSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Household, error)
}

// TaskSource supplies the tasks and completion history reminders are built from.
type TaskSource interface {
	ListTasks(ctx context.Context, householdID uuid.UUID, from, to time.Time) ([]model.Task, error)
	ListActiveTemplates(ctx context.Context, householdID uuid.UUID) ([]model.TaskTemplate, error)
	LastCompletions(ctx context.Context, householdID uuid.UUID) (map[uuid.UUID]time.Time, error)
}

// Scheduler sends the daily digest of due tasks and alerts for neglected
// categories once per household per day, at the configured hour.
type Scheduler struct {
	mu           sync.RWMutex
	sender       Sender
	subs         SubscriptionStore
	households   HouseholdSource
	tasks        TaskSource
	reminderHour int
	location     *time.Location
	interval     time.Duration
	logger       *slog.Logger
	cancel       context.CancelFunc
	done         chan struct{}
}

// NewScheduler creates a reminder scheduler.
func NewScheduler(sender Sender, subs SubscriptionStore, households HouseholdSource, tasks TaskSource, reminderHour int, loc *time.Location, logger *slog.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		sender:       sender,
		subs:         subs,
		households:   households,
		tasks:        tasks,
		reminderHour: reminderHour,
		location:     loc,
		interval:     time.Minute,
		logger:       logger,
	}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Check(ctx, time.Now())
			}
		}
	}()
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Check sends any reminders due at now. Outside the reminder hour it does
// nothing.
func (s *Scheduler) Check(ctx context.Context, now time.Time) {
	local := now.In(s.location)
	if local.Hour() != s.reminderHour {
		return
	}

	householdIDs, err := s.subs.ListHouseholdIDs(ctx)
	if err != nil {
		s.logger.Error("list push households", "error", err)
		return
	}

	today := recurrence.Normalize(local)
	for _, hid := range householdIDs {
		s.sendDigest(ctx, hid, today)
		s.sendNeglected(ctx, hid, today, now)
	}
}

func (s *Scheduler) sendDigest(ctx context.Context, householdID uuid.UUID, today time.Time) {
	refID := today.Format("2006-01-02")
	sent, err := s.subs.WasSent(ctx, householdID, model.NotifTypeDailyDigest, refID)
	if err != nil || sent {
		return
	}

	h, err := s.households.GetByID(ctx, householdID)
	if err != nil || h == nil {
		s.logger.Error("get household for digest", "household_id", householdID, "error", err)
		return
	}

	tasks, err := s.tasks.ListTasks(ctx, householdID, today, today)
	if err != nil {
		s.logger.Error("list tasks for digest", "household_id", householdID, "error", err)
		return
	}
	var due []model.Task
	for _, t := range tasks {
		if t.Status == model.StatusPending {
			due = append(due, t)
		}
	}
	if h.EmergencyMode {
		due = energy.CrisisMode(due)
	}
	if len(due) == 0 {
		return
	}

	body := fmt.Sprintf("You have %d tasks to do today", len(due))
	if len(due) == 1 {
		body = fmt.Sprintf("Task due today: %s", due[0].Title)
	}
	s.broadcast(ctx, householdID, Payload{
		Title: "Today's tasks",
		Body:  body,
		URL:   "/tasks",
		Tag:   "daily-digest",
	})

	if err := s.subs.RecordSent(ctx, householdID, model.NotifTypeDailyDigest, refID); err != nil {
		s.logger.Error("record digest", "household_id", householdID, "error", err)
	}
}

func (s *Scheduler) sendNeglected(ctx context.Context, householdID uuid.UUID, today, now time.Time) {
	refID := today.Format("2006-01-02")
	sent, err := s.subs.WasSent(ctx, householdID, model.NotifTypeNeglectedRoom, refID)
	if err != nil || sent {
		return
	}

	templates, err := s.tasks.ListActiveTemplates(ctx, householdID)
	if err != nil {
		s.logger.Error("list templates for health", "household_id", householdID, "error", err)
		return
	}
	last, err := s.tasks.LastCompletions(ctx, householdID)
	if err != nil {
		s.logger.Error("list completions for health", "household_id", householdID, "error", err)
		return
	}

	var neglected []string
	for _, c := range health.Summarize(health.FromTemplates(templates, last), now) {
		if c.Band.Color == health.Red {
			neglected = append(neglected, fmt.Sprintf("%s (%d%%)", c.Category, c.Score))
		}
	}
	if len(neglected) == 0 {
		return
	}

	s.broadcast(ctx, householdID, Payload{
		Title: "Rooms need attention",
		Body:  "Neglected: " + strings.Join(neglected, ", "),
		URL:   "/health",
		Tag:   "neglected-room",
	})

	if err := s.subs.RecordSent(ctx, householdID, model.NotifTypeNeglectedRoom, refID); err != nil {
		s.logger.Error("record neglected alert", "household_id", householdID, "error", err)
	}
}

func (s *Scheduler) broadcast(ctx context.Context, householdID uuid.UUID, payload Payload) {
	subs, err := s.subs.ListByHousehold(ctx, householdID)
	if err != nil {
		s.logger.Error("list subscriptions", "household_id", householdID, "error", err)
		return
	}

	for _, sub := range subs {
		if err := s.sender.Send(ctx, &sub, payload); err != nil {
			if errors.Is(err, ErrExpired) {
				if err := s.subs.DeleteByEndpoint(ctx, sub.Endpoint); err != nil {
					s.logger.Error("delete expired subscription", "error", err)
				}
				continue
			}
			s.logger.Warn("send push", "household_id", householdID, "tag", payload.Tag, "error", err)
		}
	}
}
