package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/bayitbeseder/bayit/internal/model"
)

func setupPushTestDB(t *testing.T) (*PushStore, *model.Household) {
	t.Helper()
	db := setupTestDB(t)
	return NewPushStore(db), createHousehold(t, db)
}

func subscription(hid uuid.UUID, endpoint string) *model.PushSubscription {
	return &model.PushSubscription{
		HouseholdID: hid,
		Endpoint:    endpoint,
		P256dhKey:   "p256dh_key1",
		AuthKey:     "auth_key1",
		DeviceName:  "Chrome Desktop",
	}
}

func TestCreateSubscription(t *testing.T) {
	ps, h := setupPushTestDB(t)

	sub, err := ps.CreateSubscription(context.Background(), subscription(h.ID, "https://push.example.com/sub1"))
	if err != nil {
		t.Fatalf("create subscription: %v", err)
	}
	if sub.ID == 0 {
		t.Error("expected non-zero ID")
	}
	if sub.HouseholdID != h.ID || sub.DeviceName != "Chrome Desktop" {
		t.Errorf("subscription = %+v", sub)
	}
}

func TestCreateSubscriptionUpsert(t *testing.T) {
	ps, h := setupPushTestDB(t)
	ctx := context.Background()

	first, err := ps.CreateSubscription(ctx, subscription(h.ID, "https://push.example.com/sub1"))
	if err != nil {
		t.Fatal(err)
	}
	again := subscription(h.ID, "https://push.example.com/sub1")
	again.AuthKey = "rotated"
	second, err := ps.CreateSubscription(ctx, again)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if second.ID != first.ID || second.AuthKey != "rotated" {
		t.Errorf("upsert = %+v, want same ID with rotated key", second)
	}

	subs, err := ps.ListByHousehold(ctx, h.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(subs) != 1 {
		t.Errorf("len = %d, want 1", len(subs))
	}
}

func TestDeleteByEndpoint(t *testing.T) {
	ps, h := setupPushTestDB(t)
	ctx := context.Background()

	if _, err := ps.CreateSubscription(ctx, subscription(h.ID, "https://push.example.com/gone")); err != nil {
		t.Fatal(err)
	}
	if err := ps.DeleteByEndpoint(ctx, "https://push.example.com/gone"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	sub, err := ps.GetByEndpoint(ctx, "https://push.example.com/gone")
	if err != nil {
		t.Fatal(err)
	}
	if sub != nil {
		t.Error("subscription still present after delete")
	}
}

func TestListHouseholdIDs(t *testing.T) {
	ps, h := setupPushTestDB(t)
	ctx := context.Background()

	for _, ep := range []string{"https://push.example.com/a", "https://push.example.com/b"} {
		if _, err := ps.CreateSubscription(ctx, subscription(h.ID, ep)); err != nil {
			t.Fatal(err)
		}
	}
	ids, err := ps.ListHouseholdIDs(ctx)
	if err != nil {
		t.Fatalf("list ids: %v", err)
	}
	if len(ids) != 1 || ids[0] != h.ID {
		t.Errorf("ids = %v, want [%s]", ids, h.ID)
	}
}

func TestSentNotifications(t *testing.T) {
	ps, h := setupPushTestDB(t)
	ctx := context.Background()

	sent, err := ps.WasSent(ctx, h.ID, model.NotifTypeDailyDigest, "2026-03-01")
	if err != nil {
		t.Fatal(err)
	}
	if sent {
		t.Error("nothing sent yet")
	}

	if err := ps.RecordSent(ctx, h.ID, model.NotifTypeDailyDigest, "2026-03-01"); err != nil {
		t.Fatalf("record: %v", err)
	}
	// Recording twice is a no-op.
	if err := ps.RecordSent(ctx, h.ID, model.NotifTypeDailyDigest, "2026-03-01"); err != nil {
		t.Fatalf("record again: %v", err)
	}

	sent, err = ps.WasSent(ctx, h.ID, model.NotifTypeDailyDigest, "2026-03-01")
	if err != nil || !sent {
		t.Errorf("WasSent = %v, %v; want true", sent, err)
	}
	sent, _ = ps.WasSent(ctx, h.ID, model.NotifTypeNeglectedRoom, "2026-03-01")
	if sent {
		t.Error("dedup must be per notification type")
	}

	if err := ps.CleanupSent(ctx, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	sent, _ = ps.WasSent(ctx, h.ID, model.NotifTypeDailyDigest, "2026-03-01")
	if sent {
		t.Error("cleanup should remove old records")
	}
}
