package model

import (
	"time"

	"github.com/google/uuid"
)

// Notification type constants
const (
	NotifTypeDailyDigest   = "daily_digest"
	NotifTypeNeglectedRoom = "neglected_room"
)

type PushSubscription struct {
	ID          int64         `json:"id"`
	HouseholdID uuid.UUID     `json:"household_id"`
	MemberID    uuid.NullUUID `json:"member_id"`
	Endpoint    string        `json:"endpoint"`
	P256dhKey   string        `json:"p256dh_key"`
	AuthKey     string        `json:"auth_key"`
	DeviceName  string        `json:"device_name"`
	CreatedAt   time.Time     `json:"created_at"`
}
