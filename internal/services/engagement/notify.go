package engagement

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType identifies what an engagement notification announces
type NotificationType string

const (
	NotificationAchievementUnlocked NotificationType = "achievement_unlocked"
	NotificationTierUpgraded        NotificationType = "tier_upgraded"
	NotificationChallengeCompleted  NotificationType = "challenge_completed"
	NotificationMilestoneClaimable  NotificationType = "milestone_claimable"
)

// Notification is the plain data record the engine emits when something
// user-visible happens. Delivery to clients is the transport layer's
// responsibility; the engine never pushes.
type Notification struct {
	Type      NotificationType       `json:"type"`
	UserID    uuid.UUID              `json:"user_id"`
	ArtistID  uuid.UUID              `json:"artist_id"`
	Title     string                 `json:"title"`
	Body      string                 `json:"body,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// Notifier receives engine notifications. Implementations must not block
// engine operations on delivery; a failed publish is logged, not retried.
type Notifier interface {
	Notify(n Notification)
}

// NopNotifier discards all notifications
type NopNotifier struct{}

// Notify implements Notifier
func (NopNotifier) Notify(Notification) {}
