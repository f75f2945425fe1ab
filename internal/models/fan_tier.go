package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FanTier represents the named progression level of a fan for one artist
type FanTier string

const (
	TierBronze   FanTier = "Bronze"
	TierSilver   FanTier = "Silver"
	TierGold     FanTier = "Gold"
	TierDiamond  FanTier = "Diamond"
	TierPlatinum FanTier = "Platinum"
)

// Ordinal returns the 1-based rank of a tier (Bronze=1 .. Platinum=5).
// Used as the value of the synthetic fan_tier activity.
func (t FanTier) Ordinal() int64 {
	switch t {
	case TierSilver:
		return 2
	case TierGold:
		return 3
	case TierDiamond:
		return 4
	case TierPlatinum:
		return 5
	default:
		return 1
	}
}

// ActivityType identifies the kind of user activity driving engagement
type ActivityType string

const (
	ActivityListeningTime        ActivityType = "listening_time"
	ActivitySongLiked            ActivityType = "song_liked"
	ActivityPlaylistCreated      ActivityType = "playlist_created"
	ActivityConcertAttended      ActivityType = "concert_attended"
	ActivityMerchPurchased       ActivityType = "merch_purchased"
	ActivityFriendReferred       ActivityType = "friend_referred"
	ActivityCommunityInteraction ActivityType = "community_interaction"
	// ActivityFanTierChanged is synthetic: emitted by the engine itself when a
	// tier upgrade happens, with value = the new tier's ordinal.
	ActivityFanTierChanged ActivityType = "fan_tier"
)

// TransactionKind tags the origin of a point transaction
type TransactionKind string

const (
	KindChallengeReward   TransactionKind = "challenge_reward"
	KindAchievementReward TransactionKind = "achievement_reward"
	KindMilestoneReward   TransactionKind = "milestone_reward"
	KindListeningTime     TransactionKind = "listening_time"
	KindPurchase          TransactionKind = "purchase"
	KindReferral          TransactionKind = "referral"
	KindAdminAdjustment   TransactionKind = "admin_adjustment"
	KindActivity          TransactionKind = "activity"
)

// FanTierRecord tracks a user's progression with a single artist.
// Created lazily at Bronze/0 on first activity, never deleted.
// The tier column is a queryable cache; the authoritative tier is always
// derived from Points on read.
type FanTierRecord struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_fan_tier_identity" json:"user_id"`
	ArtistID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_fan_tier_identity" json:"artist_id"`
	Tier     FanTier   `gorm:"type:varchar(20);not null;default:'Bronze'" json:"tier"`
	Points   int64     `gorm:"not null;default:0" json:"points"`

	// Per-activity counters
	TotalListeningTimeMs  int64 `gorm:"not null;default:0" json:"total_listening_time_ms"`
	SongsLiked            int64 `gorm:"not null;default:0" json:"songs_liked"`
	PlaylistsCreated      int64 `gorm:"not null;default:0" json:"playlists_created"`
	ConcertsAttended      int64 `gorm:"not null;default:0" json:"concerts_attended"`
	MerchandisePurchased  int64 `gorm:"not null;default:0" json:"merchandise_purchased"`
	FriendsReferred       int64 `gorm:"not null;default:0" json:"friends_referred"`
	CommunityInteractions int64 `gorm:"not null;default:0" json:"community_interactions"`

	TierUpgradedAt *time.Time `json:"tier_upgraded_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// BeforeCreate assigns an ID when one was not provided
func (r *FanTierRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// PointTransaction is the append-only audit record for every point movement.
// ArtistID is set for fan-ledger entries and null for wallet-only entries.
// EventID is set for deltas ingested from the job queue; its unique index
// is what keeps a redelivered job from counting twice. Rows are never
// updated or deleted.
type PointTransaction struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	UserID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	ArtistID      *uuid.UUID      `gorm:"type:uuid;index" json:"artist_id,omitempty"`
	Amount        int64           `gorm:"not null" json:"amount"`
	Kind          TransactionKind `gorm:"type:varchar(50);not null" json:"kind"`
	Description   string          `gorm:"type:text" json:"description"`
	MetaData      JSON            `gorm:"type:jsonb" json:"metadata,omitempty"`
	EventID       *string         `gorm:"type:varchar(100);uniqueIndex" json:"event_id,omitempty"`
	BalanceBefore int64           `json:"balance_before"`
	BalanceAfter  int64           `json:"balance_after"`
	CreatedAt     time.Time       `json:"created_at"`
}

// BeforeCreate assigns an ID when one was not provided
func (t *PointTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
