package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChallengeType buckets challenges by cadence
type ChallengeType string

const (
	ChallengeDaily    ChallengeType = "daily"
	ChallengeWeekly   ChallengeType = "weekly"
	ChallengeSpecial  ChallengeType = "special"
	ChallengeSeasonal ChallengeType = "seasonal"
)

// Challenge is reference data for a time-bounded, progress-tracked task.
// Only challenges whose active window contains "now" may be started.
type Challenge struct {
	ID           uuid.UUID     `gorm:"type:uuid;primary_key" json:"id"`
	Code         string        `gorm:"type:varchar(100);uniqueIndex;not null" json:"code"`
	Title        string        `gorm:"type:varchar(200);not null" json:"title"`
	Description  string        `gorm:"type:text" json:"description"`
	Icon         string        `gorm:"type:varchar(50)" json:"icon"`
	Type         ChallengeType `gorm:"type:varchar(20);not null" json:"type"`
	TargetValue  int64         `gorm:"not null" json:"target_value"`
	PointsReward int64         `gorm:"not null" json:"points_reward"`
	BadgeReward  string        `gorm:"type:varchar(100)" json:"badge_reward,omitempty"`
	StartDate    time.Time     `gorm:"not null" json:"start_date"`
	EndDate      *time.Time    `json:"end_date,omitempty"`
	IsActive     bool          `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time     `json:"created_at"`
}

// BeforeCreate assigns an ID when one was not provided
func (c *Challenge) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// IsLive reports whether the challenge can be started at the given time
func (c *Challenge) IsLive(now time.Time) bool {
	if !c.IsActive {
		return false
	}
	if now.Before(c.StartDate) {
		return false
	}
	if c.EndDate != nil && now.After(*c.EndDate) {
		return false
	}
	return true
}

// UserChallengeProgress tracks one user's run at a challenge for one
// artist. Progress is monotonic; IsCompleted flips false→true exactly
// once, and increments after completion are ignored.
type UserChallengeProgress struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_user_challenge_identity" json:"user_id"`
	ChallengeID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_user_challenge_identity" json:"challenge_id"`
	ArtistID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_user_challenge_identity" json:"artist_id"`
	Challenge   Challenge  `gorm:"foreignKey:ChallengeID" json:"challenge,omitempty"`
	Progress    int64      `gorm:"not null;default:0" json:"progress"`
	IsCompleted bool       `gorm:"not null;default:false" json:"is_completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// BeforeCreate assigns an ID when one was not provided
func (p *UserChallengeProgress) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
