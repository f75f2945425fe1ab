package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Milestone is reference data for a lifetime-points threshold unlock.
// Unlocking happens automatically when points cross RequiredPoints;
// the reward is only granted through an explicit claim.
type Milestone struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Code           string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"code"`
	Title          string    `gorm:"type:varchar(200);not null" json:"title"`
	Description    string    `gorm:"type:text" json:"description"`
	Icon           string    `gorm:"type:varchar(50)" json:"icon"`
	RequiredPoints int64     `gorm:"not null" json:"required_points"`
	Reward         string    `gorm:"type:varchar(200)" json:"reward"`
	PointsAwarded  int64     `gorm:"not null;default:0" json:"points_awarded"`
	IsActive       bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

// BeforeCreate assigns an ID when one was not provided
func (m *Milestone) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// UserMilestoneProgress tracks the two-phase unlock→claim flow for one
// (user, milestone, artist) identity. IsCompleted and RewardClaimed are
// independent: completed does not imply claimed.
type UserMilestoneProgress struct {
	ID              uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	UserID          uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_user_milestone_identity" json:"user_id"`
	MilestoneID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_user_milestone_identity" json:"milestone_id"`
	ArtistID        uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_user_milestone_identity" json:"artist_id"`
	Milestone       Milestone  `gorm:"foreignKey:MilestoneID" json:"milestone,omitempty"`
	IsCompleted     bool       `gorm:"not null;default:false" json:"is_completed"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	RewardClaimed   bool       `gorm:"not null;default:false" json:"reward_claimed"`
	RewardClaimedAt *time.Time `json:"reward_claimed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// BeforeCreate assigns an ID when one was not provided
func (p *UserMilestoneProgress) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
