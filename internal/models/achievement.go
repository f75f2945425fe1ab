package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AchievementCategory groups achievements for display
type AchievementCategory string

const (
	AchievementCategoryListening  AchievementCategory = "listening"
	AchievementCategorySocial     AchievementCategory = "social"
	AchievementCategoryEngagement AchievementCategory = "engagement"
	AchievementCategoryLoyalty    AchievementCategory = "loyalty"
	AchievementCategoryCreative   AchievementCategory = "creative"
)

// AchievementRarity ranks how hard an achievement is to earn
type AchievementRarity string

const (
	RarityCommon    AchievementRarity = "common"
	RarityRare      AchievementRarity = "rare"
	RarityEpic      AchievementRarity = "epic"
	RarityLegendary AchievementRarity = "legendary"
)

// Achievement is immutable reference data describing a one-time unlockable
// reward. Unlock criteria live in AchievementCriterion rows; any single
// satisfied criterion unlocks the achievement (OR semantics).
type Achievement struct {
	ID            uuid.UUID              `gorm:"type:uuid;primary_key" json:"id"`
	Code          string                 `gorm:"type:varchar(100);uniqueIndex;not null" json:"code"`
	Title         string                 `gorm:"type:varchar(200);not null" json:"title"`
	Description   string                 `gorm:"type:text" json:"description"`
	Icon          string                 `gorm:"type:varchar(50)" json:"icon"`
	Category      AchievementCategory    `gorm:"type:varchar(20);not null" json:"category"`
	Rarity        AchievementRarity      `gorm:"type:varchar(20);not null" json:"rarity"`
	PointsAwarded int64                  `gorm:"not null;default:0" json:"points_awarded"`
	Criteria      []AchievementCriterion `gorm:"foreignKey:AchievementID" json:"criteria"`
	IsActive      bool                   `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time              `json:"created_at"`
}

// BeforeCreate assigns an ID when one was not provided
func (a *Achievement) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// AchievementCriterion is one activity-type threshold of an achievement.
// An incoming activity satisfies the criterion when its type matches and
// its value is at least MinValue.
type AchievementCriterion struct {
	ID            uuid.UUID    `gorm:"type:uuid;primary_key" json:"id"`
	AchievementID uuid.UUID    `gorm:"type:uuid;not null;index" json:"achievement_id"`
	ActivityType  ActivityType `gorm:"type:varchar(50);not null" json:"activity_type"`
	MinValue      int64        `gorm:"not null" json:"min_value"`
}

// TableName pins the irregular plural
func (AchievementCriterion) TableName() string {
	return "achievement_criteria"
}

// BeforeCreate assigns an ID when one was not provided
func (c *AchievementCriterion) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// UserAchievement records a single unlock of an achievement by a user for
// one artist. The composite unique index is the idempotency guard: two
// concurrent evaluations of the same qualifying event collapse to one row.
type UserAchievement struct {
	ID            uuid.UUID   `gorm:"type:uuid;primary_key" json:"id"`
	UserID        uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_user_achievement_identity" json:"user_id"`
	AchievementID uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_user_achievement_identity" json:"achievement_id"`
	ArtistID      uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_user_achievement_identity" json:"artist_id"`
	Achievement   Achievement `gorm:"foreignKey:AchievementID" json:"achievement,omitempty"`
	ProgressData  JSON        `gorm:"type:jsonb" json:"progress_data,omitempty"`
	UnlockedAt    time.Time   `json:"unlocked_at"`
}

// BeforeCreate assigns an ID when one was not provided
func (u *UserAchievement) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
