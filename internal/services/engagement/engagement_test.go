package engagement

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mlodi/backend/internal/models"
	"github.com/mlodi/backend/internal/services/wallet"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB creates an in-memory database with the full schema. The
// connection pool is pinned to one connection so every query sees the
// same in-memory store.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.FanTierRecord{},
		&models.PointTransaction{},
		&models.Wallet{},
		&models.Achievement{},
		&models.AchievementCriterion{},
		&models.Challenge{},
		&models.Milestone{},
		&models.UserAchievement{},
		&models.UserChallengeProgress{},
		&models.UserMilestoneProgress{},
	))

	return db
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	return NewService(db, wallet.NewWalletService(db), nil), db
}

func createAchievement(t *testing.T, db *gorm.DB, code string, points int64, criteria ...models.AchievementCriterion) models.Achievement {
	t.Helper()
	def := models.Achievement{
		Code:          code,
		Title:         code,
		Category:      models.AchievementCategoryListening,
		Rarity:        models.RarityCommon,
		PointsAwarded: points,
		Criteria:      criteria,
		IsActive:      true,
	}
	require.NoError(t, db.Create(&def).Error)
	return def
}

func createChallenge(t *testing.T, db *gorm.DB, code string, target, reward int64) models.Challenge {
	t.Helper()
	ch := models.Challenge{
		Code:         code,
		Title:        code,
		Type:         models.ChallengeWeekly,
		TargetValue:  target,
		PointsReward: reward,
		StartDate:    time.Now().Add(-time.Hour),
		IsActive:     true,
	}
	require.NoError(t, db.Create(&ch).Error)
	return ch
}

func createMilestone(t *testing.T, db *gorm.DB, code string, required, reward int64) models.Milestone {
	t.Helper()
	m := models.Milestone{
		Code:           code,
		Title:          code,
		RequiredPoints: required,
		Reward:         "reward for " + code,
		PointsAwarded:  reward,
		IsActive:       true,
	}
	require.NoError(t, db.Create(&m).Error)
	return m
}

func newIdentity() (uuid.UUID, uuid.UUID) {
	return uuid.New(), uuid.New()
}
