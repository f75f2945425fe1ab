package engagement

import (
	"testing"

	"github.com/mlodi/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateUnlocksMatchingAchievement(t *testing.T) {
	svc, db := newTestService(t)
	userID, artistID := newIdentity()

	def := createAchievement(t, db, "first-like", 50,
		models.AchievementCriterion{ActivityType: models.ActivitySongLiked, MinValue: 1})

	unlocked, _, err := svc.Achievements().Evaluate(userID, artistID, models.ActivitySongLiked, 1)
	require.NoError(t, err)
	require.Len(t, unlocked, 1)
	assert.Equal(t, def.ID, unlocked[0].ID)

	// Reward landed on the fan ledger and the wallet
	rec, err := svc.Ledger().GetFanTier(userID, artistID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), rec.Points)

	var w models.Wallet
	require.NoError(t, db.First(&w, "user_id = ?", userID).Error)
	assert.Equal(t, int64(50), w.Balance)
}

func TestEvaluateIgnoresBelowThreshold(t *testing.T) {
	svc, db := newTestService(t)
	userID, artistID := newIdentity()

	createAchievement(t, db, "marathon", 100,
		models.AchievementCriterion{ActivityType: models.ActivityListeningTime, MinValue: 3600000})

	unlocked, _, err := svc.Achievements().Evaluate(userID, artistID, models.ActivityListeningTime, 60000)
	require.NoError(t, err)
	assert.Empty(t, unlocked)
}

func TestEvaluateUnlockIsIdempotent(t *testing.T) {
	svc, db := newTestService(t)
	userID, artistID := newIdentity()

	createAchievement(t, db, "first-like", 50,
		models.AchievementCriterion{ActivityType: models.ActivitySongLiked, MinValue: 1})

	unlocked, _, err := svc.Achievements().Evaluate(userID, artistID, models.ActivitySongLiked, 1)
	require.NoError(t, err)
	require.Len(t, unlocked, 1)

	// The same qualifying signal again: no new unlock, no second reward
	unlocked, _, err = svc.Achievements().Evaluate(userID, artistID, models.ActivitySongLiked, 1)
	require.NoError(t, err)
	assert.Empty(t, unlocked)

	rec, err := svc.Ledger().GetFanTier(userID, artistID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), rec.Points)

	var count int64
	require.NoError(t, db.Model(&models.UserAchievement{}).
		Where("user_id = ?", userID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestEvaluateScopedPerArtist(t *testing.T) {
	svc, db := newTestService(t)
	userID, artistA := newIdentity()
	_, artistB := newIdentity()

	createAchievement(t, db, "first-like", 10,
		models.AchievementCriterion{ActivityType: models.ActivitySongLiked, MinValue: 1})

	unlockedA, _, err := svc.Achievements().Evaluate(userID, artistA, models.ActivitySongLiked, 1)
	require.NoError(t, err)
	require.Len(t, unlockedA, 1)

	// The same achievement unlocks independently for another artist
	unlockedB, _, err := svc.Achievements().Evaluate(userID, artistB, models.ActivitySongLiked, 1)
	require.NoError(t, err)
	require.Len(t, unlockedB, 1)
}

func TestEvaluateInactiveAchievementsSkipped(t *testing.T) {
	svc, db := newTestService(t)
	userID, artistID := newIdentity()

	def := createAchievement(t, db, "retired", 50,
		models.AchievementCriterion{ActivityType: models.ActivitySongLiked, MinValue: 1})
	require.NoError(t, db.Model(&models.Achievement{}).
		Where("id = ?", def.ID).Update("is_active", false).Error)

	unlocked, _, err := svc.Achievements().Evaluate(userID, artistID, models.ActivitySongLiked, 1)
	require.NoError(t, err)
	assert.Empty(t, unlocked)
}

func TestGetDefinitionsFiltersByCategory(t *testing.T) {
	svc, db := newTestService(t)

	createAchievement(t, db, "listener", 10,
		models.AchievementCriterion{ActivityType: models.ActivityListeningTime, MinValue: 60000})
	social := models.Achievement{
		Code:     "social-butterfly",
		Title:    "Social Butterfly",
		Category: models.AchievementCategorySocial,
		Rarity:   models.RarityRare,
		IsActive: true,
		Criteria: []models.AchievementCriterion{
			{ActivityType: models.ActivityFriendReferred, MinValue: 5},
		},
	}
	require.NoError(t, db.Create(&social).Error)

	defs, err := svc.Achievements().GetDefinitions(models.AchievementCategorySocial)
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "social-butterfly", defs[0].Code)
	require.Len(t, defs[0].Criteria, 1)

	all, err := svc.Achievements().GetDefinitions("")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestGetUserAchievements(t *testing.T) {
	svc, db := newTestService(t)
	userID, artistID := newIdentity()

	createAchievement(t, db, "first-like", 10,
		models.AchievementCriterion{ActivityType: models.ActivitySongLiked, MinValue: 1})

	_, _, err := svc.Achievements().Evaluate(userID, artistID, models.ActivitySongLiked, 1)
	require.NoError(t, err)

	unlocks, err := svc.Achievements().GetUserAchievements(userID, &artistID)
	require.NoError(t, err)
	require.Len(t, unlocks, 1)
	assert.Equal(t, "first-like", unlocks[0].Achievement.Code)
	assert.False(t, unlocks[0].UnlockedAt.IsZero())
}
