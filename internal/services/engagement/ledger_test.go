package engagement

import (
	"testing"

	"github.com/google/uuid"
	"github.com/mlodi/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetFanTierCreatesBronzeRecord(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedgerService(db)
	userID, artistID := newIdentity()

	rec, err := ledger.GetFanTier(userID, artistID)
	require.NoError(t, err)
	assert.Equal(t, models.TierBronze, rec.Tier)
	assert.Equal(t, int64(0), rec.Points)
	assert.Nil(t, rec.TierUpgradedAt)

	// A second read returns the same record, not a new one
	again, err := ledger.GetFanTier(userID, artistID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, again.ID)

	var count int64
	require.NoError(t, db.Model(&models.FanTierRecord{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestApplyDeltaAppendsTransaction(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedgerService(db)
	userID, artistID := newIdentity()

	rec, upgraded, err := ledger.ApplyDelta(userID, artistID, 10,
		models.KindActivity, models.ActivitySongLiked, 1, "Activity: song_liked")
	require.NoError(t, err)
	assert.False(t, upgraded)
	assert.Equal(t, int64(10), rec.Points)
	assert.Equal(t, int64(1), rec.SongsLiked)

	txs, err := ledger.GetTransactions(userID, artistID, 10)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, int64(10), txs[0].Amount)
	assert.Equal(t, int64(0), txs[0].BalanceBefore)
	assert.Equal(t, int64(10), txs[0].BalanceAfter)
	require.NotNil(t, txs[0].ArtistID)
	assert.Equal(t, artistID, *txs[0].ArtistID)
}

func TestApplyEventDeltaSkipsDuplicateEvent(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedgerService(db)
	userID, artistID := newIdentity()

	eventID := uuid.NewString()
	rec, upgraded, applied, err := ledger.ApplyEventDelta(userID, artistID, 10,
		models.KindActivity, models.ActivitySongLiked, 1, "Activity: song_liked", eventID)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.False(t, upgraded)
	assert.Equal(t, int64(10), rec.Points)

	// Redelivery of the same event leaves the ledger untouched
	rec, upgraded, applied, err = ledger.ApplyEventDelta(userID, artistID, 10,
		models.KindActivity, models.ActivitySongLiked, 1, "Activity: song_liked", eventID)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.False(t, upgraded)
	assert.Equal(t, int64(10), rec.Points)
	assert.Equal(t, int64(1), rec.SongsLiked)

	var count int64
	require.NoError(t, db.Model(&models.PointTransaction{}).
		Where("user_id = ?", userID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// A fresh event applies as usual
	rec, _, applied, err = ledger.ApplyEventDelta(userID, artistID, 10,
		models.KindActivity, models.ActivitySongLiked, 1, "Activity: song_liked", uuid.NewString())
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, int64(20), rec.Points)
}

func TestApplyDeltaActivityCounters(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedgerService(db)
	userID, artistID := newIdentity()

	_, _, err := ledger.ApplyDelta(userID, artistID, 3,
		models.KindListeningTime, models.ActivityListeningTime, 180000, "")
	require.NoError(t, err)
	rec, _, err := ledger.ApplyDelta(userID, artistID, 3,
		models.KindListeningTime, models.ActivityListeningTime, 180000, "")
	require.NoError(t, err)

	assert.Equal(t, int64(360000), rec.TotalListeningTimeMs)
	assert.Equal(t, int64(6), rec.Points)
}

func TestApplyDeltaTierUpgrade(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedgerService(db)
	userID, artistID := newIdentity()

	_, upgraded, err := ledger.ApplyDelta(userID, artistID, 950,
		models.KindActivity, models.ActivityCommunityInteraction, 190, "")
	require.NoError(t, err)
	assert.False(t, upgraded)

	rec, upgraded, err := ledger.ApplyDelta(userID, artistID, 100,
		models.KindReferral, models.ActivityFriendReferred, 1, "")
	require.NoError(t, err)
	assert.True(t, upgraded)
	assert.Equal(t, models.TierSilver, rec.Tier)
	assert.Equal(t, int64(1050), rec.Points)
	assert.NotNil(t, rec.TierUpgradedAt)
}

func TestApplyDeltaNegativeClampsAtZero(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedgerService(db)
	userID, artistID := newIdentity()

	_, _, err := ledger.ApplyDelta(userID, artistID, 50,
		models.KindActivity, models.ActivitySongLiked, 5, "")
	require.NoError(t, err)

	rec, upgraded, err := ledger.ApplyDelta(userID, artistID, -200,
		models.KindAdminAdjustment, "", 0, "correction")
	require.NoError(t, err)
	assert.False(t, upgraded)
	assert.Equal(t, int64(0), rec.Points)
	assert.Equal(t, models.TierBronze, rec.Tier)
}

func TestApplyDeltaDowngradeIsNotUpgrade(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedgerService(db)
	userID, artistID := newIdentity()

	_, _, err := ledger.ApplyDelta(userID, artistID, 1200,
		models.KindActivity, models.ActivityCommunityInteraction, 240, "")
	require.NoError(t, err)

	rec, upgraded, err := ledger.ApplyDelta(userID, artistID, -500,
		models.KindAdminAdjustment, "", 0, "fraud reversal")
	require.NoError(t, err)
	assert.False(t, upgraded)
	assert.Equal(t, models.TierBronze, rec.Tier)
	assert.Equal(t, int64(700), rec.Points)
}

func TestGetFanTierRepairsStaleTier(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedgerService(db)
	userID, artistID := newIdentity()

	require.NoError(t, db.Create(&models.FanTierRecord{
		UserID:   userID,
		ArtistID: artistID,
		Tier:     models.TierBronze,
		Points:   6000,
	}).Error)

	rec, err := ledger.GetFanTier(userID, artistID)
	require.NoError(t, err)
	assert.Equal(t, models.TierGold, rec.Tier)

	var stored models.FanTierRecord
	require.NoError(t, db.First(&stored, "id = ?", rec.ID).Error)
	assert.Equal(t, models.TierGold, stored.Tier)
}

func TestTotalUserPoints(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedgerService(db)
	userID := uuid.New()
	artistA, artistB := uuid.New(), uuid.New()

	_, _, err := ledger.ApplyDelta(userID, artistA, 100,
		models.KindActivity, models.ActivitySongLiked, 10, "")
	require.NoError(t, err)
	_, _, err = ledger.ApplyDelta(userID, artistB, 250,
		models.KindActivity, models.ActivityPlaylistCreated, 10, "")
	require.NoError(t, err)

	total, err := ledger.TotalUserPoints(userID)
	require.NoError(t, err)
	assert.Equal(t, int64(350), total)
}
