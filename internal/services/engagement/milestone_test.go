package engagement

import (
	"testing"

	"github.com/mlodi/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckMilestonesUnlocksCrossedThresholds(t *testing.T) {
	svc, db := newTestService(t)
	userID, artistID := newIdentity()
	createMilestone(t, db, "first-hundred", 100, 25)
	createMilestone(t, db, "thousand-club", 1000, 100)

	_, _, err := svc.Ledger().ApplyDelta(userID, artistID, 150,
		models.KindActivity, models.ActivityCommunityInteraction, 30, "")
	require.NoError(t, err)

	unlocked, err := svc.Milestones().CheckMilestones(userID, artistID)
	require.NoError(t, err)
	require.Len(t, unlocked, 1)
	assert.Equal(t, "first-hundred", unlocked[0].Code)

	// Unlocked but unclaimed: no points were awarded yet
	rec, err := svc.Ledger().GetFanTier(userID, artistID)
	require.NoError(t, err)
	assert.Equal(t, int64(150), rec.Points)

	// A second check reports nothing new
	unlocked, err = svc.Milestones().CheckMilestones(userID, artistID)
	require.NoError(t, err)
	assert.Empty(t, unlocked)
}

func TestClaimMilestoneReward(t *testing.T) {
	svc, db := newTestService(t)
	userID, artistID := newIdentity()
	m := createMilestone(t, db, "first-hundred", 100, 25)

	_, _, err := svc.Ledger().ApplyDelta(userID, artistID, 100,
		models.KindActivity, models.ActivityCommunityInteraction, 20, "")
	require.NoError(t, err)
	_, err = svc.Milestones().CheckMilestones(userID, artistID)
	require.NoError(t, err)

	claimed, err := svc.ClaimMilestone(userID, m.ID, artistID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, claimed.ID)

	rec, err := svc.Ledger().GetFanTier(userID, artistID)
	require.NoError(t, err)
	assert.Equal(t, int64(125), rec.Points)

	var w models.Wallet
	require.NoError(t, db.First(&w, "user_id = ?", userID).Error)
	assert.Equal(t, int64(25), w.Balance)

	var progress models.UserMilestoneProgress
	require.NoError(t, db.Where("user_id = ? AND milestone_id = ?", userID, m.ID).
		First(&progress).Error)
	assert.True(t, progress.RewardClaimed)
	assert.NotNil(t, progress.RewardClaimedAt)
}

func TestClaimMilestoneTwiceFails(t *testing.T) {
	svc, db := newTestService(t)
	userID, artistID := newIdentity()
	m := createMilestone(t, db, "first-hundred", 100, 25)

	_, _, err := svc.Ledger().ApplyDelta(userID, artistID, 100,
		models.KindActivity, models.ActivityCommunityInteraction, 20, "")
	require.NoError(t, err)
	_, err = svc.Milestones().CheckMilestones(userID, artistID)
	require.NoError(t, err)

	_, err = svc.ClaimMilestone(userID, m.ID, artistID)
	require.NoError(t, err)

	_, err = svc.ClaimMilestone(userID, m.ID, artistID)
	assert.ErrorIs(t, err, ErrNotClaimable)

	// Still only one reward on the ledger
	rec, err := svc.Ledger().GetFanTier(userID, artistID)
	require.NoError(t, err)
	assert.Equal(t, int64(125), rec.Points)
}

func TestClaimUnreachedMilestoneFails(t *testing.T) {
	svc, db := newTestService(t)
	userID, artistID := newIdentity()
	m := createMilestone(t, db, "thousand-club", 1000, 100)

	_, err := svc.ClaimMilestone(userID, m.ID, artistID)
	assert.ErrorIs(t, err, ErrNotClaimable)
}

func TestClaimUnknownMilestoneFails(t *testing.T) {
	svc, _ := newTestService(t)
	userID, artistID := newIdentity()

	_, missing := newIdentity()
	_, err := svc.ClaimMilestone(userID, missing, artistID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMilestoneExactThreshold(t *testing.T) {
	svc, db := newTestService(t)
	userID, artistID := newIdentity()
	createMilestone(t, db, "five-k", 5000, 500)

	_, _, err := svc.Ledger().ApplyDelta(userID, artistID, 4999,
		models.KindActivity, models.ActivityCommunityInteraction, 1000, "")
	require.NoError(t, err)

	unlocked, err := svc.Milestones().CheckMilestones(userID, artistID)
	require.NoError(t, err)
	assert.Empty(t, unlocked)

	_, _, err = svc.Ledger().ApplyDelta(userID, artistID, 1,
		models.KindActivity, models.ActivityCommunityInteraction, 1, "")
	require.NoError(t, err)

	unlocked, err = svc.Milestones().CheckMilestones(userID, artistID)
	require.NoError(t, err)
	require.Len(t, unlocked, 1)
	assert.Equal(t, "five-k", unlocked[0].Code)
}
