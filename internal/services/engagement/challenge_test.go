package engagement

import (
	"testing"
	"time"

	"github.com/mlodi/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartChallenge(t *testing.T) {
	svc, db := newTestService(t)
	userID, artistID := newIdentity()
	ch := createChallenge(t, db, "weekly-listener", 10, 150)

	progress, err := svc.StartChallenge(userID, ch.ID, artistID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), progress.Progress)
	assert.False(t, progress.IsCompleted)
	assert.Equal(t, ch.ID, progress.ChallengeID)
}

func TestStartChallengeTwiceFails(t *testing.T) {
	svc, db := newTestService(t)
	userID, artistID := newIdentity()
	ch := createChallenge(t, db, "weekly-listener", 10, 150)

	_, err := svc.StartChallenge(userID, ch.ID, artistID)
	require.NoError(t, err)

	_, err = svc.StartChallenge(userID, ch.ID, artistID)
	assert.ErrorIs(t, err, ErrAlreadyStarted)
}

func TestStartChallengeOutsideWindow(t *testing.T) {
	svc, db := newTestService(t)
	userID, artistID := newIdentity()

	past := time.Now().Add(-time.Hour)
	ended := models.Challenge{
		Code:        "flash-event",
		Title:       "Flash Event",
		Type:        models.ChallengeSpecial,
		TargetValue: 5,
		StartDate:   time.Now().Add(-48 * time.Hour),
		EndDate:     &past,
		IsActive:    true,
	}
	require.NoError(t, db.Create(&ended).Error)

	_, err := svc.StartChallenge(userID, ended.ID, artistID)
	assert.ErrorIs(t, err, ErrChallengeNotLive)

	future := models.Challenge{
		Code:        "next-season",
		Title:       "Next Season",
		Type:        models.ChallengeSeasonal,
		TargetValue: 5,
		StartDate:   time.Now().Add(24 * time.Hour),
		IsActive:    true,
	}
	require.NoError(t, db.Create(&future).Error)

	_, err = svc.StartChallenge(userID, future.ID, artistID)
	assert.ErrorIs(t, err, ErrChallengeNotLive)
}

func TestAdvanceWithoutStartFails(t *testing.T) {
	svc, db := newTestService(t)
	userID, artistID := newIdentity()
	ch := createChallenge(t, db, "weekly-listener", 10, 150)

	_, err := svc.AdvanceChallenge(userID, ch.ID, artistID, 3)
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestAdvanceAccumulatesAndCompletes(t *testing.T) {
	svc, db := newTestService(t)
	userID, artistID := newIdentity()
	ch := createChallenge(t, db, "weekly-listener", 10, 150)

	_, err := svc.StartChallenge(userID, ch.ID, artistID)
	require.NoError(t, err)

	progress, err := svc.AdvanceChallenge(userID, ch.ID, artistID, 6)
	require.NoError(t, err)
	assert.Equal(t, int64(6), progress.Progress)
	assert.False(t, progress.IsCompleted)

	// The second increment overshoots the target: completion happens
	// at full accumulated progress, not clipped to the target.
	progress, err = svc.AdvanceChallenge(userID, ch.ID, artistID, 6)
	require.NoError(t, err)
	assert.Equal(t, int64(12), progress.Progress)
	assert.True(t, progress.IsCompleted)
	assert.NotNil(t, progress.CompletedAt)

	// Reward landed exactly once on both ledgers
	rec, err := svc.Ledger().GetFanTier(userID, artistID)
	require.NoError(t, err)
	assert.Equal(t, int64(150), rec.Points)

	var w models.Wallet
	require.NoError(t, db.First(&w, "user_id = ?", userID).Error)
	assert.Equal(t, int64(150), w.Balance)
}

func TestAdvanceAfterCompletionIsNoOp(t *testing.T) {
	svc, db := newTestService(t)
	userID, artistID := newIdentity()
	ch := createChallenge(t, db, "weekly-listener", 10, 150)

	_, err := svc.StartChallenge(userID, ch.ID, artistID)
	require.NoError(t, err)
	_, err = svc.AdvanceChallenge(userID, ch.ID, artistID, 12)
	require.NoError(t, err)

	progress, err := svc.AdvanceChallenge(userID, ch.ID, artistID, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(12), progress.Progress)
	assert.True(t, progress.IsCompleted)

	// No second reward
	rec, err := svc.Ledger().GetFanTier(userID, artistID)
	require.NoError(t, err)
	assert.Equal(t, int64(150), rec.Points)
}

func TestAdvanceNegativeDeltaClampsAtZero(t *testing.T) {
	svc, db := newTestService(t)
	userID, artistID := newIdentity()
	ch := createChallenge(t, db, "weekly-listener", 10, 150)

	_, err := svc.StartChallenge(userID, ch.ID, artistID)
	require.NoError(t, err)
	_, err = svc.AdvanceChallenge(userID, ch.ID, artistID, 3)
	require.NoError(t, err)

	progress, err := svc.AdvanceChallenge(userID, ch.ID, artistID, -8)
	require.NoError(t, err)
	assert.Equal(t, int64(0), progress.Progress)
	assert.False(t, progress.IsCompleted)
}

func TestAdvanceAllowedAfterWindowCloses(t *testing.T) {
	svc, db := newTestService(t)
	userID, artistID := newIdentity()
	ch := createChallenge(t, db, "weekly-listener", 10, 150)

	_, err := svc.StartChallenge(userID, ch.ID, artistID)
	require.NoError(t, err)

	// Window closes after the run started
	past := time.Now().Add(-time.Minute)
	require.NoError(t, db.Model(&models.Challenge{}).
		Where("id = ?", ch.ID).Update("end_date", past).Error)

	progress, err := svc.AdvanceChallenge(userID, ch.ID, artistID, 10)
	require.NoError(t, err)
	assert.True(t, progress.IsCompleted)
}

func TestGetAvailableChallenges(t *testing.T) {
	svc, db := newTestService(t)
	createChallenge(t, db, "weekly-listener", 10, 150)

	past := time.Now().Add(-time.Hour)
	ended := models.Challenge{
		Code:        "flash-event",
		Title:       "Flash Event",
		Type:        models.ChallengeSpecial,
		TargetValue: 5,
		StartDate:   time.Now().Add(-48 * time.Hour),
		EndDate:     &past,
		IsActive:    true,
	}
	require.NoError(t, db.Create(&ended).Error)

	available, err := svc.Challenges().GetAvailableChallenges("")
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, "weekly-listener", available[0].Code)

	none, err := svc.Challenges().GetAvailableChallenges(models.ChallengeDaily)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGetUserProgressCompletedFilter(t *testing.T) {
	svc, db := newTestService(t)
	userID, artistID := newIdentity()
	done := createChallenge(t, db, "done", 5, 10)
	open := createChallenge(t, db, "open", 100, 10)

	_, err := svc.StartChallenge(userID, done.ID, artistID)
	require.NoError(t, err)
	_, err = svc.StartChallenge(userID, open.ID, artistID)
	require.NoError(t, err)
	_, err = svc.AdvanceChallenge(userID, done.ID, artistID, 5)
	require.NoError(t, err)

	completed := true
	got, err := svc.Challenges().GetUserProgress(userID, artistID, &completed)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "done", got[0].Challenge.Code)

	completed = false
	got, err = svc.Challenges().GetUserProgress(userID, artistID, &completed)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "open", got[0].Challenge.Code)

	all, err := svc.Challenges().GetUserProgress(userID, artistID, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
