package engagement

import (
	"testing"

	"github.com/mlodi/backend/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestTierFor(t *testing.T) {
	tests := []struct {
		points int64
		want   models.FanTier
	}{
		{0, models.TierBronze},
		{999, models.TierBronze},
		{1000, models.TierSilver},
		{4999, models.TierSilver},
		{5000, models.TierGold},
		{14999, models.TierGold},
		{15000, models.TierDiamond},
		{39999, models.TierDiamond},
		{40000, models.TierPlatinum},
		{1000000, models.TierPlatinum},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, TierFor(tt.points), "points=%d", tt.points)
	}
}

func TestNextTier(t *testing.T) {
	next, min, ok := NextTier(models.TierBronze)
	assert.True(t, ok)
	assert.Equal(t, models.TierSilver, next)
	assert.Equal(t, int64(1000), min)

	next, min, ok = NextTier(models.TierDiamond)
	assert.True(t, ok)
	assert.Equal(t, models.TierPlatinum, next)
	assert.Equal(t, int64(40000), min)

	_, _, ok = NextTier(models.TierPlatinum)
	assert.False(t, ok)
}

func TestProgressFor(t *testing.T) {
	p := ProgressFor(3000)
	assert.Equal(t, models.TierSilver, p.CurrentTier)
	assert.Equal(t, models.TierGold, p.NextTier)
	assert.Equal(t, int64(2000), p.PointsToNext)
	assert.InDelta(t, 50.0, p.Percent, 0.001)

	p = ProgressFor(0)
	assert.Equal(t, models.TierBronze, p.CurrentTier)
	assert.Equal(t, int64(1000), p.PointsToNext)
	assert.Equal(t, 0.0, p.Percent)

	p = ProgressFor(40000)
	assert.Equal(t, models.TierPlatinum, p.CurrentTier)
	assert.Empty(t, p.NextTier)
	assert.Equal(t, int64(0), p.PointsToNext)
	assert.Equal(t, 100.0, p.Percent)
}

func TestTierOrdinals(t *testing.T) {
	assert.Equal(t, int64(1), models.TierBronze.Ordinal())
	assert.Equal(t, int64(2), models.TierSilver.Ordinal())
	assert.Equal(t, int64(3), models.TierGold.Ordinal())
	assert.Equal(t, int64(4), models.TierDiamond.Ordinal())
	assert.Equal(t, int64(5), models.TierPlatinum.Ordinal())
}
