package engagement

import (
	"github.com/mlodi/backend/internal/models"
)

// Tier thresholds: fixed, non-overlapping, ascending. A fan's tier is
// always the unique tier whose range contains their lifetime points.
type tierThreshold struct {
	tier      models.FanTier
	minPoints int64
}

var tierThresholds = []tierThreshold{
	{models.TierBronze, 0},
	{models.TierSilver, 1000},
	{models.TierGold, 5000},
	{models.TierDiamond, 15000},
	{models.TierPlatinum, 40000},
}

// TierFor maps lifetime points to a tier. Pure function of the current
// total; the stored tier column is never trusted over this.
func TierFor(points int64) models.FanTier {
	tier := models.TierBronze
	for _, t := range tierThresholds {
		if points >= t.minPoints {
			tier = t.tier
		}
	}
	return tier
}

// NextTier returns the tier above the given one and its entry threshold,
// or ("", 0, false) for Platinum.
func NextTier(tier models.FanTier) (models.FanTier, int64, bool) {
	for i, t := range tierThresholds {
		if t.tier == tier && i+1 < len(tierThresholds) {
			next := tierThresholds[i+1]
			return next.tier, next.minPoints, true
		}
	}
	return "", 0, false
}

// TierProgress describes how far a fan is through their current tier.
type TierProgress struct {
	CurrentTier  models.FanTier `json:"current_tier"`
	NextTier     models.FanTier `json:"next_tier,omitempty"`
	Points       int64          `json:"points"`
	Percent      float64        `json:"percent"`
	PointsToNext int64          `json:"points_to_next"`
}

// ProgressFor computes tier progress from lifetime points. At the top
// tier the percent is pinned to 100 with nothing left to earn.
func ProgressFor(points int64) TierProgress {
	current := TierFor(points)
	next, nextMin, ok := NextTier(current)
	if !ok {
		return TierProgress{CurrentTier: current, Points: points, Percent: 100}
	}

	var currentMin int64
	for _, t := range tierThresholds {
		if t.tier == current {
			currentMin = t.minPoints
		}
	}

	span := nextMin - currentMin
	pct := float64(points-currentMin) / float64(span) * 100
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}

	return TierProgress{
		CurrentTier:  current,
		NextTier:     next,
		Points:       points,
		Percent:      pct,
		PointsToNext: nextMin - points,
	}
}
