package engagement

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mlodi/backend/internal/models"
	"github.com/mlodi/backend/internal/services/wallet"
	"gorm.io/gorm"
)

// Base point values per activity. Listening time is special-cased:
// its value is milliseconds and earns one point per full minute.
var activityBasePoints = map[models.ActivityType]int64{
	models.ActivitySongLiked:            10,
	models.ActivityPlaylistCreated:      25,
	models.ActivityConcertAttended:      200,
	models.ActivityMerchPurchased:       75,
	models.ActivityFriendReferred:       100,
	models.ActivityCommunityInteraction: 5,
}

// transactionKindFor maps an activity to the ledger kind tagging its delta
func transactionKindFor(activity models.ActivityType) models.TransactionKind {
	switch activity {
	case models.ActivityListeningTime:
		return models.KindListeningTime
	case models.ActivityMerchPurchased:
		return models.KindPurchase
	case models.ActivityFriendReferred:
		return models.KindReferral
	default:
		return models.KindActivity
	}
}

// PointsFor computes the point delta an activity event earns.
func PointsFor(activity models.ActivityType, value int64) (int64, error) {
	if value <= 0 {
		return 0, ErrInvalidActivity
	}
	if activity == models.ActivityListeningTime {
		return value / 60000, nil // value is milliseconds; 1 point per minute
	}
	base, ok := activityBasePoints[activity]
	if !ok {
		return 0, ErrInvalidActivity
	}
	return base * value, nil
}

// ActivityResult is everything one recorded activity event produced.
type ActivityResult struct {
	Record               *models.FanTierRecord `json:"record"`
	PointsEarned         int64                 `json:"points_earned"`
	TierUpgraded         bool                  `json:"tier_upgraded"`
	UnlockedAchievements []models.Achievement  `json:"unlocked_achievements,omitempty"`
	NewMilestones        []models.Milestone    `json:"new_milestones,omitempty"`
}

// Service is the engagement engine's front door: it orchestrates the
// ledger, achievement, challenge, and milestone components for each
// activity event and serves the read-only aggregation queries.
type Service struct {
	db           *gorm.DB
	ledger       *LedgerService
	achievements *AchievementService
	challenges   *ChallengeService
	milestones   *MilestoneService
	walletSvc    *wallet.WalletService
	notifier     Notifier
}

// NewService wires the engine together. A nil notifier discards
// notifications.
func NewService(db *gorm.DB, walletSvc *wallet.WalletService, notifier Notifier) *Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	ledger := NewLedgerService(db)
	return &Service{
		db:           db,
		ledger:       ledger,
		achievements: NewAchievementService(db, ledger, walletSvc),
		challenges:   NewChallengeService(db, ledger, walletSvc),
		milestones:   NewMilestoneService(db, ledger, walletSvc),
		walletSvc:    walletSvc,
		notifier:     notifier,
	}
}

// Ledger exposes the point ledger component
func (s *Service) Ledger() *LedgerService { return s.ledger }

// Achievements exposes the achievement rule engine
func (s *Service) Achievements() *AchievementService { return s.achievements }

// Challenges exposes the challenge tracker
func (s *Service) Challenges() *ChallengeService { return s.challenges }

// Milestones exposes the milestone evaluator
func (s *Service) Milestones() *MilestoneService { return s.milestones }

// RecordActivity applies one external activity event: points are applied
// to the fan ledger, the tier is recomputed, achievement criteria are
// evaluated for the event (and once more for a synthetic fan_tier signal
// on upgrade), and milestones are checked after all rewards have landed.
// Reward transactions never trigger another achievement pass, so one
// external event causes at most one extra evaluation round.
func (s *Service) RecordActivity(userID, artistID uuid.UUID, activity models.ActivityType, value int64) (*ActivityResult, error) {
	return s.recordActivity(userID, artistID, activity, value, "")
}

// RecordActivityEvent is RecordActivity keyed by a unique event ID.
// Queue deliveries pass the job ID here: a retried job skips the point
// delta it already applied and only reruns the evaluation and milestone
// phases, which are idempotent.
func (s *Service) RecordActivityEvent(userID, artistID uuid.UUID, activity models.ActivityType, value int64, eventID string) (*ActivityResult, error) {
	return s.recordActivity(userID, artistID, activity, value, eventID)
}

func (s *Service) recordActivity(userID, artistID uuid.UUID, activity models.ActivityType, value int64, eventID string) (*ActivityResult, error) {
	points, err := PointsFor(activity, value)
	if err != nil {
		return nil, err
	}

	var (
		record   *models.FanTierRecord
		upgraded bool
		applied  = true
	)
	desc := fmt.Sprintf("Activity: %s", activity)
	kind := transactionKindFor(activity)
	if eventID != "" {
		record, upgraded, applied, err = s.ledger.ApplyEventDelta(userID, artistID, points,
			kind, activity, value, desc, eventID)
	} else {
		record, upgraded, err = s.ledger.ApplyDelta(userID, artistID, points,
			kind, activity, value, desc)
	}
	if err != nil {
		return nil, err
	}

	result := &ActivityResult{Record: record}
	if applied {
		result.PointsEarned = points
	}

	unlocked, rewardUpgraded, err := s.achievements.Evaluate(userID, artistID, activity, value)
	result.UnlockedAchievements = unlocked
	if err != nil {
		return result, err
	}

	// An upgrade caused by a reward delta is handled the same way as one
	// caused by the activity itself.
	if upgraded || rewardUpgraded {
		result.TierUpgraded = true
		rec, tierUnlocks, err := s.applyTierUpgrade(userID, artistID)
		if rec != nil {
			result.Record = rec
		}
		result.UnlockedAchievements = append(result.UnlockedAchievements, tierUnlocks...)
		if err != nil {
			return result, err
		}
	}

	s.notifyUnlocked(userID, artistID, result.UnlockedAchievements)

	// Milestones are threshold-driven, so one check after all of this
	// event's rewards have been applied is sufficient.
	newMilestones, err := s.milestones.CheckMilestones(userID, artistID)
	if err != nil {
		return result, err
	}
	result.NewMilestones = newMilestones
	s.notifyMilestones(userID, artistID, newMilestones)

	return result, nil
}

// applyTierUpgrade emits the tier-upgraded notification for the fan's
// current tier and runs the single synthetic fan_tier evaluation round.
// Upgrades caused by the tier rewards themselves are not fed back again,
// which bounds re-evaluation at one extra round per event.
func (s *Service) applyTierUpgrade(userID, artistID uuid.UUID) (*models.FanTierRecord, []models.Achievement, error) {
	record, err := s.ledger.GetFanTier(userID, artistID)
	if err != nil {
		return nil, nil, err
	}

	s.notifier.Notify(Notification{
		Type:      NotificationTierUpgraded,
		UserID:    userID,
		ArtistID:  artistID,
		Title:     fmt.Sprintf("You reached %s!", record.Tier),
		Data:      map[string]interface{}{"tier": record.Tier, "points": record.Points},
		CreatedAt: time.Now(),
	})

	unlocked, _, err := s.achievements.Evaluate(userID, artistID,
		models.ActivityFanTierChanged, record.Tier.Ordinal())
	return record, unlocked, err
}

func (s *Service) notifyUnlocked(userID, artistID uuid.UUID, unlocked []models.Achievement) {
	for _, a := range unlocked {
		s.notifier.Notify(Notification{
			Type:      NotificationAchievementUnlocked,
			UserID:    userID,
			ArtistID:  artistID,
			Title:     fmt.Sprintf("Achievement unlocked: %s", a.Title),
			Body:      a.Description,
			Data:      map[string]interface{}{"achievement_id": a.ID.String(), "points_awarded": a.PointsAwarded},
			CreatedAt: time.Now(),
		})
	}
}

func (s *Service) notifyMilestones(userID, artistID uuid.UUID, milestones []models.Milestone) {
	for _, m := range milestones {
		s.notifier.Notify(Notification{
			Type:      NotificationMilestoneClaimable,
			UserID:    userID,
			ArtistID:  artistID,
			Title:     fmt.Sprintf("Milestone reached: %s", m.Title),
			Body:      m.Reward,
			Data:      map[string]interface{}{"milestone_id": m.ID.String()},
			CreatedAt: time.Now(),
		})
	}
}

// StartChallenge starts a challenge for (user, challenge, artist)
func (s *Service) StartChallenge(userID, challengeID, artistID uuid.UUID) (*models.UserChallengeProgress, error) {
	return s.challenges.Start(userID, challengeID, artistID)
}

// AdvanceChallenge advances challenge progress and, on the transition
// into Completed, emits the completion notification, reacts to a tier
// upgrade the reward may have caused, and checks milestones.
func (s *Service) AdvanceChallenge(userID, challengeID, artistID uuid.UUID, delta int64) (*models.UserChallengeProgress, error) {
	progress, completed, upgraded, err := s.challenges.Advance(userID, challengeID, artistID, delta)
	if err != nil {
		return nil, err
	}
	if !completed {
		return progress, nil
	}

	s.notifier.Notify(Notification{
		Type:      NotificationChallengeCompleted,
		UserID:    userID,
		ArtistID:  artistID,
		Title:     fmt.Sprintf("Challenge completed: %s", progress.Challenge.Title),
		Data:      map[string]interface{}{"challenge_id": challengeID.String(), "points_reward": progress.Challenge.PointsReward},
		CreatedAt: time.Now(),
	})

	if upgraded {
		_, tierUnlocks, err := s.applyTierUpgrade(userID, artistID)
		s.notifyUnlocked(userID, artistID, tierUnlocks)
		if err != nil {
			return progress, err
		}
	}

	// Completion rewards can cross milestone thresholds
	newMilestones, err := s.milestones.CheckMilestones(userID, artistID)
	if err != nil {
		return progress, err
	}
	s.notifyMilestones(userID, artistID, newMilestones)

	return progress, nil
}

// ClaimMilestone claims a milestone reward for (user, milestone, artist).
// A claim whose reward crosses a tier boundary gets the same upgrade
// handling as any other point-earning operation.
func (s *Service) ClaimMilestone(userID, milestoneID, artistID uuid.UUID) (*models.Milestone, error) {
	milestone, upgraded, err := s.milestones.ClaimReward(userID, milestoneID, artistID)
	if err != nil {
		return nil, err
	}

	if upgraded {
		_, tierUnlocks, err := s.applyTierUpgrade(userID, artistID)
		s.notifyUnlocked(userID, artistID, tierUnlocks)
		if err != nil {
			return milestone, err
		}
	}

	return milestone, nil
}

// GetTierProgress reports the fan's position within their current tier
func (s *Service) GetTierProgress(userID, artistID uuid.UUID) (*TierProgress, error) {
	record, err := s.ledger.GetFanTier(userID, artistID)
	if err != nil {
		return nil, err
	}
	p := ProgressFor(record.Points)
	return &p, nil
}

// EngagementStats is the read-only per-artist summary
type EngagementStats struct {
	FanTier             *models.FanTierRecord `json:"fan_tier"`
	TotalAchievements   int64                 `json:"total_achievements"`
	ActiveChallenges    int64                 `json:"active_challenges"`
	CompletedChallenges int64                 `json:"completed_challenges"`
	ClaimableMilestones int64                 `json:"claimable_milestones"`
	ClaimedMilestones   int64                 `json:"claimed_milestones"`
}

// GetStats composes the aggregator view. It never mutates engine state
// beyond the lazy Bronze/0 record creation and treats absent records as
// zero counts.
func (s *Service) GetStats(userID, artistID uuid.UUID) (*EngagementStats, error) {
	record, err := s.ledger.GetFanTier(userID, artistID)
	if err != nil {
		return nil, err
	}

	stats := &EngagementStats{FanTier: record}

	count := func(dest *int64, model interface{}, cond string, args ...interface{}) error {
		return s.db.Model(model).
			Where("user_id = ? AND artist_id = ?", userID, artistID).
			Where(cond, args...).
			Count(dest).Error
	}

	if err := count(&stats.TotalAchievements, &models.UserAchievement{}, "1 = 1"); err != nil {
		return nil, fmt.Errorf("error counting achievements: %w", err)
	}
	if err := count(&stats.ActiveChallenges, &models.UserChallengeProgress{}, "is_completed = ?", false); err != nil {
		return nil, fmt.Errorf("error counting active challenges: %w", err)
	}
	if err := count(&stats.CompletedChallenges, &models.UserChallengeProgress{}, "is_completed = ?", true); err != nil {
		return nil, fmt.Errorf("error counting completed challenges: %w", err)
	}
	if err := count(&stats.ClaimableMilestones, &models.UserMilestoneProgress{}, "is_completed = ? AND reward_claimed = ?", true, false); err != nil {
		return nil, fmt.Errorf("error counting claimable milestones: %w", err)
	}
	if err := count(&stats.ClaimedMilestones, &models.UserMilestoneProgress{}, "reward_claimed = ?", true); err != nil {
		return nil, fmt.Errorf("error counting claimed milestones: %w", err)
	}

	return stats, nil
}
