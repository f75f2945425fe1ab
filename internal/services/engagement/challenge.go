package engagement

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mlodi/backend/internal/models"
	"github.com/mlodi/backend/internal/services/wallet"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChallengeService manages the NotStarted → InProgress → Completed state
// machine per (user, challenge, artist). Completion is terminal: once a
// challenge completes, further advances are no-ops and the reward is
// never granted again.
type ChallengeService struct {
	db        *gorm.DB
	ledger    *LedgerService
	walletSvc *wallet.WalletService
}

// NewChallengeService creates a new challenge service
func NewChallengeService(db *gorm.DB, ledger *LedgerService, walletSvc *wallet.WalletService) *ChallengeService {
	return &ChallengeService{db: db, ledger: ledger, walletSvc: walletSvc}
}

// GetAvailableChallenges returns challenge definitions whose active
// window contains now, optionally filtered by type.
func (s *ChallengeService) GetAvailableChallenges(challengeType models.ChallengeType) ([]models.Challenge, error) {
	now := time.Now()
	q := s.db.Where("is_active = ?", true).
		Where("start_date <= ?", now).
		Where("end_date IS NULL OR end_date >= ?", now)
	if challengeType != "" {
		q = q.Where("type = ?", challengeType)
	}
	var challenges []models.Challenge
	if err := q.Order("start_date ASC").Find(&challenges).Error; err != nil {
		return nil, fmt.Errorf("error finding challenges: %w", err)
	}
	return challenges, nil
}

// GetUserProgress returns a user's challenge progress for an artist.
// completed filters to completed (true) or in-progress (false) records;
// nil returns both.
func (s *ChallengeService) GetUserProgress(userID, artistID uuid.UUID, completed *bool) ([]models.UserChallengeProgress, error) {
	q := s.db.Preload("Challenge").
		Where("user_id = ? AND artist_id = ?", userID, artistID)
	if completed != nil {
		q = q.Where("is_completed = ?", *completed)
	}
	var progress []models.UserChallengeProgress
	if err := q.Order("started_at DESC").Find(&progress).Error; err != nil {
		return nil, fmt.Errorf("error finding challenge progress: %w", err)
	}
	return progress, nil
}

// Start creates a progress record at zero for (user, challenge, artist).
// Only challenges whose window contains now may be started; a challenge
// already started for the identity fails with ErrAlreadyStarted even
// under concurrent duplicate starts.
func (s *ChallengeService) Start(userID, challengeID, artistID uuid.UUID) (*models.UserChallengeProgress, error) {
	var challenge models.Challenge
	if err := s.db.First(&challenge, "id = ?", challengeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding challenge: %w", err)
	}
	if !challenge.IsLive(time.Now()) {
		return nil, ErrChallengeNotLive
	}

	row := models.UserChallengeProgress{
		UserID:      userID,
		ChallengeID: challengeID,
		ArtistID:    artistID,
		Progress:    0,
		StartedAt:   time.Now(),
	}
	res := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if res.Error != nil {
		return nil, fmt.Errorf("error creating challenge progress: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrAlreadyStarted
	}

	row.Challenge = challenge
	return &row, nil
}

// Advance adds delta to the challenge's progress. Progress on an already
// completed challenge is left untouched. When the increment carries
// progress to the target, the record transitions to Completed exactly
// once — the conditional completion update is the reward guard — and the
// reward is granted atomically with the transition. Returns the updated
// record, whether this call completed the challenge, and whether the
// reward pushed the fan into a higher tier.
func (s *ChallengeService) Advance(userID, challengeID, artistID uuid.UUID, delta int64) (*models.UserChallengeProgress, bool, bool, error) {
	var (
		result    models.UserChallengeProgress
		completed bool
		upgraded  bool
	)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var progress models.UserChallengeProgress
		err := tx.Preload("Challenge").
			Where("user_id = ? AND challenge_id = ? AND artist_id = ?", userID, challengeID, artistID).
			First(&progress).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotStarted
			}
			return fmt.Errorf("error finding challenge progress: %w", err)
		}

		// Terminal state: completed challenges ignore further increments
		if progress.IsCompleted {
			result = progress
			return nil
		}

		if err := tx.Model(&models.UserChallengeProgress{}).
			Where("id = ? AND is_completed = ?", progress.ID, false).
			Updates(map[string]interface{}{
				"progress":   gorm.Expr("progress + ?", delta),
				"updated_at": time.Now(),
			}).Error; err != nil {
			return fmt.Errorf("error advancing challenge: %w", err)
		}

		// Progress is clamped non-negative
		if delta < 0 {
			if err := tx.Model(&models.UserChallengeProgress{}).
				Where("id = ? AND progress < 0", progress.ID).
				Update("progress", 0).Error; err != nil {
				return fmt.Errorf("error clamping progress: %w", err)
			}
		}

		if err := tx.First(&progress, "id = ?", progress.ID).Error; err != nil {
			return fmt.Errorf("error reloading challenge progress: %w", err)
		}

		if progress.Progress >= progress.Challenge.TargetValue {
			now := time.Now()
			res := tx.Model(&models.UserChallengeProgress{}).
				Where("id = ? AND is_completed = ?", progress.ID, false).
				Updates(map[string]interface{}{
					"is_completed": true,
					"completed_at": now,
				})
			if res.Error != nil {
				return fmt.Errorf("error completing challenge: %w", res.Error)
			}
			if res.RowsAffected == 1 {
				completed = true
				progress.IsCompleted = true
				progress.CompletedAt = &now

				if progress.Challenge.PointsReward > 0 {
					desc := fmt.Sprintf("Challenge completed: %s", progress.Challenge.Title)
					_, rewardUpgraded, err := s.ledger.ApplyDeltaTx(tx, userID, artistID,
						progress.Challenge.PointsReward, models.KindChallengeReward, "", 0, desc)
					if err != nil {
						return err
					}
					upgraded = rewardUpgraded
					if _, err := s.walletSvc.CreditTx(tx, userID, progress.Challenge.PointsReward,
						models.KindChallengeReward, desc,
						map[string]interface{}{"challenge_id": challengeID.String(), "artist_id": artistID.String()}); err != nil {
						return err
					}
				}
			}
		}

		if err := tx.Preload("Challenge").First(&progress, "id = ?", progress.ID).Error; err != nil {
			return fmt.Errorf("error reloading challenge progress: %w", err)
		}
		result = progress
		return nil
	})
	if err != nil {
		return nil, false, false, err
	}

	return &result, completed, upgraded, nil
}
