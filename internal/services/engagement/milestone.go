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

// MilestoneService unlocks milestones when lifetime points cross fixed
// thresholds and tracks the separate unlock→claim reward flow. Unlocking
// is checked after point-changing operations, not per-activity; claiming
// is the only path that awards milestone points.
type MilestoneService struct {
	db        *gorm.DB
	ledger    *LedgerService
	walletSvc *wallet.WalletService
}

// NewMilestoneService creates a new milestone service
func NewMilestoneService(db *gorm.DB, ledger *LedgerService, walletSvc *wallet.WalletService) *MilestoneService {
	return &MilestoneService{db: db, ledger: ledger, walletSvc: walletSvc}
}

// GetDefinitions returns active milestone definitions ordered by threshold
func (s *MilestoneService) GetDefinitions() ([]models.Milestone, error) {
	var defs []models.Milestone
	if err := s.db.Where("is_active = ?", true).
		Order("required_points ASC").Find(&defs).Error; err != nil {
		return nil, fmt.Errorf("error finding milestones: %w", err)
	}
	return defs, nil
}

// GetUserProgress returns a user's milestone progress for an artist
func (s *MilestoneService) GetUserProgress(userID, artistID uuid.UUID) ([]models.UserMilestoneProgress, error) {
	var progress []models.UserMilestoneProgress
	if err := s.db.Preload("Milestone").
		Where("user_id = ? AND artist_id = ?", userID, artistID).
		Order("created_at DESC").Find(&progress).Error; err != nil {
		return nil, fmt.Errorf("error finding milestone progress: %w", err)
	}
	return progress, nil
}

// CheckMilestones creates a completed, unclaimed progress record for
// every milestone whose threshold the user's lifetime points have
// crossed and which has no record yet. Returns the newly unlocked
// definitions. No points are awarded here.
func (s *MilestoneService) CheckMilestones(userID, artistID uuid.UUID) ([]models.Milestone, error) {
	record, err := s.ledger.GetFanTier(userID, artistID)
	if err != nil {
		return nil, err
	}

	var eligible []models.Milestone
	if err := s.db.Where("is_active = ? AND required_points <= ?", true, record.Points).
		Order("required_points ASC").Find(&eligible).Error; err != nil {
		return nil, fmt.Errorf("error finding eligible milestones: %w", err)
	}

	var unlocked []models.Milestone
	now := time.Now()
	for _, m := range eligible {
		row := models.UserMilestoneProgress{
			UserID:      userID,
			MilestoneID: m.ID,
			ArtistID:    artistID,
			IsCompleted: true,
			CompletedAt: &now,
		}
		res := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
		if res.Error != nil {
			return unlocked, fmt.Errorf("error creating milestone progress: %w", res.Error)
		}
		if res.RowsAffected == 1 {
			unlocked = append(unlocked, m)
		}
	}

	return unlocked, nil
}

// ClaimReward marks the milestone's reward claimed and awards its points.
// The conditional update (completed and not yet claimed) makes a second
// claim, concurrent or sequential, fail with ErrNotClaimable instead of
// double-rewarding. The second return reports whether the reward pushed
// the fan into a higher tier.
func (s *MilestoneService) ClaimReward(userID, milestoneID, artistID uuid.UUID) (*models.Milestone, bool, error) {
	var milestone models.Milestone
	if err := s.db.First(&milestone, "id = ?", milestoneID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, ErrNotFound
		}
		return nil, false, fmt.Errorf("error finding milestone: %w", err)
	}

	upgraded := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(&models.UserMilestoneProgress{}).
			Where("user_id = ? AND milestone_id = ? AND artist_id = ?", userID, milestoneID, artistID).
			Where("is_completed = ? AND reward_claimed = ?", true, false).
			Updates(map[string]interface{}{
				"reward_claimed":    true,
				"reward_claimed_at": now,
			})
		if res.Error != nil {
			return fmt.Errorf("error claiming milestone reward: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotClaimable
		}

		if milestone.PointsAwarded <= 0 {
			return nil
		}

		desc := fmt.Sprintf("Milestone reward claimed: %s", milestone.Title)
		_, rewardUpgraded, err := s.ledger.ApplyDeltaTx(tx, userID, artistID, milestone.PointsAwarded,
			models.KindMilestoneReward, "", 0, desc)
		if err != nil {
			return err
		}
		upgraded = rewardUpgraded

		_, err = s.walletSvc.CreditTx(tx, userID, milestone.PointsAwarded,
			models.KindMilestoneReward, desc,
			map[string]interface{}{"milestone_id": milestoneID.String(), "artist_id": artistID.String()})
		return err
	})
	if err != nil {
		return nil, false, err
	}

	return &milestone, upgraded, nil
}
