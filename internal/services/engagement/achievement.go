package engagement

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mlodi/backend/internal/models"
	"github.com/mlodi/backend/internal/services/wallet"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AchievementService evaluates declarative unlock criteria against
// activity signals. Each unlock happens at most once per
// (user, achievement, artist); the database unique index is the guard,
// not a check-then-insert.
type AchievementService struct {
	db        *gorm.DB
	ledger    *LedgerService
	walletSvc *wallet.WalletService
}

// NewAchievementService creates a new achievement service
func NewAchievementService(db *gorm.DB, ledger *LedgerService, walletSvc *wallet.WalletService) *AchievementService {
	return &AchievementService{db: db, ledger: ledger, walletSvc: walletSvc}
}

// GetDefinitions returns active achievement definitions, optionally
// filtered by category.
func (s *AchievementService) GetDefinitions(category models.AchievementCategory) ([]models.Achievement, error) {
	q := s.db.Preload("Criteria").Where("is_active = ?", true)
	if category != "" {
		q = q.Where("category = ?", category)
	}
	var defs []models.Achievement
	if err := q.Order("rarity ASC").Find(&defs).Error; err != nil {
		return nil, fmt.Errorf("error finding achievements: %w", err)
	}
	return defs, nil
}

// GetUserAchievements returns a user's unlocks, newest first. An empty
// artistID returns unlocks across all artists.
func (s *AchievementService) GetUserAchievements(userID uuid.UUID, artistID *uuid.UUID) ([]models.UserAchievement, error) {
	q := s.db.Preload("Achievement").Where("user_id = ?", userID)
	if artistID != nil {
		q = q.Where("artist_id = ?", *artistID)
	}
	var unlocks []models.UserAchievement
	if err := q.Order("unlocked_at DESC").Find(&unlocks).Error; err != nil {
		return nil, fmt.Errorf("error finding user achievements: %w", err)
	}
	return unlocks, nil
}

// Evaluate checks every active, not-yet-unlocked achievement against the
// activity signal. A criterion matches when its activity type equals the
// signal's and the value meets the minimum; criteria are independent
// (any one match unlocks). Newly unlocked achievements are returned so
// the caller can notify; reward points are awarded here, exactly once.
// The second return reports whether any reward delta pushed the fan into
// a higher tier, which the caller owns reacting to.
func (s *AchievementService) Evaluate(userID, artistID uuid.UUID, activity models.ActivityType, value int64) ([]models.Achievement, bool, error) {
	var candidates []models.Achievement
	err := s.db.Preload("Criteria").
		Where("is_active = ?", true).
		Where("id IN (?)", s.db.Model(&models.AchievementCriterion{}).
			Select("achievement_id").
			Where("activity_type = ? AND min_value <= ?", activity, value)).
		Find(&candidates).Error
	if err != nil {
		return nil, false, fmt.Errorf("error finding candidate achievements: %w", err)
	}

	var (
		unlocked []models.Achievement
		upgraded bool
	)
	for _, def := range candidates {
		isNew, tierMoved, err := s.unlock(userID, artistID, def, activity, value)
		if err != nil {
			return unlocked, upgraded, err
		}
		if isNew {
			unlocked = append(unlocked, def)
		}
		if tierMoved {
			upgraded = true
		}
	}

	return unlocked, upgraded, nil
}

// unlock creates the UserAchievement row and awards the reward in one
// transaction. A concurrent duplicate insert loses the unique-index race,
// affects zero rows, and awards nothing.
func (s *AchievementService) unlock(userID, artistID uuid.UUID, def models.Achievement, activity models.ActivityType, value int64) (bool, bool, error) {
	isNew := false
	upgraded := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		row := models.UserAchievement{
			UserID:        userID,
			AchievementID: def.ID,
			ArtistID:      artistID,
			ProgressData:  models.JSON{string(activity): value},
			UnlockedAt:    time.Now(),
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
		if res.Error != nil {
			return fmt.Errorf("error creating user achievement: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil // lost the race or already unlocked; no reward
		}
		isNew = true

		if def.PointsAwarded <= 0 {
			return nil
		}

		desc := fmt.Sprintf("Achievement unlocked: %s", def.Title)
		_, rewardUpgraded, err := s.ledger.ApplyDeltaTx(tx, userID, artistID, def.PointsAwarded,
			models.KindAchievementReward, "", 0, desc)
		if err != nil {
			return err
		}
		upgraded = rewardUpgraded

		_, err = s.walletSvc.CreditTx(tx, userID, def.PointsAwarded,
			models.KindAchievementReward, desc,
			map[string]interface{}{"achievement_id": def.ID.String(), "artist_id": artistID.String()})
		return err
	})
	if err != nil {
		return false, false, err
	}
	return isNew, upgraded, nil
}
