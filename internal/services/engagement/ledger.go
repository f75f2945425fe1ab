package engagement

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mlodi/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerService owns per-(user, artist) fan points: every delta appends
// an immutable PointTransaction row and atomically moves the lifetime
// total on the FanTierRecord. It never calls back into the rule engines
// that invoke it, which keeps reward evaluation from recursing.
type LedgerService struct {
	db *gorm.DB
}

// NewLedgerService creates a new ledger service
func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{db: db}
}

// GetFanTier returns the fan tier record for (user, artist), creating it
// at Bronze/0 on first access. The returned tier is always recomputed
// from lifetime points; a stale stored tier is repaired in place.
func (s *LedgerService) GetFanTier(userID, artistID uuid.UUID) (*models.FanTierRecord, error) {
	if err := s.ensureRecord(s.db, userID, artistID); err != nil {
		return nil, err
	}

	var rec models.FanTierRecord
	if err := s.db.Where("user_id = ? AND artist_id = ?", userID, artistID).First(&rec).Error; err != nil {
		return nil, fmt.Errorf("error finding fan tier record: %w", err)
	}

	derived := TierFor(rec.Points)
	if rec.Tier != derived {
		if err := s.db.Model(&models.FanTierRecord{}).Where("id = ?", rec.ID).
			Update("tier", derived).Error; err != nil {
			return nil, fmt.Errorf("error repairing stale tier: %w", err)
		}
		rec.Tier = derived
	}

	return &rec, nil
}

// ApplyDelta appends a point transaction and updates the fan tier record
// in one database transaction. Returns the updated record and whether
// the delta pushed the fan into a higher tier.
func (s *LedgerService) ApplyDelta(userID, artistID uuid.UUID, amount int64, kind models.TransactionKind, activity models.ActivityType, activityValue int64, description string) (*models.FanTierRecord, bool, error) {
	var (
		rec      *models.FanTierRecord
		upgraded bool
	)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		rec, upgraded, txErr = s.ApplyDeltaTx(tx, userID, artistID, amount, kind, activity, activityValue, description)
		return txErr
	})
	if err != nil {
		return nil, false, err
	}

	return rec, upgraded, nil
}

// ApplyEventDelta is ApplyDelta keyed by a unique event ID, for deltas
// arriving through the job queue. A delta whose event was already applied
// is skipped instead of reapplied, so a redelivered job cannot double
// count. The third return reports whether this call applied the delta.
func (s *LedgerService) ApplyEventDelta(userID, artistID uuid.UUID, amount int64, kind models.TransactionKind, activity models.ActivityType, activityValue int64, description, eventID string) (*models.FanTierRecord, bool, bool, error) {
	var (
		rec      *models.FanTierRecord
		upgraded bool
		applied  bool
	)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.PointTransaction{}).
			Where("event_id = ?", eventID).Count(&count).Error; err != nil {
			return fmt.Errorf("error checking event id: %w", err)
		}
		if count > 0 {
			return nil
		}

		var txErr error
		rec, upgraded, txErr = s.applyDeltaTx(tx, userID, artistID, amount, kind, activity, activityValue, description, eventID)
		if txErr != nil {
			return txErr
		}
		applied = true
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// A concurrent delivery of the same event won the unique-index
		// race after the existence check; the rollback already discarded
		// this delta.
		err = nil
		applied = false
	}
	if err != nil {
		return nil, false, false, err
	}

	if !applied {
		current, err := s.GetFanTier(userID, artistID)
		if err != nil {
			return nil, false, false, err
		}
		return current, false, false, nil
	}

	return rec, upgraded, true, nil
}

// ApplyDeltaTx is ApplyDelta running inside an existing transaction.
func (s *LedgerService) ApplyDeltaTx(tx *gorm.DB, userID, artistID uuid.UUID, amount int64, kind models.TransactionKind, activity models.ActivityType, activityValue int64, description string) (*models.FanTierRecord, bool, error) {
	return s.applyDeltaTx(tx, userID, artistID, amount, kind, activity, activityValue, description, "")
}

// applyDeltaTx moves the balance with atomic column increments, never
// read-then-write, so concurrent deltas for the same identity cannot
// lose updates. A non-empty eventID is stamped onto the transaction row.
func (s *LedgerService) applyDeltaTx(tx *gorm.DB, userID, artistID uuid.UUID, amount int64, kind models.TransactionKind, activity models.ActivityType, activityValue int64, description, eventID string) (*models.FanTierRecord, bool, error) {
	if err := s.ensureRecord(tx, userID, artistID); err != nil {
		return nil, false, err
	}

	var before models.FanTierRecord
	if err := tx.Where("user_id = ? AND artist_id = ?", userID, artistID).First(&before).Error; err != nil {
		return nil, false, fmt.Errorf("error finding fan tier record: %w", err)
	}
	oldTier := TierFor(before.Points)

	updates := map[string]interface{}{
		"points":     gorm.Expr("points + ?", amount),
		"updated_at": time.Now(),
	}
	if col := counterColumn(activity); col != "" {
		updates[col] = gorm.Expr(col+" + ?", activityValue)
	}

	if err := tx.Model(&models.FanTierRecord{}).Where("id = ?", before.ID).
		Updates(updates).Error; err != nil {
		return nil, false, fmt.Errorf("error applying point delta: %w", err)
	}

	// Lifetime points are monotonic non-negative; a negative admin
	// adjustment larger than the balance bottoms out at zero.
	if amount < 0 {
		if err := tx.Model(&models.FanTierRecord{}).
			Where("id = ? AND points < 0", before.ID).
			Update("points", 0).Error; err != nil {
			return nil, false, fmt.Errorf("error clamping points: %w", err)
		}
	}

	var rec models.FanTierRecord
	if err := tx.First(&rec, "id = ?", before.ID).Error; err != nil {
		return nil, false, fmt.Errorf("error reloading fan tier record: %w", err)
	}

	newTier := TierFor(rec.Points)
	upgraded := newTier.Ordinal() > oldTier.Ordinal()
	if newTier != rec.Tier {
		tierUpdates := map[string]interface{}{"tier": newTier}
		if upgraded {
			now := time.Now()
			tierUpdates["tier_upgraded_at"] = now
			rec.TierUpgradedAt = &now
		}
		if err := tx.Model(&models.FanTierRecord{}).Where("id = ?", rec.ID).
			Updates(tierUpdates).Error; err != nil {
			return nil, false, fmt.Errorf("error updating tier: %w", err)
		}
		rec.Tier = newTier
	}

	entry := models.PointTransaction{
		UserID:        userID,
		ArtistID:      &artistID,
		Amount:        amount,
		Kind:          kind,
		Description:   description,
		BalanceBefore: before.Points,
		BalanceAfter:  rec.Points,
	}
	if eventID != "" {
		entry.EventID = &eventID
	}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, false, fmt.Errorf("error creating point transaction: %w", err)
	}

	return &rec, upgraded, nil
}

// GetTransactions returns the fan-ledger transaction history for
// (user, artist), newest first.
func (s *LedgerService) GetTransactions(userID, artistID uuid.UUID, limit int) ([]models.PointTransaction, error) {
	if limit <= 0 {
		limit = 50
	}
	var txs []models.PointTransaction
	if err := s.db.Where("user_id = ? AND artist_id = ?", userID, artistID).
		Order("created_at DESC").Limit(limit).Find(&txs).Error; err != nil {
		return nil, fmt.Errorf("error finding point transactions: %w", err)
	}
	return txs, nil
}

// TotalUserPoints sums lifetime points across all artists for a user.
func (s *LedgerService) TotalUserPoints(userID uuid.UUID) (int64, error) {
	var total int64
	err := s.db.Model(&models.FanTierRecord{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(points), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("error summing user points: %w", err)
	}
	return total, nil
}

// ensureRecord creates the Bronze/0 record for the identity if missing.
// The composite unique index makes concurrent creates collapse to one row.
func (s *LedgerService) ensureRecord(tx *gorm.DB, userID, artistID uuid.UUID) error {
	rec := models.FanTierRecord{
		UserID:   userID,
		ArtistID: artistID,
		Tier:     models.TierBronze,
	}
	err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rec).Error
	if err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("error creating fan tier record: %w", err)
	}
	return nil
}

// counterColumn maps an activity type to the FanTierRecord counter it
// increments, or "" when no counter applies.
func counterColumn(activity models.ActivityType) string {
	switch activity {
	case models.ActivityListeningTime:
		return "total_listening_time_ms"
	case models.ActivitySongLiked:
		return "songs_liked"
	case models.ActivityPlaylistCreated:
		return "playlists_created"
	case models.ActivityConcertAttended:
		return "concerts_attended"
	case models.ActivityMerchPurchased:
		return "merchandise_purchased"
	case models.ActivityFriendReferred:
		return "friends_referred"
	case models.ActivityCommunityInteraction:
		return "community_interactions"
	default:
		return ""
	}
}
