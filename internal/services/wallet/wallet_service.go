package wallet

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mlodi/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrInsufficientFunds is returned when a deduction would drive the
// balance below zero. Deductions fail closed.
var ErrInsufficientFunds = errors.New("insufficient funds")

// WalletService handles the user-wide spendable points wallet. It is a
// separate ledger from per-artist fan points: crediting a reward here
// never changes a fan tier, and spending never touches lifetime points.
type WalletService struct {
	db *gorm.DB
}

// NewWalletService creates a new wallet service
func NewWalletService(db *gorm.DB) *WalletService {
	return &WalletService{db: db}
}

// GetOrCreateWallet gets a user's wallet or creates one if it doesn't exist
func (s *WalletService) GetOrCreateWallet(userID uuid.UUID) (*models.Wallet, error) {
	w := models.Wallet{UserID: userID}
	err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&w).Error
	if err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, fmt.Errorf("error creating wallet: %w", err)
	}

	var wallet models.Wallet
	if err := s.db.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		return nil, fmt.Errorf("error finding wallet: %w", err)
	}
	return &wallet, nil
}

// Credit adds points to a wallet and appends the transaction record
func (s *WalletService) Credit(userID uuid.UUID, amount int64, kind models.TransactionKind, description string, metadata map[string]interface{}) (*models.PointTransaction, error) {
	var entry *models.PointTransaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		entry, txErr = s.CreditTx(tx, userID, amount, kind, description, metadata)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// CreditTx adds points to a wallet inside an existing transaction.
// The balance moves via an atomic column increment.
func (s *WalletService) CreditTx(tx *gorm.DB, userID uuid.UUID, amount int64, kind models.TransactionKind, description string, metadata map[string]interface{}) (*models.PointTransaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("credit amount must be positive, got %d", amount)
	}

	wallet, err := s.getOrCreateTx(tx, userID)
	if err != nil {
		return nil, err
	}
	balanceBefore := wallet.Balance

	if err := tx.Model(&models.Wallet{}).Where("id = ?", wallet.ID).
		Updates(map[string]interface{}{
			"balance":         gorm.Expr("balance + ?", amount),
			"lifetime_earned": gorm.Expr("lifetime_earned + ?", amount),
		}).Error; err != nil {
		return nil, fmt.Errorf("error crediting wallet: %w", err)
	}

	entry := models.PointTransaction{
		UserID:        userID,
		Amount:        amount,
		Kind:          kind,
		Description:   description,
		MetaData:      metadata,
		BalanceBefore: balanceBefore,
		BalanceAfter:  balanceBefore + amount,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, fmt.Errorf("error creating transaction record: %w", err)
	}

	return &entry, nil
}

// Deduct removes points from a wallet, failing with ErrInsufficientFunds
// if the balance would go negative.
func (s *WalletService) Deduct(userID uuid.UUID, amount int64, kind models.TransactionKind, description string, metadata map[string]interface{}) (*models.PointTransaction, error) {
	var entry *models.PointTransaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		entry, txErr = s.DeductTx(tx, userID, amount, kind, description, metadata)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// DeductTx removes points inside an existing transaction. The guard is a
// conditional update (balance >= amount) so concurrent deductions can
// never overdraw: exactly enough succeed to exhaust the balance and the
// rest fail closed.
func (s *WalletService) DeductTx(tx *gorm.DB, userID uuid.UUID, amount int64, kind models.TransactionKind, description string, metadata map[string]interface{}) (*models.PointTransaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("deduct amount must be positive, got %d", amount)
	}

	wallet, err := s.getOrCreateTx(tx, userID)
	if err != nil {
		return nil, err
	}
	balanceBefore := wallet.Balance

	res := tx.Model(&models.Wallet{}).
		Where("id = ? AND balance >= ?", wallet.ID, amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	if res.Error != nil {
		return nil, fmt.Errorf("error deducting from wallet: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrInsufficientFunds
	}

	entry := models.PointTransaction{
		UserID:        userID,
		Amount:        -amount,
		Kind:          kind,
		Description:   description,
		MetaData:      metadata,
		BalanceBefore: balanceBefore,
		BalanceAfter:  balanceBefore - amount,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, fmt.Errorf("error creating transaction record: %w", err)
	}

	return &entry, nil
}

// GetBalance returns the current spendable balance for a user
func (s *WalletService) GetBalance(userID uuid.UUID) (int64, error) {
	wallet, err := s.GetOrCreateWallet(userID)
	if err != nil {
		return 0, err
	}
	return wallet.Balance, nil
}

// GetTransactionHistory returns wallet-scope transactions, newest first
func (s *WalletService) GetTransactionHistory(userID uuid.UUID, page, pageSize int) ([]models.PointTransaction, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	var total int64
	q := s.db.Model(&models.PointTransaction{}).Where("user_id = ? AND artist_id IS NULL", userID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("error counting transactions: %w", err)
	}

	var transactions []models.PointTransaction
	offset := (page - 1) * pageSize
	if err := s.db.Where("user_id = ? AND artist_id IS NULL", userID).
		Order("created_at DESC").Offset(offset).Limit(pageSize).
		Find(&transactions).Error; err != nil {
		return nil, 0, fmt.Errorf("error finding transactions: %w", err)
	}

	return transactions, total, nil
}

// PointStats summarizes a user's wallet activity
type PointStats struct {
	CurrentBalance     int64 `json:"current_balance"`
	LifetimeEarned     int64 `json:"lifetime_earned"`
	TotalSpent         int64 `json:"total_spent"`
	ChallengeRewards   int64 `json:"challenge_rewards"`
	AchievementRewards int64 `json:"achievement_rewards"`
	MilestoneRewards   int64 `json:"milestone_rewards"`
}

// GetPointStats computes an earned/spent breakdown from the transaction log
func (s *WalletService) GetPointStats(userID uuid.UUID) (*PointStats, error) {
	wallet, err := s.GetOrCreateWallet(userID)
	if err != nil {
		return nil, err
	}

	stats := &PointStats{
		CurrentBalance: wallet.Balance,
		LifetimeEarned: wallet.LifetimeEarned,
	}

	sumWhere := func(dest *int64, cond string, args ...interface{}) error {
		return s.db.Model(&models.PointTransaction{}).
			Where("user_id = ? AND artist_id IS NULL", userID).
			Where(cond, args...).
			Select("COALESCE(SUM(amount), 0)").
			Scan(dest).Error
	}

	var spent int64
	if err := sumWhere(&spent, "amount < 0"); err != nil {
		return nil, fmt.Errorf("error summing spent points: %w", err)
	}
	stats.TotalSpent = -spent

	if err := sumWhere(&stats.ChallengeRewards, "kind = ? AND amount > 0", models.KindChallengeReward); err != nil {
		return nil, fmt.Errorf("error summing challenge rewards: %w", err)
	}
	if err := sumWhere(&stats.AchievementRewards, "kind = ? AND amount > 0", models.KindAchievementReward); err != nil {
		return nil, fmt.Errorf("error summing achievement rewards: %w", err)
	}
	if err := sumWhere(&stats.MilestoneRewards, "kind = ? AND amount > 0", models.KindMilestoneReward); err != nil {
		return nil, fmt.Errorf("error summing milestone rewards: %w", err)
	}

	return stats, nil
}

func (s *WalletService) getOrCreateTx(tx *gorm.DB, userID uuid.UUID) (*models.Wallet, error) {
	w := models.Wallet{UserID: userID}
	err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&w).Error
	if err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, fmt.Errorf("error creating wallet: %w", err)
	}

	var wallet models.Wallet
	if err := tx.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		return nil, fmt.Errorf("error finding wallet: %w", err)
	}
	return &wallet, nil
}
