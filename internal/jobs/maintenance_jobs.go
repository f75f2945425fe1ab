package jobs

import (
	"context"
	"log"
	"time"

	"github.com/mlodi/backend/internal/models"
	"github.com/mlodi/backend/internal/queue"
	"gorm.io/gorm"
)

// MaintenanceJobs holds the recurring housekeeping tasks
type MaintenanceJobs struct {
	db       *gorm.DB
	jobQueue *queue.RedisQueue
}

// NewMaintenanceJobs creates the maintenance job set
func NewMaintenanceJobs(db *gorm.DB, jobQueue *queue.RedisQueue) *MaintenanceJobs {
	return &MaintenanceJobs{db: db, jobQueue: jobQueue}
}

// SweepExpiredChallenges deactivates challenges whose window has
// closed. Already started runs keep accepting progress; the sweep only
// stops new starts from showing the challenge as available.
func (m *MaintenanceJobs) SweepExpiredChallenges() {
	result := m.db.Model(&models.Challenge{}).
		Where("is_active = ? AND end_date IS NOT NULL AND end_date < ?", true, time.Now()).
		Update("is_active", false)
	if result.Error != nil {
		log.Printf("Error sweeping expired challenges: %v", result.Error)
		return
	}

	if result.RowsAffected > 0 {
		log.Printf("Deactivated %d expired challenges", result.RowsAffected)
	}
}

// ReportQueueDepth logs the activity queue backlog so a growing queue
// shows up in the logs before workers fall behind for good.
func (m *MaintenanceJobs) ReportQueueDepth() {
	if m.jobQueue == nil {
		return
	}

	depth, err := m.jobQueue.Depth(context.Background(), queue.JobTypeActivityEvent)
	if err != nil {
		log.Printf("Error reading queue depth: %v", err)
		return
	}

	if depth > 0 {
		log.Printf("Activity queue backlog: %d jobs", depth)
	}
}

// AuditWallets cross-checks wallet lifetime totals against the ledger
// and logs any drift. It never mutates balances.
func (m *MaintenanceJobs) AuditWallets() {
	type drift struct {
		WalletID       string
		UserID         string
		LifetimeEarned int64
		LedgerTotal    int64
	}

	var drifts []drift
	err := m.db.Raw(`
		SELECT w.id AS wallet_id, w.user_id, w.lifetime_earned,
		       COALESCE(SUM(CASE WHEN t.amount > 0 THEN t.amount ELSE 0 END), 0) AS ledger_total
		FROM wallets w
		LEFT JOIN point_transactions t
		  ON t.user_id = w.user_id AND t.artist_id IS NULL
		GROUP BY w.id, w.user_id, w.lifetime_earned
		HAVING w.lifetime_earned <> COALESCE(SUM(CASE WHEN t.amount > 0 THEN t.amount ELSE 0 END), 0)
	`).Scan(&drifts).Error
	if err != nil {
		log.Printf("Error auditing wallets: %v", err)
		return
	}

	for _, d := range drifts {
		log.Printf("Wallet audit drift: wallet=%s user=%s lifetime_earned=%d ledger_total=%d",
			d.WalletID, d.UserID, d.LifetimeEarned, d.LedgerTotal)
	}
}
