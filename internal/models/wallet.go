package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Wallet is a user's spendable points balance. It is artist-independent
// and kept deliberately separate from per-artist fan tier points: the fan
// ledger drives tiers and milestones, the wallet is what purchases spend.
// Balance never goes below zero; deductions fail closed.
type Wallet struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID         uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	Balance        int64     `gorm:"not null;default:0" json:"balance"`
	LifetimeEarned int64     `gorm:"not null;default:0" json:"lifetime_earned"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// BeforeCreate assigns an ID when one was not provided
func (w *Wallet) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}
