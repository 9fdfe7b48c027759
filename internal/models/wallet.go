package models

import (
	"time"

	"gorm.io/gorm"
)

// Wallet holds a user's spendable balance plus running totals. Created
// lazily on first need; the balance never goes negative and only changes
// together with a WalletTransaction row.
type Wallet struct {
	ID                  uint           `gorm:"primaryKey" json:"id"`
	UserID              uint           `gorm:"uniqueIndex;not null" json:"user_id"`
	BalanceCents        int64          `gorm:"not null;default:0" json:"balance_cents"`
	TotalEarnedCents    int64          `gorm:"not null;default:0" json:"total_earned_cents"`
	TotalWithdrawnCents int64          `gorm:"not null;default:0" json:"total_withdrawn_cents"`
	Currency            string         `gorm:"size:3;default:'USD'" json:"currency"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Wallet) TableName() string { return "wallets" }
