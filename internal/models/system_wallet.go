package models

import (
	"time"

	"gorm.io/gorm"
)

// SystemWallet is the treasury: the platform's own aggregate for fee
// revenue and payout tracking. One row, created on first use.
type SystemWallet struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	BalanceCents  int64     `gorm:"not null;default:0" json:"balance_cents"`
	TotalInCents  int64     `gorm:"not null;default:0" json:"total_in_cents"`
	TotalOutCents int64     `gorm:"not null;default:0" json:"total_out_cents"`
	Currency      string    `gorm:"size:3;default:'USD'" json:"currency"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (SystemWallet) TableName() string { return "system_wallet" }

type SystemWalletTransaction struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	SystemWalletID uint           `gorm:"not null;index" json:"system_wallet_id"`
	AmountCents    int64          `gorm:"not null" json:"amount_cents"`
	Direction      string         `gorm:"size:3;not null" json:"direction"`
	Type           string         `gorm:"size:40;not null;index" json:"type"`
	Status         string         `gorm:"size:20;not null;index" json:"status"`
	Reference      string         `gorm:"size:128;index" json:"reference"`
	Metadata       Metadata       `gorm:"type:json" json:"metadata"`
	CreatedAt      time.Time      `json:"created_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (SystemWalletTransaction) TableName() string { return "system_wallet_transactions" }
