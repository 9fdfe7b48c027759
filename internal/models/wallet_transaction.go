package models

import (
	"time"

	"gorm.io/gorm"
)

// WalletTransaction records one balance mutation. Amount is always
// positive; Direction says which way the money moved. Reference carries
// the linkage key (e.g. "withdrawal_request_42") so lifecycle-tracked
// rows can be found without JSON queries; Metadata keeps the rest of the
// context (fee breakdown, counterpart name, ...).
type WalletTransaction struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	WalletID    uint           `gorm:"not null;index" json:"wallet_id"`
	AmountCents int64          `gorm:"not null" json:"amount_cents"`
	Direction   string         `gorm:"size:3;not null" json:"direction"` // in, out
	Type        string         `gorm:"size:40;not null;index" json:"type"`
	Status      string         `gorm:"size:20;not null;index" json:"status"` // pending, completed, cancelled, rejected
	Reference   string         `gorm:"size:128;index" json:"reference"`
	Metadata    Metadata       `gorm:"type:json" json:"metadata"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Wallet Wallet `gorm:"foreignKey:WalletID" json:"-"`
}

func (WalletTransaction) TableName() string { return "wallet_transactions" }
