package models

import (
	"time"

	"gorm.io/gorm"
)

// TransactionFee is the per-payment-method fee rule: a percentage with an
// optional cap. Read-only from the engine's perspective. Active carries
// no column default so a deactivated rule round-trips as false.
type TransactionFee struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	PaymentMethod string         `gorm:"size:40;uniqueIndex;not null" json:"payment_method"`
	Active        bool           `gorm:"index" json:"active"`
	FeePercentage float64        `gorm:"not null;default:0" json:"fee_percentage"`
	FeeCapCents   int64          `gorm:"not null;default:0" json:"fee_cap_cents"` // 0 = no cap
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (TransactionFee) TableName() string { return "transaction_fees" }
