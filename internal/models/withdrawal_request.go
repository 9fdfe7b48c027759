package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

// PaymentDetails is the structured breakdown recorded on a withdrawal
// request at submission and recomputed authoritatively at approval.
type PaymentDetails struct {
	PayoutAmountCents      int64   `json:"payout_amount_cents"`
	Currency               string  `json:"currency"`
	FeePercentage          float64 `json:"fee_percentage"`
	WithdrawalFeeCents     int64   `json:"withdrawal_fee_cents"`
	SponsorCommissionCents int64   `json:"sponsor_commission_cents"`
	TotalAmountCents       int64   `json:"total_amount_cents"`
	PhoneNumber            string  `json:"phone_number"`
	Carrier                string  `json:"carrier"`
}

func (d PaymentDetails) Value() (driver.Value, error) {
	return json.Marshal(d)
}

func (d *PaymentDetails) Scan(src interface{}) error {
	if src == nil {
		*d = PaymentDetails{}
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	}
	return errors.New("payment details: unsupported scan type")
}

func (PaymentDetails) GormDataType() string { return "json" }

// WithdrawalRequest is a user's intent to move funds out, tracked through
// the pending -> approved|rejected|cancelled state machine. AmountCents is
// the total debited from the wallet, fees included.
type WithdrawalRequest struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	UserID         uint           `gorm:"not null;index" json:"user_id"`
	AmountCents    int64          `gorm:"not null" json:"amount_cents"`
	Status         string         `gorm:"size:20;not null;index" json:"status"`
	PaymentMethod  string         `gorm:"size:40;not null;index" json:"payment_method"`
	PaymentDetails PaymentDetails `gorm:"type:json" json:"payment_details"`
	AdminNote      string         `gorm:"size:500" json:"admin_note"`
	ProcessedBy    *uint          `json:"processed_by"`
	ProcessedAt    *time.Time     `json:"processed_at"`
	PaidAt         *time.Time     `json:"paid_at"`
	RefundAt       *time.Time     `json:"refund_at"`
	OrderID        string         `gorm:"size:64;uniqueIndex;not null" json:"order_id"`
	ProviderRef    string         `gorm:"size:128" json:"provider_ref"`
	GatewayStatus  string         `gorm:"size:20" json:"gateway_status"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (WithdrawalRequest) TableName() string { return "withdrawal_requests" }
