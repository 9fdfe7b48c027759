package models

import "time"

// ExchangeRate is an externally supplied rate snapshot; the most recent
// row for a currency pair wins.
type ExchangeRate struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	FromCurrency string    `gorm:"size:3;not null;index:idx_rates_pair" json:"from_currency"`
	ToCurrency   string    `gorm:"size:3;not null;index:idx_rates_pair" json:"to_currency"`
	Rate         float64   `gorm:"not null" json:"rate"`
	CreatedAt    time.Time `json:"created_at"`
}

func (ExchangeRate) TableName() string { return "exchange_rates" }
