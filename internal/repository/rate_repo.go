package repository

import (
	"errors"

	"solifin/internal/domain"
	"solifin/internal/models"

	"gorm.io/gorm"
)

type RateRepository struct {
	db *gorm.DB
}

func NewRateRepository(db *gorm.DB) *RateRepository {
	return &RateRepository{db: db}
}

func (r *RateRepository) WithTx(tx *gorm.DB) *RateRepository {
	return &RateRepository{db: tx}
}

// Latest returns the most recent stored rate for the pair.
func (r *RateRepository) Latest(from, to string) (*models.ExchangeRate, error) {
	var rate models.ExchangeRate
	err := r.db.Where("from_currency = ? AND to_currency = ?", from, to).
		Order("created_at DESC").First(&rate).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrMissingExchangeRate
	}
	if err != nil {
		return nil, err
	}
	return &rate, nil
}

func (r *RateRepository) Create(rate *models.ExchangeRate) error {
	return r.db.Create(rate).Error
}
