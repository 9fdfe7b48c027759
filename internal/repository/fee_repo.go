package repository

import (
	"errors"

	"solifin/internal/models"

	"gorm.io/gorm"
)

type FeeRepository struct {
	db *gorm.DB
}

func NewFeeRepository(db *gorm.DB) *FeeRepository {
	return &FeeRepository{db: db}
}

func (r *FeeRepository) WithTx(tx *gorm.DB) *FeeRepository {
	return &FeeRepository{db: tx}
}

// GetActiveByMethod returns the active fee rule for a payment method, or
// nil when no rule applies.
func (r *FeeRepository) GetActiveByMethod(method string) (*models.TransactionFee, error) {
	var f models.TransactionFee
	err := r.db.Where("payment_method = ? AND active = ?", method, true).First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Upsert creates or replaces the rule for a payment method. Lookup is by
// method alone so a deactivated rule can be switched back on.
func (r *FeeRepository) Upsert(f *models.TransactionFee) error {
	var existing models.TransactionFee
	err := r.db.Where("payment_method = ?", f.PaymentMethod).First(&existing).Error
	if err == nil {
		f.ID = existing.ID
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return r.db.Save(f).Error
}
