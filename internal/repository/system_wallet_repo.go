package repository

import (
	"errors"

	"solifin/internal/domain"
	"solifin/internal/models"

	"gorm.io/gorm"
)

// SystemWalletRepository manages the treasury: a single Wallet-like
// aggregate fetched-or-created under the caller's transaction and guarded
// by the same locking discipline as user wallets.
type SystemWalletRepository struct {
	db *gorm.DB
}

func NewSystemWalletRepository(db *gorm.DB) *SystemWalletRepository {
	return &SystemWalletRepository{db: db}
}

func (r *SystemWalletRepository) WithTx(tx *gorm.DB) *SystemWalletRepository {
	return &SystemWalletRepository{db: tx}
}

// GetOrCreateLocked fetches the singleton with its row locked, creating
// it on first use.
func (r *SystemWalletRepository) GetOrCreateLocked(currency string) (*models.SystemWallet, error) {
	var w models.SystemWallet
	err := lockForUpdate(r.db).First(&w).Error
	if err == nil {
		return &w, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	w = models.SystemWallet{Currency: currency}
	if err := r.db.Create(&w).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *SystemWalletRepository) Get() (*models.SystemWallet, error) {
	var w models.SystemWallet
	err := r.db.First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// Credit records inbound treasury money (fee revenue, withdrawal capture)
// as one mirrored transaction plus the balance/total update.
func (r *SystemWalletRepository) Credit(amountCents int64, txType, status, reference string, meta models.Metadata) (*models.SystemWalletTransaction, error) {
	return r.record(amountCents, domain.DirectionIn, txType, status, reference, meta)
}

// Debit records outbound treasury money (sponsor commissions).
func (r *SystemWalletRepository) Debit(amountCents int64, txType, status, reference string, meta models.Metadata) (*models.SystemWalletTransaction, error) {
	return r.record(amountCents, domain.DirectionOut, txType, status, reference, meta)
}

func (r *SystemWalletRepository) record(amountCents int64, direction, txType, status, reference string, meta models.Metadata) (*models.SystemWalletTransaction, error) {
	if amountCents <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	w, err := r.GetOrCreateLocked("USD")
	if err != nil {
		return nil, err
	}
	if direction == domain.DirectionIn {
		w.BalanceCents += amountCents
		w.TotalInCents += amountCents
	} else {
		w.BalanceCents -= amountCents
		w.TotalOutCents += amountCents
	}
	if err := r.db.Save(w).Error; err != nil {
		return nil, err
	}
	t := &models.SystemWalletTransaction{
		SystemWalletID: w.ID,
		AmountCents:    amountCents,
		Direction:      direction,
		Type:           txType,
		Status:         status,
		Reference:      reference,
		Metadata:       meta,
	}
	if err := r.db.Create(t).Error; err != nil {
		return nil, err
	}
	return t, nil
}

func (r *SystemWalletRepository) ListTransactions(limit, offset int) ([]models.SystemWalletTransaction, error) {
	var list []models.SystemWalletTransaction
	err := r.db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}
