package repository

import (
	"errors"

	"solifin/internal/domain"
	"solifin/internal/models"

	"gorm.io/gorm"
)

type WalletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// WithTx rebinds the repository to a transaction handle so multi-step
// flows compose into one atomic unit.
func (r *WalletRepository) WithTx(tx *gorm.DB) *WalletRepository {
	return &WalletRepository{db: tx}
}

func (r *WalletRepository) GetByUserID(userID uint) (*models.Wallet, error) {
	var w models.Wallet
	err := r.db.Where("user_id = ?", userID).First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// GetOrCreate returns the user's wallet, creating it lazily on first need.
func (r *WalletRepository) GetOrCreate(userID uint, currency string) (*models.Wallet, error) {
	w, err := r.GetByUserID(userID)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	w = &models.Wallet{UserID: userID, Currency: currency}
	if err := r.db.Create(w).Error; err != nil {
		return nil, err
	}
	return w, nil
}

// GetOrCreateLocked is GetOrCreate with the row locked for the duration
// of the surrounding transaction.
func (r *WalletRepository) GetOrCreateLocked(userID uint, currency string) (*models.Wallet, error) {
	var w models.Wallet
	err := lockForUpdate(r.db).Where("user_id = ?", userID).First(&w).Error
	if err == nil {
		return &w, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	w = models.Wallet{UserID: userID, Currency: currency}
	if err := r.db.Create(&w).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WalletRepository) Save(w *models.Wallet) error {
	return r.db.Save(w).Error
}

func (r *WalletRepository) CreateTransaction(t *models.WalletTransaction) error {
	return r.db.Create(t).Error
}

// GetTransactionByReference finds the lifecycle-tracked row linked to a
// withdrawal request.
func (r *WalletRepository) GetTransactionByReference(walletID uint, reference string) (*models.WalletTransaction, error) {
	var t models.WalletTransaction
	err := r.db.Where("wallet_id = ? AND reference = ?", walletID, reference).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *WalletRepository) SaveTransaction(t *models.WalletTransaction) error {
	return r.db.Save(t).Error
}

func (r *WalletRepository) DeleteTransactionByReference(reference string) error {
	return r.db.Where("reference = ?", reference).Delete(&models.WalletTransaction{}).Error
}

func (r *WalletRepository) ListTransactions(walletID uint, limit, offset int) ([]models.WalletTransaction, error) {
	var list []models.WalletTransaction
	err := r.db.Where("wallet_id = ?", walletID).
		Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}
