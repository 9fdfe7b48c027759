package repository

import (
	"errors"

	"solifin/internal/domain"
	"solifin/internal/models"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) WithTx(tx *gorm.DB) *UserRepository {
	return &UserRepository{db: tx}
}

func (r *UserRepository) GetByID(id uint) (*models.User, error) {
	var u models.User
	err := r.db.First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	var u models.User
	err := r.db.Where("email = ?", email).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) Create(u *models.User) error {
	return r.db.Create(u).Error
}

func (r *UserRepository) ListAdmins() ([]models.User, error) {
	var list []models.User
	err := r.db.Where("role = ?", domain.RoleAdmin).Find(&list).Error
	return list, err
}

// ActivePack returns the user's current active, paid subscription, or
// nil when none exists.
func (r *UserRepository) ActivePack(userID uint) (*models.UserPack, error) {
	var up models.UserPack
	err := r.db.Where("user_id = ? AND status = ? AND payment_status = ?",
		userID, domain.PackStatusActive, domain.PaymentStatusCompleted).
		Order("created_at DESC").First(&up).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &up, nil
}

// HasActivePack reports whether the user holds an active, paid
// subscription to the given pack. Evaluated fresh on every call.
func (r *UserRepository) HasActivePack(userID, packID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.UserPack{}).
		Where("user_id = ? AND pack_id = ? AND status = ? AND payment_status = ?",
			userID, packID, domain.PackStatusActive, domain.PaymentStatusCompleted).
		Count(&count).Error
	return count > 0, err
}

func (r *UserRepository) CreateUserPack(up *models.UserPack) error {
	return r.db.Create(up).Error
}
