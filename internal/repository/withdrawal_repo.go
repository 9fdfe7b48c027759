package repository

import (
	"errors"
	"time"

	"solifin/internal/domain"
	"solifin/internal/models"

	"gorm.io/gorm"
)

type WithdrawalRepository struct {
	db *gorm.DB
}

func NewWithdrawalRepository(db *gorm.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

func (r *WithdrawalRepository) WithTx(tx *gorm.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: tx}
}

func (r *WithdrawalRepository) Create(w *models.WithdrawalRequest) error {
	return r.db.Create(w).Error
}

func (r *WithdrawalRepository) GetByID(id uint) (*models.WithdrawalRequest, error) {
	var w models.WithdrawalRequest
	err := r.db.First(&w, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// LockByID loads a request with its row locked; the state machine gates
// every transition on the status read under this lock.
func (r *WithdrawalRepository) LockByID(id uint) (*models.WithdrawalRequest, error) {
	var w models.WithdrawalRequest
	err := lockForUpdate(r.db).First(&w, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WithdrawalRepository) GetByOrderID(orderID string) (*models.WithdrawalRequest, error) {
	var w models.WithdrawalRequest
	err := r.db.Where("order_id = ?", orderID).First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WithdrawalRepository) Update(w *models.WithdrawalRequest) error {
	return r.db.Save(w).Error
}

func (r *WithdrawalRepository) Delete(w *models.WithdrawalRequest) error {
	return r.db.Delete(w).Error
}

// WithdrawalFilter narrows List; zero values mean "any".
type WithdrawalFilter struct {
	UserID        uint
	Status        string
	PaymentMethod string
	From          *time.Time
	To            *time.Time
	Limit         int
	Offset        int
}

func (r *WithdrawalRepository) List(f WithdrawalFilter) ([]models.WithdrawalRequest, int64, error) {
	q := r.db.Model(&models.WithdrawalRequest{})
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.PaymentMethod != "" {
		q = q.Where("payment_method = ?", f.PaymentMethod)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", *f.To)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	var list []models.WithdrawalRequest
	err := q.Order("created_at DESC").Limit(limit).Offset(f.Offset).Find(&list).Error
	return list, total, err
}

type StatusAggregate struct {
	Status     string `json:"status"`
	Count      int64  `json:"count"`
	TotalCents int64  `json:"total_cents"`
}

type MethodAggregate struct {
	PaymentMethod string `json:"payment_method"`
	Count         int64  `json:"count"`
	TotalCents    int64  `json:"total_cents"`
}

type MonthAggregate struct {
	Month      string `json:"month"`
	Count      int64  `json:"count"`
	TotalCents int64  `json:"total_cents"`
}

type WithdrawalStats struct {
	ByStatus []StatusAggregate `json:"by_status"`
	ByMethod []MethodAggregate `json:"by_method"`
	ByMonth  []MonthAggregate  `json:"by_month"`
}

func (r *WithdrawalRepository) Stats() (*WithdrawalStats, error) {
	stats := &WithdrawalStats{}
	err := r.db.Model(&models.WithdrawalRequest{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(amount_cents), 0) AS total_cents").
		Group("status").Scan(&stats.ByStatus).Error
	if err != nil {
		return nil, err
	}
	err = r.db.Model(&models.WithdrawalRequest{}).
		Select("payment_method, COUNT(*) AS count, COALESCE(SUM(amount_cents), 0) AS total_cents").
		Group("payment_method").Scan(&stats.ByMethod).Error
	if err != nil {
		return nil, err
	}
	monthExpr := "DATE_FORMAT(created_at, '%Y-%m')"
	if r.db.Dialector.Name() == "sqlite" {
		monthExpr = "strftime('%Y-%m', created_at)"
	}
	err = r.db.Model(&models.WithdrawalRequest{}).
		Select(monthExpr + " AS month, COUNT(*) AS count, COALESCE(SUM(amount_cents), 0) AS total_cents").
		Group(monthExpr).Order("month DESC").Scan(&stats.ByMonth).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}
