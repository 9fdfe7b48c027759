package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Name         string         `gorm:"size:100;not null" json:"name"`
	Email        string         `gorm:"uniqueIndex;size:120;not null" json:"email"`
	PasswordHash string         `gorm:"size:255;not null" json:"-"`
	Phone        string         `gorm:"size:20" json:"phone"`
	Role         string         `gorm:"size:20;not null;default:'USER';index" json:"role"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }

// Pack is a paid subscription tier. Holding an active pack grants
// publishing privileges and referral-commission eligibility.
type Pack struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	Name       string         `gorm:"size:100;not null" json:"name"`
	PriceCents int64          `gorm:"not null;default:0" json:"price_cents"`
	Active     bool           `gorm:"default:true" json:"active"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Pack) TableName() string { return "packs" }

// UserPack is a user's subscription to a pack. SponsorID is a weak
// back-reference to the referring user; commission eligibility is
// re-evaluated against it at approval time, never cached.
type UserPack struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	UserID        uint           `gorm:"not null;index" json:"user_id"`
	PackID        uint           `gorm:"not null;index" json:"pack_id"`
	SponsorID     *uint          `gorm:"index" json:"sponsor_id"`
	Status        string         `gorm:"size:20;not null;default:'active';index" json:"status"` // active, expired
	PaymentStatus string         `gorm:"size:20;not null;default:'completed'" json:"payment_status"`
	ExpiresAt     *time.Time     `json:"expires_at"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	User    User  `gorm:"foreignKey:UserID" json:"-"`
	Pack    Pack  `gorm:"foreignKey:PackID" json:"-"`
	Sponsor *User `gorm:"foreignKey:SponsorID" json:"-"`
}

func (UserPack) TableName() string { return "user_packs" }
