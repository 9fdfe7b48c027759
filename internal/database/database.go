package database

import (
	"fmt"
	"log"
	"strconv"

	"solifin/config"
	"solifin/internal/domain"
	"solifin/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// AutoMigrate runs Gorm auto-migration for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Pack{},
		&models.UserPack{},
		&models.Wallet{},
		&models.WalletTransaction{},
		&models.WithdrawalRequest{},
		&models.SystemWallet{},
		&models.SystemWalletTransaction{},
		&models.TransactionFee{},
		&models.ExchangeRate{},
		&models.SystemSetting{},
		&models.Notification{},
	)
}

// SeedDefaults inserts the engine's default settings and a bootstrap
// admin when ADMIN_SEED_PASSWORD is set and no admin exists yet.
func SeedDefaults(db *gorm.DB, cfg *config.WithdrawalConfig) error {
	defaults := map[string]string{
		domain.SettingWithdrawalFeePct: strconv.FormatFloat(cfg.FeePercentage, 'f', -1, 64),
		domain.SettingSponsorSharePct:  strconv.FormatFloat(cfg.SponsorSharePct, 'f', -1, 64),
	}
	for k, v := range defaults {
		var count int64
		db.Model(&models.SystemSetting{}).Where("`key` = ?", k).Count(&count)
		if count == 0 {
			if err := db.Create(&models.SystemSetting{Key: k, Value: v}).Error; err != nil {
				return err
			}
		}
	}

	if cfg.AdminSeedPass == "" {
		return nil
	}
	var count int64
	db.Model(&models.User{}).Where("role = ?", domain.RoleAdmin).Count(&count)
	if count > 0 {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminSeedPass), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	admin := &models.User{
		Name:         "Administrator",
		Email:        cfg.AdminSeedEmail,
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
	}
	if err := db.Create(admin).Error; err != nil {
		return err
	}
	log.Printf("[Seed] created bootstrap admin %s", admin.Email)
	return nil
}
