package router

import (
	"solifin/config"
	"solifin/internal/domain"
	"solifin/internal/handler"
	"solifin/internal/middleware"
	"solifin/internal/repository"
	"solifin/internal/service"
	"solifin/pkg/payment"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB, provider payment.Provider) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	// Repositories
	userRepo := repository.NewUserRepository(db)
	walletRepo := repository.NewWalletRepository(db)
	withdrawalRepo := repository.NewWithdrawalRepository(db)
	treasuryRepo := repository.NewSystemWalletRepository(db)
	feeRepo := repository.NewFeeRepository(db)
	rateRepo := repository.NewRateRepository(db)
	settingRepo := repository.NewSettingRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Services
	walletSvc := service.NewWalletService(db, walletRepo)
	feeSvc := service.NewFeeService(settingRepo, feeRepo, cfg.Withdrawal.FeePercentage)
	notifSvc := service.NewNotificationService(notificationRepo, userRepo)
	withdrawalSvc := service.NewWithdrawalService(db, walletSvc, feeSvc, notifSvc,
		withdrawalRepo, userRepo, treasuryRepo, rateRepo, settingRepo,
		provider, cfg.Withdrawal.SponsorSharePct)

	// Handlers
	walletHandler := handler.NewWalletHandler(walletSvc)
	withdrawalHandler := handler.NewWithdrawalHandler(withdrawalSvc)
	adminHandler := handler.NewAdminWithdrawalHandler(withdrawalSvc, treasuryRepo)
	webhookHandler := handler.NewPayoutWebhookHandler(withdrawalSvc)
	notificationHandler := handler.NewNotificationHandler(notificationRepo)

	authMw := middleware.AuthRequired(&cfg.JWT)
	adminMw := middleware.RequireRole(domain.RoleAdmin)

	api := r.Group("/api/v1")
	{
		wallet := api.Group("/wallet", authMw)
		{
			wallet.GET("", walletHandler.GetBalance)
			wallet.GET("/transactions", walletHandler.ListTransactions)
		}

		withdrawals := api.Group("/withdrawals", authMw)
		{
			withdrawals.POST("", withdrawalHandler.Create)
			withdrawals.GET("", withdrawalHandler.ListMine)
			withdrawals.POST("/:id/cancel", withdrawalHandler.Cancel)
		}

		notifications := api.Group("/notifications", authMw)
		{
			notifications.GET("", notificationHandler.List)
			notifications.POST("/:id/read", notificationHandler.MarkRead)
		}

		admin := api.Group("/admin", authMw, adminMw)
		{
			admin.GET("/withdrawals", adminHandler.List)
			admin.GET("/withdrawals/stats", adminHandler.Stats)
			admin.POST("/withdrawals/:id/approve", adminHandler.Approve)
			admin.POST("/withdrawals/:id/reject", adminHandler.Reject)
			admin.POST("/withdrawals/:id/retry-payout", adminHandler.RetryPayout)
			admin.DELETE("/withdrawals/:id", adminHandler.Delete)
			admin.GET("/treasury", adminHandler.Treasury)
		}

		api.POST("/webhooks/payout", webhookHandler.Handle)
	}
	return r
}
