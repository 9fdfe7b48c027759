package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"solifin/internal/database"
	"solifin/internal/domain"
	"solifin/internal/models"
	"solifin/internal/repository"
	"solifin/internal/service"
	"solifin/pkg/payment"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var webhookDBSeq atomic.Int64

func newWebhookRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dsn := fmt.Sprintf("file:webhook_test_%d?mode=memory&cache=shared", webhookDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	users := repository.NewUserRepository(db)
	wallets := repository.NewWalletRepository(db)
	settings := repository.NewSettingRepository(db)
	svc := service.NewWithdrawalService(db,
		service.NewWalletService(db, wallets),
		service.NewFeeService(settings, repository.NewFeeRepository(db), 4),
		service.NewNotificationService(repository.NewNotificationRepository(db), users),
		repository.NewWithdrawalRepository(db), users,
		repository.NewSystemWalletRepository(db),
		repository.NewRateRepository(db), settings,
		&payment.StubProvider{}, 50)

	r := gin.New()
	r.POST("/webhooks/payout", NewPayoutWebhookHandler(svc).Handle)
	return r, db
}

func seedApprovedRequest(t *testing.T, db *gorm.DB, orderID string) *models.WithdrawalRequest {
	t.Helper()
	wr := &models.WithdrawalRequest{
		UserID:        1,
		AmountCents:   5200,
		Status:        domain.WithdrawalStatusApproved,
		PaymentMethod: "mpesa",
		OrderID:       orderID,
	}
	require.NoError(t, db.Create(wr).Error)
	return wr
}

func postCallback(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestPayoutWebhook_RecordsOutcome(t *testing.T) {
	r, db := newWebhookRouter(t)
	wr := seedApprovedRequest(t, db, "wd-order-1")

	rec := postCallback(r, `{"merchant_order_id":"wd-order-1","session_id":"sess_9","status":"COMPLETED"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"received":true`)

	var got models.WithdrawalRequest
	require.NoError(t, db.First(&got, wr.ID).Error)
	assert.Equal(t, domain.GatewayStatusCompleted, got.GatewayStatus)
	assert.Equal(t, "sess_9", got.ProviderRef)
}

func TestPayoutWebhook_OrderIDFallbackChain(t *testing.T) {
	r, db := newWebhookRouter(t)
	wr := seedApprovedRequest(t, db, "wd-order-2")

	// No merchant_order_id; the plain order_id still resolves the request.
	rec := postCallback(r, `{"order_id":"wd-order-2","status":"FAILED"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	var got models.WithdrawalRequest
	require.NoError(t, db.First(&got, wr.ID).Error)
	assert.Equal(t, domain.GatewayStatusFailed, got.GatewayStatus)
}

func TestPayoutWebhook_ReplayIgnored(t *testing.T) {
	r, db := newWebhookRouter(t)
	wr := seedApprovedRequest(t, db, "wd-order-3")

	rec := postCallback(r, `{"merchant_order_id":"wd-order-3","session_id":"sess_1","status":"COMPLETED"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = postCallback(r, `{"merchant_order_id":"wd-order-3","session_id":"sess_2","status":"FAILED"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	var got models.WithdrawalRequest
	require.NoError(t, db.First(&got, wr.ID).Error)
	assert.Equal(t, domain.GatewayStatusCompleted, got.GatewayStatus)
	assert.Equal(t, "sess_1", got.ProviderRef)
}

func TestPayoutWebhook_UnknownOrderAcknowledged(t *testing.T) {
	r, _ := newWebhookRouter(t)

	rec := postCallback(r, `{"merchant_order_id":"wd-nope","status":"COMPLETED"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"received":true`)
}

func TestPayoutWebhook_BadJSON(t *testing.T) {
	r, _ := newWebhookRouter(t)

	rec := postCallback(r, `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
