package service

import (
	"fmt"
	"sync/atomic"
	"testing"

	"solifin/internal/database"
	"solifin/internal/domain"
	"solifin/internal/models"
	"solifin/internal/repository"
	"solifin/pkg/payment"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testPassword = "secret123"

var dbSeq atomic.Int64

// newTestDB opens a uniquely named shared in-memory sqlite database so
// the real GORM transaction paths run without a MySQL server.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_test_%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	return db
}

type testEnv struct {
	db       *gorm.DB
	users    *repository.UserRepository
	wallets  *repository.WalletRepository
	treasury *repository.SystemWalletRepository
	settings *repository.SettingRepository
	fees     *repository.FeeRepository
	rates    *repository.RateRepository
	wallet   *WalletService
	feeSvc   *FeeService
	stub     *payment.StubProvider
	svc      *WithdrawalService
}

// newTestEnv wires the engine over a fresh database with a 4% global fee
// and a 50% sponsor share of the system fee.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	e := &testEnv{
		db:       db,
		users:    repository.NewUserRepository(db),
		wallets:  repository.NewWalletRepository(db),
		treasury: repository.NewSystemWalletRepository(db),
		settings: repository.NewSettingRepository(db),
		fees:     repository.NewFeeRepository(db),
		rates:    repository.NewRateRepository(db),
		stub:     &payment.StubProvider{},
	}
	require.NoError(t, e.settings.Set(domain.SettingWithdrawalFeePct, "4"))
	require.NoError(t, e.settings.Set(domain.SettingSponsorSharePct, "50"))
	e.wallet = NewWalletService(db, e.wallets)
	e.feeSvc = NewFeeService(e.settings, e.fees, 4.0)
	notifier := NewNotificationService(repository.NewNotificationRepository(db), e.users)
	e.svc = NewWithdrawalService(db, e.wallet, e.feeSvc, notifier,
		repository.NewWithdrawalRepository(db), e.users, e.treasury, e.rates,
		e.settings, e.stub, 50.0)
	return e
}

func (e *testEnv) createUser(t *testing.T, name, role string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	u := &models.User{
		Name:         name,
		Email:        fmt.Sprintf("%s_%d@example.com", name, dbSeq.Add(1)),
		PasswordHash: string(hash),
		Role:         role,
	}
	require.NoError(t, e.users.Create(u))
	return u
}

func (e *testEnv) fund(t *testing.T, userID uint, cents int64) {
	t.Helper()
	err := e.db.Transaction(func(tx *gorm.DB) error {
		_, err := e.wallet.AddFunds(tx, userID, cents, domain.TxTypeReception,
			domain.TxStatusCompleted, "", nil)
		return err
	})
	require.NoError(t, err)
}

func (e *testEnv) createPack(t *testing.T, name string) *models.Pack {
	t.Helper()
	p := &models.Pack{Name: name, PriceCents: 2500}
	require.NoError(t, e.db.Create(p).Error)
	return p
}

func (e *testEnv) subscribe(t *testing.T, userID, packID uint, sponsorID *uint, status string) *models.UserPack {
	t.Helper()
	up := &models.UserPack{
		UserID:        userID,
		PackID:        packID,
		SponsorID:     sponsorID,
		Status:        status,
		PaymentStatus: domain.PaymentStatusCompleted,
	}
	require.NoError(t, e.users.CreateUserPack(up))
	return up
}

func (e *testEnv) submit(t *testing.T, userID uint, payoutCents int64) *models.WithdrawalRequest {
	t.Helper()
	wr, err := e.svc.Submit(userID, SubmitInput{
		PayoutAmountCents: payoutCents,
		Currency:          "USD",
		PaymentMethod:     "mpesa",
		PhoneNumber:       "243810000001",
		Carrier:           "mpesa",
		Password:          testPassword,
	})
	require.NoError(t, err)
	return wr
}

func (e *testEnv) walletOf(t *testing.T, userID uint) *models.Wallet {
	t.Helper()
	w, err := e.wallets.GetByUserID(userID)
	require.NoError(t, err)
	return w
}

// ledgerDelta sums all credits minus all debits for a wallet. The
// balance moves exactly once per ledger row, so this must equal the
// stored balance at any point.
func (e *testEnv) ledgerDelta(t *testing.T, walletID uint) int64 {
	t.Helper()
	var txs []models.WalletTransaction
	require.NoError(t, e.db.Where("wallet_id = ?", walletID).Find(&txs).Error)
	var sum int64
	for _, tx := range txs {
		if tx.Direction == domain.DirectionIn {
			sum += tx.AmountCents
		} else {
			sum -= tx.AmountCents
		}
	}
	return sum
}
