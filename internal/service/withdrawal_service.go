package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"solifin/internal/domain"
	"solifin/internal/models"
	"solifin/internal/repository"
	"solifin/pkg/money"
	"solifin/pkg/payment"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// WithdrawalService drives the withdrawal request state machine:
// pending -> approved | rejected | cancelled, all terminal. Each
// transition runs inside one database transaction; the request row and
// every wallet it touches are locked for the duration, so concurrent
// transitions of the same request resolve to exactly one winner.
type WithdrawalService struct {
	db          *gorm.DB
	wallet      *WalletService
	fees        *FeeService
	notifier    *NotificationService
	withdrawals *repository.WithdrawalRepository
	users       *repository.UserRepository
	treasury    *repository.SystemWalletRepository
	rates       *repository.RateRepository
	settings    *repository.SettingRepository
	provider    payment.Provider
	sponsorPct  float64 // default sponsor share of the system fee
}

func NewWithdrawalService(
	db *gorm.DB,
	wallet *WalletService,
	fees *FeeService,
	notifier *NotificationService,
	withdrawals *repository.WithdrawalRepository,
	users *repository.UserRepository,
	treasury *repository.SystemWalletRepository,
	rates *repository.RateRepository,
	settings *repository.SettingRepository,
	provider payment.Provider,
	sponsorPct float64,
) *WithdrawalService {
	return &WithdrawalService{
		db:          db,
		wallet:      wallet,
		fees:        fees,
		notifier:    notifier,
		withdrawals: withdrawals,
		users:       users,
		treasury:    treasury,
		rates:       rates,
		settings:    settings,
		provider:    provider,
		sponsorPct:  sponsorPct,
	}
}

type SubmitInput struct {
	PayoutAmountCents int64
	Currency          string
	PaymentMethod     string
	PhoneNumber       string
	Carrier           string
	Password          string
}

// Submit creates a pending request and freezes the total (payout + fee)
// from the user's wallet. The caller re-authenticates with their password
// so a hijacked session cannot move money. Everything runs in one
// transaction: if any step fails, no funds are frozen.
func (s *WithdrawalService) Submit(userID uint, in SubmitInput) (*models.WithdrawalRequest, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if in.PayoutAmountCents <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	var req *models.WithdrawalRequest
	err = s.db.Transaction(func(tx *gorm.DB) error {
		breakdown, err := s.fees.Calculate(tx, in.PayoutAmountCents, in.PaymentMethod)
		if err != nil {
			return err
		}
		total := in.PayoutAmountCents + breakdown.GlobalCents
		share := s.settings.WithTx(tx).GetFloat(domain.SettingSponsorSharePct, s.sponsorPct)
		req = &models.WithdrawalRequest{
			UserID:        userID,
			AmountCents:   total,
			Status:        domain.WithdrawalStatusPending,
			PaymentMethod: in.PaymentMethod,
			OrderID:       fmt.Sprintf("wd-%s", uuid.New().String()),
			PaymentDetails: models.PaymentDetails{
				PayoutAmountCents:      in.PayoutAmountCents,
				Currency:               in.Currency,
				FeePercentage:          breakdown.Percentage,
				WithdrawalFeeCents:     breakdown.GlobalCents,
				SponsorCommissionCents: money.Percent(breakdown.SystemCents, share), // estimate; recomputed at approval
				TotalAmountCents:       total,
				PhoneNumber:            in.PhoneNumber,
				Carrier:                in.Carrier,
			},
		}
		if err := s.withdrawals.WithTx(tx).Create(req); err != nil {
			return err
		}
		meta := models.Metadata{
			domain.MetaWithdrawalRequestID: req.ID,
			"payment_method":               in.PaymentMethod,
			"withdrawal_fee_cents":         breakdown.GlobalCents,
			"payout_amount_cents":          in.PayoutAmountCents,
		}
		if _, err := s.wallet.WithdrawFunds(tx, userID, total, domain.TxTypeWithdrawal,
			domain.TxStatusPending, WithdrawalReference(req.ID), meta); err != nil {
			return err
		}
		return s.notifier.NotifyAdmins(tx, domain.NotifWithdrawalRequested,
			"Withdrawal requested",
			fmt.Sprintf("%s requested a withdrawal of %s", user.Name, money.Format(total, "USD")))
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// Approve settles a pending request: fees are recomputed from current
// configuration, the sponsor commission is resolved and paid from system
// margin, the treasury records the settlement, and the frozen transaction
// completes. The gateway payout is initiated only after the ledger commits;
// a gateway failure never unwinds committed ledger state.
func (s *WithdrawalService) Approve(ctx context.Context, adminID, requestID uint, note string) (*models.WithdrawalRequest, error) {
	var req *models.WithdrawalRequest
	err := s.db.Transaction(func(tx *gorm.DB) error {
		wr, err := s.withdrawals.WithTx(tx).LockByID(requestID)
		if err != nil {
			return err
		}
		if wr.Status != domain.WithdrawalStatusPending {
			return fmt.Errorf("%w: request %d is %s", domain.ErrInvalidStateTransition, wr.ID, wr.Status)
		}
		requester, err := s.users.WithTx(tx).GetByID(wr.UserID)
		if err != nil {
			return err
		}
		breakdown, err := s.fees.Calculate(tx, wr.PaymentDetails.PayoutAmountCents, wr.PaymentMethod)
		if err != nil {
			return err
		}

		commission, sponsorID, err := s.resolveCommission(tx, wr.UserID, breakdown.SystemCents)
		if err != nil {
			return err
		}

		rate := 1.0
		if wr.PaymentDetails.Currency != "" && wr.PaymentDetails.Currency != "USD" {
			stored, err := s.rates.WithTx(tx).Latest("USD", wr.PaymentDetails.Currency)
			if err != nil {
				return err
			}
			rate = stored.Rate
		}

		ref := WithdrawalReference(wr.ID)
		treasury := s.treasury.WithTx(tx)
		if commission > 0 {
			sponsor, err := s.users.WithTx(tx).GetByID(*sponsorID)
			if err != nil {
				return err
			}
			meta := models.Metadata{
				domain.MetaWithdrawalRequestID: wr.ID,
				"from":                         requester.Name,
			}
			if _, err := s.wallet.AddFunds(tx, sponsor.ID, commission, domain.TxTypeCommission,
				domain.TxStatusCompleted, ref, meta); err != nil {
				return err
			}
			if _, err := treasury.Debit(commission, domain.TxTypeCommission, domain.TxStatusCompleted, ref,
				models.Metadata{
					domain.MetaWithdrawalRequestID: wr.ID,
					domain.MetaSponsorID:           sponsor.ID,
					"sponsor_name":                 sponsor.Name,
				}); err != nil {
				return err
			}
		}
		if _, err := treasury.Credit(wr.AmountCents-commission, domain.TxTypeWithdrawal,
			domain.TxStatusCompleted, ref, models.Metadata{
				domain.MetaWithdrawalRequestID: wr.ID,
				domain.MetaExchangeRate:        rate,
				"requester":                    requester.Name,
				"currency":                     wr.PaymentDetails.Currency,
				"payout_amount_cents":          wr.PaymentDetails.PayoutAmountCents,
				"global_fee_cents":             breakdown.GlobalCents,
				"specific_fee_cents":           breakdown.SpecificCents,
				"system_fee_cents":             breakdown.SystemCents,
				"commission_cents":             commission,
			}); err != nil {
			return err
		}

		now := time.Now()
		wr.Status = domain.WithdrawalStatusApproved
		wr.AdminNote = note
		wr.ProcessedBy = &adminID
		wr.ProcessedAt = &now
		wr.PaidAt = &now
		wr.PaymentDetails.FeePercentage = breakdown.Percentage
		wr.PaymentDetails.WithdrawalFeeCents = breakdown.GlobalCents
		wr.PaymentDetails.SponsorCommissionCents = commission
		if err := s.withdrawals.WithTx(tx).Update(wr); err != nil {
			return err
		}
		if _, err := s.wallet.SettleFrozen(tx, wr.UserID, ref, domain.TxStatusCompleted); err != nil {
			return err
		}
		if err := s.notifier.Notify(tx, wr.UserID, domain.NotifWithdrawalApproved,
			"Withdrawal approved",
			fmt.Sprintf("Your withdrawal of %s has been approved", money.Format(wr.AmountCents, "USD"))); err != nil {
			return err
		}
		req = wr
		return nil
	})
	if err != nil {
		return nil, err
	}
	return req, s.initiatePayout(ctx, req)
}

// resolveCommission evaluates sponsor eligibility at approval time: the
// requester's active pack must name a sponsor who themselves hold an
// active subscription to the same pack right now. Never cached.
func (s *WithdrawalService) resolveCommission(tx *gorm.DB, userID uint, systemFeeCents int64) (int64, *uint, error) {
	up, err := s.users.WithTx(tx).ActivePack(userID)
	if err != nil {
		return 0, nil, err
	}
	if up == nil || up.SponsorID == nil {
		return 0, nil, nil
	}
	active, err := s.users.WithTx(tx).HasActivePack(*up.SponsorID, up.PackID)
	if err != nil {
		return 0, nil, err
	}
	if !active {
		return 0, nil, nil
	}
	share := s.settings.WithTx(tx).GetFloat(domain.SettingSponsorSharePct, s.sponsorPct)
	return money.Percent(systemFeeCents, share), up.SponsorID, nil
}

// initiatePayout runs after the approval transaction committed. Gateway
// errors surface as ErrExternalServiceFailure and are retryable; the
// ledger stays as committed.
func (s *WithdrawalService) initiatePayout(ctx context.Context, wr *models.WithdrawalRequest) error {
	if s.provider == nil || wr.PaymentDetails.PhoneNumber == "" {
		return nil
	}
	payoutCents := wr.PaymentDetails.PayoutAmountCents
	currency := wr.PaymentDetails.Currency
	if currency == "" {
		currency = "USD"
	}
	resp, err := s.provider.InitiatePayout(ctx, payment.PayoutRequest{
		WalletID:    wr.UserID,
		PhoneNumber: wr.PaymentDetails.PhoneNumber,
		AmountCents: payoutCents,
		Currency:    currency,
		Carrier:     wr.PaymentDetails.Carrier,
		Reference:   wr.OrderID,
	})
	if err != nil {
		log.Printf("[Withdrawal] payout init failed for request %d: %v", wr.ID, err)
		return fmt.Errorf("%w: %v", domain.ErrExternalServiceFailure, err)
	}
	wr.ProviderRef = resp.SessionID
	wr.GatewayStatus = resp.Status
	if err := s.withdrawals.Update(wr); err != nil {
		return err
	}
	return nil
}

// Reject refunds the frozen amount and terminates the request. Admin only.
func (s *WithdrawalService) Reject(adminID, requestID uint, note string) (*models.WithdrawalRequest, error) {
	return s.terminate(requestID, domain.WithdrawalStatusRejected, domain.TxStatusRejected, &adminID, note,
		domain.NotifWithdrawalRejected, "Withdrawal rejected")
}

// Cancel is the requester's self-service counterpart to Reject: same
// refund mechanics, restricted to the owning user.
func (s *WithdrawalService) Cancel(userID, requestID uint) (*models.WithdrawalRequest, error) {
	wr, err := s.withdrawals.GetByID(requestID)
	if err != nil {
		return nil, err
	}
	if wr.UserID != userID {
		return nil, fmt.Errorf("%w: request %d belongs to another user", domain.ErrForbidden, requestID)
	}
	return s.terminate(requestID, domain.WithdrawalStatusCancelled, domain.TxStatusCancelled, nil, "",
		domain.NotifWithdrawalCancelled, "Withdrawal cancelled")
}

func (s *WithdrawalService) terminate(requestID uint, newStatus, txStatus string, processedBy *uint, note, notifType, notifTitle string) (*models.WithdrawalRequest, error) {
	var req *models.WithdrawalRequest
	err := s.db.Transaction(func(tx *gorm.DB) error {
		wr, err := s.withdrawals.WithTx(tx).LockByID(requestID)
		if err != nil {
			return err
		}
		if wr.Status != domain.WithdrawalStatusPending {
			return fmt.Errorf("%w: request %d is %s", domain.ErrInvalidStateTransition, wr.ID, wr.Status)
		}
		ref := WithdrawalReference(wr.ID)
		meta := models.Metadata{domain.MetaWithdrawalRequestID: wr.ID}
		if _, err := s.wallet.AddFunds(tx, wr.UserID, wr.AmountCents, domain.TxTypeRefund,
			domain.TxStatusCompleted, "refund_"+ref, meta); err != nil {
			return err
		}
		if _, err := s.wallet.SettleFrozen(tx, wr.UserID, ref, txStatus); err != nil {
			return err
		}
		now := time.Now()
		wr.Status = newStatus
		wr.AdminNote = note
		wr.ProcessedBy = processedBy
		wr.ProcessedAt = &now
		wr.RefundAt = &now
		if err := s.withdrawals.WithTx(tx).Update(wr); err != nil {
			return err
		}
		if err := s.notifier.Notify(tx, wr.UserID, notifType, notifTitle,
			fmt.Sprintf("%s of %s has been refunded to your wallet", notifTitle, money.Format(wr.AmountCents, "USD"))); err != nil {
			return err
		}
		req = wr
		return nil
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// Delete prunes an approved request and its linked transaction record.
// Funds left definitively at approval, so this never touches balances.
func (s *WithdrawalService) Delete(requestID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		wr, err := s.withdrawals.WithTx(tx).LockByID(requestID)
		if err != nil {
			return err
		}
		if wr.Status != domain.WithdrawalStatusApproved {
			return fmt.Errorf("%w: only approved requests can be deleted, request %d is %s",
				domain.ErrInvalidStateTransition, wr.ID, wr.Status)
		}
		wallets := s.wallet.wallets.WithTx(tx)
		if err := wallets.DeleteTransactionByReference(WithdrawalReference(wr.ID)); err != nil {
			return err
		}
		return s.withdrawals.WithTx(tx).Delete(wr)
	})
}

func (s *WithdrawalService) Get(requestID uint) (*models.WithdrawalRequest, error) {
	return s.withdrawals.GetByID(requestID)
}

func (s *WithdrawalService) List(f repository.WithdrawalFilter) ([]models.WithdrawalRequest, int64, error) {
	return s.withdrawals.List(f)
}

func (s *WithdrawalService) Stats() (*repository.WithdrawalStats, error) {
	return s.withdrawals.Stats()
}

// HandleGatewayCallback records the asynchronous payout outcome. Replays
// are ignored once a terminal gateway status is recorded; balances are
// never touched here (they settled at approval).
func (s *WithdrawalService) HandleGatewayCallback(orderID, status, sessionID string) error {
	wr, err := s.withdrawals.GetByOrderID(orderID)
	if err != nil {
		return err
	}
	if wr.GatewayStatus == domain.GatewayStatusCompleted || wr.GatewayStatus == domain.GatewayStatusFailed {
		log.Printf("[Payout callback] request %d already %s, ignoring replay", wr.ID, wr.GatewayStatus)
		return nil
	}
	wr.GatewayStatus = status
	if sessionID != "" {
		wr.ProviderRef = sessionID
	}
	if err := s.withdrawals.Update(wr); err != nil {
		return err
	}
	if status == domain.GatewayStatusFailed {
		return s.notifier.NotifyAdmins(s.db, domain.NotifPayoutFailed,
			"Payout failed",
			fmt.Sprintf("Gateway payout for withdrawal request %d (order %s) failed; retry required", wr.ID, wr.OrderID))
	}
	return nil
}

// RetryPayout re-initiates the gateway payout for an approved request
// whose previous attempt failed.
func (s *WithdrawalService) RetryPayout(ctx context.Context, requestID uint) error {
	wr, err := s.withdrawals.GetByID(requestID)
	if err != nil {
		return err
	}
	if wr.Status != domain.WithdrawalStatusApproved {
		return fmt.Errorf("%w: request %d is %s", domain.ErrInvalidStateTransition, wr.ID, wr.Status)
	}
	if wr.GatewayStatus == domain.GatewayStatusCompleted {
		return nil
	}
	wr.GatewayStatus = ""
	return s.initiatePayout(ctx, wr)
}
