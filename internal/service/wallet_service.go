package service

import (
	"fmt"

	"solifin/internal/domain"
	"solifin/internal/models"
	"solifin/internal/repository"
	"solifin/pkg/money"

	"gorm.io/gorm"
)

// WalletService owns balance mutation. Every mutation pairs the balance
// change with exactly one WalletTransaction row, under the wallet row's
// lock, inside the caller's transaction.
type WalletService struct {
	db      *gorm.DB
	wallets *repository.WalletRepository
}

func NewWalletService(db *gorm.DB, wallets *repository.WalletRepository) *WalletService {
	return &WalletService{db: db, wallets: wallets}
}

// WithdrawalReference is the linkage key between a withdrawal request and
// its frozen ledger row.
func WithdrawalReference(requestID uint) string {
	return fmt.Sprintf("withdrawal_request_%d", requestID)
}

// AddFunds credits the wallet and appends the matching "in" transaction.
// total_earned advances only for immediately completed credits.
func (s *WalletService) AddFunds(tx *gorm.DB, userID uint, amountCents int64, txType, status, reference string, meta models.Metadata) (*models.WalletTransaction, error) {
	if amountCents <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	wallets := s.wallets.WithTx(tx)
	w, err := wallets.GetOrCreateLocked(userID, "USD")
	if err != nil {
		return nil, err
	}
	w.BalanceCents += amountCents
	if status == domain.TxStatusCompleted {
		w.TotalEarnedCents += amountCents
	}
	if err := wallets.Save(w); err != nil {
		return nil, err
	}
	t := &models.WalletTransaction{
		WalletID:    w.ID,
		AmountCents: amountCents,
		Direction:   domain.DirectionIn,
		Type:        txType,
		Status:      status,
		Reference:   reference,
		Metadata:    meta,
	}
	if err := wallets.CreateTransaction(t); err != nil {
		return nil, err
	}
	return t, nil
}

// WithdrawFunds freezes funds: the spendable balance drops immediately and
// an "out" transaction is appended in the given status (typically pending),
// regardless of whether the money has actually left the system yet.
func (s *WalletService) WithdrawFunds(tx *gorm.DB, userID uint, amountCents int64, txType, status, reference string, meta models.Metadata) (*models.WalletTransaction, error) {
	if amountCents <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	wallets := s.wallets.WithTx(tx)
	w, err := wallets.GetOrCreateLocked(userID, "USD")
	if err != nil {
		return nil, err
	}
	if amountCents > w.BalanceCents {
		return nil, fmt.Errorf("%w: balance %s, requested %s",
			domain.ErrInsufficientFunds,
			money.Format(w.BalanceCents, w.Currency),
			money.Format(amountCents, w.Currency))
	}
	w.BalanceCents -= amountCents
	if status == domain.TxStatusCompleted {
		w.TotalWithdrawnCents += amountCents
	}
	if err := wallets.Save(w); err != nil {
		return nil, err
	}
	t := &models.WalletTransaction{
		WalletID:    w.ID,
		AmountCents: amountCents,
		Direction:   domain.DirectionOut,
		Type:        txType,
		Status:      status,
		Reference:   reference,
		Metadata:    meta,
	}
	if err := wallets.CreateTransaction(t); err != nil {
		return nil, err
	}
	return t, nil
}

// SettleFrozen flips the frozen withdrawal row in place to its terminal
// status. This is the one ledger row that is updated rather than appended,
// so it can track its withdrawal request's lifecycle. Completing it
// advances total_withdrawn; the funds left the balance at freeze time.
func (s *WalletService) SettleFrozen(tx *gorm.DB, userID uint, reference, newStatus string) (*models.WalletTransaction, error) {
	wallets := s.wallets.WithTx(tx)
	w, err := wallets.GetOrCreateLocked(userID, "USD")
	if err != nil {
		return nil, err
	}
	t, err := wallets.GetTransactionByReference(w.ID, reference)
	if err != nil {
		return nil, err
	}
	if t.Status != domain.TxStatusPending {
		return nil, fmt.Errorf("%w: transaction %d already %s", domain.ErrInvalidStateTransition, t.ID, t.Status)
	}
	t.Status = newStatus
	if err := wallets.SaveTransaction(t); err != nil {
		return nil, err
	}
	if newStatus == domain.TxStatusCompleted {
		w.TotalWithdrawnCents += t.AmountCents
		if err := wallets.Save(w); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Balance returns the wallet for display, creating it lazily.
func (s *WalletService) Balance(userID uint) (*models.Wallet, error) {
	return s.wallets.GetOrCreate(userID, "USD")
}

func (s *WalletService) Transactions(userID uint, limit, offset int) ([]models.WalletTransaction, error) {
	w, err := s.wallets.GetOrCreate(userID, "USD")
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	return s.wallets.ListTransactions(w.ID, limit, offset)
}
