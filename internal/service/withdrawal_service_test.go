package service

import (
	"context"
	"testing"

	"solifin/internal/domain"
	"solifin/internal/models"
	"solifin/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Fee math throughout: 4% global fee, 50% sponsor share of the system
// fee. Payout 5000 -> global fee 200 -> total 5200; with an eligible
// sponsor the commission is 100.

func TestSubmit_FreezesTotalAndCreatesPendingRequest(t *testing.T) {
	e := newTestEnv(t)
	u := e.createUser(t, "alice", domain.RoleUser)
	e.fund(t, u.ID, 10000)

	wr := e.submit(t, u.ID, 5000)

	assert.Equal(t, domain.WithdrawalStatusPending, wr.Status)
	assert.Equal(t, int64(5200), wr.AmountCents)
	assert.Equal(t, int64(5000), wr.PaymentDetails.PayoutAmountCents)
	assert.Equal(t, int64(200), wr.PaymentDetails.WithdrawalFeeCents)
	assert.Equal(t, int64(5200), wr.PaymentDetails.TotalAmountCents)
	assert.NotEmpty(t, wr.OrderID)

	w := e.walletOf(t, u.ID)
	assert.Equal(t, int64(4800), w.BalanceCents)

	frozen, err := e.wallets.GetTransactionByReference(w.ID, WithdrawalReference(wr.ID))
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusPending, frozen.Status)
	assert.Equal(t, int64(5200), frozen.AmountCents)
	assert.Equal(t, wr.ID, frozen.Metadata.GetUint(domain.MetaWithdrawalRequestID))
}

func TestSubmit_InsufficientBalanceLeavesNoTrace(t *testing.T) {
	e := newTestEnv(t)
	u := e.createUser(t, "alice", domain.RoleUser)
	e.fund(t, u.ID, 5000) // total with fee would be 5200

	_, err := e.svc.Submit(u.ID, SubmitInput{
		PayoutAmountCents: 5000,
		Currency:          "USD",
		PaymentMethod:     "mpesa",
		PhoneNumber:       "243810000001",
		Password:          testPassword,
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	assert.Equal(t, int64(5000), e.walletOf(t, u.ID).BalanceCents)
	var count int64
	e.db.Model(&models.WithdrawalRequest{}).Count(&count)
	assert.Zero(t, count, "failed submission must not leave a request row")
}

func TestSubmit_WrongPasswordRejected(t *testing.T) {
	e := newTestEnv(t)
	u := e.createUser(t, "alice", domain.RoleUser)
	e.fund(t, u.ID, 10000)

	_, err := e.svc.Submit(u.ID, SubmitInput{
		PayoutAmountCents: 5000,
		Currency:          "USD",
		PaymentMethod:     "mpesa",
		Password:          "not-the-password",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	assert.Equal(t, int64(10000), e.walletOf(t, u.ID).BalanceCents)
}

func TestApprove_SettlesLedgerAndPaysSponsor(t *testing.T) {
	e := newTestEnv(t)
	admin := e.createUser(t, "admin", domain.RoleAdmin)
	sponsor := e.createUser(t, "bob", domain.RoleUser)
	u := e.createUser(t, "alice", domain.RoleUser)
	pack := e.createPack(t, "gold")
	e.subscribe(t, sponsor.ID, pack.ID, nil, domain.PackStatusActive)
	e.subscribe(t, u.ID, pack.ID, &sponsor.ID, domain.PackStatusActive)
	e.fund(t, u.ID, 10000)

	wr := e.submit(t, u.ID, 5000)
	got, err := e.svc.Approve(context.Background(), admin.ID, wr.ID, "ok")
	require.NoError(t, err)

	assert.Equal(t, domain.WithdrawalStatusApproved, got.Status)
	assert.Equal(t, admin.ID, *got.ProcessedBy)
	assert.NotNil(t, got.ProcessedAt)
	assert.NotNil(t, got.PaidAt)
	assert.Equal(t, int64(100), got.PaymentDetails.SponsorCommissionCents)

	// Requester: frozen debit settled, total_withdrawn advanced.
	uw := e.walletOf(t, u.ID)
	assert.Equal(t, int64(4800), uw.BalanceCents)
	assert.Equal(t, int64(5200), uw.TotalWithdrawnCents)
	settled, err := e.wallets.GetTransactionByReference(uw.ID, WithdrawalReference(wr.ID))
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusCompleted, settled.Status)

	// Sponsor: half the system fee, labelled as a commission.
	sw := e.walletOf(t, sponsor.ID)
	assert.Equal(t, int64(100), sw.BalanceCents)
	commission, err := e.wallets.GetTransactionByReference(sw.ID, WithdrawalReference(wr.ID))
	require.NoError(t, err)
	assert.Equal(t, domain.TxTypeCommission, commission.Type)
	assert.Equal(t, domain.DirectionIn, commission.Direction)

	// Treasury: credited the total minus the commission, and the
	// commission payout mirrored as a debit.
	tw, err := e.treasury.Get()
	require.NoError(t, err)
	assert.Equal(t, int64(5000), tw.BalanceCents)
	assert.Equal(t, int64(5100), tw.TotalInCents)
	assert.Equal(t, int64(100), tw.TotalOutCents)

	// Gateway payout went out once, for the payout amount only.
	require.Len(t, e.stub.Requests, 1)
	assert.Equal(t, int64(5000), e.stub.Requests[0].AmountCents)
	assert.Equal(t, wr.OrderID, e.stub.Requests[0].Reference)

	assert.Equal(t, uw.BalanceCents, e.ledgerDelta(t, uw.ID))
	assert.Equal(t, sw.BalanceCents, e.ledgerDelta(t, sw.ID))
}

func TestApprove_NoSponsorKeepsFullFee(t *testing.T) {
	e := newTestEnv(t)
	admin := e.createUser(t, "admin", domain.RoleAdmin)
	u := e.createUser(t, "alice", domain.RoleUser)
	e.fund(t, u.ID, 10000)

	wr := e.submit(t, u.ID, 5000)
	got, err := e.svc.Approve(context.Background(), admin.ID, wr.ID, "")
	require.NoError(t, err)
	assert.Zero(t, got.PaymentDetails.SponsorCommissionCents)

	tw, err := e.treasury.Get()
	require.NoError(t, err)
	assert.Equal(t, int64(5200), tw.BalanceCents)
	assert.Zero(t, tw.TotalOutCents)
}

func TestApprove_InactiveSponsorEarnsNothing(t *testing.T) {
	e := newTestEnv(t)
	admin := e.createUser(t, "admin", domain.RoleAdmin)
	sponsor := e.createUser(t, "bob", domain.RoleUser)
	u := e.createUser(t, "alice", domain.RoleUser)
	pack := e.createPack(t, "gold")
	e.subscribe(t, sponsor.ID, pack.ID, nil, domain.PackStatusExpired)
	e.subscribe(t, u.ID, pack.ID, &sponsor.ID, domain.PackStatusActive)
	e.fund(t, u.ID, 10000)

	wr := e.submit(t, u.ID, 5000)
	got, err := e.svc.Approve(context.Background(), admin.ID, wr.ID, "")
	require.NoError(t, err)
	assert.Zero(t, got.PaymentDetails.SponsorCommissionCents)
	// The sponsor never earned anything, so no wallet was ever created.
	sw, err := e.wallet.Balance(sponsor.ID)
	require.NoError(t, err)
	assert.Zero(t, sw.BalanceCents)
}

func TestApprove_SponsorEligibilityReadAtApprovalTime(t *testing.T) {
	e := newTestEnv(t)
	admin := e.createUser(t, "admin", domain.RoleAdmin)
	sponsor := e.createUser(t, "bob", domain.RoleUser)
	u := e.createUser(t, "alice", domain.RoleUser)
	pack := e.createPack(t, "gold")
	e.subscribe(t, u.ID, pack.ID, &sponsor.ID, domain.PackStatusActive)
	e.fund(t, u.ID, 10000)

	// Sponsor has no subscription when the request is submitted...
	wr := e.submit(t, u.ID, 5000)
	// ...but activates one before the admin approves.
	e.subscribe(t, sponsor.ID, pack.ID, nil, domain.PackStatusActive)

	got, err := e.svc.Approve(context.Background(), admin.ID, wr.ID, "")
	require.NoError(t, err)
	assert.Equal(t, int64(100), got.PaymentDetails.SponsorCommissionCents)
	assert.Equal(t, int64(100), e.walletOf(t, sponsor.ID).BalanceCents)
}

func TestApprove_TerminalStatesAreFinal(t *testing.T) {
	e := newTestEnv(t)
	admin := e.createUser(t, "admin", domain.RoleAdmin)
	u := e.createUser(t, "alice", domain.RoleUser)
	e.fund(t, u.ID, 10000)

	wr := e.submit(t, u.ID, 5000)
	_, err := e.svc.Approve(context.Background(), admin.ID, wr.ID, "")
	require.NoError(t, err)

	_, err = e.svc.Approve(context.Background(), admin.ID, wr.ID, "")
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
	_, err = e.svc.Reject(admin.ID, wr.ID, "too late")
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
	_, err = e.svc.Cancel(u.ID, wr.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)

	// The settlement happened exactly once.
	tw, err := e.treasury.Get()
	require.NoError(t, err)
	assert.Equal(t, int64(5200), tw.TotalInCents)
	assert.Equal(t, int64(5200), e.walletOf(t, u.ID).TotalWithdrawnCents)
}

func TestReject_RefundsFrozenAmountOnce(t *testing.T) {
	e := newTestEnv(t)
	admin := e.createUser(t, "admin", domain.RoleAdmin)
	u := e.createUser(t, "alice", domain.RoleUser)
	e.fund(t, u.ID, 10000)

	wr := e.submit(t, u.ID, 5000)
	got, err := e.svc.Reject(admin.ID, wr.ID, "details unverifiable")
	require.NoError(t, err)

	assert.Equal(t, domain.WithdrawalStatusRejected, got.Status)
	assert.Equal(t, "details unverifiable", got.AdminNote)
	assert.NotNil(t, got.RefundAt)

	w := e.walletOf(t, u.ID)
	assert.Equal(t, int64(10000), w.BalanceCents)
	assert.Zero(t, w.TotalWithdrawnCents)

	frozen, err := e.wallets.GetTransactionByReference(w.ID, WithdrawalReference(wr.ID))
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusRejected, frozen.Status)
	refund, err := e.wallets.GetTransactionByReference(w.ID, "refund_"+WithdrawalReference(wr.ID))
	require.NoError(t, err)
	assert.Equal(t, domain.TxTypeRefund, refund.Type)
	assert.Equal(t, int64(5200), refund.AmountCents)

	_, err = e.svc.Reject(admin.ID, wr.ID, "again")
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
	assert.Equal(t, int64(10000), e.walletOf(t, u.ID).BalanceCents)
}

func TestCancel_OwnerOnly(t *testing.T) {
	e := newTestEnv(t)
	u := e.createUser(t, "alice", domain.RoleUser)
	other := e.createUser(t, "mallory", domain.RoleUser)
	e.fund(t, u.ID, 10000)

	wr := e.submit(t, u.ID, 5000)
	_, err := e.svc.Cancel(other.ID, wr.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	got, err := e.svc.Get(wr.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalStatusPending, got.Status)

	got, err = e.svc.Cancel(u.ID, wr.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalStatusCancelled, got.Status)
	assert.Equal(t, int64(10000), e.walletOf(t, u.ID).BalanceCents)
}

func TestDelete_OnlyApprovedRequests(t *testing.T) {
	e := newTestEnv(t)
	admin := e.createUser(t, "admin", domain.RoleAdmin)
	u := e.createUser(t, "alice", domain.RoleUser)
	e.fund(t, u.ID, 10000)

	wr := e.submit(t, u.ID, 5000)
	assert.ErrorIs(t, e.svc.Delete(wr.ID), domain.ErrInvalidStateTransition)

	_, err := e.svc.Approve(context.Background(), admin.ID, wr.ID, "")
	require.NoError(t, err)
	require.NoError(t, e.svc.Delete(wr.ID))

	_, err = e.svc.Get(wr.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	w := e.walletOf(t, u.ID)
	_, err = e.wallets.GetTransactionByReference(w.ID, WithdrawalReference(wr.ID))
	assert.ErrorIs(t, err, domain.ErrNotFound)
	// Pruning history never touches balances.
	assert.Equal(t, int64(4800), w.BalanceCents)
}

func TestApprove_FeeMisconfigurationLeavesRequestPending(t *testing.T) {
	e := newTestEnv(t)
	admin := e.createUser(t, "admin", domain.RoleAdmin)
	u := e.createUser(t, "alice", domain.RoleUser)
	e.fund(t, u.ID, 10000)

	wr := e.submit(t, u.ID, 5000)
	// A 10% method fee exceeds the 4% global fee: negative system revenue.
	require.NoError(t, e.fees.Upsert(&models.TransactionFee{
		PaymentMethod: "mpesa", Active: true, FeePercentage: 10,
	}))

	_, err := e.svc.Approve(context.Background(), admin.ID, wr.ID, "")
	assert.ErrorIs(t, err, domain.ErrFeeConfiguration)

	got, err := e.svc.Get(wr.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalStatusPending, got.Status)
	assert.Equal(t, int64(4800), e.walletOf(t, u.ID).BalanceCents)
	_, err = e.treasury.Get()
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestApprove_MissingExchangeRateRollsBack(t *testing.T) {
	e := newTestEnv(t)
	admin := e.createUser(t, "admin", domain.RoleAdmin)
	u := e.createUser(t, "alice", domain.RoleUser)
	e.fund(t, u.ID, 10000)

	wr, err := e.svc.Submit(u.ID, SubmitInput{
		PayoutAmountCents: 5000,
		Currency:          "CDF",
		PaymentMethod:     "mpesa",
		PhoneNumber:       "243810000001",
		Password:          testPassword,
	})
	require.NoError(t, err)

	_, err = e.svc.Approve(context.Background(), admin.ID, wr.ID, "")
	assert.ErrorIs(t, err, domain.ErrMissingExchangeRate)
	got, err := e.svc.Get(wr.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalStatusPending, got.Status)

	// Once a rate exists the approval proceeds and records it.
	require.NoError(t, e.rates.Create(&models.ExchangeRate{
		FromCurrency: "USD", ToCurrency: "CDF", Rate: 2850,
	}))
	_, err = e.svc.Approve(context.Background(), admin.ID, wr.ID, "")
	require.NoError(t, err)

	var txs []models.SystemWalletTransaction
	require.NoError(t, e.db.Find(&txs).Error)
	require.Len(t, txs, 1)
	assert.EqualValues(t, 2850, txs[0].Metadata[domain.MetaExchangeRate])
}

func TestApprove_GatewayFailureKeepsLedgerCommitted(t *testing.T) {
	e := newTestEnv(t)
	admin := e.createUser(t, "admin", domain.RoleAdmin)
	u := e.createUser(t, "alice", domain.RoleUser)
	e.fund(t, u.ID, 10000)

	wr := e.submit(t, u.ID, 5000)
	e.stub.Fail = true
	got, err := e.svc.Approve(context.Background(), admin.ID, wr.ID, "")
	assert.ErrorIs(t, err, domain.ErrExternalServiceFailure)
	require.NotNil(t, got)
	assert.Equal(t, domain.WithdrawalStatusApproved, got.Status)

	// Ledger settled despite the failed payout; the payout is retryable.
	assert.Equal(t, int64(4800), e.walletOf(t, u.ID).BalanceCents)
	tw, err := e.treasury.Get()
	require.NoError(t, err)
	assert.Equal(t, int64(5200), tw.BalanceCents)

	e.stub.Fail = false
	require.NoError(t, e.svc.RetryPayout(context.Background(), wr.ID))
	assert.Len(t, e.stub.Requests, 2)
}

func TestHandleGatewayCallback_IdempotentOnTerminalStatus(t *testing.T) {
	e := newTestEnv(t)
	admin := e.createUser(t, "admin", domain.RoleAdmin)
	u := e.createUser(t, "alice", domain.RoleUser)
	e.fund(t, u.ID, 10000)

	wr := e.submit(t, u.ID, 5000)
	_, err := e.svc.Approve(context.Background(), admin.ID, wr.ID, "")
	require.NoError(t, err)
	balance := e.walletOf(t, u.ID).BalanceCents

	require.NoError(t, e.svc.HandleGatewayCallback(wr.OrderID, domain.GatewayStatusCompleted, "sess_1"))
	got, err := e.svc.Get(wr.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.GatewayStatusCompleted, got.GatewayStatus)
	assert.Equal(t, "sess_1", got.ProviderRef)

	// A contradictory replay is ignored; balances never move here.
	require.NoError(t, e.svc.HandleGatewayCallback(wr.OrderID, domain.GatewayStatusFailed, "sess_2"))
	got, err = e.svc.Get(wr.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.GatewayStatusCompleted, got.GatewayStatus)
	assert.Equal(t, "sess_1", got.ProviderRef)
	assert.Equal(t, balance, e.walletOf(t, u.ID).BalanceCents)
}

func TestHandleGatewayCallback_FailureNotifiesAdmins(t *testing.T) {
	e := newTestEnv(t)
	admin := e.createUser(t, "admin", domain.RoleAdmin)
	u := e.createUser(t, "alice", domain.RoleUser)
	e.fund(t, u.ID, 10000)

	wr := e.submit(t, u.ID, 5000)
	_, err := e.svc.Approve(context.Background(), admin.ID, wr.ID, "")
	require.NoError(t, err)

	require.NoError(t, e.svc.HandleGatewayCallback(wr.OrderID, domain.GatewayStatusFailed, ""))
	var notifs []models.Notification
	require.NoError(t, e.db.Where("user_id = ? AND type = ?", admin.ID, domain.NotifPayoutFailed).
		Find(&notifs).Error)
	assert.Len(t, notifs, 1)
}

func TestListAndStats(t *testing.T) {
	e := newTestEnv(t)
	admin := e.createUser(t, "admin", domain.RoleAdmin)
	u := e.createUser(t, "alice", domain.RoleUser)
	v := e.createUser(t, "carol", domain.RoleUser)
	e.fund(t, u.ID, 20000)
	e.fund(t, v.ID, 20000)

	a := e.submit(t, u.ID, 3000)
	e.submit(t, u.ID, 4000)
	e.submit(t, v.ID, 5000)
	_, err := e.svc.Approve(context.Background(), admin.ID, a.ID, "")
	require.NoError(t, err)

	list, total, err := e.svc.List(repository.WithdrawalFilter{UserID: u.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, list, 2)

	list, total, err = e.svc.List(repository.WithdrawalFilter{Status: domain.WithdrawalStatusPending})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, list, 2)

	stats, err := e.svc.Stats()
	require.NoError(t, err)
	byStatus := map[string]int64{}
	for _, s := range stats.ByStatus {
		byStatus[s.Status] = s.Count
	}
	assert.EqualValues(t, 1, byStatus[domain.WithdrawalStatusApproved])
	assert.EqualValues(t, 2, byStatus[domain.WithdrawalStatusPending])
	require.Len(t, stats.ByMethod, 1)
	assert.Equal(t, "mpesa", stats.ByMethod[0].PaymentMethod)
	assert.EqualValues(t, 3, stats.ByMethod[0].Count)
	require.Len(t, stats.ByMonth, 1)
}

// Conservation: for every wallet, the balance equals the signed sum of
// its ledger rows after a mixed run of transitions.
func TestLedgerConservationAcrossTransitions(t *testing.T) {
	e := newTestEnv(t)
	admin := e.createUser(t, "admin", domain.RoleAdmin)
	sponsor := e.createUser(t, "bob", domain.RoleUser)
	u := e.createUser(t, "alice", domain.RoleUser)
	pack := e.createPack(t, "gold")
	e.subscribe(t, sponsor.ID, pack.ID, nil, domain.PackStatusActive)
	e.subscribe(t, u.ID, pack.ID, &sponsor.ID, domain.PackStatusActive)
	e.fund(t, u.ID, 50000)

	approved := e.submit(t, u.ID, 5000)
	rejected := e.submit(t, u.ID, 7000)
	cancelled := e.submit(t, u.ID, 9000)
	e.submit(t, u.ID, 1000) // stays pending

	_, err := e.svc.Approve(context.Background(), admin.ID, approved.ID, "")
	require.NoError(t, err)
	_, err = e.svc.Reject(admin.ID, rejected.ID, "no")
	require.NoError(t, err)
	_, err = e.svc.Cancel(u.ID, cancelled.ID)
	require.NoError(t, err)

	uw := e.walletOf(t, u.ID)
	sw := e.walletOf(t, sponsor.ID)
	assert.Equal(t, e.ledgerDelta(t, uw.ID), uw.BalanceCents)
	assert.Equal(t, e.ledgerDelta(t, sw.ID), sw.BalanceCents)
	// 50000 funded, 5200 settled out, 1040 still frozen; refunds restored
	// the rejected and cancelled totals in full.
	assert.Equal(t, int64(43760), uw.BalanceCents)
	assert.Equal(t, int64(5200), uw.TotalWithdrawnCents)
}
