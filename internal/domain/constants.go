package domain

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Withdrawal request lifecycle. Pending is the only non-terminal state.
const (
	WithdrawalStatusPending   = "pending"
	WithdrawalStatusApproved  = "approved"
	WithdrawalStatusRejected  = "rejected"
	WithdrawalStatusCancelled = "cancelled"
)

const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

const (
	TxStatusPending   = "pending"
	TxStatusCompleted = "completed"
	TxStatusCancelled = "cancelled"
	TxStatusRejected  = "rejected"
)

// Ledger transaction types keep the platform's historical French labels.
const (
	TxTypeWithdrawal = "withdrawal"
	TxTypeCommission = "commission de retrait"
	TxTypeRefund     = "remboursement"
	TxTypePurchase   = "purchase"
	TxTypeTransfer   = "transfer"
	TxTypeReception  = "reception"
)

const (
	PackStatusActive  = "active"
	PackStatusExpired = "expired"
)

const (
	PaymentStatusCompleted = "completed"
	PaymentStatusPending   = "pending"
)

// System setting keys.
const (
	SettingWithdrawalFeePct = "withdrawal_fee_percentage"
	SettingSponsorSharePct  = "withdrawal_sponsor_share_pct"
)

// Payout statuses as reported by the gateway callback.
const (
	GatewayStatusCompleted = "COMPLETED"
	GatewayStatusFailed    = "FAILED"
)

// Metadata keys the engine reads back.
const (
	MetaWithdrawalRequestID = "withdrawal_request_id"
	MetaSponsorID           = "sponsor_id"
	MetaExchangeRate        = "exchange_rate"
)

const (
	NotifWithdrawalRequested = "WITHDRAWAL_REQUESTED"
	NotifWithdrawalApproved  = "WITHDRAWAL_APPROVED"
	NotifWithdrawalRejected  = "WITHDRAWAL_REJECTED"
	NotifWithdrawalCancelled = "WITHDRAWAL_CANCELLED"
	NotifPayoutFailed        = "PAYOUT_FAILED"
)
