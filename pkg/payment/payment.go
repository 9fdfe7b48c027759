package payment

import "context"

// PayoutRequest asks the mobile-money gateway to send funds to a phone.
type PayoutRequest struct {
	WalletID    uint
	PhoneNumber string // e.g. 243812345678
	AmountCents int64
	Currency    string
	Carrier     string // e.g. mpesa, orange, airtel
	Reference   string // unique order reference, echoed back in the callback
}

type PayoutResponse struct {
	Success    bool
	SessionID  string
	Status     string
	StatusCode string
}

type PayoutStatus struct {
	Status     string
	StatusCode string
}

// Provider is the outbound payment gateway boundary. The gateway confirms
// asynchronously via webhook; InitiatePayout only acknowledges acceptance.
type Provider interface {
	InitiatePayout(ctx context.Context, req PayoutRequest) (*PayoutResponse, error)
	CheckStatus(ctx context.Context, sessionID string) (*PayoutStatus, error)
}
