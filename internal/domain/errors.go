package domain

import "errors"

var (
	ErrInvalidAmount          = errors.New("amount must be positive")
	ErrInsufficientFunds      = errors.New("insufficient wallet balance")
	ErrInvalidStateTransition = errors.New("withdrawal request is not pending")
	ErrForbidden              = errors.New("forbidden")
	ErrNotFound               = errors.New("not found")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrFeeConfiguration       = errors.New("method fee exceeds global fee")
	ErrMissingExchangeRate    = errors.New("no exchange rate configured")
	ErrExternalServiceFailure = errors.New("payment gateway failure")
)
