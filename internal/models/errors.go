package models

import "errors"

// Domain errors shared across store backends and services. Callers match
// with errors.Is; anything else is a transient infrastructure failure.
var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidBet          = errors.New("invalid bet amount")
	ErrInvalidPayout       = errors.New("invalid payout")
	ErrAccountNotFound     = errors.New("account not found")
	ErrAccountExists       = errors.New("account already exists")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrNoRakebackAvailable = errors.New("no rakeback available")
	ErrInvalidUsername     = errors.New("invalid username")

	// ErrTxConflict is returned when an optimistic transaction exhausts its
	// retries. Distinct from every domain error so callers can retry.
	ErrTxConflict = errors.New("transaction conflict, retry")
)
