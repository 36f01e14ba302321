package service

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrBookingNotFound   = errors.New("booking not found")
	ErrSlotUnavailable   = errors.New("slot already has an active booking")
	ErrAlreadyResolved   = errors.New("booking is already resolved")
	ErrWalletNotFound    = errors.New("wallet not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrPaymentGateway    = errors.New("payment gateway request failed")
)
