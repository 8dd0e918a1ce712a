package portfolio

import "errors"

var (
	ErrInvalidTransaction   = errors.New("invalid transaction")
	ErrNoHolding            = errors.New("no holding to sell from")
	ErrInsufficientQuantity = errors.New("insufficient quantity")
	ErrHoldingNotFound      = errors.New("holding not found")
	ErrPersistenceFailed    = errors.New("persisting portfolio failed")
)
