package draw

import "errors"

// Errors
var (
	ErrNotOwner              = errors.New("only callable by owner")
	ErrNotWhitelisted        = errors.New("participant is not whitelisted")
	ErrPaused                = errors.New("entries are paused")
	ErrDrawNotFound          = errors.New("draw not found")
	ErrDrawNotOpen           = errors.New("draw is not open")
	ErrDrawNotClosed         = errors.New("draw is not closed")
	ErrDrawCancelled         = errors.New("draw is cancelled")
	ErrAlreadyEntered        = errors.New("participant already entered")
	ErrInvalidToken          = errors.New("invalid token identifier")
	ErrInvalidAmount         = errors.New("amount must be positive")
	ErrInvalidRecipient      = errors.New("invalid recipient address")
	ErrInvalidTierConfig     = errors.New("tier prize amount must be positive")
	ErrProbabilityExceedsMax = errors.New("total tier probability exceeds 100%")
	ErrInsufficientFunds     = errors.New("payout exceeds available funds")
	ErrUnknownRequest        = errors.New("unknown randomness request")
)
