package checkout

import "errors"

var (
	ErrBookingNotFound = errors.New("booking not found")
	ErrRateLimited     = errors.New("rate limited")
	// ErrPaymentRequired means a ticket mint was requested for a
	// booking with no successful payment behind it.
	ErrPaymentRequired = errors.New("payment required")
	// ErrMintInProgress means another request is already minting the
	// ticket for this booking.
	ErrMintInProgress = errors.New("ticket mint in progress")
)
