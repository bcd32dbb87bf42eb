package tickets

import "errors"

var (
	ErrTicketNotFound = errors.New("ticket not found")
	ErrBadPayload     = errors.New("invalid QR payload")
)
