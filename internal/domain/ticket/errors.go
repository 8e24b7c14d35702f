package ticket

import "errors"

var (
	// ErrTicketNotFound indicates the ticket doesn't exist.
	ErrTicketNotFound = errors.New("ticket not found")
	// ErrConflict indicates the ticket was modified by a concurrent request.
	ErrConflict = errors.New("ticket modified concurrently")
	// ErrInvalidInput indicates invalid ticket input.
	ErrInvalidInput = errors.New("invalid ticket input")
)
