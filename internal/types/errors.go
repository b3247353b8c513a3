package types

import "errors"

// One sentinel per failure class. Every operation aborts on the first error
// with no partial state mutation; pkg/response maps these to HTTP statuses.
var (
	// ErrValidation covers malformed input: oversized strings, an amount
	// outside [MinBet, MaxBet], an end time not in the future.
	ErrValidation = errors.New("validation failed")

	// ErrWrongState is an operation attempted from an illegal lifecycle
	// state, including a second claim on an already claimed bid.
	ErrWrongState = errors.New("wrong lifecycle state")

	// ErrDeadline is a temporal precondition violation: betting after the
	// market ended, or settling before it ended.
	ErrDeadline = errors.New("deadline constraint violated")

	// ErrUnauthorized means the caller is not the required authority or
	// owner for the entity.
	ErrUnauthorized = errors.New("caller not authorized")

	// ErrIndexConflict means the supplied bid index does not match the
	// market's next index.
	ErrIndexConflict = errors.New("bid index conflict")

	// ErrNotAWinner is a winnings claim on a bid whose option lost.
	ErrNotAWinner = errors.New("bid did not win")

	// ErrInsufficientFunds means an account lacks balance for a transfer.
	// For escrow releases this should be unreachable when stake accounting
	// is correct; it is surfaced, never recovered.
	ErrInsufficientFunds = errors.New("insufficient funds")
)
