package wallet

import "errors"

var (
	// ErrNotOwned means neither viewing key opens a note. Aggregation drops
	// such notes, it never returns this error.
	ErrNotOwned = errors.New("note is not owned by this wallet")

	ErrMalformedInput         = errors.New("malformed input")
	ErrTransactionUnavailable = errors.New("transaction unavailable")
	ErrNotAReceiver           = errors.New("you are not a receiver of this transaction")
	ErrInsufficientBalance    = errors.New("amount not enough to send")
	ErrAmountOverflow         = errors.New("send amount overflows")
	ErrProofOrSignature       = errors.New("transaction failed to build or verify")
)
