package models

import "errors"

// Engine error taxonomy. Recoverable errors are logged and the sync cycle
// continues with partial results; fatal errors abort the account's cycle
// before anything is committed.
var (
	// ErrMalformedEffect marks a raw ledger record missing a required
	// asset or amount field for its declared type. Recoverable: the
	// record is dropped and the batch continues.
	ErrMalformedEffect = errors.New("malformed effect")

	// ErrUnmatchedClose marks a close with no open inventory covering it.
	// Recoverable: the position is flagged close_unk and kept, with no
	// profit computed.
	ErrUnmatchedClose = errors.New("no open position matches close")

	// ErrInsufficientOpenAmount is an invariant violation inside the
	// matcher: a close was applied to a peer that cannot absorb it.
	// Fatal for the account's sync cycle.
	ErrInsufficientOpenAmount = errors.New("insufficient open amount on matched position")

	// ErrMissingPriceData marks a valuation gap. Recoverable: the asset's
	// contribution is treated as zero.
	ErrMissingPriceData = errors.New("missing price data")

	// ErrZeroBaseInvestment means ROI is undefined for the window.
	ErrZeroBaseInvestment = errors.New("zero base investment")
)
