package domain

import "errors"

var (
	// ErrInvalidConfig is returned when the process configuration cannot be used to start
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrChainMismatch is returned when the ledger endpoint serves a different chain than configured
	ErrChainMismatch = errors.New("ledger endpoint serves a different chain")

	// ErrLockHeld is returned when another process already holds the reconciler lock
	ErrLockHeld = errors.New("reconciler lock held by another process")

	// ErrRangeOutOfOrder is returned when a block range does not continue from the cursor
	ErrRangeOutOfOrder = errors.New("block range does not continue from cursor")

	// ErrEventOutOfOrder is returned when events are not in ascending log position
	ErrEventOutOfOrder = errors.New("events are not in ascending log order")

	// ErrEventOutsideRange is returned when an event does not belong to the range being applied
	ErrEventOutsideRange = errors.New("event outside of block range")
)
