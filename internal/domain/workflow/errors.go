package workflow

import "errors"

var (
	// ErrInvalidTransition is returned when a trigger is not permitted from the
	// voucher's current status
	ErrInvalidTransition = errors.New("voucher status transition not allowed")

	// ErrInvalidState is returned for a status outside the lifecycle
	ErrInvalidState = errors.New("unknown voucher status")

	// ErrUnknownPolicy is returned for an unrecognised transition policy name
	ErrUnknownPolicy = errors.New("unknown transition policy")
)
