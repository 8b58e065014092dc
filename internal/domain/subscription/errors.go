package subscription

import "errors"

var (
	// ErrInvalidDuration is returned for a paid plan change without a known cadence
	ErrInvalidDuration = errors.New("invalid subscription duration")

	// ErrNoTerm is returned when renewing the base plan
	ErrNoTerm = errors.New("plan has no term to renew")
)
