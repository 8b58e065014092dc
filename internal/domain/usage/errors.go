package usage

import "errors"

var (
	ErrNegativeUsage = errors.New("usage amounts must not be negative")
	ErrInvalidPeriod = errors.New("invalid period key")
)
