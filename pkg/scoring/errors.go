package scoring

import "errors"

// Sentinel error kinds for this package. These allow errors.Is from callers.
var (
	ErrInvalidVersion = errors.New("invalid version")
	ErrEmptyInput     = errors.New("empty input")
	ErrLengthMismatch = errors.New("length mismatch")
	ErrNegativeFactor = errors.New("negative distribution factor")
	ErrNegativeCount  = errors.New("negative participant count")
	ErrInvalidValue   = errors.New("invalid value")
)
