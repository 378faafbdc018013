package service

import "errors"

// ErrRoundTooLarge is returned when a round exceeds the configured limits.
var ErrRoundTooLarge = errors.New("round too large")
