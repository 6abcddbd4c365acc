package scheduler

import "errors"

// Sentinel errors returned by Submit in addition to the tool package ones.
var (
	ErrDenied        = errors.New("tool call denied")
	ErrInvalidConfig = errors.New("invalid scheduler config")
)
