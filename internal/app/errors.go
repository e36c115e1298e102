package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrInvalidID  = errors.New("invalid id")
	ErrNotStarted = errors.New("service not started")
)
