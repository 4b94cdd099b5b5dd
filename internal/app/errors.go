package service

import "errors"

// Sentinel errors returned by Service.
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrBackpressure   = errors.New("allocation queue full")
	ErrNotStarted     = errors.New("service not started")
	ErrJobNotFound    = errors.New("job not found")
)
