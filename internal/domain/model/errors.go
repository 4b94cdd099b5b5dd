package model

import "errors"

// Sentinel error kinds for this package.
var (
	// ErrInvalidRecord wraps every construction-time invariant violation.
	ErrInvalidRecord = errors.New("invalid record")
)
