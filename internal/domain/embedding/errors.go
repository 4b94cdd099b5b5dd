package embedding

import "errors"

// Sentinel error kinds for this package.
var (
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrEmbedTimeout      = errors.New("embedding timed out")
	ErrEmbedPanic        = errors.New("embedding backend panicked")
)
