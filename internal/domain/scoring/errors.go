package scoring

import "errors"

// Sentinel error kinds for this package.
var (
	ErrInvalidWeights = errors.New("invalid scoring weights")
	ErrUnknownTier    = errors.New("unknown qualification tier")
	ErrNilEmbedder    = errors.New("embedder is required")
	ErrScorerPanic    = errors.New("factor scorer panicked")
)
