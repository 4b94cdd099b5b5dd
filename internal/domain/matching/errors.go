package matching

import "errors"

// Sentinel error kinds for this package.
var (
	ErrNilScorer            = errors.New("scorer is required")
	ErrDuplicateCandidate   = errors.New("duplicate candidate id")
	ErrDuplicateOpportunity = errors.New("duplicate opportunity id")
)
